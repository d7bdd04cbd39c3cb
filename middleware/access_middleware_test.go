package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taalumaworld/admin-access/internal/rbac"
	"github.com/taalumaworld/admin-access/models"
	"github.com/taalumaworld/admin-access/services"
	"github.com/taalumaworld/admin-access/utils"
	"go.uber.org/zap"
)

// captureRecorder collects access denial entries
type captureRecorder struct {
	mu      sync.Mutex
	entries []*models.ActivityLog
	err     error
}

func (c *captureRecorder) Record(_ context.Context, entry *models.ActivityLog) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
	return c.err
}

func adminWithRole(role models.Role) *models.AdminUser {
	return models.NewAdminUser(
		models.Identity{Subject: "user-1", Email: "amina@taalumaworld.com"},
		role,
		rbac.PermissionsForRole(role),
	)
}

func serveGuarded(guard func(http.Handler) http.Handler, user *models.AdminUser) (*httptest.ResponseRecorder, bool) {
	called := false
	handler := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/test", nil)
	if user != nil {
		req = req.WithContext(WithAdminUser(req.Context(), user))
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w, called
}

func TestAccessMiddleware_Guards(t *testing.T) {
	m := NewAccessMiddleware(nil, zap.NewNop())

	tests := []struct {
		name   string
		guard  func(http.Handler) http.Handler
		role   models.Role
		wantOK bool
	}{
		{"permission held", m.RequirePermission(models.PermProcessRefunds), models.RoleFinanceManager, true},
		{"permission missing", m.RequirePermission(models.PermProcessRefunds), models.RoleContentManager, false},
		{"any with one held", m.RequireAnyPermission(models.PermManageRoles, models.PermViewBooks), models.RoleContentManager, true},
		{"any with none held", m.RequireAnyPermission(models.PermManageRoles, models.PermViewPayments), models.RoleSupportAgent, false},
		{"any with empty list", m.RequireAnyPermission(), models.RoleSuperAdmin, false},
		{"all held", m.RequireAllPermissions(models.PermViewPayments, models.PermProcessRefunds), models.RoleFinanceManager, true},
		{"all with one missing", m.RequireAllPermissions(models.PermViewBooks, models.PermProcessRefunds), models.RoleContentManager, false},
		{"all with empty list", m.RequireAllPermissions(), models.RoleSupportAgent, true},
		{"section granted", m.RequireSection(models.SectionPayments), models.RoleFinanceManager, true},
		{"section denied", m.RequireSection(models.SectionRoles), models.RoleSupportAgent, false},
		{"unknown section", m.RequireSection(models.Section("casino")), models.RoleSuperAdmin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, called := serveGuarded(tt.guard, adminWithRole(tt.role))

			assert.Equal(t, tt.wantOK, called)
			if tt.wantOK {
				assert.Equal(t, http.StatusOK, w.Code)
			} else {
				assert.Equal(t, http.StatusForbidden, w.Code)
			}
		})
	}
}

func TestAccessMiddleware_MissingUser(t *testing.T) {
	m := NewAccessMiddleware(nil, zap.NewNop())

	w, called := serveGuarded(m.RequireSection(models.SectionDashboard), nil)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAccessMiddleware_RecordsDenial(t *testing.T) {
	rec := &captureRecorder{}
	m := NewAccessMiddleware(rec, zap.NewNop())

	_, called := serveGuarded(m.RequireSection(models.SectionPayments), adminWithRole(models.RoleSupportAgent))

	assert.False(t, called)
	require.Len(t, rec.entries, 1)
	entry := rec.entries[0]
	assert.Equal(t, models.ActivityAccessDenied, entry.Action)
	assert.Equal(t, models.RoleSupportAgent, entry.Role)
	assert.JSONEq(t,
		`{"check":"section","requirement":{"section":"payments"},"path":"/api/v1/test"}`,
		string(entry.Details))
}

func TestAccessMiddleware_AllowDoesNotRecord(t *testing.T) {
	rec := &captureRecorder{}
	m := NewAccessMiddleware(rec, zap.NewNop())

	_, called := serveGuarded(m.RequirePermission(models.PermViewBooks), adminWithRole(models.RoleContentManager))

	assert.True(t, called)
	assert.Empty(t, rec.entries)
}

func TestAccessMiddleware_RecorderFailureStillDenies(t *testing.T) {
	rec := &captureRecorder{err: services.ErrActivityBufferFull}
	m := NewAccessMiddleware(rec, zap.NewNop())

	w, called := serveGuarded(m.RequirePermission(models.PermManageRoles), adminWithRole(models.RoleSupportAgent))

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAccessMiddleware_DenialBody(t *testing.T) {
	m := NewAccessMiddleware(nil, zap.NewNop())

	w, called := serveGuarded(
		m.RequireAllPermissions(models.PermManageRoles, models.PermEditUsers),
		adminWithRole(models.RoleSupportAgent))

	assert.False(t, called)
	require.Equal(t, http.StatusForbidden, w.Code)

	var response utils.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "forbidden", response.Error)
	assert.Equal(t, services.ErrInsufficientPermissions.Message, response.Message)
	assert.Equal(t, "all_permissions", response.Details["check"])
	assert.Equal(t, map[string]interface{}{
		"permissions": []interface{}{"manage_roles", "edit_users"},
		"mode":        "all",
	}, response.Details["requirement"])
}
