package middleware

import (
	"net/http"

	"github.com/taalumaworld/admin-access/internal/observability"
	"github.com/taalumaworld/admin-access/internal/rbac"
	"github.com/taalumaworld/admin-access/internal/session"
	"github.com/taalumaworld/admin-access/models"
	"github.com/taalumaworld/admin-access/services"
	"github.com/taalumaworld/admin-access/utils"
	"go.uber.org/zap"
)

// Decision kinds reported in metrics and access_denied entries
const (
	checkPermission     = "permission"
	checkAnyPermission  = "any_permission"
	checkAllPermissions = "all_permissions"
	checkSection        = "section"
)

// AccessMiddleware gates routes on the current admin user's permissions.
// It must run after AuthMiddleware.LoadSession.
type AccessMiddleware struct {
	recorder session.ActivityRecorder
	logger   *zap.Logger
}

// NewAccessMiddleware creates a new AccessMiddleware
func NewAccessMiddleware(recorder session.ActivityRecorder, logger *zap.Logger) *AccessMiddleware {
	return &AccessMiddleware{
		recorder: recorder,
		logger:   logger,
	}
}

// RequirePermission allows the request only if the user holds permission
func (m *AccessMiddleware) RequirePermission(permission models.Permission) func(http.Handler) http.Handler {
	details := map[string]interface{}{"permission": permission}
	return m.guard(checkPermission, details, func(user *models.AdminUser) bool {
		return rbac.HasPermission(user, permission)
	})
}

// RequireAnyPermission allows the request if the user holds at least one of permissions
func (m *AccessMiddleware) RequireAnyPermission(permissions ...models.Permission) func(http.Handler) http.Handler {
	details := map[string]interface{}{"permissions": permissions, "mode": "any"}
	return m.guard(checkAnyPermission, details, func(user *models.AdminUser) bool {
		return rbac.HasAnyPermission(user, permissions)
	})
}

// RequireAllPermissions allows the request only if the user holds every one of permissions
func (m *AccessMiddleware) RequireAllPermissions(permissions ...models.Permission) func(http.Handler) http.Handler {
	details := map[string]interface{}{"permissions": permissions, "mode": "all"}
	return m.guard(checkAllPermissions, details, func(user *models.AdminUser) bool {
		return rbac.HasAllPermissions(user, permissions)
	})
}

// RequireSection allows the request only if the user may enter section
func (m *AccessMiddleware) RequireSection(section models.Section) func(http.Handler) http.Handler {
	details := map[string]interface{}{"section": section}
	return m.guard(checkSection, details, func(user *models.AdminUser) bool {
		return rbac.CanAccessSection(user, section)
	})
}

func (m *AccessMiddleware) guard(kind string, details map[string]interface{}, allowed func(*models.AdminUser) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestIDFromContext(ctx)

			user := GetAdminUserFromContext(ctx)
			if user == nil {
				m.logger.Error("admin user not found in context",
					zap.String("request_id", requestID))
				_ = utils.WriteUnauthorized(w, "Authentication required")
				return
			}

			if !allowed(user) {
				observability.RecordAccessDecision(kind, string(user.Role), false)
				m.logger.Warn("access denied",
					zap.String("request_id", requestID),
					zap.String("sub", user.Subject),
					zap.String("role", string(user.Role)),
					zap.String("check", kind),
					zap.Any("requirement", details))

				if m.recorder != nil {
					entry := models.NewActivityLog(user, models.ActivityAccessDenied).
						WithDetails(map[string]interface{}{
							"check":       kind,
							"requirement": details,
							"path":        r.URL.Path,
						})
					if err := m.recorder.Record(ctx, entry); err != nil {
						m.logger.Warn("failed to record access denial",
							zap.String("request_id", requestID),
							zap.Error(err))
					}
				}

				denied := services.ErrInsufficientPermissions.
					WithDetail("check", kind).
					WithDetail("requirement", details)
				_ = utils.WriteError(w, http.StatusForbidden, denied.Message, denied.Details)
				return
			}

			observability.RecordAccessDecision(kind, string(user.Role), true)
			next.ServeHTTP(w, r)
		})
	}
}
