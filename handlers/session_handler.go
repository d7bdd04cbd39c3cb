package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taalumaworld/admin-access/internal/rbac"
	"github.com/taalumaworld/admin-access/middleware"
	"github.com/taalumaworld/admin-access/models"
	"github.com/taalumaworld/admin-access/services"
	"github.com/taalumaworld/admin-access/utils"
	"go.uber.org/zap"
)

// Permission check modes
const (
	CheckModeAny = "any"
	CheckModeAll = "all"
)

// SwitchRoleRequest is the body of PUT /api/v1/session/role
type SwitchRoleRequest struct {
	Role string `json:"role" validate:"required,admin_role"`
}

// SwitchRoleResponse reports the user after a role switch
type SwitchRoleResponse struct {
	User            *models.AdminUser `json:"user"`
	PreferenceSaved bool              `json:"preference_saved"`
}

// CheckPermissionsRequest is the body of POST /api/v1/session/check
type CheckPermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"dive,admin_permission"`
	Mode        string   `json:"mode"`
}

// CheckPermissionsResponse is the outcome of a permission check
type CheckPermissionsResponse struct {
	Mode        string                     `json:"mode"`
	Allowed     bool                       `json:"allowed"`
	Permissions map[models.Permission]bool `json:"permissions"`
}

// SectionAccessResponse is the outcome of a section access check
type SectionAccessResponse struct {
	Section models.Section `json:"section"`
	Allowed bool           `json:"allowed"`
}

// SessionCloser ends an admin session by subject
type SessionCloser interface {
	Close(ctx context.Context, subject string) error
}

// CookieClearer expires the auth cookie
type CookieClearer interface {
	ClearCookie(w http.ResponseWriter)
}

// SessionHandler serves the caller's own admin session
type SessionHandler struct {
	sessions SessionCloser
	cookies  CookieClearer
	logger   *zap.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessions SessionCloser, cookies CookieClearer, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		cookies:  cookies,
		logger:   logger,
	}
}

// HandleGetCurrent handles GET /api/v1/session
func (h *SessionHandler) HandleGetCurrent(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAdminUserFromContext(r.Context())
	if user == nil {
		HandleServiceError(w, services.ErrUnauthorized, h.logger)
		return
	}
	_ = utils.WriteOK(w, user)
}

// HandleSwitchRole handles PUT /api/v1/session/role
func (h *SessionHandler) HandleSwitchRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider := middleware.GetSessionFromContext(ctx)
	if provider == nil {
		HandleServiceError(w, services.ErrUnauthorized, h.logger)
		return
	}

	var req SwitchRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	saved := true
	if err := provider.SwitchRole(ctx, models.Role(req.Role)); err != nil {
		if !errors.Is(err, services.ErrPreferenceWrite) {
			HandleServiceError(w, err, h.logger)
			return
		}
		// the switch took effect; only persistence failed
		h.logger.Warn("role preference not saved",
			zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
			zap.String("sub", provider.Subject()),
			zap.Error(err))
		saved = false
	}

	user := provider.Current()
	if user == nil {
		HandleServiceError(w, services.ErrSessionClosed, h.logger)
		return
	}

	h.logger.Info("admin role switched",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.String("sub", user.Subject),
		zap.String("role", string(user.Role)))

	_ = utils.WriteOK(w, SwitchRoleResponse{User: user, PreferenceSaved: saved})
}

// HandleAccessibleSections handles GET /api/v1/session/sections
func (h *SessionHandler) HandleAccessibleSections(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAdminUserFromContext(r.Context())
	if user == nil {
		HandleServiceError(w, services.ErrUnauthorized, h.logger)
		return
	}
	_ = utils.WriteOK(w, rbac.AccessibleSections(user))
}

// HandleCheckPermissions handles POST /api/v1/session/check
func (h *SessionHandler) HandleCheckPermissions(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAdminUserFromContext(r.Context())
	if user == nil {
		HandleServiceError(w, services.ErrUnauthorized, h.logger)
		return
	}

	var req CheckPermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	mode, err := parseCheckMode(req.Mode)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	perms := make([]models.Permission, 0, len(req.Permissions))
	held := make(map[models.Permission]bool, len(req.Permissions))
	for _, p := range req.Permissions {
		perm := models.Permission(p)
		perms = append(perms, perm)
		held[perm] = rbac.HasPermission(user, perm)
	}

	var allowed bool
	if mode == CheckModeAll {
		allowed = rbac.HasAllPermissions(user, perms)
	} else {
		allowed = rbac.HasAnyPermission(user, perms)
	}

	_ = utils.WriteOK(w, CheckPermissionsResponse{
		Mode:        mode,
		Allowed:     allowed,
		Permissions: held,
	})
}

// HandleSectionAccess handles GET /api/v1/session/sections/{section}/access
func (h *SessionHandler) HandleSectionAccess(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAdminUserFromContext(r.Context())
	if user == nil {
		HandleServiceError(w, services.ErrUnauthorized, h.logger)
		return
	}

	section := models.Section(chi.URLParam(r, "section"))
	if !rbac.IsKnownSection(section) {
		HandleServiceError(w, services.ErrSectionNotFound.WithDetail("section", section), h.logger)
		return
	}

	_ = utils.WriteOK(w, SectionAccessResponse{
		Section: section,
		Allowed: rbac.CanAccessSection(user, section),
	})
}

// HandleEndSession handles DELETE /api/v1/session (logout)
func (h *SessionHandler) HandleEndSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.GetClaimsFromContext(ctx)
	if claims == nil {
		HandleServiceError(w, services.ErrUnauthorized, h.logger)
		return
	}

	if err := h.sessions.Close(ctx, claims.Sub); err != nil && !errors.Is(err, services.ErrSessionNotFound) {
		HandleServiceError(w, err, h.logger)
		return
	}

	if h.cookies != nil {
		h.cookies.ClearCookie(w)
	}

	h.logger.Info("admin session ended",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.String("sub", claims.Sub))

	utils.WriteNoContent(w)
}

// parseCheckMode defaults an empty mode to any
func parseCheckMode(mode string) (string, error) {
	switch mode {
	case "", CheckModeAny:
		return CheckModeAny, nil
	case CheckModeAll:
		return CheckModeAll, nil
	default:
		return "", services.ErrInvalidMode.WithDetail("mode", mode)
	}
}
