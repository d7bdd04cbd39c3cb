package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taalumaworld/admin-access/internal/rbac"
	"github.com/taalumaworld/admin-access/models"
	"github.com/taalumaworld/admin-access/services"
	"github.com/taalumaworld/admin-access/utils"
	"go.uber.org/zap"
)

// RoleSummary is one row of the role listing
type RoleSummary struct {
	Role            models.Role `json:"role"`
	Rank            int         `json:"rank"`
	PermissionCount int         `json:"permission_count"`
}

// RoleDetail is one row of the roles admin screen
type RoleDetail struct {
	RoleSummary
	Permissions []models.Permission `json:"permissions"`
	Sections    []models.Section    `json:"sections"`
}

// SectionSummary describes which permissions open a section
type SectionSummary struct {
	Section     models.Section      `json:"section"`
	Permissions []models.Permission `json:"permissions"`
}

// RoleComparison is the response of GET /roles/compare
type RoleComparison struct {
	A       models.Role `json:"a"`
	B       models.Role `json:"b"`
	AHigher bool        `json:"a_higher"`
	BHigher bool        `json:"b_higher"`
}

// RBACHandler serves the static permission model
type RBACHandler struct {
	logger *zap.Logger
}

// NewRBACHandler creates a new RBACHandler
func NewRBACHandler(logger *zap.Logger) *RBACHandler {
	return &RBACHandler{logger: logger}
}

// HandleListPermissions handles GET /api/v1/rbac/permissions
func (h *RBACHandler) HandleListPermissions(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, rbac.AllPermissions())
}

// HandleListRoles handles GET /api/v1/rbac/roles
func (h *RBACHandler) HandleListRoles(w http.ResponseWriter, r *http.Request) {
	roles := rbac.AllRoles()
	summaries := make([]RoleSummary, 0, len(roles))
	for _, role := range roles {
		summaries = append(summaries, roleSummary(role))
	}
	_ = utils.WriteOK(w, summaries)
}

// HandleRolePermissions handles GET /api/v1/rbac/roles/{role}/permissions
func (h *RBACHandler) HandleRolePermissions(w http.ResponseWriter, r *http.Request) {
	role := models.Role(chi.URLParam(r, "role"))
	if !rbac.IsKnownRole(role) {
		HandleServiceError(w, services.ErrRoleNotFound.WithDetail("role", role), h.logger)
		return
	}
	_ = utils.WriteOK(w, rbac.PermissionsForRole(role).Slice())
}

// HandleCompareRoles handles GET /api/v1/rbac/roles/compare?a=&b=
func (h *RBACHandler) HandleCompareRoles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	a := models.Role(query.Get("a"))
	b := models.Role(query.Get("b"))

	for _, role := range []models.Role{a, b} {
		if !rbac.IsKnownRole(role) {
			HandleServiceError(w, services.ErrUnknownRole.WithDetail("role", role), h.logger)
			return
		}
	}

	_ = utils.WriteOK(w, RoleComparison{
		A:       a,
		B:       b,
		AHigher: rbac.IsHigherRole(a, b),
		BHigher: rbac.IsHigherRole(b, a),
	})
}

// HandleListSections handles GET /api/v1/rbac/sections
func (h *RBACHandler) HandleListSections(w http.ResponseWriter, r *http.Request) {
	sections := rbac.AllSections()
	summaries := make([]SectionSummary, 0, len(sections))
	for _, section := range sections {
		perms, _ := rbac.SectionPermissions(section)
		summaries = append(summaries, SectionSummary{Section: section, Permissions: perms})
	}
	_ = utils.WriteOK(w, summaries)
}

// HandleAdminRoles handles GET /api/v1/admin/roles, the roles screen
func (h *RBACHandler) HandleAdminRoles(w http.ResponseWriter, r *http.Request) {
	roles := rbac.AllRoles()
	details := make([]RoleDetail, 0, len(roles))
	for _, role := range roles {
		probe := models.NewAdminUser(models.Identity{}, role, rbac.PermissionsForRole(role))
		details = append(details, RoleDetail{
			RoleSummary: roleSummary(role),
			Permissions: probe.Permissions.Slice(),
			Sections:    rbac.AccessibleSections(probe),
		})
	}
	_ = utils.WriteOK(w, details)
}

func roleSummary(role models.Role) RoleSummary {
	rank, _ := rbac.RoleRank(role)
	return RoleSummary{
		Role:            role,
		Rank:            rank,
		PermissionCount: rbac.PermissionsForRole(role).Len(),
	}
}
