package rbac

import "github.com/taalumaworld/admin-access/models"

// allPermissions is the closed catalog, grouped for readability only
var allPermissions = []models.Permission{
	// content
	models.PermViewBooks,
	models.PermCreateBooks,
	models.PermEditBooks,
	models.PermDeleteBooks,
	models.PermPublishBooks,
	models.PermViewChapters,
	models.PermCreateChapters,
	models.PermEditChapters,
	models.PermDeleteChapters,
	models.PermManageCategories,
	models.PermViewAuthors,
	models.PermManageAuthors,
	models.PermManagePages,
	// users
	models.PermViewUsers,
	models.PermEditUsers,
	models.PermDeleteUsers,
	models.PermManageRoles,
	models.PermViewActivityLogs,
	// commerce
	models.PermViewPayments,
	models.PermProcessRefunds,
	models.PermViewTransactions,
	models.PermExportFinancialData,
	// community
	models.PermViewReviews,
	models.PermModerateReviews,
	models.PermModerateComments,
	// system
	models.PermManageSettings,
	// analytics
	models.PermViewDashboard,
	models.PermViewAnalytics,
	models.PermViewReports,
	models.PermExportReports,
}

// allRoles lists the roles from highest to lowest privilege
var allRoles = []models.Role{
	models.RoleSuperAdmin,
	models.RoleContentManager,
	models.RoleFinanceManager,
	models.RoleAnalyticsManager,
	models.RoleSupportAgent,
}

// allSections is the canonical navigation order
var allSections = []models.Section{
	models.SectionDashboard,
	models.SectionBooks,
	models.SectionChapters,
	models.SectionCategories,
	models.SectionAuthors,
	models.SectionUsers,
	models.SectionRoles,
	models.SectionActivityLogs,
	models.SectionPayments,
	models.SectionTransactions,
	models.SectionReviews,
	models.SectionModeration,
	models.SectionSettings,
	models.SectionPages,
	models.SectionAnalytics,
	models.SectionReports,
}

// rolePermissions lists every role independently. super_admin is spelled
// out by hand, not derived from the catalog.
var rolePermissions = map[models.Role]models.PermissionSet{
	models.RoleSuperAdmin: models.NewPermissionSet(
		models.PermViewBooks,
		models.PermCreateBooks,
		models.PermEditBooks,
		models.PermDeleteBooks,
		models.PermPublishBooks,
		models.PermViewChapters,
		models.PermCreateChapters,
		models.PermEditChapters,
		models.PermDeleteChapters,
		models.PermManageCategories,
		models.PermViewAuthors,
		models.PermManageAuthors,
		models.PermManagePages,
		models.PermViewUsers,
		models.PermEditUsers,
		models.PermDeleteUsers,
		models.PermManageRoles,
		models.PermViewActivityLogs,
		models.PermViewPayments,
		models.PermProcessRefunds,
		models.PermViewTransactions,
		models.PermExportFinancialData,
		models.PermViewReviews,
		models.PermModerateReviews,
		models.PermModerateComments,
		models.PermManageSettings,
		models.PermViewDashboard,
		models.PermViewAnalytics,
		models.PermViewReports,
		models.PermExportReports,
	),
	models.RoleContentManager: models.NewPermissionSet(
		models.PermViewDashboard,
		models.PermViewBooks,
		models.PermCreateBooks,
		models.PermEditBooks,
		models.PermDeleteBooks,
		models.PermPublishBooks,
		models.PermViewChapters,
		models.PermCreateChapters,
		models.PermEditChapters,
		models.PermDeleteChapters,
		models.PermManageCategories,
		models.PermViewAuthors,
		models.PermManageAuthors,
		models.PermManagePages,
		models.PermViewReviews,
		models.PermViewAnalytics,
	),
	models.RoleSupportAgent: models.NewPermissionSet(
		models.PermViewUsers,
		models.PermEditUsers,
		models.PermModerateReviews,
		models.PermModerateComments,
		models.PermViewActivityLogs,
	),
	models.RoleAnalyticsManager: models.NewPermissionSet(
		models.PermViewDashboard,
		models.PermViewAnalytics,
		models.PermViewReports,
		models.PermExportReports,
		models.PermViewBooks,
		models.PermViewAuthors,
	),
	models.RoleFinanceManager: models.NewPermissionSet(
		models.PermViewDashboard,
		models.PermViewPayments,
		models.PermProcessRefunds,
		models.PermViewTransactions,
		models.PermExportFinancialData,
		models.PermViewReports,
	),
}

// sectionPermissions grants a section to anyone holding at least one of
// its listed permissions. This is the only section table in the module.
var sectionPermissions = map[models.Section][]models.Permission{
	models.SectionDashboard:    {models.PermViewDashboard, models.PermViewUsers},
	models.SectionBooks:        {models.PermViewBooks, models.PermCreateBooks, models.PermEditBooks, models.PermDeleteBooks, models.PermPublishBooks},
	models.SectionChapters:     {models.PermViewChapters, models.PermCreateChapters, models.PermEditChapters, models.PermDeleteChapters},
	models.SectionCategories:   {models.PermManageCategories},
	models.SectionAuthors:      {models.PermViewAuthors, models.PermManageAuthors},
	models.SectionUsers:        {models.PermViewUsers, models.PermEditUsers, models.PermDeleteUsers},
	models.SectionRoles:        {models.PermManageRoles},
	models.SectionActivityLogs: {models.PermViewActivityLogs},
	models.SectionPayments:     {models.PermViewPayments, models.PermProcessRefunds},
	models.SectionTransactions: {models.PermViewTransactions},
	models.SectionReviews:      {models.PermViewReviews, models.PermModerateReviews},
	models.SectionModeration:   {models.PermModerateReviews, models.PermModerateComments},
	models.SectionSettings:     {models.PermManageSettings},
	models.SectionPages:        {models.PermManagePages},
	models.SectionAnalytics:    {models.PermViewAnalytics},
	models.SectionReports:      {models.PermViewReports, models.PermExportReports},
}

// roleRanks is maintained by hand and does not follow permission counts.
// content_manager and finance_manager share a rank.
var roleRanks = map[models.Role]int{
	models.RoleSuperAdmin:       100,
	models.RoleContentManager:   60,
	models.RoleFinanceManager:   60,
	models.RoleAnalyticsManager: 40,
	models.RoleSupportAgent:     20,
}

// DefaultRole is used when no valid role preference exists
const DefaultRole = models.RoleSuperAdmin

// AllPermissions returns the permission catalog in catalog order
func AllPermissions() []models.Permission {
	out := make([]models.Permission, len(allPermissions))
	copy(out, allPermissions)
	return out
}

// AllRoles returns every role, highest privilege first
func AllRoles() []models.Role {
	out := make([]models.Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// AllSections returns every section in canonical order
func AllSections() []models.Section {
	out := make([]models.Section, len(allSections))
	copy(out, allSections)
	return out
}

// IsKnownPermission reports whether p belongs to the catalog
func IsKnownPermission(p models.Permission) bool {
	for _, known := range allPermissions {
		if known == p {
			return true
		}
	}
	return false
}

// IsKnownRole reports whether role is one of the enumerated roles
func IsKnownRole(role models.Role) bool {
	_, ok := rolePermissions[role]
	return ok
}

// IsKnownSection reports whether section is one of the enumerated sections
func IsKnownSection(section models.Section) bool {
	_, ok := sectionPermissions[section]
	return ok
}

// PermissionsForRole returns the permission set of role.
// Unknown roles get the empty set.
func PermissionsForRole(role models.Role) models.PermissionSet {
	perms, ok := rolePermissions[role]
	if !ok {
		return models.PermissionSet{}
	}
	return perms
}

// SectionPermissions returns the permissions unlocking section
func SectionPermissions(section models.Section) ([]models.Permission, bool) {
	perms, ok := sectionPermissions[section]
	if !ok {
		return nil, false
	}
	out := make([]models.Permission, len(perms))
	copy(out, perms)
	return out, true
}

// RoleRank returns the explicit rank of role
func RoleRank(role models.Role) (int, bool) {
	rank, ok := roleRanks[role]
	return rank, ok
}
