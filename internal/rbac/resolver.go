package rbac

import "github.com/taalumaworld/admin-access/models"

// HasPermission reports whether user holds permission.
// A nil user never holds anything.
func HasPermission(user *models.AdminUser, permission models.Permission) bool {
	if user == nil {
		return false
	}
	return user.Permissions.Has(permission)
}

// HasAnyPermission reports whether user holds at least one of permissions.
// An empty list grants nothing.
func HasAnyPermission(user *models.AdminUser, permissions []models.Permission) bool {
	if user == nil {
		return false
	}
	for _, p := range permissions {
		if user.Permissions.Has(p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether user holds every one of permissions.
// An empty list is satisfied by any non-nil user.
func HasAllPermissions(user *models.AdminUser, permissions []models.Permission) bool {
	if user == nil {
		return false
	}
	for _, p := range permissions {
		if !user.Permissions.Has(p) {
			return false
		}
	}
	return true
}

// CanAccessSection reports whether user may enter section
func CanAccessSection(user *models.AdminUser, section models.Section) bool {
	perms, ok := sectionPermissions[section]
	if !ok {
		return false
	}
	return HasAnyPermission(user, perms)
}

// AccessibleSections returns the sections user may enter, in canonical order
func AccessibleSections(user *models.AdminUser) []models.Section {
	out := make([]models.Section, 0, len(allSections))
	for _, section := range allSections {
		if CanAccessSection(user, section) {
			out = append(out, section)
		}
	}
	return out
}

// IsHigherRole reports whether a outranks b on the explicit rank table.
// Unranked roles compare false both ways.
func IsHigherRole(a, b models.Role) bool {
	rankA, okA := roleRanks[a]
	rankB, okB := roleRanks[b]
	if !okA || !okB {
		return false
	}
	return rankA > rankB
}
