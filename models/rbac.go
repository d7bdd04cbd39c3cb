package models

import (
	"encoding/json"
	"sort"
)

// Permission is an opaque capability token gating one admin action or view
type Permission string

// Content permissions
const (
	PermViewBooks        Permission = "view_books"
	PermCreateBooks      Permission = "create_books"
	PermEditBooks        Permission = "edit_books"
	PermDeleteBooks      Permission = "delete_books"
	PermPublishBooks     Permission = "publish_books"
	PermViewChapters     Permission = "view_chapters"
	PermCreateChapters   Permission = "create_chapters"
	PermEditChapters     Permission = "edit_chapters"
	PermDeleteChapters   Permission = "delete_chapters"
	PermManageCategories Permission = "manage_categories"
	PermViewAuthors      Permission = "view_authors"
	PermManageAuthors    Permission = "manage_authors"
	PermManagePages      Permission = "manage_pages"
)

// User permissions
const (
	PermViewUsers        Permission = "view_users"
	PermEditUsers        Permission = "edit_users"
	PermDeleteUsers      Permission = "delete_users"
	PermManageRoles      Permission = "manage_roles"
	PermViewActivityLogs Permission = "view_activity_logs"
)

// Commerce permissions
const (
	PermViewPayments        Permission = "view_payments"
	PermProcessRefunds      Permission = "process_refunds"
	PermViewTransactions    Permission = "view_transactions"
	PermExportFinancialData Permission = "export_financial_data"
)

// Community permissions
const (
	PermViewReviews      Permission = "view_reviews"
	PermModerateReviews  Permission = "moderate_reviews"
	PermModerateComments Permission = "moderate_comments"
)

// System permissions
const (
	PermManageSettings Permission = "manage_settings"
)

// Analytics permissions
const (
	PermViewDashboard Permission = "view_dashboard"
	PermViewAnalytics Permission = "view_analytics"
	PermViewReports   Permission = "view_reports"
	PermExportReports Permission = "export_reports"
)

// Role identifies a named bundle of permissions assigned to an admin
type Role string

const (
	RoleSuperAdmin       Role = "super_admin"
	RoleContentManager   Role = "content_manager"
	RoleSupportAgent     Role = "support_agent"
	RoleAnalyticsManager Role = "analytics_manager"
	RoleFinanceManager   Role = "finance_manager"
)

// Section is a navigable admin area
type Section string

const (
	SectionDashboard    Section = "dashboard"
	SectionBooks        Section = "books"
	SectionChapters     Section = "chapters"
	SectionCategories   Section = "categories"
	SectionAuthors      Section = "authors"
	SectionUsers        Section = "users"
	SectionRoles        Section = "roles"
	SectionActivityLogs Section = "activity_logs"
	SectionPayments     Section = "payments"
	SectionTransactions Section = "transactions"
	SectionReviews      Section = "reviews"
	SectionModeration   Section = "moderation"
	SectionSettings     Section = "settings"
	SectionPages        Section = "pages"
	SectionAnalytics    Section = "analytics"
	SectionReports      Section = "reports"
)

// PermissionSet is an immutable set of permissions.
// The zero value is the empty set.
type PermissionSet struct {
	items map[Permission]struct{}
}

// NewPermissionSet builds a set from the given permissions, dropping duplicates
func NewPermissionSet(perms ...Permission) PermissionSet {
	items := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		items[p] = struct{}{}
	}
	return PermissionSet{items: items}
}

// Has reports whether p is in the set
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s.items[p]
	return ok
}

// Len returns the number of permissions in the set
func (s PermissionSet) Len() int {
	return len(s.items)
}

// Slice returns the permissions sorted lexically
func (s PermissionSet) Slice() []Permission {
	out := make([]Permission, 0, len(s.items))
	for p := range s.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Equal reports whether both sets hold exactly the same permissions
func (s PermissionSet) Equal(other PermissionSet) bool {
	if len(s.items) != len(other.items) {
		return false
	}
	for p := range s.items {
		if !other.Has(p) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as a sorted array
func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON decodes an array of permission tokens
func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var perms []Permission
	if err := json.Unmarshal(data, &perms); err != nil {
		return err
	}
	*s = NewPermissionSet(perms...)
	return nil
}
