package models

import (
	"time"

	"github.com/google/uuid"
)

// adminNamespace seeds the deterministic admin user IDs
var adminNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://taalumaworld.com/admin"))

// Identity is the authenticated person behind an admin session
type Identity struct {
	Subject string  `json:"sub"`
	Email   string  `json:"email"`
	Name    string  `json:"name"`
	Avatar  *string `json:"avatar,omitempty"`
}

// AdminUser is the current admin as seen by the back office.
// Records are never mutated after construction; a role switch produces a
// new record with both Role and Permissions replaced.
type AdminUser struct {
	ID           uuid.UUID     `json:"id"`
	Subject      string        `json:"sub"`
	Email        string        `json:"email"`
	Name         string        `json:"name"`
	Role         Role          `json:"role"`
	Permissions  PermissionSet `json:"permissions"`
	Avatar       *string       `json:"avatar,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	LastActiveAt time.Time     `json:"last_active_at"`
}

// AdminUserID returns the stable user ID for a subject
func AdminUserID(subject string) uuid.UUID {
	return uuid.NewSHA1(adminNamespace, []byte(subject))
}

// NewAdminUser creates an AdminUser for identity holding role and perms
func NewAdminUser(identity Identity, role Role, perms PermissionSet) *AdminUser {
	now := time.Now().UTC()
	return &AdminUser{
		ID:           AdminUserID(identity.Subject),
		Subject:      identity.Subject,
		Email:        identity.Email,
		Name:         identity.Name,
		Role:         role,
		Permissions:  perms,
		Avatar:       identity.Avatar,
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

// WithRole returns a copy of the user carrying role and perms.
// Identity fields and CreatedAt are preserved.
func (u *AdminUser) WithRole(role Role, perms PermissionSet) *AdminUser {
	next := *u
	next.Role = role
	next.Permissions = perms
	next.LastActiveAt = time.Now().UTC()
	return &next
}

// Identity returns the identity part of the user record
func (u *AdminUser) Identity() Identity {
	return Identity{
		Subject: u.Subject,
		Email:   u.Email,
		Name:    u.Name,
		Avatar:  u.Avatar,
	}
}
