package middleware

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/taalumaworld/admin-access/internal/session"
	"github.com/taalumaworld/admin-access/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"

	// AdminUserKey is the context key for the admin user snapshot
	AdminUserKey contextKey = "admin_user"

	// SessionKey is the context key for the session provider
	SessionKey contextKey = "session"
)

// Claims represents JWT claims extracted from the token.
// Roles are deliberately absent: the session owns the active role.
type Claims struct {
	Sub    string `json:"sub"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Avatar string `json:"picture,omitempty"`
	Iss    string `json:"iss"` // Issuer
	Exp    int64  `json:"exp"` // Expiration
	Iat    int64  `json:"iat"` // Issued at
}

// Identity converts the claims into a session identity
func (c *Claims) Identity() models.Identity {
	identity := models.Identity{
		Subject: c.Sub,
		Email:   c.Email,
		Name:    c.Name,
	}
	if c.Avatar != "" {
		avatar := c.Avatar
		identity.Avatar = &avatar
	}
	return identity
}

// GetRequestIDFromContext retrieves the request ID from context.
// Falls back to the ID assigned by chi's RequestID middleware.
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return chimw.GetReqID(ctx)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetClaimsFromContext retrieves JWT claims from context
func GetClaimsFromContext(ctx context.Context) *Claims {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(*Claims); ok {
			return claims
		}
	}
	return nil
}

// WithClaims adds JWT claims to the context
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetAdminUserFromContext retrieves the admin user snapshot from context
func GetAdminUserFromContext(ctx context.Context) *models.AdminUser {
	if val := ctx.Value(AdminUserKey); val != nil {
		if user, ok := val.(*models.AdminUser); ok {
			return user
		}
	}
	return nil
}

// WithAdminUser adds an admin user snapshot to the context
func WithAdminUser(ctx context.Context, user *models.AdminUser) context.Context {
	return context.WithValue(ctx, AdminUserKey, user)
}

// GetSessionFromContext retrieves the session provider from context
func GetSessionFromContext(ctx context.Context) *session.Provider {
	if val := ctx.Value(SessionKey); val != nil {
		if provider, ok := val.(*session.Provider); ok {
			return provider
		}
	}
	return nil
}

// WithSession adds a session provider to the context
func WithSession(ctx context.Context, provider *session.Provider) context.Context {
	return context.WithValue(ctx, SessionKey, provider)
}
