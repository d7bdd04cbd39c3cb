package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/taalumaworld/admin-access/internal/session"
	"github.com/taalumaworld/admin-access/models"
	"github.com/taalumaworld/admin-access/services/activity"
	"github.com/taalumaworld/admin-access/utils"
	"go.uber.org/zap"
)

// TokenValidator defines the interface for validating JWT tokens
type TokenValidator interface {
	// ValidateToken validates a JWT token and returns claims
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}

// SessionOpener returns the session for an authenticated identity
type SessionOpener interface {
	Open(ctx context.Context, identity models.Identity) *session.Provider
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	validator TokenValidator
	sessions  SessionOpener
	logger    *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(validator TokenValidator, sessions SessionOpener, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		sessions:  sessions,
		logger:    logger,
	}
}

// authTokenCookieName is the cookie set by the dev-token endpoint.
// The Authorization header takes precedence over it.
const authTokenCookieName = "auth_token"

// RequireAuth is a middleware that requires a valid JWT token
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		token := extractToken(r)
		if token == "" {
			m.logger.Warn("missing token",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Missing or invalid authorization")
			return
		}

		claims, err := m.validator.ValidateToken(ctx, token)
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		ctx = WithClaims(ctx, claims)

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("sub", claims.Sub),
			zap.String("email", claims.Email))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoadSession attaches the caller's session and its current admin user
// snapshot to the request. Must run after RequireAuth.
func (m *AuthMiddleware) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		claims := GetClaimsFromContext(ctx)
		if claims == nil {
			m.logger.Error("claims not found in context",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Authentication required")
			return
		}

		ctx = activity.WithRequestMeta(ctx, activity.RequestMeta{
			RequestID: requestID,
			IPAddress: r.RemoteAddr,
			UserAgent: r.UserAgent(),
		})

		provider := m.sessions.Open(ctx, claims.Identity())
		user := provider.Current()
		if user == nil {
			m.logger.Warn("session has no current user",
				zap.String("request_id", requestID),
				zap.String("sub", claims.Sub))
			_ = utils.WriteUnauthorized(w, "Session ended")
			return
		}

		ctx = WithSession(ctx, provider)
		ctx = WithAdminUser(ctx, user)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken extracts JWT from the Authorization header ("Bearer TOKEN")
// or the auth_token cookie, in that order.
func extractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(authTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
