package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taalumaworld/admin-access/internal/session"
	"github.com/taalumaworld/admin-access/models"
	"github.com/taalumaworld/admin-access/services"
	"github.com/taalumaworld/admin-access/services/activity"
	"go.uber.org/zap"
)

// MockTokenValidator is a mock implementation of TokenValidator
type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Claims), args.Error(1)
}

// endedSessions hands out sessions that were already closed
type endedSessions struct{}

func (endedSessions) Open(ctx context.Context, identity models.Identity) *session.Provider {
	p := session.Open(ctx, identity, nil, nil, zap.NewNop())
	p.End(ctx)
	return p
}

func newRegistry() *session.Registry {
	return session.NewRegistry(nil, nil, zap.NewNop())
}

func TestRequireAuth(t *testing.T) {
	logger := zap.NewNop()

	t.Run("valid JWT in Authorization header allows request", func(t *testing.T) {
		mockValidator := new(MockTokenValidator)
		m := NewAuthMiddleware(mockValidator, newRegistry(), logger)

		claims := &Claims{Sub: "user-123", Email: "amina@taalumaworld.com"}
		mockValidator.On("ValidateToken", mock.Anything, "valid-token").Return(claims, nil)

		handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			extracted := GetClaimsFromContext(r.Context())
			assert.NotNil(t, extracted)
			assert.Equal(t, claims.Sub, extracted.Sub)
			assert.Equal(t, claims.Email, extracted.Email)
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockValidator.AssertExpectations(t)
	})

	t.Run("valid JWT in cookie allows request", func(t *testing.T) {
		mockValidator := new(MockTokenValidator)
		m := NewAuthMiddleware(mockValidator, newRegistry(), logger)

		claims := &Claims{Sub: "user-456", Email: "baraka@taalumaworld.com"}
		mockValidator.On("ValidateToken", mock.Anything, "cookie-token-value").Return(claims, nil)

		handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "user-456", GetClaimsFromContext(r.Context()).Sub)
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: "cookie-token-value"})
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockValidator.AssertExpectations(t)
	})

	t.Run("header takes precedence over cookie", func(t *testing.T) {
		mockValidator := new(MockTokenValidator)
		m := NewAuthMiddleware(mockValidator, newRegistry(), logger)
		mockValidator.On("ValidateToken", mock.Anything, "header-token").Return(&Claims{Sub: "user-1"}, nil)

		handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer header-token")
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: "cookie-token"})
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockValidator.AssertExpectations(t)
	})

	t.Run("other cookies are not read as tokens", func(t *testing.T) {
		mockValidator := new(MockTokenValidator)
		m := NewAuthMiddleware(mockValidator, newRegistry(), logger)

		handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: "session-token"})
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockValidator.AssertNotCalled(t, "ValidateToken", mock.Anything, mock.Anything)
	})

	t.Run("missing token returns 401", func(t *testing.T) {
		mockValidator := new(MockTokenValidator)
		m := NewAuthMiddleware(mockValidator, newRegistry(), logger)

		handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockValidator.AssertNotCalled(t, "ValidateToken")
	})

	t.Run("invalid authorization header format returns 401", func(t *testing.T) {
		mockValidator := new(MockTokenValidator)
		m := NewAuthMiddleware(mockValidator, newRegistry(), logger)

		handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "InvalidFormat")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockValidator.AssertNotCalled(t, "ValidateToken")
	})

	t.Run("invalid token returns 401", func(t *testing.T) {
		mockValidator := new(MockTokenValidator)
		m := NewAuthMiddleware(mockValidator, newRegistry(), logger)
		mockValidator.On("ValidateToken", mock.Anything, "invalid-token").
			Return(nil, errors.New("token validation failed"))

		handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer invalid-token")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockValidator.AssertExpectations(t)
	})

	t.Run("expired token returns 401", func(t *testing.T) {
		mockValidator := new(MockTokenValidator)
		m := NewAuthMiddleware(mockValidator, newRegistry(), logger)
		mockValidator.On("ValidateToken", mock.Anything, "expired-token").
			Return(nil, services.ErrTokenExpired)

		handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer expired-token")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestLoadSession(t *testing.T) {
	logger := zap.NewNop()
	claims := &Claims{
		Sub:    "user-1",
		Email:  "amina@taalumaworld.com",
		Name:   "Amina Wanjiru",
		Avatar: "https://cdn.taalumaworld.com/a.png",
	}

	t.Run("attaches session and current user", func(t *testing.T) {
		registry := newRegistry()
		m := NewAuthMiddleware(new(MockTokenValidator), registry, logger)

		handler := m.LoadSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			user := GetAdminUserFromContext(ctx)
			require.NotNil(t, user)
			assert.Equal(t, "user-1", user.Subject)
			assert.Equal(t, "Amina Wanjiru", user.Name)
			require.NotNil(t, user.Avatar)
			assert.Equal(t, claims.Avatar, *user.Avatar)
			assert.Equal(t, models.RoleSuperAdmin, user.Role)

			provider := GetSessionFromContext(ctx)
			require.NotNil(t, provider)
			assert.Same(t, user, provider.Current())

			meta, ok := activity.RequestMetaFromContext(ctx)
			require.True(t, ok)
			assert.Equal(t, "req-7", meta.RequestID)
			assert.Equal(t, "admin-ui/2.0", meta.UserAgent)
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("User-Agent", "admin-ui/2.0")
		ctx := WithRequestID(WithClaims(req.Context(), claims), "req-7")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req.WithContext(ctx))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, registry.Len())
	})

	t.Run("reuses the session across requests", func(t *testing.T) {
		registry := newRegistry()
		m := NewAuthMiddleware(new(MockTokenValidator), registry, logger)

		var seen []*session.Provider
		handler := m.LoadSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = append(seen, GetSessionFromContext(r.Context()))
		}))

		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			handler.ServeHTTP(httptest.NewRecorder(), req.WithContext(WithClaims(req.Context(), claims)))
		}

		require.Len(t, seen, 2)
		assert.Same(t, seen[0], seen[1])
	})

	t.Run("missing claims returns 401", func(t *testing.T) {
		m := NewAuthMiddleware(new(MockTokenValidator), newRegistry(), logger)

		handler := m.LoadSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("ended session returns 401", func(t *testing.T) {
		m := NewAuthMiddleware(new(MockTokenValidator), endedSessions{}, logger)

		handler := m.LoadSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req.WithContext(WithClaims(req.Context(), claims)))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestClaims_Identity(t *testing.T) {
	identity := (&Claims{Sub: "user-1", Email: "a@b.c"}).Identity()

	assert.Equal(t, "user-1", identity.Subject)
	assert.Nil(t, identity.Avatar)
}

func TestGetRequestIDFromContext(t *testing.T) {
	assert.Equal(t, "", GetRequestIDFromContext(context.Background()))
	assert.Equal(t, "abc", GetRequestIDFromContext(WithRequestID(context.Background(), "abc")))
}
