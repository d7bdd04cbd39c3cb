package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taalumaworld/admin-access/models"
	"github.com/taalumaworld/admin-access/services"
)

const testSecret = "unit-test-secret-that-is-long-enough"

func newTestService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService(Config{
		Secret:   testSecret,
		Issuer:   "taalumaworld",
		Audience: "admin",
		TTL:      time.Hour,
	})
	require.NoError(t, err)
	return svc
}

func sign(t *testing.T, method jwt.SigningMethod, claims jwt.Claims, secret string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestNewTokenService(t *testing.T) {
	t.Run("secret is required", func(t *testing.T) {
		svc, err := NewTokenService(Config{})
		assert.Error(t, err)
		assert.Nil(t, svc)
	})

	t.Run("non-positive ttl defaults", func(t *testing.T) {
		svc, err := NewTokenService(Config{Secret: testSecret})
		require.NoError(t, err)
		assert.Equal(t, 8*time.Hour, svc.TTL())
	})
}

func TestIssueAndValidate(t *testing.T) {
	svc := newTestService(t)
	avatar := "https://cdn.taalumaworld.com/a.png"
	identity := models.Identity{
		Subject: "user-1",
		Email:   "amina@taalumaworld.com",
		Name:    "Amina Wanjiru",
		Avatar:  &avatar,
	}

	token, expiresAt, err := svc.Issue(identity)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Sub)
	assert.Equal(t, "amina@taalumaworld.com", claims.Email)
	assert.Equal(t, "Amina Wanjiru", claims.Name)
	assert.Equal(t, avatar, claims.Avatar)
	assert.Equal(t, "taalumaworld", claims.Iss)
	assert.Equal(t, expiresAt.Unix(), claims.Exp)
	assert.Equal(t, identity, claims.Identity())
}

func TestIssue_TokenCarriesNoRole(t *testing.T) {
	svc := newTestService(t)
	token, _, err := svc.Issue(models.Identity{Subject: "user-1", Email: "amina@taalumaworld.com"})
	require.NoError(t, err)

	raw := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, raw)
	require.NoError(t, err)

	assert.NotContains(t, raw, "role")
	assert.NotContains(t, raw, "permissions")
}

func TestIssue_RequiresSubject(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.Issue(models.Identity{Email: "amina@taalumaworld.com"})

	assert.True(t, services.IsValidationError(err))
}

func TestValidateToken_Rejects(t *testing.T) {
	svc := newTestService(t)
	now := time.Now()
	valid := func() jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "taalumaworld",
			Audience:  jwt.ClaimStrings{"admin"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}
	}

	tests := []struct {
		name  string
		token func() string
	}{
		{"garbage", func() string { return "not-a-jwt" }},
		{"wrong secret", func() string {
			return sign(t, jwt.SigningMethodHS256, valid(), "some-other-secret-entirely")
		}},
		{"unexpected algorithm", func() string {
			return sign(t, jwt.SigningMethodHS512, valid(), testSecret)
		}},
		{"wrong issuer", func() string {
			c := valid()
			c.Issuer = "someone-else"
			return sign(t, jwt.SigningMethodHS256, c, testSecret)
		}},
		{"wrong audience", func() string {
			c := valid()
			c.Audience = jwt.ClaimStrings{"storefront"}
			return sign(t, jwt.SigningMethodHS256, c, testSecret)
		}},
		{"missing expiry", func() string {
			c := valid()
			c.ExpiresAt = nil
			return sign(t, jwt.SigningMethodHS256, c, testSecret)
		}},
		{"missing subject", func() string {
			c := valid()
			c.Subject = ""
			return sign(t, jwt.SigningMethodHS256, c, testSecret)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.ValidateToken(context.Background(), tt.token())

			assert.Nil(t, claims)
			assert.True(t, services.IsUnauthorizedError(err), "got %v", err)
		})
	}
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newTestService(t)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := svc.Issue(models.Identity{Subject: "user-1"})
	require.NoError(t, err)
	svc.now = time.Now

	_, err = svc.ValidateToken(context.Background(), token)

	assert.ErrorIs(t, err, services.ErrTokenExpired)
}
