// Package auth issues and validates the admin bearer tokens.
//
// Tokens carry identity only (subject, email, name, avatar). The admin role
// is owned by the session provider and is never read from a token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/taalumaworld/admin-access/middleware"
	"github.com/taalumaworld/admin-access/models"
	"github.com/taalumaworld/admin-access/services"
)

// Config holds configuration for TokenService
type Config struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// adminClaims is the JWT payload
type adminClaims struct {
	jwt.RegisteredClaims
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"picture,omitempty"`
}

// TokenService validates and mints HS256 admin tokens
type TokenService struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenService creates a token service. The secret must not be empty.
func NewTokenService(cfg Config) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 8 * time.Hour
	}

	return &TokenService{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TTL,
		now:      time.Now,
	}, nil
}

// ValidateToken implements middleware.TokenValidator
func (s *TokenService) ValidateToken(_ context.Context, tokenString string) (*middleware.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	claims := &adminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, services.ErrTokenExpired
		}
		return nil, services.WrapError(services.ErrorTypeUnauthorized, services.ErrInvalidToken.Message, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, services.ErrInvalidToken
	}

	result := &middleware.Claims{
		Sub:    claims.Subject,
		Email:  claims.Email,
		Name:   claims.Name,
		Avatar: claims.Avatar,
		Iss:    claims.Issuer,
	}
	if claims.ExpiresAt != nil {
		result.Exp = claims.ExpiresAt.Unix()
	}
	if claims.IssuedAt != nil {
		result.Iat = claims.IssuedAt.Unix()
	}
	return result, nil
}

// Issue mints a token for identity and returns it with its expiry
func (s *TokenService) Issue(identity models.Identity) (string, time.Time, error) {
	if identity.Subject == "" {
		return "", time.Time{}, services.ErrInvalidInput.WithDetail("sub", "required")
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)

	claims := adminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: identity.Email,
		Name:  identity.Name,
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}
	if identity.Avatar != nil {
		claims.Avatar = *identity.Avatar
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// TTL returns the lifetime of issued tokens
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
