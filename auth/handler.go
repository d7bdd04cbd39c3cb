package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/taalumaworld/admin-access/models"
	"github.com/taalumaworld/admin-access/utils"
	"go.uber.org/zap"
)

// AuthTokenCookieName is the cookie the admin UI sends the token in
const AuthTokenCookieName = "auth_token"

// TokenIssuer mints tokens for an identity
type TokenIssuer interface {
	Issue(identity models.Identity) (string, time.Time, error)
}

// DevTokenRequest is the body of POST /auth/dev-token
type DevTokenRequest struct {
	Sub    string `json:"sub" validate:"required,max=255"`
	Email  string `json:"email" validate:"required,email"`
	Name   string `json:"name" validate:"max=255"`
	Avatar string `json:"avatar" validate:"omitempty,url"`
}

// DevTokenResponse is returned by POST /auth/dev-token
type DevTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Handler mints tokens for local development and clears the token cookie
type Handler struct {
	issuer       TokenIssuer
	enabled      bool
	secureCookie bool
	logger       *zap.Logger
}

// NewHandler creates a new auth handler. When enabled is false the dev
// token endpoint answers 503.
func NewHandler(issuer TokenIssuer, enabled, secureCookie bool, logger *zap.Logger) *Handler {
	return &Handler{
		issuer:       issuer,
		enabled:      enabled,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// HandleDevToken handles POST /auth/dev-token
func (h *Handler) HandleDevToken(w http.ResponseWriter, r *http.Request) {
	if !h.enabled || h.issuer == nil {
		_ = utils.WriteServiceUnavailable(w, "Development tokens are disabled")
		return
	}

	var req DevTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		_ = utils.WriteBadRequest(w, "Validation failed", utils.ValidationDetails(err))
		return
	}

	identity := models.Identity{Subject: req.Sub, Email: req.Email, Name: req.Name}
	if req.Avatar != "" {
		avatar := req.Avatar
		identity.Avatar = &avatar
	}

	token, expiresAt, err := h.issuer.Issue(identity)
	if err != nil {
		h.logger.Error("failed to issue development token", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to issue token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     AuthTokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})

	h.logger.Info("development token issued", zap.String("sub", req.Sub))
	_ = utils.WriteCreated(w, DevTokenResponse{Token: token, ExpiresAt: expiresAt})
}

// ClearCookie expires the token cookie on w
func (h *Handler) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthTokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}
