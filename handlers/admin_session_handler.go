package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taalumaworld/admin-access/internal/session"
	"github.com/taalumaworld/admin-access/middleware"
	"github.com/taalumaworld/admin-access/services"
	"github.com/taalumaworld/admin-access/utils"
	"go.uber.org/zap"
)

// SessionDirectory looks up and ends the sessions of any admin
type SessionDirectory interface {
	Get(subject string) (*session.Provider, bool)
	Close(ctx context.Context, subject string) error
}

// AdminSessionHandler lets privileged admins inspect and revoke other
// admins' live sessions
type AdminSessionHandler struct {
	sessions SessionDirectory
	logger   *zap.Logger
}

// NewAdminSessionHandler creates a new AdminSessionHandler
func NewAdminSessionHandler(sessions SessionDirectory, logger *zap.Logger) *AdminSessionHandler {
	return &AdminSessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// HandleGet handles GET /api/v1/sessions/{sub}
func (h *AdminSessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sub := chi.URLParam(r, "sub")

	provider, ok := h.sessions.Get(sub)
	if !ok {
		HandleServiceError(w, services.ErrSessionNotFound.WithDetail("sub", sub), h.logger)
		return
	}
	user := provider.Current()
	if user == nil {
		HandleServiceError(w, services.ErrSessionNotFound.WithDetail("sub", sub), h.logger)
		return
	}

	_ = utils.WriteOK(w, user)
}

// HandleRevoke handles DELETE /api/v1/sessions/{sub}
func (h *AdminSessionHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sub := chi.URLParam(r, "sub")

	if err := h.sessions.Close(ctx, sub); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	var revokedBy string
	if caller := middleware.GetAdminUserFromContext(ctx); caller != nil {
		revokedBy = caller.Subject
	}
	h.logger.Info("admin session revoked",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.String("sub", sub),
		zap.String("revoked_by", revokedBy))

	utils.WriteNoContent(w)
}
