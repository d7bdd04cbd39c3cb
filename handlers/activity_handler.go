package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/taalumaworld/admin-access/models"
	"github.com/taalumaworld/admin-access/services"
	"github.com/taalumaworld/admin-access/utils"
	"go.uber.org/zap"
)

// ActivityReader reads the admin activity log
type ActivityReader interface {
	List(ctx context.Context, subject string, limit, offset int) ([]*models.ActivityLog, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ActivityLog, error)
}

// ActivityListResponse is one page of activity log entries
type ActivityListResponse struct {
	Items  []*models.ActivityLog `json:"items"`
	Count  int                   `json:"count"`
	Offset int                   `json:"offset"`
}

// ActivityHandler serves the activity log screen
type ActivityHandler struct {
	reader ActivityReader
	logger *zap.Logger
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(reader ActivityReader, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		reader: reader,
		logger: logger,
	}
}

// HandleList handles GET /api/v1/activity-logs?sub=&limit=&offset=
func (h *ActivityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit, err := intParam(query.Get("limit"))
	if err != nil {
		HandleServiceError(w, services.ErrInvalidInput.WithDetail("limit", query.Get("limit")), h.logger)
		return
	}
	offset, err := intParam(query.Get("offset"))
	if err != nil {
		HandleServiceError(w, services.ErrInvalidInput.WithDetail("offset", query.Get("offset")), h.logger)
		return
	}

	logs, err := h.reader.List(r.Context(), query.Get("sub"), limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if offset < 0 {
		offset = 0
	}
	_ = utils.WriteOK(w, ActivityListResponse{
		Items:  logs,
		Count:  len(logs),
		Offset: offset,
	})
}

// HandleGet handles GET /api/v1/activity-logs/{id}
func (h *ActivityHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		HandleServiceError(w, services.ErrInvalidInput.WithDetail("id", raw), h.logger)
		return
	}

	entry, err := h.reader.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, entry)
}

// intParam parses an optional integer query parameter; empty means zero
func intParam(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}
