package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/taalumaworld/admin-access/models"
	"github.com/taalumaworld/admin-access/repositories"
	"go.uber.org/zap"
)

const activityLogColumns = `id, admin_id, subject, action, role, details, ip_address, user_agent, request_id, timestamp`

// ActivityLogRepository implements the repositories.ActivityLogRepository interface
type ActivityLogRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewActivityLogRepository creates a new activity log repository
func NewActivityLogRepository(db *DB, logger *zap.Logger) repositories.ActivityLogRepository {
	return &ActivityLogRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new activity log entry
func (r *ActivityLogRepository) Insert(ctx context.Context, log *models.ActivityLog) error {
	query := `
		INSERT INTO activity_logs (` + activityLogColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	// JSONB rejects an empty byte slice, NULL is stored instead
	var details interface{}
	if len(log.Details) > 0 {
		details = []byte(log.Details)
	}

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.AdminID,
		log.Subject,
		log.Action,
		log.Role,
		details,
		log.IPAddress,
		log.UserAgent,
		log.RequestID,
		log.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity log: %w", err)
	}

	r.logger.Debug("activity log inserted",
		zap.String("id", log.ID.String()),
		zap.String("action", string(log.Action)))
	return nil
}

// GetByID retrieves an activity log entry by ID
func (r *ActivityLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ActivityLog, error) {
	query := `SELECT ` + activityLogColumns + ` FROM activity_logs WHERE id = $1`

	log, err := scanActivityLog(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("activity log %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get activity log: %w", err)
	}

	return log, nil
}

// List retrieves entries newest first with pagination
func (r *ActivityLogRepository) List(ctx context.Context, limit, offset int) ([]*models.ActivityLog, error) {
	query := `
		SELECT ` + activityLogColumns + `
		FROM activity_logs
		ORDER BY timestamp DESC
		LIMIT $1 OFFSET $2
	`

	return r.queryActivityLogs(ctx, query, limit, offset)
}

// ListBySubject retrieves entries for one admin newest first with pagination
func (r *ActivityLogRepository) ListBySubject(ctx context.Context, subject string, limit, offset int) ([]*models.ActivityLog, error) {
	query := `
		SELECT ` + activityLogColumns + `
		FROM activity_logs
		WHERE subject = $1
		ORDER BY timestamp DESC
		LIMIT $2 OFFSET $3
	`

	return r.queryActivityLogs(ctx, query, subject, limit, offset)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanActivityLog(row rowScanner) (*models.ActivityLog, error) {
	log := &models.ActivityLog{}
	var details []byte
	err := row.Scan(
		&log.ID,
		&log.AdminID,
		&log.Subject,
		&log.Action,
		&log.Role,
		&details,
		&log.IPAddress,
		&log.UserAgent,
		&log.RequestID,
		&log.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	if len(details) > 0 {
		log.Details = details
	}
	return log, nil
}

// queryActivityLogs is a helper method to query multiple activity logs
func (r *ActivityLogRepository) queryActivityLogs(ctx context.Context, query string, args ...interface{}) ([]*models.ActivityLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*models.ActivityLog, 0)
	for rows.Next() {
		log, err := scanActivityLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity log rows: %w", err)
	}

	return logs, nil
}
