package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/taalumaworld/admin-access/repositories"
	"go.uber.org/zap"
)

// PreferenceRepository implements the repositories.PreferenceRepository interface
type PreferenceRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewPreferenceRepository creates a new preference repository
func NewPreferenceRepository(db *DB, logger *zap.Logger) repositories.PreferenceRepository {
	return &PreferenceRepository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves a preference value
func (r *PreferenceRepository) Get(ctx context.Context, subject, key string) (string, bool, error) {
	query := `
		SELECT pref_value
		FROM admin_preferences
		WHERE subject = $1 AND pref_key = $2
	`

	var value string
	err := r.db.QueryRowContext(ctx, query, subject, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get preference: %w", err)
	}

	return value, true, nil
}

// Set upserts a preference value
func (r *PreferenceRepository) Set(ctx context.Context, subject, key, value string) error {
	query := `
		INSERT INTO admin_preferences (subject, pref_key, pref_value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (subject, pref_key)
		DO UPDATE SET pref_value = EXCLUDED.pref_value, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, subject, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set preference: %w", err)
	}

	r.logger.Debug("preference stored", zap.String("sub", subject), zap.String("key", key))
	return nil
}

// Delete removes a preference
func (r *PreferenceRepository) Delete(ctx context.Context, subject, key string) error {
	query := `DELETE FROM admin_preferences WHERE subject = $1 AND pref_key = $2`

	result, err := r.db.ExecContext(ctx, query, subject, key)
	if err != nil {
		return fmt.Errorf("failed to delete preference: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("preference %s for %s: %w", key, subject, repositories.ErrNotFound)
	}

	r.logger.Debug("preference deleted", zap.String("sub", subject), zap.String("key", key))
	return nil
}
