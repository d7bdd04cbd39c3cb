package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/taalumaworld/admin-access/models"
)

// ErrNotFound is wrapped by repositories when a lookup matches no row
var ErrNotFound = errors.New("record not found")

// PreferenceRepository is the key/value store behind admin preferences
type PreferenceRepository interface {
	// Get returns the value stored under key for subject.
	// found is false when no value exists.
	Get(ctx context.Context, subject, key string) (value string, found bool, err error)

	// Set inserts or replaces the value stored under key for subject
	Set(ctx context.Context, subject, key, value string) error

	// Delete removes the value stored under key for subject
	Delete(ctx context.Context, subject, key string) error
}

// ActivityLogRepository handles the flat admin activity log
type ActivityLogRepository interface {
	// Insert inserts a new activity log entry
	Insert(ctx context.Context, log *models.ActivityLog) error

	// GetByID retrieves an activity log entry by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.ActivityLog, error)

	// List retrieves entries newest first with pagination
	List(ctx context.Context, limit, offset int) ([]*models.ActivityLog, error)

	// ListBySubject retrieves entries for one admin newest first with pagination
	ListBySubject(ctx context.Context, subject string, limit, offset int) ([]*models.ActivityLog, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Preferences  PreferenceRepository
	ActivityLogs ActivityLogRepository
}
