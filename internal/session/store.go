package session

import (
	"context"

	"github.com/taalumaworld/admin-access/models"
)

// PreferenceStore is the persisted key/value state the provider reads its
// initial role from and writes role switches to.
type PreferenceStore interface {
	Get(ctx context.Context, subject, key string) (value string, found bool, err error)
	Set(ctx context.Context, subject, key, value string) error
}

// ActivityRecorder receives session lifecycle entries. Implementations must
// not block.
type ActivityRecorder interface {
	Record(ctx context.Context, entry *models.ActivityLog) error
}

// nopRecorder drops every entry
type nopRecorder struct{}

func (nopRecorder) Record(context.Context, *models.ActivityLog) error { return nil }
