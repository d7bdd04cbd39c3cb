package session

import (
	"context"
	"sync"
	"time"

	"github.com/taalumaworld/admin-access/models"
	"github.com/taalumaworld/admin-access/services"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// entry is a registered provider and the last time a request used it
type entry struct {
	provider *Provider
	lastSeen time.Time
}

// Registry keeps one Provider per authenticated admin subject.
// The map lock is never held while a provider is being opened; concurrent
// opens for the same subject share one preference read.
type Registry struct {
	mu        sync.Mutex
	providers map[string]*entry
	opening   singleflight.Group
	prefs     PreferenceStore
	recorder  ActivityRecorder
	logger    *zap.Logger
	now       func() time.Time
}

// NewRegistry creates an empty registry. recorder may be nil.
func NewRegistry(prefs PreferenceStore, recorder ActivityRecorder, logger *zap.Logger) *Registry {
	return &Registry{
		providers: make(map[string]*entry),
		prefs:     prefs,
		recorder:  recorder,
		logger:    logger,
		now:       time.Now,
	}
}

// Open returns the provider for identity.Subject, opening one if needed
func (r *Registry) Open(ctx context.Context, identity models.Identity) *Provider {
	if p, ok := r.touch(identity.Subject); ok {
		return p
	}

	v, _, _ := r.opening.Do(identity.Subject, func() (interface{}, error) {
		// another caller may have finished opening between touch and Do
		if p, ok := r.touch(identity.Subject); ok {
			return p, nil
		}

		p := Open(ctx, identity, r.prefs, r.recorder, r.logger)

		r.mu.Lock()
		r.providers[identity.Subject] = &entry{provider: p, lastSeen: r.now()}
		r.mu.Unlock()
		return p, nil
	})
	return v.(*Provider)
}

// touch returns the registered provider for subject and marks it used
func (r *Registry) touch(subject string) (*Provider, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.providers[subject]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.provider, true
}

// Get returns the provider for subject
func (r *Registry) Get(subject string) (*Provider, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.providers[subject]
	if !ok {
		return nil, false
	}
	return e.provider, true
}

// Close ends and forgets the session of subject
func (r *Registry) Close(ctx context.Context, subject string) error {
	r.mu.Lock()
	e, ok := r.providers[subject]
	if ok {
		delete(r.providers, subject)
	}
	r.mu.Unlock()

	if !ok {
		return services.ErrSessionNotFound.WithDetail("sub", subject)
	}

	e.provider.End(ctx)
	return nil
}

// EvictIdle ends every session not used for longer than idle and returns
// how many were ended
func (r *Registry) EvictIdle(ctx context.Context, idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var stale []*Provider
	for subject, e := range r.providers {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.provider)
			delete(r.providers, subject)
		}
	}
	r.mu.Unlock()

	for _, p := range stale {
		p.End(ctx)
	}
	if len(stale) > 0 {
		r.logger.Info("evicted idle admin sessions",
			zap.Int("count", len(stale)),
			zap.Duration("idle_timeout", idle))
	}
	return len(stale)
}

// RunEviction calls EvictIdle every interval until ctx is cancelled
func (r *Registry) RunEviction(ctx context.Context, idle, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.EvictIdle(context.Background(), idle)
		}
	}
}

// CloseAll ends every open session
func (r *Registry) CloseAll(ctx context.Context) {
	r.mu.Lock()
	providers := r.providers
	r.providers = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range providers {
		e.provider.End(ctx)
	}
	r.logger.Info("closed all admin sessions", zap.Int("count", len(providers)))
}

// Len returns the number of open sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.providers)
}
