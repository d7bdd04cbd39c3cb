package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/taalumaworld/admin-access/internal/observability"
	"github.com/taalumaworld/admin-access/internal/rbac"
	"github.com/taalumaworld/admin-access/models"
	"github.com/taalumaworld/admin-access/services"
	"go.uber.org/zap"
)

// Provider holds the current AdminUser of one admin session
type Provider struct {
	current  atomic.Pointer[models.AdminUser]
	subject  string
	prefs    PreferenceStore
	recorder ActivityRecorder
	logger   *zap.Logger

	// mu serializes role switches, End and the subscriber set
	mu          sync.Mutex
	closed      bool
	subscribers map[int]chan *models.AdminUser
	nextSubID   int
}

// Open starts a session for identity. The initial role is read from the
// role preference; a missing, unreadable or unknown value falls back to
// rbac.DefaultRole. Open never fails.
func Open(ctx context.Context, identity models.Identity, prefs PreferenceStore, recorder ActivityRecorder, logger *zap.Logger) *Provider {
	if recorder == nil {
		recorder = nopRecorder{}
	}

	p := &Provider{
		subject:     identity.Subject,
		prefs:       prefs,
		recorder:    recorder,
		logger:      logger.With(zap.String("sub", identity.Subject)),
		subscribers: make(map[int]chan *models.AdminUser),
	}

	role := p.loadRole(ctx)
	user := models.NewAdminUser(identity, role, rbac.PermissionsForRole(role))
	p.current.Store(user)

	observability.SessionOpened()
	p.record(ctx, models.NewActivityLog(user, models.ActivitySessionOpened))
	p.logger.Info("admin session opened", zap.String("role", string(role)))

	return p
}

func (p *Provider) loadRole(ctx context.Context) models.Role {
	if p.prefs == nil {
		return rbac.DefaultRole
	}

	value, found, err := p.prefs.Get(ctx, p.subject, models.RolePreferenceKey)
	if err != nil {
		p.logger.Warn("failed to read role preference, using default role",
			zap.Error(err),
			zap.String("role", string(rbac.DefaultRole)))
		return rbac.DefaultRole
	}
	if !found {
		return rbac.DefaultRole
	}

	role := models.Role(value)
	if !rbac.IsKnownRole(role) {
		p.logger.Warn("ignoring unknown role preference",
			zap.String("preference", value),
			zap.String("role", string(rbac.DefaultRole)))
		return rbac.DefaultRole
	}
	return role
}

// Subject returns the subject the session belongs to
func (p *Provider) Subject() string {
	return p.subject
}

// Current returns the current user snapshot, or nil once the session ended
func (p *Provider) Current() *models.AdminUser {
	return p.current.Load()
}

// SwitchRole replaces the current user's role and permissions together.
// An unknown role is rejected without changing anything. With no current
// user it does nothing. The switch takes effect even when persisting the
// preference fails; that failure is returned as ErrPreferenceWrite.
func (p *Provider) SwitchRole(ctx context.Context, role models.Role) error {
	if !rbac.IsKnownRole(role) {
		return services.ErrUnknownRole.WithDetail("role", string(role))
	}

	p.mu.Lock()
	prev := p.current.Load()
	if p.closed || prev == nil {
		p.mu.Unlock()
		return nil
	}

	next := prev.WithRole(role, rbac.PermissionsForRole(role))
	p.current.Store(next)
	p.publishLocked(next)
	p.mu.Unlock()

	observability.RecordRoleSwitch(string(role))
	p.record(ctx, models.NewActivityLog(next, models.ActivityRoleSwitched).
		WithDetails(map[string]string{"from": string(prev.Role), "to": string(role)}))
	p.logger.Info("admin role switched",
		zap.String("from", string(prev.Role)),
		zap.String("to", string(role)))

	if p.prefs == nil {
		return nil
	}
	if err := p.prefs.Set(ctx, p.subject, models.RolePreferenceKey, string(role)); err != nil {
		p.logger.Error("failed to persist role preference",
			zap.Error(err),
			zap.String("role", string(role)))
		return services.NewDomainError(services.ErrorTypeInternal, services.ErrPreferenceWrite.Message, err)
	}

	return nil
}

// Subscribe returns a channel receiving every new user snapshot, starting
// with the current one, and a function that cancels the subscription.
// Slow subscribers only see the latest snapshot. The channel is closed on
// cancel or when the session ends.
func (p *Provider) Subscribe() (<-chan *models.AdminUser, func()) {
	ch := make(chan *models.AdminUser, 1)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		close(ch)
		return ch, func() {}
	}

	id := p.nextSubID
	p.nextSubID++
	p.subscribers[id] = ch
	if user := p.current.Load(); user != nil {
		ch <- user
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if sub, ok := p.subscribers[id]; ok {
				delete(p.subscribers, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

// publishLocked delivers user to every subscriber, replacing any snapshot
// the subscriber has not consumed yet. p.mu must be held.
func (p *Provider) publishLocked(user *models.AdminUser) {
	for _, ch := range p.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- user
	}
}

// End discards the current user and closes all subscriptions.
// Calling End more than once is a no-op.
func (p *Provider) End(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	last := p.current.Swap(nil)
	for id, ch := range p.subscribers {
		delete(p.subscribers, id)
		close(ch)
	}
	p.mu.Unlock()

	observability.SessionClosed()
	if last != nil {
		p.record(ctx, models.NewActivityLog(last, models.ActivitySessionClosed))
	}
	p.logger.Info("admin session ended")
}

// Closed reports whether End has been called
func (p *Provider) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Provider) record(ctx context.Context, entry *models.ActivityLog) {
	if err := p.recorder.Record(ctx, entry); err != nil {
		p.logger.Warn("failed to record session activity",
			zap.Error(err),
			zap.String("action", string(entry.Action)))
	}
}
