// Package activity records the flat admin activity log asynchronously and
// serves it back for the activity log screen.
package activity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/taalumaworld/admin-access/models"
	"github.com/taalumaworld/admin-access/repositories"
	"github.com/taalumaworld/admin-access/services"
	"go.uber.org/zap"
)

const (
	// DefaultPageSize is used when a list request carries no limit
	DefaultPageSize = 50
	// MaxPageSize caps list requests
	MaxPageSize = 200
)

var (
	activityRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_activity_recorded_total",
		Help: "Activity log entries accepted for writing, by action.",
	}, []string{"action"})
	activityDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admin_activity_dropped_total",
		Help: "Activity log entries dropped because the buffer was full.",
	})
)

// Service writes activity log entries in the background
type Service struct {
	repo        repositories.ActivityLogRepository
	logger      *zap.Logger
	entries     chan *models.ActivityLog
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup

	// mu guards started/stopped; senders hold the read lock so Stop never
	// closes the channel under them
	mu      sync.RWMutex
	started bool
	stopped bool
}

// Config holds configuration for the Service
type Config struct {
	BufferSize  int // Size of the entry buffer channel
	WorkerCount int // Number of concurrent writers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  1000,
		WorkerCount: 2,
	}
}

// NewService creates a new activity Service
func NewService(repo repositories.ActivityLogRepository, logger *zap.Logger, config Config) *Service {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultConfig().WorkerCount
	}

	return &Service{
		repo:        repo,
		logger:      logger,
		entries:     make(chan *models.ActivityLog, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
	}
}

// Start starts the background workers
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("activity service already started")
	}
	if s.stopped {
		return fmt.Errorf("activity service cannot be restarted")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started activity service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop stops accepting entries and waits for the buffered ones to be written
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("activity service not started")
	}
	s.started = false
	s.stopped = true
	pending := len(s.entries)
	close(s.entries)
	s.mu.Unlock()

	s.logger.Info("stopping activity service", zap.Int("pending_entries", pending))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("activity service stopped gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("activity service stop timeout after %v", timeout)
	}
}

// Record queues entry without blocking. Request metadata found in ctx is
// copied onto the entry. A full buffer drops the entry.
func (s *Service) Record(ctx context.Context, entry *models.ActivityLog) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return services.ErrActivityNotRunning
	}

	enrich(ctx, entry)

	select {
	case s.entries <- entry:
		activityRecordedTotal.WithLabelValues(string(entry.Action)).Inc()
		return nil
	default:
		activityDroppedTotal.Inc()
		s.logger.Warn("activity buffer full, dropping entry",
			zap.String("action", string(entry.Action)),
			zap.String("sub", entry.Subject))
		return services.ErrActivityBufferFull
	}
}

func enrich(ctx context.Context, entry *models.ActivityLog) {
	meta, ok := RequestMetaFromContext(ctx)
	if !ok {
		return
	}
	if entry.RequestID == "" {
		entry.RequestID = meta.RequestID
	}
	if entry.IPAddress == "" {
		entry.IPAddress = meta.IPAddress
	}
	if entry.UserAgent == "" {
		entry.UserAgent = meta.UserAgent
	}
}

// worker writes entries from the channel until it is closed
func (s *Service) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("activity worker started", zap.Int("worker_id", id))

	for entry := range s.entries {
		if err := s.write(entry); err != nil {
			s.logger.Error("failed to write activity entry",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("action", string(entry.Action)),
				zap.String("sub", entry.Subject))
		}
	}

	s.logger.Debug("activity worker stopped", zap.Int("worker_id", id))
}

func (s *Service) write(entry *models.ActivityLog) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.repo.Insert(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert activity log: %w", err)
	}
	return nil
}

// List returns entries newest first. An empty subject lists every admin.
// limit is clamped to [1, MaxPageSize] with DefaultPageSize for zero.
func (s *Service) List(ctx context.Context, subject string, limit, offset int) ([]*models.ActivityLog, error) {
	limit, offset = normalizePage(limit, offset)

	var (
		logs []*models.ActivityLog
		err  error
	)
	if subject == "" {
		logs, err = s.repo.List(ctx, limit, offset)
	} else {
		logs, err = s.repo.ListBySubject(ctx, subject, limit, offset)
	}
	if err != nil {
		return nil, services.WrapError(services.ErrorTypeInternal, services.ErrDatabaseError.Message, err)
	}

	return logs, nil
}

// Get returns a single entry
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.ActivityLog, error) {
	log, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrActivityLogNotFound.WithDetail("id", id.String())
		}
		return nil, services.WrapError(services.ErrorTypeInternal, services.ErrDatabaseError.Message, err)
	}
	return log, nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// GetStats returns statistics about the service
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		BufferSize:     s.bufferSize,
		PendingEntries: len(s.entries),
		WorkerCount:    s.workerCount,
		Started:        s.started,
	}
}

// Stats represents activity service statistics
type Stats struct {
	BufferSize     int
	PendingEntries int
	WorkerCount    int
	Started        bool
}
