package app

import (
	"context"
	"fmt"

	"github.com/taalumaworld/admin-access/auth"
	"github.com/taalumaworld/admin-access/config"
	"github.com/taalumaworld/admin-access/handlers"
	"github.com/taalumaworld/admin-access/internal/session"
	"github.com/taalumaworld/admin-access/middleware"
	"github.com/taalumaworld/admin-access/repositories"
	"github.com/taalumaworld/admin-access/repositories/cache"
	"github.com/taalumaworld/admin-access/repositories/postgres"
	"github.com/taalumaworld/admin-access/services/activity"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Preferences  repositories.PreferenceRepository
	ActivityLogs repositories.ActivityLogRepository

	// Services
	Activity *activity.Service
	Sessions *session.Registry

	// Auth
	Tokens           *auth.TokenService
	AuthHandler      *auth.Handler
	AuthMiddleware   *middleware.AuthMiddleware
	AccessMiddleware *middleware.AccessMiddleware

	// Handlers
	HealthHandler       *handlers.HealthHandler
	RBACHandler         *handlers.RBACHandler
	SessionHandler      *handlers.SessionHandler
	AdminSessionHandler *handlers.AdminSessionHandler
	ActivityHandler     *handlers.ActivityHandler

	stopEviction context.CancelFunc
	evictionDone chan struct{}
}

// NewDependencies connects to the database and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps, err := NewDependenciesWithFactory(ctx, cfg, factory, logger)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesWithFactory wires all dependencies over an existing repository factory
func NewDependenciesWithFactory(ctx context.Context, cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories(cfg)

	if err := deps.initActivity(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize activity log: %w", err)
	}

	deps.Sessions = session.NewRegistry(deps.Preferences, deps.Activity, logger)

	deps.initAuth(cfg)
	deps.initHandlers()
	deps.startSessionEviction(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase applies the schema when auto migration is enabled
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	if !cfg.Database.AutoMigrate {
		d.Logger.Info("schema auto migration disabled")
		return nil
	}

	if err := d.RepoFactory.InitSchema(ctx); err != nil {
		return err
	}

	d.Logger.Info("database schema ready")
	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories(cfg *config.Config) {
	repos := d.RepoFactory.NewRepositories()

	d.ActivityLogs = repos.ActivityLogs
	d.Preferences = repos.Preferences

	if cfg.Session.PreferenceCacheSize > 0 {
		d.Preferences = cache.NewPreferenceCache(
			repos.Preferences,
			cfg.Session.PreferenceCacheSize,
			cfg.Session.PreferenceCacheTTL,
			d.Logger,
		)
		d.Logger.Info("preference cache enabled",
			zap.Int("size", cfg.Session.PreferenceCacheSize),
			zap.Duration("ttl", cfg.Session.PreferenceCacheTTL))
	}

	d.Logger.Info("repositories initialized")
}

// initActivity starts the activity log writer
func (d *Dependencies) initActivity(cfg *config.Config) error {
	d.Activity = activity.NewService(d.ActivityLogs, d.Logger, activity.Config{
		BufferSize:  cfg.Activity.BufferSize,
		WorkerCount: cfg.Activity.WorkerCount,
	})
	return d.Activity.Start()
}

func (d *Dependencies) initAuth(cfg *config.Config) {
	d.AccessMiddleware = middleware.NewAccessMiddleware(d.Activity, d.Logger)

	tokens, err := auth.NewTokenService(auth.Config{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.JWTIssuer,
		Audience: cfg.Auth.JWTAudience,
		TTL:      cfg.Auth.TokenTTL,
	})
	if err != nil {
		d.Logger.Warn("JWT secret not configured, protected endpoints disabled", zap.Error(err))
		// Use reject-all validator so protected routes return 401
		d.AuthMiddleware = middleware.NewAuthMiddleware(&rejectAllValidator{}, d.Sessions, d.Logger)
		d.AuthHandler = auth.NewHandler(nil, false, cfg.Auth.SecureCookies, d.Logger)
		return
	}

	d.Tokens = tokens
	d.AuthMiddleware = middleware.NewAuthMiddleware(tokens, d.Sessions, d.Logger)
	d.AuthHandler = auth.NewHandler(tokens, cfg.Auth.DevTokensEnabled, cfg.Auth.SecureCookies, d.Logger)

	if cfg.Auth.DevTokensEnabled {
		d.Logger.Warn("development token endpoint enabled")
	}
	d.Logger.Info("auth initialized",
		zap.String("issuer", cfg.Auth.JWTIssuer),
		zap.Duration("token_ttl", tokens.TTL()))
}

func (d *Dependencies) initHandlers() {
	d.HealthHandler = handlers.NewHealthHandler(d.DB, d.Activity, d.Logger)
	d.RBACHandler = handlers.NewRBACHandler(d.Logger)
	d.SessionHandler = handlers.NewSessionHandler(d.Sessions, d.AuthHandler, d.Logger)
	d.AdminSessionHandler = handlers.NewAdminSessionHandler(d.Sessions, d.Logger)
	d.ActivityHandler = handlers.NewActivityHandler(d.Activity, d.Logger)
}

// startSessionEviction ends idle sessions in the background until Close
func (d *Dependencies) startSessionEviction(cfg *config.Config) {
	if cfg.Session.IdleTimeout <= 0 {
		d.Logger.Info("idle session eviction disabled")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.stopEviction = cancel
	d.evictionDone = make(chan struct{})

	go func() {
		defer close(d.evictionDone)
		d.Sessions.RunEviction(ctx, cfg.Session.IdleTimeout, cfg.Session.EvictionInterval)
	}()

	d.Logger.Info("idle session eviction started",
		zap.Duration("idle_timeout", cfg.Session.IdleTimeout),
		zap.Duration("interval", cfg.Session.EvictionInterval))
}

// rejectAllValidator rejects all tokens (used when no JWT secret is configured)
type rejectAllValidator struct{}

func (*rejectAllValidator) ValidateToken(context.Context, string) (*middleware.Claims, error) {
	return nil, fmt.Errorf("authentication not configured")
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.stopEviction != nil {
		d.stopEviction()
		<-d.evictionDone
	}

	// End sessions first so their session_closed entries reach the writer
	if d.Sessions != nil {
		d.Sessions.CloseAll(ctx)
	}

	if d.Activity != nil && d.Activity.GetStats().Started {
		if err := d.Activity.Stop(d.Config.Activity.ShutdownTimeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop activity service: %w", err))
		}
	}

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
