package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taalumaworld/admin-access/config"
	"github.com/taalumaworld/admin-access/models"
	"github.com/taalumaworld/admin-access/repositories/cache"
	"github.com/taalumaworld/admin-access/repositories/postgres"
	"go.uber.org/zap/zaptest"
)

const schemaPattern = "CREATE TABLE IF NOT EXISTS admin_preferences"

func TestNewDependenciesWithFactory(t *testing.T) {
	t.Run("wires all components", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig()
		factory, mock := mockFactory(t)
		mock.ExpectExec(schemaPattern).WillReturnResult(sqlmock.NewResult(0, 0))

		deps, err := NewDependenciesWithFactory(ctx, cfg, factory, zaptest.NewLogger(t))
		require.NoError(t, err)

		assert.NotNil(t, deps.DB)
		assert.NotNil(t, deps.ActivityLogs)
		assert.IsType(t, &cache.PreferenceCache{}, deps.Preferences)
		assert.True(t, deps.Activity.GetStats().Started)
		assert.NotNil(t, deps.Sessions)
		assert.NotNil(t, deps.Tokens)
		assert.NotNil(t, deps.AuthHandler)
		assert.NotNil(t, deps.AuthMiddleware)
		assert.NotNil(t, deps.AccessMiddleware)
		assert.NotNil(t, deps.HealthHandler)
		assert.NotNil(t, deps.RBACHandler)
		assert.NotNil(t, deps.SessionHandler)
		assert.NotNil(t, deps.AdminSessionHandler)
		assert.NotNil(t, deps.ActivityHandler)

		mock.ExpectClose()
		require.NoError(t, deps.Close(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("auto migration disabled skips schema", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig()
		cfg.Database.AutoMigrate = false
		factory, mock := mockFactory(t)

		deps, err := NewDependenciesWithFactory(ctx, cfg, factory, zaptest.NewLogger(t))
		require.NoError(t, err)

		mock.ExpectClose()
		require.NoError(t, deps.Close(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero cache size uses repository directly", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig()
		cfg.Database.AutoMigrate = false
		cfg.Session.PreferenceCacheSize = 0
		factory, mock := mockFactory(t)

		deps, err := NewDependenciesWithFactory(ctx, cfg, factory, zaptest.NewLogger(t))
		require.NoError(t, err)

		_, cached := deps.Preferences.(*cache.PreferenceCache)
		assert.False(t, cached)

		mock.ExpectClose()
		require.NoError(t, deps.Close(ctx))
	})

	t.Run("schema failure", func(t *testing.T) {
		cfg := testConfig()
		factory, mock := mockFactory(t)
		mock.ExpectExec(schemaPattern).WillReturnError(errors.New("permission denied"))

		deps, err := NewDependenciesWithFactory(context.Background(), cfg, factory, zaptest.NewLogger(t))

		assert.Error(t, err)
		assert.Nil(t, deps)
		assert.Contains(t, err.Error(), "failed to initialize database")
	})

	t.Run("missing JWT secret rejects every token", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig()
		cfg.Database.AutoMigrate = false
		cfg.Auth.JWTSecret = ""
		cfg.Auth.DevTokensEnabled = true
		factory, mock := mockFactory(t)

		deps, err := NewDependenciesWithFactory(ctx, cfg, factory, zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.Nil(t, deps.Tokens)

		protected := deps.AuthMiddleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be reached")
		}))
		req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
		req.Header.Set("Authorization", "Bearer anything")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		// dev tokens stay off without a signing key
		rec = httptest.NewRecorder()
		deps.AuthHandler.HandleDevToken(rec, httptest.NewRequest(http.MethodPost, "/auth/dev-token", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		mock.ExpectClose()
		require.NoError(t, deps.Close(ctx))
	})
}

func TestNewDependencies(t *testing.T) {
	t.Run("database connection failure", func(t *testing.T) {
		cfg := testConfig()
		cfg.Database.Host = "127.0.0.1"
		cfg.Database.Port = 1

		deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))

		assert.Error(t, err)
		assert.Nil(t, deps)
		assert.Contains(t, err.Error(), "failed to initialize database")
	})
}

func TestDependenciesClose(t *testing.T) {
	t.Run("ends open sessions and drains the activity log", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig()
		cfg.Database.AutoMigrate = false
		factory, mock := mockFactory(t)

		deps, err := NewDependenciesWithFactory(ctx, cfg, factory, zaptest.NewLogger(t))
		require.NoError(t, err)

		// session_opened and session_closed both reach the table before close
		mock.MatchExpectationsInOrder(false)
		mock.ExpectQuery("SELECT pref_value").WillReturnRows(sqlmock.NewRows([]string{"pref_value"}))
		mock.ExpectExec("INSERT INTO activity_logs").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO activity_logs").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectClose()

		provider := deps.Sessions.Open(ctx, models.Identity{Subject: "user-1", Email: "amina@taalumaworld.com"})
		require.NotNil(t, provider.Current())

		require.NoError(t, deps.Close(ctx))
		assert.True(t, provider.Closed())
		assert.Equal(t, 0, deps.Sessions.Len())
		assert.False(t, deps.Activity.GetStats().Started)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("idle sessions are ended in the background", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig()
		cfg.Database.AutoMigrate = false
		cfg.Session.IdleTimeout = time.Nanosecond
		cfg.Session.EvictionInterval = 5 * time.Millisecond
		factory, mock := mockFactory(t)

		deps, err := NewDependenciesWithFactory(ctx, cfg, factory, zaptest.NewLogger(t))
		require.NoError(t, err)

		mock.MatchExpectationsInOrder(false)
		mock.ExpectQuery("SELECT pref_value").WillReturnRows(sqlmock.NewRows([]string{"pref_value"}))
		mock.ExpectExec("INSERT INTO activity_logs").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO activity_logs").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectClose()

		provider := deps.Sessions.Open(ctx, models.Identity{Subject: "user-1"})

		require.Eventually(t, provider.Closed, time.Second, 5*time.Millisecond)
		assert.Equal(t, 0, deps.Sessions.Len())

		require.NoError(t, deps.Close(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero idle timeout keeps sessions until close", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig()
		cfg.Database.AutoMigrate = false
		cfg.Session.IdleTimeout = 0
		factory, mock := mockFactory(t)

		deps, err := NewDependenciesWithFactory(ctx, cfg, factory, zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.Nil(t, deps.stopEviction)

		mock.ExpectClose()
		require.NoError(t, deps.Close(ctx))
	})

	t.Run("second close does not stop the activity log again", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig()
		cfg.Database.AutoMigrate = false
		factory, mock := mockFactory(t)

		deps, err := NewDependenciesWithFactory(ctx, cfg, factory, zaptest.NewLogger(t))
		require.NoError(t, err)

		mock.ExpectClose()
		require.NoError(t, deps.Close(ctx))
		assert.NoError(t, deps.Close(ctx))
	})
}

// Test helpers

func mockFactory(t *testing.T) (*postgres.RepositoryFactory, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	return postgres.NewRepositoryFactoryFromDB(postgres.WrapDB(db, logger), logger), mock
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: config.DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "admin",
			Password:        "admin",
			Database:        "admin_access_test",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
			AutoMigrate:     true,
		},
		Auth: config.AuthConfig{
			JWTSecret:     "test-secret-that-is-at-least-32-bytes",
			JWTIssuer:     "taalumaworld",
			JWTAudience:   "admin",
			TokenTTL:      time.Hour,
			SecureCookies: false,
		},
		Session: config.SessionConfig{
			PreferenceCacheSize: 16,
			PreferenceCacheTTL:  time.Minute,
			IdleTimeout:         30 * time.Minute,
			EvictionInterval:    time.Minute,
		},
		Activity: config.ActivityConfig{
			BufferSize:      16,
			WorkerCount:     1,
			ShutdownTimeout: 5 * time.Second,
		},
		Observability: config.ObservabilityConfig{
			LogLevel:  "debug",
			LogFormat: "json",
		},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"http://localhost:*"},
		},
	}
}
