package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/kitchen-dashboard/config"
	"github.com/upb/kitchen-dashboard/identity"
	"github.com/upb/kitchen-dashboard/repositories/mocks"
	"github.com/upb/kitchen-dashboard/repositories/postgres"
	"go.uber.org/zap/zaptest"
)

func TestBuild(t *testing.T) {
	t.Run("wires every component", func(t *testing.T) {
		deps := buildTestDeps(t, testConfig())

		assert.NotNil(t, deps.Config)
		assert.NotNil(t, deps.Logger)
		assert.Equal(t, "UTC", deps.Location.String())

		assert.NotNil(t, deps.Repos)
		assert.NotNil(t, deps.TxManager)

		assert.NotNil(t, deps.Gate)
		assert.NotNil(t, deps.Sessions)
		assert.NotNil(t, deps.Resolver)

		assert.NotNil(t, deps.Activity)
		assert.NotNil(t, deps.Feed)
		assert.NotNil(t, deps.Dashboard)
		assert.NotNil(t, deps.Inventory)
		assert.NotNil(t, deps.Orders)
		assert.NotNil(t, deps.Staff)
		assert.NotNil(t, deps.Reports)

		assert.NotNil(t, deps.SessionMiddleware)
		assert.NotNil(t, deps.GateMiddleware)
		assert.NotNil(t, deps.AuthHandler())

		// No database behind mocks
		assert.Nil(t, deps.DB)
		assert.Nil(t, deps.RepoFactory)
	})

	t.Run("invalid timezone", func(t *testing.T) {
		cfg := testConfig()
		cfg.Dashboard.Timezone = "Mars/Olympus_Mons"
		repos, _, _, _, _ := mocks.NewRepositories()

		deps, err := Build(cfg, repos, &mocks.TransactionManager{}, zaptest.NewLogger(t))
		assert.Error(t, err)
		assert.Nil(t, deps)
	})

	t.Run("configured timezone", func(t *testing.T) {
		cfg := testConfig()
		cfg.Dashboard.Timezone = "America/Bogota"

		deps := buildTestDeps(t, cfg)
		assert.Equal(t, "America/Bogota", deps.Location.String())
	})
}

func TestBuild_IdentityProvider(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*config.Config)
		expected string
	}{
		{
			name:     "none",
			mutate:   func(c *config.Config) { c.Identity.Provider = config.IdentityNone },
			expected: identity.ProviderNone,
		},
		{
			name: "local",
			mutate: func(c *config.Config) {
				c.Identity.Provider = config.IdentityLocal
				c.Identity.LocalJWTSecret = "0123456789abcdef0123456789abcdef"
				c.Identity.LocalTokenTTL = time.Hour
			},
			expected: identity.ProviderLocal,
		},
		{
			name: "supabase",
			mutate: func(c *config.Config) {
				c.Identity.Provider = config.IdentitySupabase
				c.Identity.SupabaseURL = "https://project.supabase.co"
				c.Identity.SupabaseAnonKey = "anon"
			},
			expected: identity.ProviderSupabase,
		},
		{
			name: "supabase without url is disabled",
			mutate: func(c *config.Config) {
				c.Identity.Provider = config.IdentitySupabase
				c.Identity.SupabaseURL = ""
			},
			expected: identity.ProviderNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			deps := buildTestDeps(t, cfg)
			assert.Equal(t, tt.expected, deps.Identity.Name())
		})
	}
}

func TestDependencies_StartClose(t *testing.T) {
	t.Run("start then close", func(t *testing.T) {
		deps := buildTestDeps(t, testConfig())

		require.NoError(t, deps.Start())
		assert.True(t, deps.Activity.GetStats().Running)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.NoError(t, deps.Close(ctx))
		assert.False(t, deps.Activity.GetStats().Running)
	})

	t.Run("close without start", func(t *testing.T) {
		deps := buildTestDeps(t, testConfig())
		assert.NoError(t, deps.Close(context.Background()))
	})

	t.Run("second close does not fail", func(t *testing.T) {
		deps := buildTestDeps(t, testConfig())
		require.NoError(t, deps.Start())

		assert.NoError(t, deps.Close(context.Background()))
		assert.NoError(t, deps.Close(context.Background()))
	})
}

func TestDependencies_CloseKeepsCauses(t *testing.T) {
	deps := buildTestDeps(t, testConfig())

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	closeErr := errors.New("connection already broken")
	mock.ExpectClose().WillReturnError(closeErr)
	deps.RepoFactory = postgres.NewRepositoryFactoryFromDB(sqlDB, 0, deps.Logger)

	err = deps.Close(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, closeErr)
	assert.Contains(t, err.Error(), "failed to close database")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewDependencies_DatabaseFailure(t *testing.T) {
	cfg := testConfig()
	cfg.Database.Host = "127.0.0.1"
	cfg.Database.Port = 1

	deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
	assert.Nil(t, deps)
	assert.Contains(t, err.Error(), "failed to initialize database")
}

// Test helpers

func buildTestDeps(t *testing.T, cfg *config.Config) *Dependencies {
	t.Helper()
	repos, _, _, _, _ := mocks.NewRepositories()
	deps, err := Build(cfg, repos, &mocks.TransactionManager{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, deps)
	return deps
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Database: config.DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Password:        "postgres",
			Database:        "kitchen_test",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Identity: config.IdentityConfig{Provider: config.IdentityNone},
		Session: config.SessionConfig{
			MaxAge:             12 * time.Hour,
			ResolveTimeout:     time.Second,
			PrincipalCacheSize: 100,
			PrincipalCacheTTL:  time.Minute,
			CleanupInterval:    time.Minute,
		},
		Dashboard: config.DashboardConfig{Timezone: "UTC", RecentDeliveries: 5},
		Activity:  config.ActivityConfig{BufferSize: 10, WorkerCount: 1},
		Observability: config.ObservabilityConfig{
			LogLevel:  "debug",
			LogFormat: "json",
		},
	}
}
