package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/upb/kitchen-dashboard/auth"
	"github.com/upb/kitchen-dashboard/config"
	"github.com/upb/kitchen-dashboard/identity"
	"github.com/upb/kitchen-dashboard/internal/access"
	"github.com/upb/kitchen-dashboard/internal/session"
	"github.com/upb/kitchen-dashboard/middleware"
	"github.com/upb/kitchen-dashboard/repositories"
	"github.com/upb/kitchen-dashboard/repositories/postgres"
	"github.com/upb/kitchen-dashboard/services/activity"
	"github.com/upb/kitchen-dashboard/services/dashboard"
	"github.com/upb/kitchen-dashboard/services/inventory"
	"github.com/upb/kitchen-dashboard/services/orders"
	"github.com/upb/kitchen-dashboard/services/reports"
	"github.com/upb/kitchen-dashboard/services/staff"
	"go.uber.org/zap"
)

// Version is reported by the status endpoint; overridden at link time.
var Version = "dev"

// activityStopTimeout bounds how long Close waits for queued activity entries
const activityStopTimeout = 5 * time.Second

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config    *config.Config
	DB        *postgres.DB
	Logger    *zap.Logger
	Location  *time.Location
	StartedAt time.Time

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Repos     *repositories.Repositories
	TxManager repositories.TransactionManager

	// Access control and session
	Identity identity.Provider
	Gate     *access.Gate
	Sessions *session.Store
	Resolver *session.Resolver

	// Services
	Activity  *activity.Recorder
	Feed      *activity.Feed
	Dashboard *dashboard.Service
	Inventory *inventory.Service
	Orders    *orders.Service
	Staff     *staff.Service
	Reports   *reports.Service

	// HTTP
	SessionMiddleware *middleware.SessionMiddleware
	GateMiddleware    *middleware.GateMiddleware
	authHandler       *auth.Handler
}

// AuthHandler returns the auth handler for route wiring (implements handlers.AuthDeps)
func (d *Dependencies) AuthHandler() *auth.Handler {
	return d.authHandler
}

// NewDependencies opens the database, wires every component and starts the
// background workers.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.Database.InitSchema {
		if err := factory.InitSchema(ctx); err != nil {
			_ = factory.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	deps, err := Build(cfg, factory.NewRepositories(), factory.GetTransactionManager(), logger)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	deps.RepoFactory = factory
	deps.DB = factory.GetDB()

	if err := deps.Start(); err != nil {
		_ = factory.Close()
		return nil, err
	}

	logger.Info("all dependencies initialized successfully",
		zap.String("identity_provider", deps.Identity.Name()),
		zap.String("timezone", deps.Location.String()))
	return deps, nil
}

// Build wires the components over the given repositories without starting
// any background work.
func Build(cfg *config.Config, repos *repositories.Repositories, txMgr repositories.TransactionManager, logger *zap.Logger) (*Dependencies, error) {
	loc, err := cfg.Dashboard.Location()
	if err != nil {
		return nil, err
	}

	table, err := access.DefaultTable()
	if err != nil {
		return nil, fmt.Errorf("failed to load route table: %w", err)
	}

	deps := &Dependencies{
		Config:    cfg,
		Logger:    logger,
		Location:  loc,
		StartedAt: time.Now(),
		Repos:     repos,
		TxManager: txMgr,
		Gate:      access.NewGate(table),
	}

	deps.initIdentity(cfg)
	deps.initSession(cfg)
	deps.initServices(cfg)
	deps.initHTTP(cfg)

	return deps, nil
}

// initIdentity selects the identity provider
func (d *Dependencies) initIdentity(cfg *config.Config) {
	switch cfg.Identity.Provider {
	case config.IdentityLocal:
		d.Identity = identity.NewLocalProvider(d.Repos.Staff, identity.LocalConfig{
			Secret:   []byte(cfg.Identity.LocalJWTSecret),
			TokenTTL: cfg.Identity.LocalTokenTTL,
		})
	case config.IdentitySupabase:
		if cfg.Identity.SupabaseURL == "" {
			d.Logger.Warn("supabase not configured, sign-in disabled")
			d.Identity = identity.DisabledProvider{}
			return
		}
		d.Identity = identity.NewSupabaseProvider(identity.SupabaseConfig{
			URL:          cfg.Identity.SupabaseURL,
			AnonKey:      cfg.Identity.SupabaseAnonKey,
			JWTSecret:    cfg.Identity.SupabaseJWTSecret,
			JWKSCacheTTL: cfg.Identity.JWKSCacheTTL,
			JWKSRefresh:  cfg.Identity.JWKSRefresh,
			HTTPTimeout:  cfg.Identity.HTTPTimeout,
		})
	default:
		d.Logger.Warn("identity provider disabled, every session resolves signed out")
		d.Identity = identity.DisabledProvider{}
	}
	d.Logger.Info("identity provider initialized", zap.String("provider", d.Identity.Name()))
}

// initSession creates the principal store and the resolver over it
func (d *Dependencies) initSession(cfg *config.Config) {
	d.Sessions = session.NewStore(cfg.Session.PrincipalCacheSize, cfg.Session.PrincipalCacheTTL)
	d.Resolver = session.NewResolver(d.Identity, d.Repos.Staff, d.Sessions, cfg.Session.ResolveTimeout, d.Logger)
}

// initServices creates the page services
func (d *Dependencies) initServices(cfg *config.Config) {
	d.Activity = activity.NewRecorder(d.Repos.Activity, d.Logger, activity.Config{
		BufferSize:  cfg.Activity.BufferSize,
		WorkerCount: cfg.Activity.WorkerCount,
	})
	d.Feed = activity.NewFeed(d.Repos.Activity, d.Logger)
	d.Dashboard = dashboard.NewService(d.Repos, d.Location, d.Logger)
	d.Inventory = inventory.NewService(d.Repos.Inventory, d.Activity, d.Logger)
	d.Orders = orders.NewService(d.Repos.Orders, d.TxManager, d.Activity, cfg.Dashboard.RecentDeliveries, d.Logger)
	d.Staff = staff.NewService(d.Repos.Staff, d.Logger)
	d.Reports = reports.NewService(d.Repos.Orders, d.Repos.Inventory, d.Location, d.Logger)
}

// initHTTP creates the middleware and the auth handler
func (d *Dependencies) initHTTP(cfg *config.Config) {
	d.SessionMiddleware = middleware.NewSessionMiddleware(d.Resolver, d.Logger)
	d.GateMiddleware = middleware.NewGateMiddleware(d.Gate, d.Logger)
	d.authHandler = auth.NewHandler(d.Identity, d.Resolver, d.Activity, d.Gate, auth.CookieConfig{
		Secure: cfg.Session.CookieSecure,
		MaxAge: cfg.Session.MaxAge,
	}, d.Logger)
}

// Start launches the principal store cleanup and the activity workers
func (d *Dependencies) Start() error {
	interval := d.Config.Session.CleanupInterval
	if interval <= 0 {
		interval = time.Minute
	}
	d.Sessions.Start(interval)

	if err := d.Activity.Start(); err != nil {
		return fmt.Errorf("failed to start activity recorder: %w", err)
	}
	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Drain queued activity before the pool goes away
	if d.Activity != nil {
		timeout := activityStopTimeout
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.Activity.Stop(timeout); err != nil && !errors.Is(err, activity.ErrNotStarted) {
			errs = append(errs, fmt.Errorf("failed to stop activity recorder: %w", err))
		}
	}

	if d.Sessions != nil {
		d.Sessions.Stop()
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
		return errors.Join(errs...)
	}

	return nil
}
