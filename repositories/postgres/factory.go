package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/upb/kitchen-dashboard/config"
	"github.com/upb/kitchen-dashboard/repositories"
	"go.uber.org/zap"
)

// RepositoryFactory creates and manages all repositories
type RepositoryFactory struct {
	db          *DB
	logger      *zap.Logger
	lockTimeout time.Duration
}

// NewRepositoryFactory opens the pool and returns a factory over it
func NewRepositoryFactory(cfg *config.Config, logger *zap.Logger) (*RepositoryFactory, error) {
	db, err := NewDB(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return &RepositoryFactory{db: db, logger: logger, lockTimeout: cfg.Database.LockTimeout}, nil
}

// NewRepositoryFactoryFromDB wraps a pool opened elsewhere, e.g. by sqlmock
func NewRepositoryFactoryFromDB(sqlDB *sql.DB, lockTimeout time.Duration, logger *zap.Logger) *RepositoryFactory {
	return &RepositoryFactory{
		db:          &DB{DB: sqlDB, logger: logger},
		logger:      logger,
		lockTimeout: lockTimeout,
	}
}

// InitSchema creates the dashboard tables on a local database
func (f *RepositoryFactory) InitSchema(ctx context.Context) error {
	return f.db.InitSchema(ctx)
}

// NewRepositories creates all repository instances
func (f *RepositoryFactory) NewRepositories() *repositories.Repositories {
	return &repositories.Repositories{
		Staff:     NewStaffRepository(f.db, f.logger),
		Inventory: NewInventoryRepository(f.db, f.logger),
		Orders:    NewOrderRepository(f.db, f.logger),
		Activity:  NewActivityRepository(f.db, f.logger),
	}
}

// GetTransactionManager returns a transaction manager
func (f *RepositoryFactory) GetTransactionManager() repositories.TransactionManager {
	return NewTransactionManager(f.db, f.logger, WithLockTimeout(f.lockTimeout))
}

// GetDB returns the database connection
func (f *RepositoryFactory) GetDB() *DB {
	return f.db
}

// Close closes the database connection
func (f *RepositoryFactory) Close() error {
	return f.db.Close()
}
