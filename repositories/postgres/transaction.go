package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/upb/kitchen-dashboard/repositories"
	"go.uber.org/zap"
)

type txKey struct{}

// TxOption configures a TransactionManager
type TxOption func(*TransactionManager)

// WithLockTimeout bounds how long a statement inside the transaction waits
// for a row lock. Order transitions lock the order row, so a stuck writer
// surfaces as repositories.ErrLocked instead of a hung request.
func WithLockTimeout(d time.Duration) TxOption {
	return func(tm *TransactionManager) {
		tm.lockTimeout = d
	}
}

// TransactionManager runs units of work in one database transaction
type TransactionManager struct {
	db          *DB
	logger      *zap.Logger
	lockTimeout time.Duration
}

// NewTransactionManager creates a transaction manager over the pool
func NewTransactionManager(db *DB, logger *zap.Logger, opts ...TxOption) repositories.TransactionManager {
	tm := &TransactionManager{db: db, logger: logger}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

// Begin opens a transaction and applies the session settings
func (tm *TransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	sqlTx, err := tm.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if tm.lockTimeout > 0 {
		// SET does not take bind parameters.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", tm.lockTimeout.Milliseconds())
		if _, err := sqlTx.ExecContext(ctx, stmt); err != nil {
			_ = sqlTx.Rollback()
			return nil, fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}

	tx := &Transaction{tx: sqlTx, logger: tm.logger}
	tx.ctx = context.WithValue(ctx, txKey{}, tx)
	return tx, nil
}

// InTransaction runs fn with a context carrying the transaction; repository
// calls made with that context join it. fn's error or panic rolls back.
func (tm *TransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	tx, err := tm.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx.Context(), tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			tm.logger.Error("failed to roll back transaction",
				zap.Error(rbErr),
				zap.NamedError("cause", err))
		}
		return err
	}

	return tx.Commit()
}

// Transaction wraps *sql.Tx. Rollback after Commit is a no-op, so callers
// can defer it unconditionally.
type Transaction struct {
	tx     *sql.Tx
	ctx    context.Context
	logger *zap.Logger
}

// Commit commits the transaction
func (t *Transaction) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return mapError(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// Rollback rolls back the transaction
func (t *Transaction) Rollback() error {
	err := t.tx.Rollback()
	if err == nil || errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return fmt.Errorf("failed to roll back transaction: %w", err)
}

// Context returns a context that carries this transaction
func (t *Transaction) Context() context.Context {
	return t.ctx
}

// Executor is satisfied by both *sql.DB and *sql.Tx
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// GetExecutor returns the transaction carried by ctx, or the pool
func GetExecutor(ctx context.Context, db *DB) Executor {
	if tx, ok := ctx.Value(txKey{}).(*Transaction); ok {
		return tx.tx
	}
	return db.DB
}
