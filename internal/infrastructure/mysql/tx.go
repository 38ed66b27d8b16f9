package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/DavidCLumin/estate-agent-crm/internal/domain"
	"github.com/DavidCLumin/estate-agent-crm/pkg/logger"

	"github.com/go-sql-driver/mysql"
)

// maxTxAttempts bounds retries of deadlocked transactions before the
// caller sees a generic conflict.
const maxTxAttempts = 3

// querier is the subset of *sql.DB / *sql.Tx the repositories need.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type txKey struct{}

// conn returns the transaction carried by ctx when there is one, else
// the bare pool. Repositories route every statement through this so the
// recorder's re-read and insert share one transaction.
func conn(ctx context.Context, db *sql.DB) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

type TxManager struct {
	db  *sql.DB
	log logger.Logger
}

func NewTxManager(db *sql.DB, log logger.Logger) *TxManager {
	return &TxManager{db: db, log: log}
}

// WithinTx runs fn inside one database transaction. InnoDB row locks on
// the property row (see PropertyRepository.GetForUpdate) serialize
// concurrent bidders; deadlocks and lock-wait timeouts are retried up to
// maxTxAttempts before surfacing ErrTxConflict.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = m.runOnce(ctx, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
		m.log.Warn("Retrying conflicting transaction", "attempt", attempt, "error", err)
	}
	m.log.Error("Transaction kept conflicting, giving up", "attempts", maxTxAttempts, "error", err)
	return domain.ErrTxConflict
}

func (m *TxManager) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			m.log.Error("Failed to roll back transaction", "error", rbErr)
		}
		return err
	}

	return tx.Commit()
}

const (
	mysqlErrDeadlock        = 1213
	mysqlErrLockWaitTimeout = 1205
)

func isRetryable(err error) bool {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) {
		return false
	}
	return mysqlErr.Number == mysqlErrDeadlock || mysqlErr.Number == mysqlErrLockWaitTimeout
}
