package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrSerialization is returned when Postgres aborts a transaction because a
// concurrent writer won the race. Callers should retry with fresh data.
var ErrSerialization = errors.New("transaction serialization failure")

const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqUniqueViolation      = "23505"
)

// TxFunc is the body of a unit of work. tx is nil when the caller runs
// without a database (tests); repositories fall back to their own handle.
type TxFunc func(ctx context.Context, tx sqlx.ExtContext) error

// UnitOfWork runs a function inside a single transaction that is either
// fully committed or fully rolled back.
type UnitOfWork struct {
	db   *sqlx.DB
	opts *sql.TxOptions
}

// NewUnitOfWork builds a unit of work using SERIALIZABLE isolation.
func NewUnitOfWork(db *sqlx.DB) *UnitOfWork {
	return &UnitOfWork{db: db, opts: &sql.TxOptions{Isolation: sql.LevelSerializable}}
}

// Do executes fn in a transaction. The transaction commits only when fn
// returns nil; errors and panics roll it back.
func (u *UnitOfWork) Do(ctx context.Context, fn TxFunc) (err error) {
	tx, err := u.db.BeginTxx(ctx, u.opts)
	if err != nil {
		return fmt.Errorf("begin unit of work: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return classify(err)
	}
	if err = tx.Commit(); err != nil {
		return classify(fmt.Errorf("commit unit of work: %w", err))
	}
	return nil
}

// LockSlot takes a transaction-scoped advisory lock on key. Writers claiming
// the same room or teacher slot queue behind each other until commit.
func LockSlot(ctx context.Context, tx sqlx.ExtContext, key string) error {
	if tx == nil {
		return nil
	}
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", key); err != nil {
		return classify(fmt.Errorf("lock slot %s: %w", key, err))
	}
	return nil
}

// IsUniqueViolation reports whether err carries a Postgres unique violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation
}

// IsSerializationFailure reports whether err is a retryable write race.
func IsSerializationFailure(err error) bool {
	if errors.Is(err, ErrSerialization) {
		return true
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	code := string(pqErr.Code)
	return code == pqSerializationFailure || code == pqDeadlockDetected
}

func classify(err error) error {
	if err == nil || errors.Is(err, ErrSerialization) {
		return err
	}
	if IsSerializationFailure(err) {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return err
}
