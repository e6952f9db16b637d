package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	intconfig "rideshare/internal/config"
	intdb "rideshare/internal/db"
	"rideshare/internal/domain"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// MySQLStore keeps trips, bookings and negotiation history in MySQL.
// Trip rows are locked with SELECT ... FOR UPDATE.
type MySQLStore struct {
	DB          *sql.DB
	LockTimeout time.Duration
}

func (s MySQLStore) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s MySQLStore) Ping(ctx context.Context) error {
	db := s.db()
	if db == nil {
		return domain.TransientStoreError{Op: "ping", Err: errors.New("database not connected")}
	}
	if err := db.PingContext(ctx); err != nil {
		return storeErr("ping", err)
	}
	return nil
}

// MissingTables lists engine tables absent from the connected schema. An
// unconnected store reports every table.
func (s MySQLStore) MissingTables(ctx context.Context) []string {
	db := s.db()
	if db == nil {
		return append([]string(nil), intdb.Tables...)
	}
	return intdb.MissingTables(ctx, db)
}

func (s MySQLStore) Begin(ctx context.Context) (Tx, error) {
	db := s.db()
	if db == nil {
		return nil, domain.TransientStoreError{Op: "begin", Err: errors.New("database not connected")}
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr("begin", err)
	}
	// The session variable outlives the tx on the pooled connection. Every
	// Begin sets it again, so a connection never carries another store's value.
	if secs := lockWaitSeconds(s.LockTimeout); secs > 0 {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET SESSION innodb_lock_wait_timeout = %d", secs)); err != nil {
			_ = tx.Rollback()
			return nil, storeErr("begin", err)
		}
	}
	return &mysqlTx{tx: tx}, nil
}

// lockWaitSeconds rounds up; InnoDB only accepts whole seconds.
func lockWaitSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

type mysqlTx struct {
	tx *sql.Tx
}

func (t *mysqlTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return storeErr("commit", err)
	}
	return nil
}

func (t *mysqlTx) Rollback() error {
	err := t.tx.Rollback()
	if err == nil || errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return storeErr("rollback", err)
}

// storeErr classifies driver errors: lock waits, deadlocks and expired
// contexts become retryable TransientStoreError values.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if intdb.IsTransient(err) {
		return domain.TransientStoreError{Op: op, Err: err}
	}
	return domain.InternalError{Msg: op + " failed", Err: err}
}

func notFoundOr(op, resource string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundError{Resource: resource, Err: err}
	}
	return storeErr(op, err)
}
