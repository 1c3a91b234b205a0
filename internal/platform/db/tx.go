package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queryable is the subset of pgx operations shared by a pool and a
// transaction. Repositories run their SQL through whichever one the
// context carries.
type Queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type contextKey string

const txKey contextKey = "db_tx"

// Txer runs a function inside a database transaction. The booking
// allocator depends on this abstraction so the lock-revalidate-mutate
// protocol cannot be assembled with a forgotten rollback; tests substitute
// a mutex-serialized implementation.
type Txer interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PgxTxer is the pgx-backed Txer. Row locks taken with
// SELECT ... FOR UPDATE inside fn are held until commit or rollback.
type PgxTxer struct {
	pool *pgxpool.Pool
}

func NewTxer(pool *pgxpool.Pool) *PgxTxer {
	return &PgxTxer{pool: pool}
}

// WithTx begins a transaction, stashes it in the context for repositories
// to pick up, and commits when fn returns nil. On error or panic the
// transaction is rolled back on every exit path.
func (t *PgxTxer) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ConnFromContext returns the transaction carried by ctx, or nil when the
// caller is not inside WithTx.
func ConnFromContext(ctx context.Context) Queryable {
	tx, _ := ctx.Value(txKey).(pgx.Tx)
	if tx == nil {
		return nil
	}
	return tx
}
