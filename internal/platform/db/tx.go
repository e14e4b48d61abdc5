package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queryable is the subset of pgx operations repositories issue. Both
// *pgxpool.Pool and pgx.Tx satisfy it, so a repository runs against the
// ambient transaction when one is present and the pool otherwise.
type Queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type txKey struct{}

// TxFromContext retrieves the transaction injected by a Runner, or nil.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

// Conn resolves the Queryable a repository should use: the context
// transaction when inside a Runner.InTx call, the pool otherwise.
func Conn(ctx context.Context, pool *pgxpool.Pool) Queryable {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// Runner executes a function inside a single database transaction. Every
// multi-step ledger operation goes through a Runner so that reads, precondition
// checks, and writes commit as one atomic unit or not at all.
type Runner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PoolRunner is the production Runner backed by a pgx pool. The transaction is
// placed in the context so repositories pick it up via Conn.
type PoolRunner struct {
	Pool *pgxpool.Pool
}

func NewRunner(pool *pgxpool.Pool) *PoolRunner {
	return &PoolRunner{Pool: pool}
}

func (r *PoolRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
