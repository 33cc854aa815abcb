package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrIsolationTooWeak is returned when a serializable unit of work would
// join a transaction opened at a lower isolation level.
var ErrIsolationTooWeak = errors.New("enclosing transaction is not serializable")

type txKey struct{}

// TxInfo is the PostgreSQL transaction carried in a context.
type TxInfo struct {
	Tx pgx.Tx
	// Owned is true for the unit of work that opened Tx.
	Owned bool
	// IsoLevel is the isolation level Tx was opened with. Empty means the
	// server default.
	IsoLevel pgx.TxIsoLevel
}

// Serializable reports whether the transaction runs at SERIALIZABLE.
func (i TxInfo) Serializable() bool {
	return i.IsoLevel == pgx.Serializable
}

// WithTx stores transaction info in the context.
func WithTx(ctx context.Context, info TxInfo) context.Context {
	return context.WithValue(ctx, txKey{}, info)
}

// TxInfoFromContext extracts transaction info from the context.
func TxInfoFromContext(ctx context.Context) (TxInfo, bool) {
	info, ok := ctx.Value(txKey{}).(TxInfo)
	if !ok || info.Tx == nil {
		return TxInfo{}, false
	}
	return info, true
}

// DBExecutor is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Executor returns the transaction in ctx when present, otherwise the pool.
func Executor(ctx context.Context, pool *pgxpool.Pool) DBExecutor {
	if info, ok := TxInfoFromContext(ctx); ok {
		return info.Tx
	}
	return pool
}
