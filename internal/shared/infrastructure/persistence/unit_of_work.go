package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var errNoTransaction = errors.New("no transaction in context")

// PostgresUnitOfWork provides transactional support for PostgreSQL.
type PostgresUnitOfWork struct {
	pool    *pgxpool.Pool
	options pgx.TxOptions
}

// NewPostgresUnitOfWork creates a unit of work using the server's default isolation level.
func NewPostgresUnitOfWork(pool *pgxpool.Pool) *PostgresUnitOfWork {
	return &PostgresUnitOfWork{pool: pool}
}

// NewSerializablePostgresUnitOfWork creates a unit of work whose transactions
// run at SERIALIZABLE isolation. Booking writes go through it so that a
// conflict check and the insert it guards cannot interleave with another
// booking for the same slot.
func NewSerializablePostgresUnitOfWork(pool *pgxpool.Pool) *PostgresUnitOfWork {
	return &PostgresUnitOfWork{
		pool:    pool,
		options: pgx.TxOptions{IsoLevel: pgx.Serializable},
	}
}

// Begin starts a transaction, or joins the one already in ctx. A
// serializable unit of work refuses to join a weaker transaction.
func (u *PostgresUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if info, ok := TxInfoFromContext(ctx); ok {
		if u.options.IsoLevel == pgx.Serializable && !info.Serializable() {
			return nil, ErrIsolationTooWeak
		}
		info.Owned = false
		return WithTx(ctx, info), nil
	}

	tx, err := u.pool.BeginTx(ctx, u.options)
	if err != nil {
		return nil, err
	}

	return WithTx(ctx, TxInfo{Tx: tx, Owned: true, IsoLevel: u.options.IsoLevel}), nil
}

// Commit commits the transaction if this unit owns it.
func (u *PostgresUnitOfWork) Commit(ctx context.Context) error {
	info, ok := TxInfoFromContext(ctx)
	if !ok {
		return errNoTransaction
	}
	if !info.Owned {
		return nil
	}
	return info.Tx.Commit(ctx)
}

// Rollback rolls back the transaction if this unit owns it.
func (u *PostgresUnitOfWork) Rollback(ctx context.Context) error {
	info, ok := TxInfoFromContext(ctx)
	if !ok {
		return errNoTransaction
	}
	if !info.Owned {
		return nil
	}
	return info.Tx.Rollback(ctx)
}
