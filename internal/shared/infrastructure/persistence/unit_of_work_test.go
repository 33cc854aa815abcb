package persistence

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTx satisfies pgx.Tx; calling any method panics.
type fakeTx struct{ pgx.Tx }

func TestPostgresUnitOfWork_JoinsEnclosingTransaction(t *testing.T) {
	uow := NewPostgresUnitOfWork(nil)
	outer := WithTx(context.Background(), TxInfo{Tx: fakeTx{}, Owned: true})

	inner, err := uow.Begin(outer)
	require.NoError(t, err)

	info, ok := TxInfoFromContext(inner)
	require.True(t, ok)
	assert.False(t, info.Owned)
	assert.NoError(t, uow.Commit(inner))
	assert.NoError(t, uow.Rollback(inner))
}

func TestSerializableUnitOfWork_RejectsWeakerTransaction(t *testing.T) {
	uow := NewSerializablePostgresUnitOfWork(nil)

	weak := WithTx(context.Background(), TxInfo{Tx: fakeTx{}, Owned: true, IsoLevel: pgx.ReadCommitted})
	_, err := uow.Begin(weak)
	assert.ErrorIs(t, err, ErrIsolationTooWeak)

	strong := WithTx(context.Background(), TxInfo{Tx: fakeTx{}, Owned: true, IsoLevel: pgx.Serializable})
	inner, err := uow.Begin(strong)
	require.NoError(t, err)
	info, _ := TxInfoFromContext(inner)
	assert.True(t, info.Serializable())
	assert.False(t, info.Owned)
}

func TestPostgresUnitOfWork_CommitWithoutTransaction(t *testing.T) {
	uow := NewPostgresUnitOfWork(nil)
	assert.ErrorIs(t, uow.Commit(context.Background()), errNoTransaction)
}
