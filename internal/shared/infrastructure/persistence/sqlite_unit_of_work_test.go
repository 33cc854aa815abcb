package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE slots (id INTEGER PRIMARY KEY, label TEXT)`)
	require.NoError(t, err)
	return db
}

func countSlots(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM slots`).Scan(&n))
	return n
}

func TestSQLiteUnitOfWork_CommitPersists(t *testing.T) {
	db := openTestDB(t)
	uow := NewSQLiteUnitOfWork(db)

	txCtx, err := uow.Begin(context.Background())
	require.NoError(t, err)

	_, err = SQLiteExecutorFromContext(txCtx, db).ExecContext(txCtx, `INSERT INTO slots (label) VALUES ('am')`)
	require.NoError(t, err)
	require.NoError(t, uow.Commit(txCtx))

	assert.Equal(t, 1, countSlots(t, db))
}

func TestSQLiteUnitOfWork_RollbackDiscards(t *testing.T) {
	db := openTestDB(t)
	uow := NewSQLiteUnitOfWork(db)

	txCtx, err := uow.Begin(context.Background())
	require.NoError(t, err)

	_, err = SQLiteExecutorFromContext(txCtx, db).ExecContext(txCtx, `INSERT INTO slots (label) VALUES ('pm')`)
	require.NoError(t, err)
	require.NoError(t, uow.Rollback(txCtx))

	assert.Equal(t, 0, countSlots(t, db))
}

func TestSQLiteUnitOfWork_NestedJoinsOuter(t *testing.T) {
	db := openTestDB(t)
	uow := NewSQLiteUnitOfWork(db)

	outerCtx, err := uow.Begin(context.Background())
	require.NoError(t, err)
	innerCtx, err := uow.Begin(outerCtx)
	require.NoError(t, err)

	outer, _ := SQLiteTxInfoFromContext(outerCtx)
	inner, _ := SQLiteTxInfoFromContext(innerCtx)
	assert.True(t, outer.Owned)
	assert.False(t, inner.Owned)
	assert.Same(t, outer.Tx, inner.Tx)

	// Inner commit is a no-op; the outer rollback still discards the write.
	_, err = SQLiteExecutorFromContext(innerCtx, db).ExecContext(innerCtx, `INSERT INTO slots (label) VALUES ('x')`)
	require.NoError(t, err)
	require.NoError(t, uow.Commit(innerCtx))
	require.NoError(t, uow.Rollback(outerCtx))

	assert.Equal(t, 0, countSlots(t, db))
}

func TestSQLiteUnitOfWork_CommitWithoutTransaction(t *testing.T) {
	uow := NewSQLiteUnitOfWork(openTestDB(t))

	assert.ErrorIs(t, uow.Commit(context.Background()), errNoTransaction)
	assert.ErrorIs(t, uow.Rollback(context.Background()), errNoTransaction)
}

func TestExecutorWithoutTransaction(t *testing.T) {
	_, ok := TxInfoFromContext(context.Background())
	assert.False(t, ok)
	assert.Nil(t, Executor(context.Background(), nil))
}
