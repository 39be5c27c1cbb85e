package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pandodao/coffee-wallet/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsenart/nap"
)

const (
	lockQuery   = `SELECT user_id, amount, version FROM balances WHERE user_id = \? FOR UPDATE`
	traceQuery  = `SELECT (.+) FROM transactions WHERE`
	updateQuery = `UPDATE balances SET amount = \?, version = \?, updated_at = \? WHERE user_id = \? AND version = \?`
	insertQuery = `INSERT INTO transactions`
)

var transactionColumns = []string{"id", "created_at", "trace_id", "user_id", "kind", "amount", "counterparty", "location", "memo"}

func newMockDB(t *testing.T) (*nap.DB, sqlmock.Sqlmock) {
	t.Helper()

	dsn := "ledger_" + t.Name()
	_, mock, err := sqlmock.NewWithDSN(dsn)
	require.NoError(t, err)

	db, err := nap.Open("sqlmock", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db, mock
}

func newSend(amount int64) *core.Transaction {
	return &core.Transaction{
		TraceID:      "t1",
		UserID:       "alice",
		Kind:         core.TransactionKindSend,
		Amount:       amount,
		Counterparty: "bob",
		Memo:         "coffee",
	}
}

func expectLock(mock sqlmock.Sqlmock, amount, version int64) {
	mock.ExpectQuery(lockQuery).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "amount", "version"}).AddRow("alice", amount, version))
}

func TestLedger_Commit(t *testing.T) {
	db, mock := newMockDB(t)
	l := New(db)

	mock.ExpectBegin()
	expectLock(mock, 5, 1)
	mock.ExpectQuery(traceQuery).WillReturnRows(sqlmock.NewRows(transactionColumns))
	mock.ExpectExec(updateQuery).
		WithArgs(2, 2, sqlmock.AnyArg(), "alice", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertQuery).
		WithArgs(sqlmock.AnyArg(), "t1", "alice", core.TransactionKindSend, 3, "bob", "", "coffee").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(`INSERT INTO settlements`).
		WithArgs(42, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx := newSend(3)
	require.NoError(t, l.Commit(context.Background(), tx))
	assert.EqualValues(t, 42, tx.ID)
	assert.False(t, tx.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_CommitInsufficientBalance(t *testing.T) {
	db, mock := newMockDB(t)
	l := New(db)

	mock.ExpectBegin()
	expectLock(mock, 2, 7)
	mock.ExpectQuery(traceQuery).WillReturnRows(sqlmock.NewRows(transactionColumns))
	mock.ExpectRollback()

	err := l.Commit(context.Background(), newSend(3))
	assert.ErrorIs(t, err, core.ErrInsufficientBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_CommitDuplicateTrace(t *testing.T) {
	db, mock := newMockDB(t)
	l := New(db)

	createdAt := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	expectLock(mock, 2, 3)
	mock.ExpectQuery(traceQuery).WillReturnRows(
		sqlmock.NewRows(transactionColumns).
			AddRow(7, createdAt, "t1", "alice", 2, 3, "bob", "", "coffee"),
	)
	mock.ExpectRollback()

	tx := newSend(3)
	require.NoError(t, l.Commit(context.Background(), tx))
	assert.EqualValues(t, 7, tx.ID)
	assert.Equal(t, createdAt, tx.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_CommitUnknownAccount(t *testing.T) {
	db, mock := newMockDB(t)
	l := New(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "amount", "version"}))
	mock.ExpectRollback()

	err := l.Commit(context.Background(), newSend(1))
	assert.ErrorIs(t, err, core.ErrAccountNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_CommitOptimisticLock(t *testing.T) {
	db, mock := newMockDB(t)
	l := New(db)

	mock.ExpectBegin()
	expectLock(mock, 5, 1)
	mock.ExpectQuery(traceQuery).WillReturnRows(sqlmock.NewRows(transactionColumns))
	mock.ExpectExec(updateQuery).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := l.Commit(context.Background(), newSend(1))
	assert.EqualError(t, err, "optimistic lock failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_CommitInvalid(t *testing.T) {
	db, mock := newMockDB(t)
	l := New(db)

	assert.ErrorIs(t, l.Commit(context.Background(), newSend(0)), core.ErrInvalidAmount)
	assert.Error(t, l.Commit(context.Background(), &core.Transaction{UserID: "alice", Amount: 1}))
	assert.ErrorIs(t, l.Debit(context.Background(), "alice", -1), core.ErrInvalidAmount)
	assert.ErrorIs(t, l.Credit(context.Background(), "alice", 0), core.ErrInvalidAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_Credit(t *testing.T) {
	db, mock := newMockDB(t)
	l := New(db)

	mock.ExpectBegin()
	expectLock(mock, 5, 4)
	mock.ExpectExec(updateQuery).
		WithArgs(8, 5, sqlmock.AnyArg(), "alice", 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, l.Credit(context.Background(), "alice", 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_BalanceOf(t *testing.T) {
	db, mock := newMockDB(t)
	l := New(db)

	mock.ExpectQuery(`SELECT amount FROM balances WHERE user_id = \?`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"amount"}).AddRow(12))
	mock.ExpectQuery(`SELECT amount FROM balances WHERE user_id = \?`).
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"amount"}))

	balance, err := l.BalanceOf(context.Background(), "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 12, balance)

	_, err = l.BalanceOf(context.Background(), "nobody")
	assert.ErrorIs(t, err, core.ErrAccountNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_Open(t *testing.T) {
	db, mock := newMockDB(t)
	l := New(db)

	mock.ExpectExec(`INSERT IGNORE INTO balances \(user_id,amount,updated_at\) VALUES \(\?,\?,\?\)`).
		WithArgs("alice", 12, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, l.Open(context.Background(), "alice", 12))
	assert.ErrorIs(t, l.Open(context.Background(), "alice", -1), core.ErrInvalidAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
