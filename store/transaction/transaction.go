package transaction

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pandodao/coffee-wallet/core"
	"github.com/tsenart/nap"
)

func New(db *nap.DB) core.TransactionStore {
	return &store{db: db}
}

type store struct {
	db *nap.DB
}

// Insert appends tx to the history and sets its sequence id. A send is queued
// for settlement alongside it. It is only called by the ledger,
// inside the database transaction that moves the balance.
func Insert(ctx context.Context, r sq.BaseRunner, tx *core.Transaction) error {
	b := sq.Insert("transactions").
		Columns("created_at", "trace_id", "user_id", "kind", "amount", "counterparty", "location", "memo").
		Values(tx.CreatedAt, tx.TraceID, tx.UserID, tx.Kind, tx.Amount, tx.Counterparty, tx.Location, tx.Memo)

	result, err := b.RunWith(r).ExecContext(ctx)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	tx.ID = uint64(id)

	if tx.Kind == core.TransactionKindSend {
		q := sq.Insert("settlements").
			Columns("send_id", "created_at").
			Values(tx.ID, tx.CreatedAt)

		if _, err := q.RunWith(r).ExecContext(ctx); err != nil {
			return err
		}
	}

	return nil
}

// FindTrace looks a transaction up by the trace id its owner committed it with.
func FindTrace(ctx context.Context, r sq.BaseRunner, userID, traceID string) (*core.Transaction, error) {
	b := sq.Select(scanColumns...).
		From("transactions").
		Where(sq.Eq{"user_id": userID, "trace_id": traceID})

	row := b.RunWith(r).QueryRowContext(ctx)
	var tx core.Transaction
	if err := scanTransaction(row, &tx); err != nil {
		return nil, err
	}

	return &tx, nil
}

func (s *store) FindTrace(ctx context.Context, userID, traceID string) (*core.Transaction, error) {
	return FindTrace(ctx, s.db, userID, traceID)
}

func (s *store) List(ctx context.Context, userID string, limit int) ([]*core.Transaction, error) {
	b := sq.Select(scanColumns...).
		From("transactions").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("id DESC")

	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	rows, err := b.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, err
	}

	return scanRows(rows)
}

func (s *store) ListUnsettled(ctx context.Context, limit int) ([]*core.Transaction, error) {
	columns := make([]string, len(scanColumns))
	for i, c := range scanColumns {
		columns[i] = "t." + c
	}

	b := sq.Select(columns...).
		From("settlements s").
		Join("transactions t ON t.id = s.send_id").
		OrderBy("s.send_id").
		Limit(uint64(limit))

	rows, err := b.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, err
	}

	return scanRows(rows)
}

func (s *store) Settle(ctx context.Context, sendIDs ...uint64) error {
	if len(sendIDs) == 0 {
		return nil
	}

	b := sq.Delete("settlements").
		Where(sq.Eq{"send_id": sendIDs})

	_, err := b.RunWith(s.db).ExecContext(ctx)
	return err
}

func scanRows(rows *sql.Rows) ([]*core.Transaction, error) {
	defer rows.Close()

	var txs []*core.Transaction
	for rows.Next() {
		var tx core.Transaction
		if err := scanTransaction(rows, &tx); err != nil {
			return nil, err
		}

		txs = append(txs, &tx)
	}

	return txs, rows.Err()
}
