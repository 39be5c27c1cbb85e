package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pandodao/coffee-wallet/core"
	"github.com/pandodao/coffee-wallet/store"
	"github.com/pandodao/coffee-wallet/store/transaction"
	"github.com/tsenart/nap"
)

func New(db *nap.DB) core.Ledger {
	return &ledger{db: db}
}

type ledger struct {
	db *nap.DB
}

func (s *ledger) Open(ctx context.Context, userID string, amount int64) error {
	if amount < 0 {
		return core.ErrInvalidAmount
	}

	b := sq.Insert("balances").
		Options("IGNORE").
		Columns("user_id", "amount", "updated_at").
		Values(userID, amount, time.Now())

	_, err := b.RunWith(s.db).ExecContext(ctx)
	return err
}

func (s *ledger) BalanceOf(ctx context.Context, userID string) (int64, error) {
	b := sq.Select("amount").
		From("balances").
		Where(sq.Eq{"user_id": userID})

	var amount int64
	if err := b.RunWith(s.db).QueryRowContext(ctx).Scan(&amount); err != nil {
		if store.IsErrNotFound(err) {
			return 0, core.ErrAccountNotFound
		}

		return 0, err
	}

	return amount, nil
}

func (s *ledger) Debit(ctx context.Context, userID string, amount int64) error {
	if amount <= 0 {
		return core.ErrInvalidAmount
	}

	return s.apply(ctx, userID, -amount, nil)
}

func (s *ledger) Credit(ctx context.Context, userID string, amount int64) error {
	if amount <= 0 {
		return core.ErrInvalidAmount
	}

	return s.apply(ctx, userID, amount, nil)
}

func (s *ledger) Commit(ctx context.Context, t *core.Transaction) error {
	if !t.Kind.IsValid() {
		return fmt.Errorf("invalid transaction kind %d", t.Kind)
	}

	if t.Amount <= 0 {
		return core.ErrInvalidAmount
	}

	delta := t.Amount
	if !t.Kind.IsCredit() {
		delta = -t.Amount
	}

	return s.apply(ctx, t.UserID, delta, t)
}

// apply moves the balance by delta and, when t is set, appends it to the
// history within the same database transaction. The balance row stays locked
// from the sufficiency check until commit.
func (s *ledger) apply(ctx context.Context, userID string, delta int64, t *core.Transaction) error {
	tx, err := s.db.Master().BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	balance, err := lockBalance(ctx, tx, userID)
	if err != nil {
		if store.IsErrNotFound(err) {
			return core.ErrAccountNotFound
		}

		return err
	}

	if t != nil && t.TraceID != "" {
		existing, err := transaction.FindTrace(ctx, tx, userID, t.TraceID)
		switch {
		case err == nil:
			*t = *existing
			return nil
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}
	}

	if balance.Amount+delta < 0 {
		return core.ErrInsufficientBalance
	}

	now := time.Now()
	if err := updateBalance(ctx, tx, balance, balance.Amount+delta, now); err != nil {
		return err
	}

	if t != nil {
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}

		if err := transaction.Insert(ctx, tx, t); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func lockBalance(ctx context.Context, tx *sql.Tx, userID string) (*core.Balance, error) {
	b := sq.Select("user_id", "amount", "version").
		From("balances").
		Where(sq.Eq{"user_id": userID}).
		Suffix("FOR UPDATE")

	var balance core.Balance
	if err := b.RunWith(tx).QueryRowContext(ctx).Scan(&balance.UserID, &balance.Amount, &balance.Version); err != nil {
		return nil, err
	}

	return &balance, nil
}

func updateBalance(ctx context.Context, tx *sql.Tx, balance *core.Balance, amount int64, now time.Time) error {
	b := sq.Update("balances").
		Set("amount", amount).
		Set("version", balance.Version+1).
		Set("updated_at", now).
		Where("user_id = ? AND version = ?", balance.UserID, balance.Version)

	result, err := b.RunWith(tx).ExecContext(ctx)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return fmt.Errorf("optimistic lock failed")
	}

	balance.Amount = amount
	balance.Version++
	balance.UpdatedAt = now
	return nil
}
