package core

import (
	"context"
	"time"
)

type Balance struct {
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ledger owns coin balances. Debit and Credit are the only balance mutators;
// Commit applies one of them together with the history append as a single unit.
type Ledger interface {
	Open(ctx context.Context, userID string, amount int64) error
	BalanceOf(ctx context.Context, userID string) (int64, error)
	Debit(ctx context.Context, userID string, amount int64) error
	Credit(ctx context.Context, userID string, amount int64) error
	Commit(ctx context.Context, tx *Transaction) error
}
