package core

import (
	"context"

	"github.com/shopspring/decimal"
)

type Activity struct {
	*Transaction
	Title         string `json:"title"`
	Icon          string `json:"icon"`
	DisplayAmount string `json:"display_amount"`
	Color         string `json:"color"`
}

type Summary struct {
	UserID   string          `json:"user_id"`
	Balance  int64           `json:"balance"`
	Value    decimal.Decimal `json:"value"`
	Activity []*Activity     `json:"activity"`
}

type WalletService interface {
	CurrentBalance(ctx context.Context, userID string) (int64, error)
	RecentActivity(ctx context.Context, userID string, limit int) ([]*Activity, error)
	Summarize(ctx context.Context, userID string, limit int) (*Summary, error)
	TopUp(ctx context.Context, userID string, amount int64, traceID string) (*Transaction, error)
	Redeem(ctx context.Context, userID string, amount int64, location, traceID string) (*Transaction, error)
}

// Notifier is told about every committed transaction together with the resulting balance.
type Notifier interface {
	NotifyBalance(userID string, balance int64, tx *Transaction)
}
