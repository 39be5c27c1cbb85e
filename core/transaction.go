package core

import (
	"context"
	"fmt"
	"time"
)

type TransactionKind uint8

const (
	_ TransactionKind = iota
	TransactionKindPurchase
	TransactionKindSend
	TransactionKindReceive
	TransactionKindRedeem
)

var transactionKindNames = map[TransactionKind]string{
	TransactionKindPurchase: "purchase",
	TransactionKindSend:     "send",
	TransactionKindReceive:  "receive",
	TransactionKindRedeem:   "redeem",
}

func (k TransactionKind) String() string {
	if s, ok := transactionKindNames[k]; ok {
		return s
	}

	return fmt.Sprintf("TransactionKind(%d)", uint8(k))
}

func (k TransactionKind) IsValid() bool {
	_, ok := transactionKindNames[k]
	return ok
}

// IsCredit reports whether committing the kind increases the owner's balance.
func (k TransactionKind) IsCredit() bool {
	return k == TransactionKindPurchase || k == TransactionKindReceive
}

func (k TransactionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *TransactionKind) UnmarshalText(b []byte) error {
	v, err := ParseTransactionKind(string(b))
	if err != nil {
		return err
	}

	*k = v
	return nil
}

func ParseTransactionKind(s string) (TransactionKind, error) {
	for k, name := range transactionKindNames {
		if name == s {
			return k, nil
		}
	}

	return 0, fmt.Errorf("%q is not a valid TransactionKind", s)
}

// Transaction is immutable once committed. ID is the commit sequence.
type Transaction struct {
	ID           uint64          `json:"id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	TraceID      string          `json:"trace_id,omitempty"`
	UserID       string          `json:"user_id,omitempty"`
	Kind         TransactionKind `json:"kind"`
	Amount       int64           `json:"amount"`
	Counterparty string          `json:"counterparty,omitempty"`
	Location     string          `json:"location,omitempty"`
	Memo         string          `json:"memo,omitempty"`
}

type TransactionStore interface {
	// List returns the user's transactions most recent first; limit <= 0 returns all of them.
	List(ctx context.Context, userID string, limit int) ([]*Transaction, error)
	// ListUnsettled returns committed sends whose recipient has not been
	// credited yet, in commit order.
	ListUnsettled(ctx context.Context, limit int) ([]*Transaction, error)
	Settle(ctx context.Context, sendIDs ...uint64) error
	FindTrace(ctx context.Context, userID, traceID string) (*Transaction, error)
}
