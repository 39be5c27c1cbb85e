package transaction

import (
	"github.com/pandodao/coffee-wallet/core"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

var scanColumns = []string{
	"id",
	"created_at",
	"trace_id",
	"user_id",
	"kind",
	"amount",
	"counterparty",
	"location",
	"memo",
}

func scanTransaction(scanner scanner, tx *core.Transaction) error {
	return scanner.Scan(
		&tx.ID,
		&tx.CreatedAt,
		&tx.TraceID,
		&tx.UserID,
		&tx.Kind,
		&tx.Amount,
		&tx.Counterparty,
		&tx.Location,
		&tx.Memo,
	)
}
