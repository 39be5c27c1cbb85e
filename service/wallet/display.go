package wallet

import (
	"fmt"
	"strings"

	"github.com/pandodao/coffee-wallet/core"
)

const (
	colorCredit = "#4CAF50"
	colorDebit  = "#FF5252"
)

type displayRule struct {
	sign  string
	color string
	icon  string
	// title is a fmt format; %s is the counterparty name or the location.
	title string
}

// displayRules is the single mapping from transaction kind to how it is shown.
var displayRules = map[core.TransactionKind]displayRule{
	core.TransactionKindPurchase: {sign: "+", color: colorCredit, icon: "credit-card", title: "Purchased Coffee"},
	core.TransactionKindReceive:  {sign: "+", color: colorCredit, icon: "coffee", title: "Received from %s"},
	core.TransactionKindSend:     {sign: "-", color: colorDebit, icon: "coffee", title: "Sent to %s"},
	core.TransactionKindRedeem:   {sign: "-", color: colorDebit, icon: "map-pin", title: "Redeemed at %s"},
}

var fallbackRule = displayRule{icon: "coffee", title: "Coffee Transaction"}

// Annotate derives the display fields of tx. name is the counterparty's
// display name, ignored by kinds without a counterparty.
func Annotate(tx *core.Transaction, name string) *core.Activity {
	rule, ok := displayRules[tx.Kind]
	if !ok {
		rule = fallbackRule
	}

	title := rule.title
	if strings.Contains(title, "%s") {
		subject := name
		if tx.Kind == core.TransactionKindRedeem {
			subject = tx.Location
		}

		title = fmt.Sprintf(title, subject)
	}

	return &core.Activity{
		Transaction:   tx,
		Title:         title,
		Icon:          rule.icon,
		DisplayAmount: fmt.Sprintf("%s%d", rule.sign, tx.Amount),
		Color:         rule.color,
	}
}
