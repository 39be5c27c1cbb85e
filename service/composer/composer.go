package composer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pandodao/coffee-wallet/core"
	"github.com/pandodao/coffee-wallet/metrics"
)

const (
	MinQuantity      = 1
	MaxQuantity      = 10
	MaxMessageLength = 100
)

type State uint8

const (
	StateBrowsing State = iota
	StateComposing
	StateCommitting
	StateCommitted
)

var stateNames = [...]string{"browsing", "composing", "committing", "committed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}

	return fmt.Sprintf("State(%d)", uint8(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Draft is the transfer being composed. TraceID is fixed when the friend is
// selected, so a retried confirm never commits twice.
type Draft struct {
	Friend   *core.Friend `json:"friend"`
	Quantity int64        `json:"quantity"`
	Message  string       `json:"message"`
	TraceID  string       `json:"trace_id"`
}

type View struct {
	Owner       string            `json:"owner"`
	State       State             `json:"state"`
	Draft       *Draft            `json:"draft,omitempty"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
}

// Composer walks one user through a single send: browsing, composing,
// committing and finally committed. Methods are safe to call concurrently but
// take effect one at a time.
type Composer struct {
	owner   string
	friends core.FriendService
	ledger  core.Ledger
	logger  *slog.Logger

	mux         sync.Mutex
	state       State
	draft       *Draft
	transaction *core.Transaction
}

func New(owner string, friends core.FriendService, ledger core.Ledger, logger *slog.Logger) *Composer {
	return &Composer{
		owner:   owner,
		friends: friends,
		ledger:  ledger,
		logger:  logger.With("composer", owner),
		state:   StateBrowsing,
	}
}

func (c *Composer) Owner() string {
	return c.owner
}

func (c *Composer) State() State {
	c.mux.Lock()
	defer c.mux.Unlock()

	return c.state
}

// View returns a copy of the composer state.
func (c *Composer) View() View {
	c.mux.Lock()
	defer c.mux.Unlock()

	v := View{Owner: c.owner, State: c.state, Transaction: c.transaction}
	if c.draft != nil {
		d := *c.draft
		v.Draft = &d
	}

	return v
}

func (c *Composer) SelectFriend(ctx context.Context, friendID string) error {
	c.mux.Lock()
	defer c.mux.Unlock()

	if c.state != StateBrowsing {
		return core.ErrInvalidState
	}

	friend, err := c.friends.Find(ctx, c.owner, friendID)
	if err != nil {
		return err
	}

	c.draft = &Draft{
		Friend:   friend,
		Quantity: MinQuantity,
		TraceID:  uuid.NewString(),
	}
	c.state = StateComposing
	return nil
}

func (c *Composer) SetQuantity(n int64) error {
	c.mux.Lock()
	defer c.mux.Unlock()

	if c.state != StateComposing {
		return core.ErrInvalidState
	}

	if err := validateQuantity(n); err != nil {
		return err
	}

	c.draft.Quantity = n
	return nil
}

// Increment adds one coin; it does nothing at MaxQuantity.
func (c *Composer) Increment() error {
	return c.step(1)
}

// Decrement removes one coin; it does nothing at MinQuantity.
func (c *Composer) Decrement() error {
	return c.step(-1)
}

func (c *Composer) step(delta int64) error {
	c.mux.Lock()
	defer c.mux.Unlock()

	if c.state != StateComposing {
		return core.ErrInvalidState
	}

	if n := c.draft.Quantity + delta; validateQuantity(n) == nil {
		c.draft.Quantity = n
	}

	return nil
}

func (c *Composer) SetMessage(text string) error {
	c.mux.Lock()
	defer c.mux.Unlock()

	if c.state != StateComposing {
		return core.ErrInvalidState
	}

	if err := validateMessage(text); err != nil {
		return err
	}

	c.draft.Message = text
	return nil
}

// Cancel drops the draft and goes back to browsing. The ledger is not touched.
func (c *Composer) Cancel() error {
	c.mux.Lock()
	defer c.mux.Unlock()

	if c.state != StateComposing {
		return core.ErrInvalidState
	}

	c.draft = nil
	c.state = StateBrowsing
	return nil
}

// ProjectedBalance is the balance the owner would have after confirming.
// It may be negative, in which case Confirm fails.
func (c *Composer) ProjectedBalance(ctx context.Context) (int64, error) {
	c.mux.Lock()
	defer c.mux.Unlock()

	balance, err := c.ledger.BalanceOf(ctx, c.owner)
	if err != nil {
		return 0, err
	}

	if c.state == StateComposing {
		balance -= c.draft.Quantity
	}

	return balance, nil
}

// Confirm commits the draft as a send transaction. On any failure the composer
// returns to composing with the draft intact.
func (c *Composer) Confirm(ctx context.Context) (*core.Transaction, error) {
	c.mux.Lock()
	defer c.mux.Unlock()

	if c.state != StateComposing {
		return nil, core.ErrInvalidState
	}

	c.state = StateCommitting
	tx, err := c.commit(ctx)
	if err != nil {
		c.state = StateComposing
		return nil, err
	}

	c.state = StateCommitted
	c.transaction = tx
	c.draft = nil
	return tx, nil
}

func (c *Composer) commit(ctx context.Context) (*core.Transaction, error) {
	d := c.draft
	logger := c.logger.With("trace", d.TraceID)

	if err := validateQuantity(d.Quantity); err != nil {
		return nil, err
	}

	if err := validateMessage(d.Message); err != nil {
		return nil, err
	}

	balance, err := c.ledger.BalanceOf(ctx, c.owner)
	if err != nil {
		logger.Error("ledger.BalanceOf", "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrCommitFailed, err)
	}

	if balance-d.Quantity < 0 {
		logger.Debug("insufficient balance", "balance", balance, "quantity", d.Quantity)
		return nil, core.ErrInsufficientBalance
	}

	tx := &core.Transaction{
		TraceID:      d.TraceID,
		UserID:       c.owner,
		Kind:         core.TransactionKindSend,
		Amount:       d.Quantity,
		Counterparty: d.Friend.ID,
		Memo:         d.Message,
	}

	err = c.ledger.Commit(ctx, tx)
	metrics.RecordCommit(tx.Kind.String(), tx.Amount, err)

	switch {
	case err == nil:
		logger.Info("send committed", "to", d.Friend.ID, "amount", tx.Amount, "id", tx.ID)
		return tx, nil
	case errors.Is(err, core.ErrInsufficientBalance):
		// another session spent the coins between the check and the commit
		return nil, err
	default:
		logger.Error("ledger.Commit", "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrCommitFailed, err)
	}
}

func validateQuantity(n int64) error {
	if n < MinQuantity || n > MaxQuantity {
		return core.ErrInvalidQuantity
	}

	return nil
}

func validateMessage(text string) error {
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return core.ErrMessageTooLong
	}

	return nil
}
