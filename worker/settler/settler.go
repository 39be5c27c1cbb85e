package settler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	"github.com/pandodao/coffee-wallet/core"
	"github.com/zyedidia/generic/cache"
	"golang.org/x/sync/errgroup"
)

const (
	propertySettleStats = "settle_stats"
)

// Stats is the running tally the settler keeps in the property store.
type Stats struct {
	Settled   uint64    `json:"settled"`
	Skipped   uint64    `json:"skipped"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

func LoadStats(ctx context.Context, properties core.PropertyStore) (Stats, error) {
	var stats Stats
	err := properties.Get(ctx, propertySettleStats, &stats)
	return stats, err
}

type Config struct {
	Batch       int `valid:"required"`
	Concurrency int `valid:"required"`
}

func New(
	transactions core.TransactionStore,
	ledger core.Ledger,
	properties core.PropertyStore,
	logger *slog.Logger,
	cfg Config,
) *Settler {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	return &Settler{
		transactions: transactions,
		ledger:       ledger,
		properties:   properties,
		logger:       logger.With("worker", "settler"),
		cfg:          cfg,
		accounts:     cache.New[string, bool](1024),
	}
}

// Settler credits the recipient of every committed send with a paired receive
// of the same amount.
type Settler struct {
	transactions core.TransactionStore
	ledger       core.Ledger
	properties   core.PropertyStore
	logger       *slog.Logger
	cfg          Config

	accounts *cache.Cache[string, bool]
	mux      sync.Mutex
}

func (w *Settler) Run(ctx context.Context) error {
	w.logger.Info("settler start")

	for {
		dur := time.Second
		if w.run(ctx) == nil {
			dur = 200 * time.Millisecond
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dur):
		}
	}
}

func (w *Settler) run(ctx context.Context) error {
	sends, err := w.transactions.ListUnsettled(ctx, w.cfg.Batch)
	if err != nil {
		w.logger.Error("transactions.ListUnsettled", "err", err)
		return err
	}

	if len(sends) == 0 {
		return fmt.Errorf("no unsettled sends")
	}

	// sends to one recipient are settled in order, recipients in parallel
	groups := make(map[string][]*core.Transaction)
	for _, send := range sends {
		groups[send.Counterparty] = append(groups[send.Counterparty], send)
	}

	var (
		g     errgroup.Group
		mux   sync.Mutex
		done  []uint64
		stats Stats
	)
	g.SetLimit(w.cfg.Concurrency)

	for _, group := range groups {
		group := group
		g.Go(func() error {
			for _, send := range group {
				credited, err := w.settle(ctx, send)
				if err != nil {
					return err
				}

				mux.Lock()
				done = append(done, send.ID)
				if credited {
					stats.Settled++
				} else {
					stats.Skipped++
				}
				mux.Unlock()
			}

			return nil
		})
	}

	err = g.Wait()

	// a send credited but not marked is credited again on the next scan, which
	// the receive trace turns into a no-op
	if len(done) > 0 {
		if err := w.transactions.Settle(ctx, done...); err != nil {
			w.logger.Error("transactions.Settle", "err", err)
			return err
		}

		w.record(ctx, stats)
	}

	if err != nil {
		return err
	}

	w.logger.Debug("sends settled", "count", len(done))
	return nil
}

func (w *Settler) record(ctx context.Context, delta Stats) {
	stats, err := LoadStats(ctx, w.properties)
	if err != nil {
		w.logger.Error("properties.Get", "err", err)
		return
	}

	stats.Settled += delta.Settled
	stats.Skipped += delta.Skipped
	stats.UpdatedAt = time.Now()

	if err := w.properties.Set(ctx, propertySettleStats, stats); err != nil {
		w.logger.Error("properties.Set", "err", err)
	}
}

// ReceiveTrace is the trace id of the receive paired with send.
func ReceiveTrace(send *core.Transaction) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("receive:"+send.UserID+":"+send.TraceID)).String()
}

// settle credits the recipient of send and reports false when the recipient
// has no account.
func (w *Settler) settle(ctx context.Context, send *core.Transaction) (bool, error) {
	logger := w.logger.With("send", send.TraceID, "to", send.Counterparty)

	ok, err := w.hasAccount(ctx, send.Counterparty)
	if err != nil {
		logger.Error("ledger.BalanceOf", "err", err)
		return false, err
	}

	if !ok {
		logger.Info("recipient has no account, skip")
		return false, nil
	}

	receive := &core.Transaction{
		CreatedAt:    time.Now(),
		TraceID:      ReceiveTrace(send),
		UserID:       send.Counterparty,
		Kind:         core.TransactionKindReceive,
		Amount:       send.Amount,
		Counterparty: send.UserID,
		Memo:         send.Memo,
	}

	if err := w.ledger.Commit(ctx, receive); err != nil {
		logger.Error("ledger.Commit", "err", err)
		return false, err
	}

	logger.Debug("receive committed", "id", receive.ID, "amount", receive.Amount)
	return true, nil
}

func (w *Settler) hasAccount(ctx context.Context, userID string) (bool, error) {
	w.mux.Lock()
	_, ok := w.accounts.Get(userID)
	w.mux.Unlock()
	if ok {
		return true, nil
	}

	if _, err := w.ledger.BalanceOf(ctx, userID); err != nil {
		if errors.Is(err, core.ErrAccountNotFound) {
			return false, nil
		}

		return false, err
	}

	w.mux.Lock()
	w.accounts.Put(userID, true)
	w.mux.Unlock()
	return true, nil
}
