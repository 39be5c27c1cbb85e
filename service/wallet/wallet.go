package wallet

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	"github.com/pandodao/coffee-wallet/core"
	"github.com/pandodao/coffee-wallet/metrics"
	"github.com/shopspring/decimal"
)

const (
	MaxTopUp          = 100
	MaxLocationLength = 128
)

type Config struct {
	CoinPrice   decimal.Decimal
	RecentLimit int `valid:"required"`
}

func New(
	ledger core.Ledger,
	transactions core.TransactionStore,
	friends core.FriendService,
	logger *slog.Logger,
	cfg Config,
) core.WalletService {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	return &service{
		ledger:       ledger,
		transactions: transactions,
		friends:      friends,
		logger:       logger.With("service", "wallet"),
		cfg:          cfg,
	}
}

type service struct {
	ledger       core.Ledger
	transactions core.TransactionStore
	friends      core.FriendService
	logger       *slog.Logger
	cfg          Config
}

func (s *service) CurrentBalance(ctx context.Context, userID string) (int64, error) {
	return s.ledger.BalanceOf(ctx, userID)
}

func (s *service) RecentActivity(ctx context.Context, userID string, limit int) ([]*core.Activity, error) {
	if limit <= 0 {
		limit = s.cfg.RecentLimit
	}

	txs, err := s.transactions.List(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	activity := make([]*core.Activity, 0, len(txs))
	for _, tx := range txs {
		activity = append(activity, Annotate(tx, s.counterpartyName(ctx, tx)))
	}

	return activity, nil
}

func (s *service) counterpartyName(ctx context.Context, tx *core.Transaction) string {
	if tx.Counterparty == "" {
		return ""
	}

	friend, err := s.friends.Find(ctx, tx.UserID, tx.Counterparty)
	if err != nil {
		return tx.Counterparty
	}

	return friend.Name
}

func (s *service) Summarize(ctx context.Context, userID string, limit int) (*core.Summary, error) {
	balance, err := s.CurrentBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	activity, err := s.RecentActivity(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	return &core.Summary{
		UserID:   userID,
		Balance:  balance,
		Value:    s.cfg.CoinPrice.Mul(decimal.NewFromInt(balance)),
		Activity: activity,
	}, nil
}

func (s *service) TopUp(ctx context.Context, userID string, amount int64, traceID string) (*core.Transaction, error) {
	if amount <= 0 || amount > MaxTopUp {
		return nil, core.ErrInvalidAmount
	}

	traceID, err := traceOrNew(traceID)
	if err != nil {
		return nil, err
	}

	return s.commit(ctx, &core.Transaction{
		TraceID: traceID,
		UserID:  userID,
		Kind:    core.TransactionKindPurchase,
		Amount:  amount,
	})
}

func (s *service) Redeem(ctx context.Context, userID string, amount int64, location, traceID string) (*core.Transaction, error) {
	if amount <= 0 {
		return nil, core.ErrInvalidAmount
	}

	location = strings.TrimSpace(location)
	if location == "" || utf8.RuneCountInString(location) > MaxLocationLength {
		return nil, core.ErrInvalidLocation
	}

	traceID, err := traceOrNew(traceID)
	if err != nil {
		return nil, err
	}

	return s.commit(ctx, &core.Transaction{
		TraceID:  traceID,
		UserID:   userID,
		Kind:     core.TransactionKindRedeem,
		Amount:   amount,
		Location: location,
	})
}

func (s *service) commit(ctx context.Context, tx *core.Transaction) (*core.Transaction, error) {
	err := s.ledger.Commit(ctx, tx)
	metrics.RecordCommit(tx.Kind.String(), tx.Amount, err)
	if err != nil {
		s.logger.Error("ledger.Commit", "kind", tx.Kind, "user", tx.UserID, "err", err)
		return nil, err
	}

	s.logger.Info("transaction committed", "kind", tx.Kind, "user", tx.UserID, "amount", tx.Amount, "id", tx.ID)
	return tx, nil
}

func traceOrNew(traceID string) (string, error) {
	if traceID == "" {
		return uuid.NewString(), nil
	}

	if _, err := uuid.Parse(traceID); err != nil {
		return "", core.ErrInvalidTrace
	}

	return traceID, nil
}
