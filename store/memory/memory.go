// Package memory keeps every store in process memory. It backs the tests and
// the "memory" db driver; all data is lost when the process exits.
package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pandodao/coffee-wallet/core"
)

type Store struct {
	mu           sync.RWMutex
	friends      map[string][]*core.Friend
	balances     map[string]*core.Balance
	transactions []*core.Transaction
	properties   map[string][]byte
	unsettled    map[uint64]struct{}
	seq          uint64

	now func() time.Time
}

func New() *Store {
	return &Store{
		friends:    make(map[string][]*core.Friend),
		balances:   make(map[string]*core.Balance),
		properties: make(map[string][]byte),
		unsettled:  make(map[uint64]struct{}),
		now:        time.Now,
	}
}

var (
	_ core.Ledger        = (*Store)(nil)
	_ core.PropertyStore = (*Store)(nil)
)

// Friends returns the friend catalog view of the store.
func (s *Store) Friends() core.FriendStore {
	return (*friendStore)(s)
}

// Transactions returns the history view of the store.
func (s *Store) Transactions() core.TransactionStore {
	return (*transactionStore)(s)
}

type (
	friendStore      Store
	transactionStore Store
)

func (f *friendStore) List(ctx context.Context, ownerID string) ([]*core.Friend, error) {
	s := (*Store)(f)
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*core.Friend(nil), s.friends[ownerID]...), nil
}

func (f *friendStore) Find(ctx context.Context, ownerID, id string) (*core.Friend, error) {
	s := (*Store)(f)
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, friend := range s.friends[ownerID] {
		if friend.ID == id {
			return friend, nil
		}
	}

	return nil, sql.ErrNoRows
}

func (f *friendStore) Save(ctx context.Context, ownerID string, friends []*core.Friend) error {
	s := (*Store)(f)
	catalog := make([]*core.Friend, 0, len(friends))
	for _, friend := range friends {
		f := *friend
		f.OwnerID = ownerID
		catalog = append(catalog, &f)
	}

	s.mu.Lock()
	s.friends[ownerID] = catalog
	s.mu.Unlock()
	return nil
}

func (s *Store) Open(ctx context.Context, userID string, amount int64) error {
	if amount < 0 {
		return core.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.balances[userID]; !ok {
		s.balances[userID] = &core.Balance{UserID: userID, Amount: amount, Version: 1, UpdatedAt: s.now()}
	}

	return nil
}

func (s *Store) BalanceOf(ctx context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.balances[userID]
	if !ok {
		return 0, core.ErrAccountNotFound
	}

	return b.Amount, nil
}

func (s *Store) Debit(ctx context.Context, userID string, amount int64) error {
	if amount <= 0 {
		return core.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(userID, -amount)
}

func (s *Store) Credit(ctx context.Context, userID string, amount int64) error {
	if amount <= 0 {
		return core.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(userID, amount)
}

func (s *Store) Commit(ctx context.Context, t *core.Transaction) error {
	if !t.Kind.IsValid() {
		return fmt.Errorf("invalid transaction kind %d", t.Kind)
	}

	if t.Amount <= 0 {
		return core.ErrInvalidAmount
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.balances[t.UserID]; !ok {
		return core.ErrAccountNotFound
	}

	if t.TraceID != "" {
		if existing := s.findTrace(t.UserID, t.TraceID); existing != nil {
			*t = *existing
			return nil
		}
	}

	delta := t.Amount
	if !t.Kind.IsCredit() {
		delta = -t.Amount
	}

	if err := s.apply(t.UserID, delta); err != nil {
		return err
	}

	s.seq++
	t.ID = s.seq
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}

	stored := *t
	s.transactions = append(s.transactions, &stored)
	if t.Kind == core.TransactionKindSend {
		s.unsettled[t.ID] = struct{}{}
	}

	return nil
}

func (s *Store) apply(userID string, delta int64) error {
	b, ok := s.balances[userID]
	if !ok {
		return core.ErrAccountNotFound
	}

	if b.Amount+delta < 0 {
		return core.ErrInsufficientBalance
	}

	b.Amount += delta
	b.Version++
	b.UpdatedAt = s.now()
	return nil
}

func (s *Store) findTrace(userID, traceID string) *core.Transaction {
	for _, t := range s.transactions {
		if t.UserID == userID && t.TraceID == traceID {
			return t
		}
	}

	return nil
}

func (ts *transactionStore) List(ctx context.Context, userID string, limit int) ([]*core.Transaction, error) {
	s := (*Store)(ts)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var txs []*core.Transaction
	for i := len(s.transactions) - 1; i >= 0; i-- {
		if t := s.transactions[i]; t.UserID == userID {
			c := *t
			txs = append(txs, &c)
			if limit > 0 && len(txs) == limit {
				break
			}
		}
	}

	return txs, nil
}

func (ts *transactionStore) ListUnsettled(ctx context.Context, limit int) ([]*core.Transaction, error) {
	s := (*Store)(ts)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var txs []*core.Transaction
	for _, t := range s.transactions {
		if _, ok := s.unsettled[t.ID]; !ok {
			continue
		}

		c := *t
		txs = append(txs, &c)
		if len(txs) == limit {
			break
		}
	}

	return txs, nil
}

func (ts *transactionStore) Settle(ctx context.Context, sendIDs ...uint64) error {
	s := (*Store)(ts)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range sendIDs {
		delete(s.unsettled, id)
	}

	return nil
}

func (ts *transactionStore) FindTrace(ctx context.Context, userID, traceID string) (*core.Transaction, error) {
	s := (*Store)(ts)
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t := s.findTrace(userID, traceID); t != nil {
		c := *t
		return &c, nil
	}

	return nil, sql.ErrNoRows
}

func (s *Store) Get(ctx context.Context, key string, value any) error {
	s.mu.RLock()
	raw, ok := s.properties[key]
	s.mu.RUnlock()

	if !ok {
		return nil
	}

	return json.Unmarshal(raw, value)
}

func (s *Store) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	s.mu.Lock()
	s.properties[key] = raw
	s.mu.Unlock()
	return nil
}
