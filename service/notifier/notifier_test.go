package notifier

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/pandodao/coffee-wallet/core"
	"github.com/pandodao/coffee-wallet/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHub() *Hub {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHub_NotifyBalanceStalledClient(t *testing.T) {
	hub := newHub()

	// nobody drains these queues
	stalled := hub.Register("alice", nil)
	other := hub.Register("bob", nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < sendBuffer+4; i++ {
			hub.NotifyBalance("alice", int64(i), nil)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NotifyBalance blocked on a stalled client")
	}

	assert.Equal(t, 0, hub.Subscribers("alice"))
	assert.Equal(t, 1, hub.Subscribers("bob"))

	var queued int
	for msg := range stalled.send {
		assert.Equal(t, "balance_update", msg.Type)
		queued++
	}
	assert.Equal(t, sendBuffer, queued)

	assert.True(t, hub.Send(other, Message{Type: "balance", UserID: "bob"}))
	assert.Len(t, other.send, 1)
}

func TestHub_Unregister(t *testing.T) {
	hub := newHub()

	a := hub.Register("alice", nil)
	b := hub.Register("alice", nil)
	assert.Equal(t, 2, hub.Subscribers("alice"))

	hub.Unregister(a)
	hub.Unregister(a)
	assert.Equal(t, 1, hub.Subscribers("alice"))
	assert.False(t, hub.Send(a, Message{Type: "balance"}))

	hub.NotifyBalance("alice", 3, nil)
	msg := <-b.send
	assert.EqualValues(t, 3, msg.Balance)

	hub.Unregister(b)
	assert.Equal(t, 0, hub.Subscribers("alice"))
	_, ok := <-b.send
	assert.False(t, ok)
}

type recorder struct {
	mu       sync.Mutex
	balances []int64
}

func (r *recorder) NotifyBalance(userID string, balance int64, tx *core.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances = append(r.balances, balance)
}

func TestLedger_Commit(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.Seed(ctx, []string{"alice"}, 5, nil))

	r := &recorder{}
	ledger := Ledger(s, r)

	require.NoError(t, ledger.Commit(ctx, &core.Transaction{
		TraceID:  "r1",
		UserID:   "alice",
		Kind:     core.TransactionKindRedeem,
		Amount:   2,
		Location: "Blue Bottle",
	}))

	err := ledger.Commit(ctx, &core.Transaction{
		TraceID:  "r2",
		UserID:   "alice",
		Kind:     core.TransactionKindRedeem,
		Amount:   9,
		Location: "Blue Bottle",
	})
	assert.ErrorIs(t, err, core.ErrInsufficientBalance)

	assert.Equal(t, []int64{3}, r.balances)
}
