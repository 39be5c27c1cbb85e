package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pandodao/coffee-wallet/service/composer"
	"github.com/pandodao/coffee-wallet/service/friend"
	"github.com/pandodao/coffee-wallet/service/wallet"
	"github.com/pandodao/coffee-wallet/store/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*httptest.Server
	store *memory.Store
}

func newTestServer(t *testing.T, balance int64) *testServer {
	t.Helper()

	s := memory.New()
	require.NoError(t, s.Seed(context.Background(), []string{"alice"}, balance, memory.DemoFriends))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	friends := friend.New(s.Friends())
	wallets := wallet.New(s, s.Transactions(), friends, logger, wallet.Config{
		CoinPrice:   decimal.NewFromInt(4),
		RecentLimit: 10,
	})
	sessions := composer.NewRegistry(friends, s, logger, composer.RegistryConfig{Capacity: 8})

	svr := httptest.NewServer(New(friends, wallets, sessions, logger).Handler())
	t.Cleanup(svr.Close)

	return &testServer{Server: svr, store: s}
}

func (s *testServer) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, s.URL+path, r)
	require.NoError(t, err)

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}

	return resp.StatusCode
}

type friendsBody struct {
	Friends []struct {
		ID     string `json:"id"`
		Handle string `json:"handle"`
	} `json:"friends"`
}

func TestSearchFriends(t *testing.T) {
	s := newTestServer(t, 12)

	var body friendsBody
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/friends?owner=alice&q=wilson", nil, &body))
	require.Len(t, body.Friends, 2)
	assert.Equal(t, "@emmaw", body.Friends[0].Handle)

	body = friendsBody{}
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/friends/recent?owner=alice", nil, &body))
	assert.Len(t, body.Friends, 3)

	var e errorView
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/friends", nil, &e))
	assert.Equal(t, "bad_request", e.Code)
}

type compositionBody struct {
	ID    string `json:"id"`
	State string `json:"state"`
	Draft *struct {
		Quantity int64  `json:"quantity"`
		Message  string `json:"message"`
		TraceID  string `json:"trace_id"`
	} `json:"draft"`
	Transaction *struct {
		ID     uint64 `json:"id"`
		Kind   string `json:"kind"`
		Amount int64  `json:"amount"`
	} `json:"transaction"`
	ProjectedBalance *int64 `json:"projected_balance"`
}

func TestComposition(t *testing.T) {
	s := newTestServer(t, 12)

	var c compositionBody
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/compositions", map[string]any{"user_id": "alice"}, &c))
	assert.Equal(t, "browsing", c.State)
	path := "/compositions/" + c.ID

	var e errorView
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, path+"/select", map[string]any{"friend_id": "42"}, &e))
	assert.Equal(t, "unknown_friend", e.Code)

	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, path+"/increment", nil, &e))
	assert.Equal(t, "invalid_state", e.Code)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, path+"/select", map[string]any{"friend_id": "2"}, &c))
	assert.Equal(t, "composing", c.State)
	require.NotNil(t, c.ProjectedBalance)
	assert.EqualValues(t, 11, *c.ProjectedBalance)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, path+"/increment", nil, &c))
	assert.EqualValues(t, 2, c.Draft.Quantity)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, path+"/quantity", map[string]any{"quantity": 11}, &e))
	assert.Equal(t, "invalid_quantity", e.Code)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, path+"/quantity", map[string]any{"quantity": 5}, &c))
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, path+"/message", map[string]any{"message": "thanks!"}, &c))
	assert.Equal(t, "thanks!", c.Draft.Message)
	assert.EqualValues(t, 7, *c.ProjectedBalance)

	c = compositionBody{}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, path+"/confirm", nil, &c))
	assert.Equal(t, "committed", c.State)
	require.NotNil(t, c.Transaction)
	assert.Equal(t, "send", c.Transaction.Kind)
	assert.EqualValues(t, 5, c.Transaction.Amount)
	assert.Nil(t, c.ProjectedBalance)

	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, path+"/confirm", nil, &e))

	balance, err := s.store.BalanceOf(context.Background(), "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 7, balance)
}

func TestComposition_InsufficientBalance(t *testing.T) {
	s := newTestServer(t, 1)

	var c compositionBody
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/compositions", map[string]any{"user_id": "alice"}, &c))
	path := "/compositions/" + c.ID

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, path+"/select", map[string]any{"friend_id": "1"}, &c))
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, path+"/quantity", map[string]any{"quantity": 2}, &c))

	var e errorView
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, path+"/confirm", nil, &e))
	assert.Equal(t, "insufficient_balance", e.Code)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, path, nil, &c))
	assert.Equal(t, "composing", c.State)
	assert.EqualValues(t, 2, c.Draft.Quantity)

	c = compositionBody{}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, path+"/cancel", nil, &c))
	assert.Equal(t, "browsing", c.State)
	assert.Nil(t, c.Draft)
}

func TestComposition_NotFound(t *testing.T) {
	s := newTestServer(t, 1)

	var e errorView
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/compositions/nope", nil, &e))
	assert.Equal(t, "composition_not_found", e.Code)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/compositions", map[string]any{"user_id": "bob"}, &e))
	assert.Equal(t, "account_not_found", e.Code)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/compositions", map[string]any{}, &e))
}

func TestWallet(t *testing.T) {
	s := newTestServer(t, 2)

	var tx struct {
		Transaction struct {
			ID      uint64 `json:"id"`
			Kind    string `json:"kind"`
			TraceID string `json:"trace_id"`
		} `json:"transaction"`
	}

	trace := "0b7f5c1e-3d2a-4c55-9a0e-6f1b2d3c4e5f"
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/wallets/alice/topup", map[string]any{"amount": 10, "trace_id": trace}, &tx))
	assert.Equal(t, "purchase", tx.Transaction.Kind)
	assert.Equal(t, trace, tx.Transaction.TraceID)
	first := tx.Transaction.ID

	// retried top up is not applied twice
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/wallets/alice/topup", map[string]any{"amount": 10, "trace_id": trace}, &tx))
	assert.Equal(t, first, tx.Transaction.ID)

	var e errorView
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/wallets/alice/topup", map[string]any{"amount": 1000}, &e))
	assert.Equal(t, "invalid_amount", e.Code)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/wallets/alice/redeem", map[string]any{"amount": 1}, &e))
	assert.Equal(t, "invalid_location", e.Code)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/wallets/alice/redeem", map[string]any{"amount": 3, "location": "Blue Bottle"}, &tx))
	assert.Equal(t, "redeem", tx.Transaction.Kind)

	var summary struct {
		Balance  int64  `json:"balance"`
		Value    string `json:"value"`
		Activity []struct {
			Title         string `json:"title"`
			DisplayAmount string `json:"display_amount"`
			Color         string `json:"color"`
			Kind          string `json:"kind"`
		} `json:"activity"`
	}

	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/wallets/alice", nil, &summary))
	assert.EqualValues(t, 9, summary.Balance)
	assert.Equal(t, "36", summary.Value)
	require.Len(t, summary.Activity, 2)
	assert.Equal(t, "Redeemed at Blue Bottle", summary.Activity[0].Title)
	assert.Equal(t, "-3", summary.Activity[0].DisplayAmount)
	assert.Equal(t, "#FF5252", summary.Activity[0].Color)
	assert.Equal(t, "Purchased Coffee", summary.Activity[1].Title)
	assert.Equal(t, "+10", summary.Activity[1].DisplayAmount)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/wallets/bob", nil, &e))
}
