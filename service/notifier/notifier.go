package notifier

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pandodao/coffee-wallet/core"
)

const (
	writeWait = 5 * time.Second

	// PongWait is how long a client may stay silent before its socket is
	// considered dead. Pings go out well within it.
	PongWait   = 60 * time.Second
	pingPeriod = PongWait * 9 / 10

	sendBuffer = 16
)

type Message struct {
	Type        string            `json:"type"`
	UserID      string            `json:"user_id"`
	Balance     int64             `json:"balance"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
}

// Client is one websocket subscription. Messages queue on send and are written
// by WritePump, the only writer of conn.
type Client struct {
	userID string
	conn   *websocket.Conn
	send   chan Message
}

// Hub fans balance updates out to every websocket a user has open.
type Hub struct {
	mu      sync.Mutex
	clients map[string]map[*Client]struct{}
	logger  *slog.Logger
}

func New(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		logger:  logger.With("service", "notifier"),
	}
}

var _ core.Notifier = (*Hub)(nil)

func (h *Hub) Register(userID string, conn *websocket.Conn) *Client {
	c := &Client{
		userID: userID,
		conn:   conn,
		send:   make(chan Message, sendBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}

	h.clients[userID][c] = struct{}{}
	return c
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.unregister(c)
}

// unregister closes the send queue, which stops the client's WritePump.
func (h *Hub) unregister(c *Client) {
	clients, ok := h.clients[c.userID]
	if !ok {
		return
	}

	if _, ok := clients[c]; ok {
		delete(clients, c)
		close(c.send)
	}

	if len(clients) == 0 {
		delete(h.clients, c.userID)
	}
}

func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients[userID])
}

// Send queues msg for one client without blocking. A client whose queue is
// full is dropped.
func (h *Hub) Send(c *Client, msg Message) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.enqueue(c, msg)
}

func (h *Hub) enqueue(c *Client, msg Message) bool {
	if _, ok := h.clients[c.userID][c]; !ok {
		return false
	}

	select {
	case c.send <- msg:
		return true
	default:
		h.logger.Debug("drop slow subscriber", "user", c.userID)
		h.unregister(c)
		return false
	}
}

func (h *Hub) NotifyBalance(userID string, balance int64, tx *core.Transaction) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := Message{
		Type:        "balance_update",
		UserID:      userID,
		Balance:     balance,
		Transaction: tx,
	}

	for c := range h.clients[userID] {
		h.enqueue(c, msg)
	}
}

// WritePump writes queued messages and periodic pings to the socket until the
// client is unregistered or a write fails. It closes the socket on return.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Ledger publishes the new balance after every successful commit.
func Ledger(ledger core.Ledger, notifier core.Notifier) core.Ledger {
	return &notifyingLedger{Ledger: ledger, notifier: notifier}
}

type notifyingLedger struct {
	core.Ledger
	notifier core.Notifier
}

func (l *notifyingLedger) Commit(ctx context.Context, tx *core.Transaction) error {
	if err := l.Ledger.Commit(ctx, tx); err != nil {
		return err
	}

	if balance, err := l.Ledger.BalanceOf(ctx, tx.UserID); err == nil {
		l.notifier.NotifyBalance(tx.UserID, balance, tx)
	}

	return nil
}
