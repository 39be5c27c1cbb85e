package ws

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/pandodao/coffee-wallet/core"
	"github.com/pandodao/coffee-wallet/service/notifier"
)

type Server struct {
	hub      *notifier.Hub
	wallets  core.WalletService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func New(hub *notifier.Hub, wallets core.WalletService, logger *slog.Logger) *Server {
	return &Server{
		hub:     hub,
		wallets: wallets,
		logger:  logger.With("server", "ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/wallets/{user_id}", s.subscribe)
	return r
}

// subscribe sends the current balance, then pushes an update after every commit
// until the client goes away.
func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	balance, err := s.wallets.CurrentBalance(r.Context(), userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrAccountNotFound) {
			status = http.StatusNotFound
		}

		http.Error(w, err.Error(), status)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("upgrader.Upgrade", "err", err)
		return
	}

	client := s.hub.Register(userID, conn)
	defer s.hub.Unregister(client)

	go client.WritePump()

	if !s.hub.Send(client, notifier.Message{Type: "balance", UserID: userID, Balance: balance}) {
		return
	}

	_ = conn.SetReadDeadline(time.Now().Add(notifier.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(notifier.PongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(notifier.PongWait))
	}
}
