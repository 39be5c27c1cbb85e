package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pandodao/coffee-wallet/core"
	"github.com/pandodao/coffee-wallet/service/composer"
	"golang.org/x/sync/singleflight"
)

func New(
	friends core.FriendService,
	wallets core.WalletService,
	sessions *composer.Registry,
	logger *slog.Logger,
) *Server {
	return &Server{
		friends:  friends,
		wallets:  wallets,
		sessions: sessions,
		logger:   logger.With("server", "api"),
		sf:       &singleflight.Group{},
	}
}

type Server struct {
	friends  core.FriendService
	wallets  core.WalletService
	sessions *composer.Registry
	logger   *slog.Logger
	sf       *singleflight.Group
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Route("/friends", func(r chi.Router) {
		r.Get("/", s.searchFriends)
		r.Get("/recent", s.recentFriends)
	})

	r.Route("/compositions", func(r chi.Router) {
		r.Post("/", s.openComposition)

		r.Route("/{id}", func(r chi.Router) {
			r.Use(s.withComposer)
			r.Get("/", s.showComposition)
			r.Post("/select", s.selectFriend)
			r.Post("/quantity", s.setQuantity)
			r.Post("/increment", s.increment)
			r.Post("/decrement", s.decrement)
			r.Post("/message", s.setMessage)
			r.Post("/confirm", s.confirm)
			r.Post("/cancel", s.cancel)
		})
	})

	r.Route("/wallets/{user_id}", func(r chi.Router) {
		r.Get("/", s.showWallet)
		r.Post("/topup", s.topUp)
		r.Post("/redeem", s.redeem)
	})

	return r
}

func (s *Server) searchFriends(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		renderBadRequest(w, "owner is required")
		return
	}

	friends, err := s.friends.Search(r.Context(), owner, r.URL.Query().Get("q"))
	if err != nil {
		s.logger.Error("friends.Search", "err", err)
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, map[string]any{"friends": friends})
}

func (s *Server) recentFriends(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		renderBadRequest(w, "owner is required")
		return
	}

	friends, err := s.friends.Recents(r.Context(), owner)
	if err != nil {
		s.logger.Error("friends.Recents", "err", err)
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, map[string]any{"friends": friends})
}

func (s *Server) showWallet(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	summary, err := s.wallets.Summarize(r.Context(), chi.URLParam(r, "user_id"), limit)
	if err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, summary)
}

func (s *Server) topUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount  int64  `json:"amount"`
		TraceID string `json:"trace_id"`
	}

	if err := decode(r, &req); err != nil {
		renderBadRequest(w, "invalid request body")
		return
	}

	tx, err := s.wallets.TopUp(r.Context(), chi.URLParam(r, "user_id"), req.Amount, req.TraceID)
	if err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, map[string]any{"transaction": tx})
}

func (s *Server) redeem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount   int64  `json:"amount"`
		Location string `json:"location"`
		TraceID  string `json:"trace_id"`
	}

	if err := decode(r, &req); err != nil {
		renderBadRequest(w, "invalid request body")
		return
	}

	tx, err := s.wallets.Redeem(r.Context(), chi.URLParam(r, "user_id"), req.Amount, req.Location, req.TraceID)
	if err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, map[string]any{"transaction": tx})
}
