package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pandodao/coffee-wallet/service/composer"
)

type ctxKey int

const composerKey ctxKey = iota

type compositionView struct {
	ID string `json:"id"`
	composer.View
	ProjectedBalance *int64 `json:"projected_balance,omitempty"`
}

func (s *Server) withComposer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := s.sessions.Get(chi.URLParam(r, "id"))
		if !ok {
			renderJSON(w, http.StatusNotFound, errorView{Error: "composition not found", Code: "composition_not_found"})
			return
		}

		ctx := context.WithValue(r.Context(), composerKey, c)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func composerFrom(r *http.Request) *composer.Composer {
	return r.Context().Value(composerKey).(*composer.Composer)
}

func (s *Server) renderComposition(w http.ResponseWriter, r *http.Request, id string, c *composer.Composer) {
	view := compositionView{ID: id, View: c.View()}
	if view.State == composer.StateComposing {
		if balance, err := c.ProjectedBalance(r.Context()); err == nil {
			view.ProjectedBalance = &balance
		}
	}

	renderJSON(w, http.StatusOK, view)
}

func (s *Server) openComposition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}

	if err := decode(r, &req); err != nil || req.UserID == "" {
		renderBadRequest(w, "user_id is required")
		return
	}

	// only account holders can send
	if _, err := s.wallets.CurrentBalance(r.Context(), req.UserID); err != nil {
		renderError(w, err)
		return
	}

	id, c := s.sessions.Open(req.UserID)
	s.renderComposition(w, r, id, c)
}

func (s *Server) showComposition(w http.ResponseWriter, r *http.Request) {
	s.renderComposition(w, r, chi.URLParam(r, "id"), composerFrom(r))
}

// edit runs fn against the composer and renders the resulting state.
func (s *Server) edit(w http.ResponseWriter, r *http.Request, fn func(c *composer.Composer) error) {
	c := composerFrom(r)
	if err := fn(c); err != nil {
		renderError(w, err)
		return
	}

	s.renderComposition(w, r, chi.URLParam(r, "id"), c)
}

func (s *Server) selectFriend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FriendID string `json:"friend_id"`
	}

	if err := decode(r, &req); err != nil {
		renderBadRequest(w, "invalid request body")
		return
	}

	s.edit(w, r, func(c *composer.Composer) error {
		return c.SelectFriend(r.Context(), req.FriendID)
	})
}

func (s *Server) setQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int64 `json:"quantity"`
	}

	if err := decode(r, &req); err != nil {
		renderBadRequest(w, "invalid request body")
		return
	}

	s.edit(w, r, func(c *composer.Composer) error {
		return c.SetQuantity(req.Quantity)
	})
}

func (s *Server) increment(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, (*composer.Composer).Increment)
}

func (s *Server) decrement(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, (*composer.Composer).Decrement)
}

func (s *Server) setMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}

	if err := decode(r, &req); err != nil {
		renderBadRequest(w, "invalid request body")
		return
	}

	s.edit(w, r, func(c *composer.Composer) error {
		return c.SetMessage(req.Message)
	})
}

func (s *Server) cancel(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, (*composer.Composer).Cancel)
}

func (s *Server) confirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	logger := s.logger.With("composition", id)

	s.edit(w, r, func(c *composer.Composer) error {
		_, err, shared := s.sf.Do(id, func() (interface{}, error) {
			return c.Confirm(r.Context())
		})

		if shared {
			logger.Debug("confirm shared with a concurrent request")
		}

		return err
	})
}
