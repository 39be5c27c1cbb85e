package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/oxtoacart/bpool"
	"github.com/pandodao/coffee-wallet/core"
)

var bufpool = bpool.NewBufferPool(64)

type errorView struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// errorStatuses is checked in order; wrapped commit failures come first so the
// cause they carry does not decide the status.
var errorStatuses = []struct {
	err    error
	status int
	code   string
}{
	{core.ErrCommitFailed, http.StatusServiceUnavailable, "commit_failed"},
	{core.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
	{core.ErrMessageTooLong, http.StatusBadRequest, "message_too_long"},
	{core.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{core.ErrInvalidLocation, http.StatusBadRequest, "invalid_location"},
	{core.ErrInvalidTrace, http.StatusBadRequest, "invalid_trace"},
	{core.ErrInsufficientBalance, http.StatusConflict, "insufficient_balance"},
	{core.ErrInvalidState, http.StatusConflict, "invalid_state"},
	{core.ErrUnknownFriend, http.StatusNotFound, "unknown_friend"},
	{core.ErrAccountNotFound, http.StatusNotFound, "account_not_found"},
}

func renderJSON(w http.ResponseWriter, status int, v any) {
	buf := bufpool.Get()
	defer bufpool.Put(buf)

	if err := json.NewEncoder(buf).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func renderError(w http.ResponseWriter, err error) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			renderJSON(w, e.status, errorView{Error: err.Error(), Code: e.code})
			return
		}
	}

	renderJSON(w, http.StatusInternalServerError, errorView{Error: "internal error", Code: "internal"})
}

func renderBadRequest(w http.ResponseWriter, msg string) {
	renderJSON(w, http.StatusBadRequest, errorView{Error: msg, Code: "bad_request"})
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
