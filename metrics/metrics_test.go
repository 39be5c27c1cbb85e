package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCommit(t *testing.T) {
	before := testutil.ToFloat64(coins.WithLabelValues("redeem"))

	RecordCommit("redeem", 3, nil)
	RecordCommit("redeem", 5, errors.New("insufficient balance"))

	assert.Equal(t, before+3, testutil.ToFloat64(coins.WithLabelValues("redeem")))
	assert.Equal(t, float64(1), testutil.ToFloat64(commits.WithLabelValues("redeem", "error")))
}

func TestInstrumentHandler(t *testing.T) {
	r := chi.NewRouter()
	r.Use(InstrumentHandler)
	r.Get("/wallets/{user_id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, user := range []string{"alice", "bob"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wallets/"+user, nil))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/wallets/{user_id}", "418")))

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "coffee_wallet_http_requests_total")
}
