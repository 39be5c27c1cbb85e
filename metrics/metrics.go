package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the wallet's own collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coffee_wallet",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coffee_wallet",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	commits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coffee_wallet",
			Subsystem: "ledger",
			Name:      "commits_total",
			Help:      "Commits by transaction kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	coins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coffee_wallet",
			Subsystem: "ledger",
			Name:      "coins_total",
			Help:      "Coins moved by committed transactions.",
		},
		[]string{"kind"},
	)

	compositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "coffee_wallet",
			Subsystem: "composer",
			Name:      "open_sessions",
			Help:      "Compositions currently held in memory.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		commits,
		coins,
		compositions,
	)
}

// Handler exposes the registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler records request counts and latency keyed by chi route pattern.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordCommit counts a commit attempt; amount is only added on success.
func RecordCommit(kind string, amount int64, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}

	commits.WithLabelValues(kind, outcome).Inc()
	if err == nil {
		coins.WithLabelValues(kind).Add(float64(amount))
	}
}

func SetOpenCompositions(n int) {
	compositions.Set(float64(n))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}

	return h.Hijack()
}
