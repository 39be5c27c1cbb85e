package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/wire"
	"github.com/pandodao/coffee-wallet/core"
	"github.com/pandodao/coffee-wallet/handler/api"
	"github.com/pandodao/coffee-wallet/handler/hc"
	"github.com/pandodao/coffee-wallet/handler/ws"
	"github.com/pandodao/coffee-wallet/metrics"
	"github.com/pandodao/coffee-wallet/store/memory"
	"github.com/pandodao/coffee-wallet/worker/cleaner"
	"github.com/pandodao/coffee-wallet/worker/settler"
	"github.com/rs/cors"
	"github.com/spf13/viper"
	"github.com/tsenart/nap"
)

var serverSet = wire.NewSet(
	api.New,
	ws.New,
	provideServer,
)

var workerSet = wire.NewSet(
	provideCleanerConfig,
	cleaner.New,
	provideSettler,
)

// provideSettler settles sends inside the server when it owns the memory
// store; with mysql the worker binary does it.
func provideSettler(v *viper.Viper, conn *nap.DB, mem *memory.Store, ledger core.Ledger, logger *slog.Logger) *settler.Settler {
	if conn != nil {
		return nil
	}

	v.SetDefault("settler.batch", 100)
	v.SetDefault("settler.concurrency", 8)

	return settler.New(mem.Transactions(), ledger, mem, logger, settler.Config{
		Batch:       v.GetInt("settler.batch"),
		Concurrency: v.GetInt("settler.concurrency"),
	})
}

func provideCleanerConfig(v *viper.Viper) cleaner.Config {
	v.SetDefault("api.session_ttl", 30*time.Minute)
	v.SetDefault("api.session_grace", time.Minute)

	return cleaner.Config{
		TTL:   v.GetDuration("api.session_ttl"),
		Grace: v.GetDuration("api.session_grace"),
	}
}

func provideServer(apiHandler *api.Server, wsHandler *ws.Server, db *nap.DB) *http.Server {
	m := chi.NewMux()
	m.Use(middleware.RealIP)
	m.Use(middleware.Logger)
	m.Use(middleware.Recoverer)
	m.Use(cors.AllowAll().Handler)

	m.With(metrics.InstrumentHandler).Mount("/api", apiHandler.Handler())
	m.Mount("/ws", wsHandler.Handler())
	m.Mount("/hc", hc.Handler(version, commit, pingDB(db)))
	m.Mount("/metrics", metrics.Handler())

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", opt.port),
		Handler:           m,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
