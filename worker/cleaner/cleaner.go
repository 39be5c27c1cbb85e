package cleaner

import (
	"context"
	"log/slog"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/pandodao/coffee-wallet/service/composer"
	"github.com/zyedidia/generic/mapset"
)

type Config struct {
	// TTL is how long an untouched composition is kept.
	TTL time.Duration `valid:"required"`
	// Grace is how long a committed composition stays readable.
	Grace    time.Duration
	Interval time.Duration
}

type Cleaner struct {
	sessions *composer.Registry
	logger   *slog.Logger
	cfg      Config
}

func New(sessions *composer.Registry, logger *slog.Logger, cfg Config) *Cleaner {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}

	if cfg.Grace <= 0 || cfg.Grace > cfg.TTL {
		cfg.Grace = cfg.TTL
	}

	return &Cleaner{
		sessions: sessions,
		logger:   logger.With("worker", "cleaner"),
		cfg:      cfg,
	}
}

func (w *Cleaner) Run(ctx context.Context) error {
	w.logger.Info("cleaner start")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.cfg.Interval):
			w.run()
		}
	}
}

// run drops idle compositions and committed ones past their grace period.
// A dropped draft never touched the ledger.
func (w *Cleaner) run() int {
	expired := mapset.New[string]()
	for _, id := range w.sessions.Idle(w.cfg.TTL) {
		expired.Put(id)
	}

	for _, id := range w.sessions.Committed(w.cfg.Grace) {
		expired.Put(id)
	}

	expired.Each(func(id string) {
		w.sessions.Remove(id)
	})

	if n := expired.Size(); n > 0 {
		w.logger.Debug("compositions dropped", "count", n, "open", w.sessions.Len())
	}

	return expired.Size()
}
