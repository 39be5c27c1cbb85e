package composer

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pandodao/coffee-wallet/core"
	"github.com/pandodao/coffee-wallet/metrics"
)

type RegistryConfig struct {
	Capacity int `valid:"required"`
}

type session struct {
	composer *Composer
	touched  atomic.Int64
}

func (s *session) touch(t time.Time) {
	s.touched.Store(t.UnixNano())
}

func (s *session) idleSince() time.Time {
	return time.Unix(0, s.touched.Load())
}

// Registry holds the compositions of every open session. When full, the least
// recently used composition is dropped.
type Registry struct {
	friends  core.FriendService
	ledger   core.Ledger
	logger   *slog.Logger
	sessions *lru.Cache[string, *session]

	now func() time.Time
}

func NewRegistry(friends core.FriendService, ledger core.Ledger, logger *slog.Logger, cfg RegistryConfig) *Registry {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	sessions, err := lru.New[string, *session](cfg.Capacity)
	if err != nil {
		panic(err)
	}

	return &Registry{
		friends:  friends,
		ledger:   ledger,
		logger:   logger,
		sessions: sessions,
		now:      time.Now,
	}
}

// Open starts a new composition for owner in the browsing state.
func (r *Registry) Open(owner string) (string, *Composer) {
	id := uuid.NewString()
	s := &session{composer: New(owner, r.friends, r.ledger, r.logger)}
	s.touch(r.now())

	r.sessions.Add(id, s)
	metrics.SetOpenCompositions(r.sessions.Len())
	return id, s.composer
}

func (r *Registry) Get(id string) (*Composer, bool) {
	s, ok := r.sessions.Get(id)
	if !ok {
		return nil, false
	}

	s.touch(r.now())
	return s.composer, true
}

func (r *Registry) Remove(id string) {
	r.sessions.Remove(id)
	metrics.SetOpenCompositions(r.sessions.Len())
}

func (r *Registry) Len() int {
	return r.sessions.Len()
}

// Idle lists sessions not used for at least ttl.
func (r *Registry) Idle(ttl time.Duration) []string {
	deadline := r.now().Add(-ttl)

	var ids []string
	for _, id := range r.sessions.Keys() {
		if s, ok := r.sessions.Peek(id); ok && !s.idleSince().After(deadline) {
			ids = append(ids, id)
		}
	}

	return ids
}

// Committed lists finished compositions not used for at least grace.
func (r *Registry) Committed(grace time.Duration) []string {
	deadline := r.now().Add(-grace)

	var ids []string
	for _, id := range r.sessions.Keys() {
		if s, ok := r.sessions.Peek(id); ok && s.composer.State() == StateCommitted && !s.idleSince().After(deadline) {
			ids = append(ids, id)
		}
	}

	return ids
}
