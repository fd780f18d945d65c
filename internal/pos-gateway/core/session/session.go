// Package session keeps the per-terminal state of the gateway: one cart and
// one checkout flow per session, in memory only.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/comanda/internal/pos-gateway/core/checkout"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/domain/cart"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/ports"
)

var (
	ErrNotFound = errors.New("session: not found")
	ErrBusy     = errors.New("session: an operation is already in progress")
)

type Session struct {
	ID   string
	Cart *cart.Cart
	Flow *checkout.Flow

	mu       sync.Mutex
	busy     atomic.Bool
	lastSeen atomic.Int64
}

// Lock serializes access to Cart and Flow. Flow releases it around backend
// calls; the busy flag keeps other writers out meanwhile.
func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Begin marks the session busy for a network-bearing operation. The returned
// release must be called exactly once; ErrBusy means another one is running.
func (s *Session) Begin() (release func(), err error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	var once sync.Once
	return func() { once.Do(func() { s.busy.Store(false) }) }, nil
}

func (s *Session) Busy() bool { return s.busy.Load() }

func (s *Session) touch(now time.Time) { s.lastSeen.Store(now.UnixNano()) }

func (s *Session) idleSince() time.Time { return time.Unix(0, s.lastSeen.Load()) }

type Registry struct {
	board    ports.Board
	checkout checkout.Config
	ttl      time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(board ports.Board, cfg checkout.Config, ttl time.Duration) *Registry {
	return &Registry{
		board:    board,
		checkout: cfg,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

func (r *Registry) Create() *Session {
	c := cart.New()
	s := &Session{
		ID:   uuid.NewString(),
		Cart: c,
		Flow: checkout.NewFlow(c, r.board, r.checkout),
	}
	s.Flow.SetLocker(&s.mu)
	s.touch(r.now())

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.touch(r.now())
	return s, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Reap drops sessions idle for longer than the TTL and returns how many.
// Busy sessions are kept.
func (r *Registry) Reap() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.Busy() || s.idleSince().After(cutoff) {
			continue
		}
		delete(r.sessions, id)
		n++
	}
	return n
}

// RunReaper calls Reap every interval until ctx is done.
func (r *Registry) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Reap(); n > 0 {
				slog.InfoContext(ctx, "reaped idle sessions", "count", n, "remaining", r.Len())
			}
		}
	}
}
