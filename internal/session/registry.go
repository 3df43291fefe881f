package session

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/carebridge-dev/carebridge/internal/chat"
	"github.com/carebridge-dev/carebridge/shared/domain"
	"github.com/carebridge-dev/carebridge/shared/logger"
)

var sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "carebridge",
	Subsystem: "session",
	Name:      "active",
	Help:      "Viewers with a live sync engine",
})

// Credentials holds the latest bearer token seen for a viewer. The engine's
// transport reads it on every request.
type Credentials struct {
	mu    sync.RWMutex
	token string
}

func (c *Credentials) Token(context.Context) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token, nil
}

func (c *Credentials) Set(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Factory builds the engine for a viewer.
type Factory func(viewer domain.Viewer, creds *Credentials) *chat.Engine

type key struct {
	role domain.ParticipantType
	id   domain.UserId
}

type entry struct {
	engine   *chat.Engine
	creds    *Credentials
	lastSeen time.Time
}

// Registry keeps one engine per viewer and closes engines left idle.
type Registry struct {
	factory Factory
	idleTTL time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[key]*entry
	closed   bool
}

func NewRegistry(factory Factory, idleTTL time.Duration) *Registry {
	return &Registry{
		factory:  factory,
		idleTTL:  idleTTL,
		now:      time.Now,
		sessions: make(map[key]*entry),
	}
}

// Acquire returns the viewer's engine, creating it on first use. created
// reports whether the engine is new.
func (r *Registry) Acquire(viewer domain.Viewer, token string) (engine *chat.Engine, created bool, err error) {
	k := key{role: viewer.Role, id: viewer.Id}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, false, chat.ErrEngineClosed
	}
	if e, ok := r.sessions[k]; ok {
		e.creds.Set(token)
		e.lastSeen = r.now()
		return e.engine, false, nil
	}

	creds := &Credentials{}
	creds.Set(token)
	e := &entry{engine: r.factory(viewer, creds), creds: creds, lastSeen: r.now()}
	r.sessions[k] = e
	sessionsActive.Inc()
	logger.Log.Info("session started",
		"component", "session",
		"viewer_id", viewer.Id,
		"role", viewer.Role)
	return e.engine, true, nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Evict closes engines not used within the idle TTL and returns how many were closed.
func (r *Registry) Evict() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var idle []*chat.Engine
	for k, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, e.engine)
			delete(r.sessions, k)
		}
	}
	r.mu.Unlock()

	for _, engine := range idle {
		engine.Close()
		sessionsActive.Dec()
	}
	if len(idle) > 0 {
		logger.Log.Info("idle sessions evicted",
			"component", "session",
			"evicted", len(idle))
	}
	return len(idle)
}

// StartBackgroundEviction periodically evicts idle sessions until ctx is done.
func (r *Registry) StartBackgroundEviction(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	logger.Log.Info("started session eviction",
		"component", "session",
		"interval", interval,
		"idle_ttl", r.idleTTL)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Evict()
			case <-ctx.Done():
				logger.Log.Info("session eviction shutting down gracefully",
					"component", "session")
				return
			}
		}
	}()
}

// Close closes every engine. Later Acquire calls fail.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	sessions := r.sessions
	r.sessions = make(map[key]*entry)
	r.mu.Unlock()

	for _, e := range sessions {
		e.engine.Close()
		sessionsActive.Dec()
	}
}
