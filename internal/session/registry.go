package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"facial-editor/internal/scene"
	"facial-editor/pkg/errors"
)

// DefaultTTL is how long an idle session stays in memory.
const DefaultTTL = 30 * time.Minute

// Registry owns the live sessions of a server. Each session is an isolated
// Controller; sessions idle for longer than the TTL are persisted to the
// Store and dropped from memory, then restored on next access.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Controller
	opts     Options
	store    Store
	ttl      time.Duration
	logger   *slog.Logger
}

// NewRegistry creates a Registry. Controllers are built from opts; a nil
// store keeps snapshots in memory.
func NewRegistry(opts Options, store Store, ttl time.Duration) *Registry {
	if store == nil {
		store = NewMemoryStore()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions: make(map[string]*Controller),
		opts:     opts,
		store:    store,
		ttl:      ttl,
		logger:   logger,
	}
}

// Create starts a new session and returns its id.
func (r *Registry) Create() (string, *Controller) {
	id := uuid.NewString()
	c := NewController(r.withLogger(id))

	r.mu.Lock()
	r.sessions[id] = c
	r.mu.Unlock()

	r.logger.Info("session created", "session", id)
	return id, c
}

func (r *Registry) withLogger(id string) Options {
	opts := r.opts
	opts.Logger = r.logger.With("session", id)
	return opts
}

// Get returns the session with the given id, restoring it from the Store
// if it is not in memory. Unknown ids fail with SESSION_NOT_FOUND. A hit
// counts as activity, so Evict cannot drop a session a caller just fetched.
func (r *Registry) Get(ctx context.Context, id string) (*Controller, error) {
	r.mu.Lock()
	c, ok := r.sessions[id]
	if ok {
		c.touch(time.Now())
	}
	r.mu.Unlock()
	if ok {
		return c, nil
	}

	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %q not found", id)
	}
	snap, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "loading session %s", id)
	}
	if snap == nil {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %q not found", id)
	}

	c, err = r.restore(id, snap)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another request may have restored it meanwhile.
	if existing, ok := r.sessions[id]; ok {
		return existing, nil
	}
	r.sessions[id] = c
	r.logger.Info("session restored", "session", id)
	return c, nil
}

func (r *Registry) restore(id string, snap *scene.Snapshot) (*Controller, error) {
	placementSnap, custom, err := snap.Restore()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decoding session %s", id)
	}
	c := NewController(r.withLogger(id))
	if f := c.Restore(placementSnap, custom); f.Err != nil {
		return nil, f.Err
	}
	return c, nil
}

// Persist writes the session's snapshot to the Store.
func (r *Registry) Persist(ctx context.Context, id string) error {
	r.mu.Lock()
	c, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return errors.New(errors.ErrCodeSessionNotFound, "session %q not found", id)
	}
	return r.persist(ctx, id, c)
}

func (r *Registry) persist(ctx context.Context, id string, c *Controller) error {
	snap, err := scene.Capture(id, c.Snapshot(), c.CustomAssets())
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "capturing session %s", id)
	}
	if err := r.store.Set(ctx, snap, r.ttl); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "storing session %s", id)
	}
	return nil
}

// Delete ends a session and removes its snapshot.
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	stored, err := r.store.Get(ctx, id)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "loading session %s", id)
	}
	if !ok && stored == nil {
		return errors.New(errors.ErrCodeSessionNotFound, "session %q not found", id)
	}
	if err := r.store.Delete(ctx, id); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "deleting session %s", id)
	}
	r.logger.Info("session deleted", "session", id)
	return nil
}

// Len returns the number of sessions held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Evict persists and drops every session idle since before now-ttl. It
// returns the number of sessions evicted.
func (r *Registry) Evict(ctx context.Context, now time.Time) int {
	r.mu.Lock()
	idle := make(map[string]*Controller)
	for id, c := range r.sessions {
		if now.Sub(c.LastActive()) > r.ttl {
			idle[id] = c
		}
	}
	r.mu.Unlock()

	evicted := 0
	for id, c := range idle {
		if err := r.persist(ctx, id, c); err != nil {
			r.logger.Warn("failed to persist idle session", "session", id, "error", err)
			continue
		}
		r.mu.Lock()
		if cur, ok := r.sessions[id]; ok && cur == c && now.Sub(c.LastActive()) > r.ttl {
			delete(r.sessions, id)
			evicted++
		}
		r.mu.Unlock()
	}
	if evicted > 0 {
		r.logger.Info("evicted idle sessions", "count", evicted)
	}
	if err := r.store.Cleanup(ctx); err != nil {
		r.logger.Warn("session store cleanup failed", "error", err)
	}
	return evicted
}

// Run evicts idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Evict(ctx, now)
		}
	}
}

// Shutdown persists every live session.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	live := make(map[string]*Controller, len(r.sessions))
	for id, c := range r.sessions {
		live[id] = c
	}
	r.mu.Unlock()

	var firstErr error
	for id, c := range live {
		if err := r.persist(ctx, id, c); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
