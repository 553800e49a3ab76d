package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/adaptedu-backend/internal/observability"
	"github.com/yungbote/adaptedu-backend/internal/platform/apierr"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
)

// DefaultSessionTTL is how long an untouched session survives.
const DefaultSessionTTL = 2 * time.Hour

type closer interface{ Close() }

type registryEntry[T closer] struct {
	owner    uuid.UUID
	value    T
	lastUsed time.Time
}

// registry holds per-user server-side sessions. Lookups by another user
// are indistinguishable from missing sessions.
type registry[T closer] struct {
	mu    sync.Mutex
	log   *logger.Logger
	kind  string
	ttl   time.Duration
	now   func() time.Time
	items map[uuid.UUID]*registryEntry[T]
}

func newRegistry[T closer](log *logger.Logger, kind string, ttl time.Duration) *registry[T] {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &registry[T]{
		log:   log.With("component", "SessionRegistry", "kind", kind),
		kind:  kind,
		ttl:   ttl,
		now:   time.Now,
		items: map[uuid.UUID]*registryEntry[T]{},
	}
}

func (r *registry[T]) put(owner uuid.UUID, v T) uuid.UUID {
	id := uuid.New()
	r.mu.Lock()
	r.items[id] = &registryEntry[T]{owner: owner, value: v, lastUsed: r.now()}
	n := len(r.items)
	r.mu.Unlock()
	observability.Current().SetActiveSessions(r.kind, n)
	return id
}

func (r *registry[T]) get(owner, id uuid.UUID) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok || e.owner != owner {
		var zero T
		return zero, apierr.NotFound(r.kind+"_not_found", errors.New(r.kind+" session not found"))
	}
	e.lastUsed = r.now()
	return e.value, nil
}

func (r *registry[T]) remove(owner, id uuid.UUID) {
	r.mu.Lock()
	e, ok := r.items[id]
	if ok && e.owner == owner {
		delete(r.items, id)
	}
	n := len(r.items)
	r.mu.Unlock()
	if ok && e.owner == owner {
		e.value.Close()
	}
	observability.Current().SetActiveSessions(r.kind, n)
}

// sweep closes sessions idle for longer than the TTL.
func (r *registry[T]) sweep() int {
	cutoff := r.now().Add(-r.ttl)
	var expired []T
	r.mu.Lock()
	for id, e := range r.items {
		if e.lastUsed.Before(cutoff) {
			expired = append(expired, e.value)
			delete(r.items, id)
		}
	}
	n := len(r.items)
	r.mu.Unlock()
	for _, v := range expired {
		v.Close()
	}
	if len(expired) > 0 {
		r.log.Info("expired sessions closed", "count", len(expired))
	}
	observability.Current().SetActiveSessions(r.kind, n)
	return len(expired)
}

// run sweeps until ctx ends, then closes everything left.
func (r *registry[T]) run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *registry[T]) closeAll() {
	r.mu.Lock()
	items := r.items
	r.items = map[uuid.UUID]*registryEntry[T]{}
	r.mu.Unlock()
	for _, e := range items {
		e.value.Close()
	}
	observability.Current().SetActiveSessions(r.kind, 0)
}

func requireUser(userID uuid.UUID) error {
	if userID == uuid.Nil {
		return ErrUnauthenticated
	}
	return nil
}
