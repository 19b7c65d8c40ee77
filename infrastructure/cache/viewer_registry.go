package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"queueboard/infrastructure/queuestate"
)

// ViewerRegistry owns one queue store per anonymous visitor. A visitor is the
// server-side stand-in for a browser tab: it tracks that visitor's token and
// runs its polling loop. Idle visitors are closed by Sweep, and the least
// recently seen visitor is closed when a new one would exceed the limit.
type ViewerRegistry struct {
	newStore func() *queuestate.Store
	idle     time.Duration
	limit    int
	now      func() time.Time

	mu      sync.Mutex
	viewers map[string]*viewer
	sweeper *queuestate.Poller
}

type viewer struct {
	store    *queuestate.Store
	lastSeen time.Time
}

const defaultViewerLimit = 5000

func NewViewerRegistry(newStore func() *queuestate.Store, idle time.Duration, limit int) *ViewerRegistry {
	if idle <= 0 {
		idle = 15 * time.Minute
	}
	if limit <= 0 {
		limit = defaultViewerLimit
	}
	return &ViewerRegistry{
		newStore: newStore,
		idle:     idle,
		limit:    limit,
		now:      time.Now,
		viewers:  make(map[string]*viewer),
	}
}

// Store returns the visitor's store, creating it on first use.
func (r *ViewerRegistry) Store(visitorID string) *queuestate.Store {
	var evicted *queuestate.Store

	r.mu.Lock()
	v, ok := r.viewers[visitorID]
	if !ok {
		if len(r.viewers) >= r.limit {
			evicted = r.evictOldestLocked()
		}
		v = &viewer{store: r.newStore()}
		r.viewers[visitorID] = v
	}
	v.lastSeen = r.now()
	r.mu.Unlock()

	if evicted != nil {
		evicted.Close()
	}
	return v.store
}

func (r *ViewerRegistry) evictOldestLocked() *queuestate.Store {
	var (
		oldestID string
		oldest   *viewer
	)
	for id, v := range r.viewers {
		if oldest == nil || v.lastSeen.Before(oldest.lastSeen) {
			oldestID, oldest = id, v
		}
	}
	if oldest == nil {
		return nil
	}
	delete(r.viewers, oldestID)
	slog.Debug("viewer limit reached; evicted oldest viewer", slog.Int("limit", r.limit))
	return oldest.store
}

// Lookup returns the visitor's store without creating one.
func (r *ViewerRegistry) Lookup(visitorID string) (*queuestate.Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.viewers[visitorID]
	if !ok {
		return nil, false
	}
	v.lastSeen = r.now()
	return v.store, true
}

// Forget closes and removes a visitor's store.
func (r *ViewerRegistry) Forget(visitorID string) {
	r.mu.Lock()
	v, ok := r.viewers[visitorID]
	delete(r.viewers, visitorID)
	r.mu.Unlock()
	if ok {
		v.store.Close()
	}
}

// Sweep closes stores that have not been used within the idle timeout and
// returns how many were evicted.
func (r *ViewerRegistry) Sweep() int {
	cutoff := r.now().Add(-r.idle)
	var stale []*queuestate.Store

	r.mu.Lock()
	for id, v := range r.viewers {
		if v.lastSeen.Before(cutoff) {
			stale = append(stale, v.store)
			delete(r.viewers, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	if len(stale) > 0 {
		slog.Debug("evicted idle viewers", slog.Int("count", len(stale)), slog.Int("polling", r.Polling()))
	}
	return len(stale)
}

func (r *ViewerRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.viewers)
}

// Polling counts the visitors whose store is running real-time updates.
func (r *ViewerRegistry) Polling() int {
	r.mu.Lock()
	stores := make([]*queuestate.Store, 0, len(r.viewers))
	for _, v := range r.viewers {
		stores = append(stores, v.store)
	}
	r.mu.Unlock()

	n := 0
	for _, s := range stores {
		if _, ok := s.Tracking(); ok {
			n++
		}
	}
	return n
}

// StartSweeper runs Sweep periodically until Close.
func (r *ViewerRegistry) StartSweeper(every time.Duration) {
	r.mu.Lock()
	if r.sweeper == nil {
		r.sweeper = queuestate.NewPoller(every, func(context.Context) { r.Sweep() })
	}
	sweeper := r.sweeper
	r.mu.Unlock()
	sweeper.Start()
}

// Close stops the sweeper and closes every visitor store.
func (r *ViewerRegistry) Close() {
	r.mu.Lock()
	sweeper := r.sweeper
	stores := make([]*queuestate.Store, 0, len(r.viewers))
	for id, v := range r.viewers {
		stores = append(stores, v.store)
		delete(r.viewers, id)
	}
	r.mu.Unlock()

	if sweeper != nil {
		sweeper.Stop()
	}
	for _, s := range stores {
		s.Close()
	}
}
