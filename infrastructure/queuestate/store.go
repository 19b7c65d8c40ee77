// Package queuestate caches queue data fetched from the backend and keeps it
// fresh with pollers. Readers only ever see immutable snapshots.
package queuestate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"queueboard/infrastructure/queueapi"
	"queueboard/models"
)

// Backend is the subset of the queue API the store needs.
type Backend interface {
	GetQueueStatus(ctx context.Context, tokenID string) (queueapi.Envelope[models.QueueStatus], error)
	GetOutletQueue(ctx context.Context, outletID string) (queueapi.Envelope[models.OutletQueue], error)
	GetAnalytics(ctx context.Context, outletID string) (queueapi.Envelope[models.AnalyticsData], error)
}

type slice int

const (
	sliceQueueStatus slice = iota
	sliceOutletQueue
	sliceAnalytics
	sliceCount
)

func (s slice) String() string {
	switch s {
	case sliceQueueStatus:
		return "queue_status"
	case sliceOutletQueue:
		return "outlet_queue"
	default:
		return "analytics"
	}
}

// Snapshot is a point-in-time copy of the store state.
type Snapshot struct {
	CurrentCustomer *models.Customer
	QueueStatus     *models.QueueStatus
	OutletQueue     *models.OutletQueue
	Analytics       *models.AnalyticsData
	Loading         bool
	Err             string
	// OutletErr is the outcome of the last outlet queue fetch only, so the
	// board is not flagged by analytics failures.
	OutletErr       string

	// TrackedToken is the token real-time updates are running for, if any.
	TrackedToken string

	QueueStatusAt time.Time
	OutletQueueAt time.Time
	AnalyticsAt   time.Time
}

type Options struct {
	// OutletID scopes analytics fetches. Empty means all outlets.
	OutletID      string
	TokenInterval time.Duration
}

type Store struct {
	backend       Backend
	outletID      string
	tokenInterval time.Duration

	mu       sync.Mutex
	state    Snapshot
	loading  int
	started  [sliceCount]uint64
	applied  [sliceCount]uint64
	watchers map[chan struct{}]struct{}

	pollMu          sync.Mutex
	closed          bool
	tokenPoller     *Poller
	outletPoller    *Poller
	analyticsPoller *Poller
}

func NewStore(backend Backend, opts Options) *Store {
	interval := opts.TokenInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Store{
		backend:       backend,
		outletID:      opts.OutletID,
		tokenInterval: interval,
		watchers:      make(map[chan struct{}]struct{}),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.state
	snap.Loading = s.loading > 0
	if s.state.CurrentCustomer != nil {
		c := *s.state.CurrentCustomer
		snap.CurrentCustomer = &c
	}
	if s.state.QueueStatus != nil {
		q := *s.state.QueueStatus
		q.NextInLine = append([]string(nil), q.NextInLine...)
		snap.QueueStatus = &q
	}
	if s.state.OutletQueue != nil {
		o := *s.state.OutletQueue
		o.NextTokens = append([]models.QueueEntry{}, o.NextTokens...)
		snap.OutletQueue = &o
	}
	if s.state.Analytics != nil {
		a := *s.state.Analytics
		a.PeakHours = append([]models.PeakHour(nil), a.PeakHours...)
		a.ServiceTypeBreakdown = append([]models.ServiceCount(nil), a.ServiceTypeBreakdown...)
		snap.Analytics = &a
	}
	return snap
}

// Subscribe returns a channel that receives a value after state changes.
// Notifications are coalesced. Call the returned func to unsubscribe.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()
	return ch, func() {
		s.mu.Lock()
		delete(s.watchers, ch)
		s.mu.Unlock()
	}
}

// notify must be called with s.mu held.
func (s *Store) notify() {
	for ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Store) SetCurrentCustomer(c *models.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c == nil {
		s.state.CurrentCustomer = nil
	} else {
		cp := *c
		s.state.CurrentCustomer = &cp
	}
	s.notify()
}

// begin marks a fetch for sl as started and returns its sequence number.
func (s *Store) begin(sl slice) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started[sl]++
	s.loading++
	s.notify()
	return s.started[sl]
}

func (s *Store) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading--
	s.notify()
}

// apply runs update if seq is newer than the last applied result for sl.
// Responses from fetches that started earlier than one already applied are
// dropped.
func (s *Store) apply(sl slice, seq uint64, update func(*Snapshot)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied[sl] {
		slog.Debug("discarding stale queue response", slog.String("slice", sl.String()), slog.Uint64("seq", seq), slog.Uint64("applied", s.applied[sl]))
		return false
	}
	s.applied[sl] = seq
	update(&s.state)
	s.notify()
	return true
}

// FetchQueueStatus refreshes the per-token status. On failure the previous
// status is kept and the error recorded.
func (s *Store) FetchQueueStatus(ctx context.Context, tokenID string) {
	seq := s.begin(sliceQueueStatus)
	defer s.end()

	env, err := s.backend.GetQueueStatus(ctx, tokenID)
	if err != nil && ctx.Err() != nil {
		// Stopped pollers and abandoned requests leave state untouched.
		return
	}
	s.apply(sliceQueueStatus, seq, func(st *Snapshot) {
		switch {
		case err != nil:
			st.Err = queueapi.UserMessage(err)
		case !env.OK():
			st.Err = env.Rejection()
		default:
			status := env.Data
			st.QueueStatus = &status
			st.QueueStatusAt = time.Now()
			st.Err = ""
		}
	})
	if err != nil {
		slog.Warn("queue status fetch failed", slog.String("token", tokenID), slog.Any("err", err))
	}
}

// FetchOutletQueue refreshes the outlet board. The outlet queue is never left
// empty: failures and rejections store the empty snapshot.
func (s *Store) FetchOutletQueue(ctx context.Context, outletID string) {
	seq := s.begin(sliceOutletQueue)
	defer s.end()

	env, err := s.backend.GetOutletQueue(ctx, outletID)
	if err != nil && ctx.Err() != nil {
		return
	}
	s.apply(sliceOutletQueue, seq, func(st *Snapshot) {
		var q models.OutletQueue
		switch {
		case err != nil:
			q = models.EmptyOutletQueue(outletID)
			st.Err = queueapi.UserMessage(err)
		case !env.OK():
			q = models.EmptyOutletQueue(outletID)
			st.Err = env.Rejection()
		default:
			q = env.Data
			if q.NextTokens == nil {
				q.NextTokens = []models.QueueEntry{}
			}
			if q.CurrentlyServing == "" {
				q.CurrentlyServing = models.NoTokenServing
			}
			st.Err = ""
		}
		st.OutletErr = st.Err
		st.OutletQueue = &q
		st.OutletQueueAt = time.Now()
	})
	if err != nil {
		slog.Warn("outlet queue fetch failed", slog.String("outlet", outletID), slog.Any("err", err))
	}
}

// FetchAnalytics refreshes dashboard metrics, keeping the previous values on
// failure.
func (s *Store) FetchAnalytics(ctx context.Context) {
	seq := s.begin(sliceAnalytics)
	defer s.end()

	env, err := s.backend.GetAnalytics(ctx, s.outletID)
	if err != nil && ctx.Err() != nil {
		return
	}
	s.apply(sliceAnalytics, seq, func(st *Snapshot) {
		switch {
		case err != nil:
			st.Err = queueapi.UserMessage(err)
		case !env.OK():
			st.Err = env.Rejection()
		default:
			a := env.Data
			st.Analytics = &a
			st.AnalyticsAt = time.Now()
			st.Err = ""
		}
	})
	if err != nil {
		slog.Warn("analytics fetch failed", slog.Any("err", err))
	}
}

// StartRealTimeUpdates polls the status of tokenID. Any poller already running
// is stopped first, so at most one token poller exists.
func (s *Store) StartRealTimeUpdates(tokenID string) {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	if s.closed {
		return
	}
	if s.tokenPoller != nil {
		s.tokenPoller.Stop()
	}
	s.tokenPoller = NewPoller(s.tokenInterval, func(ctx context.Context) {
		s.FetchQueueStatus(ctx, tokenID)
	})
	s.setTracked(tokenID)
	s.tokenPoller.Start()
}

// StopRealTimeUpdates is idempotent.
func (s *Store) StopRealTimeUpdates() {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	s.stopTokenPoller()
}

func (s *Store) stopTokenPoller() {
	if s.tokenPoller == nil {
		return
	}
	s.tokenPoller.Stop()
	s.tokenPoller = nil
	s.setTracked("")
}

// Tracking reports the token real-time updates are running for.
func (s *Store) Tracking() (string, bool) {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	if s.tokenPoller == nil || !s.tokenPoller.Running() {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.TrackedToken, true
}

func (s *Store) setTracked(tokenID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.TrackedToken = tokenID
}

// StartOutletUpdates keeps the outlet board fresh. Calling it again replaces
// the running board poller.
func (s *Store) StartOutletUpdates(outletID string, every time.Duration) {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	if s.closed {
		return
	}
	if s.outletPoller != nil {
		s.outletPoller.Stop()
	}
	s.outletPoller = NewPoller(every, func(ctx context.Context) {
		s.FetchOutletQueue(ctx, outletID)
	})
	s.outletPoller.Start()
}

func (s *Store) StartAnalyticsUpdates(every time.Duration) {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	if s.closed {
		return
	}
	if s.analyticsPoller != nil {
		s.analyticsPoller.Stop()
	}
	s.analyticsPoller = NewPoller(every, s.FetchAnalytics)
	s.analyticsPoller.Start()
}

// Close stops every poller. Later Start calls are ignored.
func (s *Store) Close() {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	s.closed = true
	s.stopTokenPoller()
	for _, p := range []*Poller{s.outletPoller, s.analyticsPoller} {
		if p != nil {
			p.Stop()
		}
	}
	s.outletPoller = nil
	s.analyticsPoller = nil
}
