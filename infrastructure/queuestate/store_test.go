package queuestate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"queueboard/infrastructure/queueapi"
	"queueboard/models"
)

type statusReply struct {
	env queueapi.Envelope[models.QueueStatus]
	err error
}

type fakeBackend struct {
	mu sync.Mutex

	statusFn    func(ctx context.Context, tokenID string) (queueapi.Envelope[models.QueueStatus], error)
	outletFn    func(ctx context.Context, outletID string) (queueapi.Envelope[models.OutletQueue], error)
	analyticsFn func(ctx context.Context, outletID string) (queueapi.Envelope[models.AnalyticsData], error)

	statusCalls map[string]int
}

func (f *fakeBackend) GetQueueStatus(ctx context.Context, tokenID string) (queueapi.Envelope[models.QueueStatus], error) {
	f.mu.Lock()
	if f.statusCalls == nil {
		f.statusCalls = make(map[string]int)
	}
	f.statusCalls[tokenID]++
	fn := f.statusFn
	f.mu.Unlock()
	if fn == nil {
		return okStatus(tokenID, 1), nil
	}
	return fn(ctx, tokenID)
}

func (f *fakeBackend) GetOutletQueue(ctx context.Context, outletID string) (queueapi.Envelope[models.OutletQueue], error) {
	if f.outletFn == nil {
		return queueapi.Envelope[models.OutletQueue]{}, errors.New("no outlet")
	}
	return f.outletFn(ctx, outletID)
}

func (f *fakeBackend) GetAnalytics(ctx context.Context, outletID string) (queueapi.Envelope[models.AnalyticsData], error) {
	if f.analyticsFn == nil {
		return queueapi.Envelope[models.AnalyticsData]{}, errors.New("no analytics")
	}
	return f.analyticsFn(ctx, outletID)
}

func (f *fakeBackend) calls(tokenID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls[tokenID]
}

func okStatus(tokenID string, position int) queueapi.Envelope[models.QueueStatus] {
	return queueapi.Envelope[models.QueueStatus]{
		Success: true,
		HasData: true,
		Data:    models.QueueStatus{TokenID: tokenID, Position: position, CurrentlyServing: models.NoTokenServing},
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestMostRecentlyStartedFetchWins(t *testing.T) {
	replies := map[string]chan statusReply{
		"first":  make(chan statusReply),
		"second": make(chan statusReply),
	}
	backend := &fakeBackend{statusFn: func(ctx context.Context, tokenID string) (queueapi.Envelope[models.QueueStatus], error) {
		r := <-replies[tokenID]
		return r.env, r.err
	}}
	store := NewStore(backend, Options{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		store.FetchQueueStatus(context.Background(), "first")
	}()
	waitFor(t, func() bool { return backend.calls("first") == 1 })

	wg.Add(1)
	go func() {
		defer wg.Done()
		store.FetchQueueStatus(context.Background(), "second")
	}()
	waitFor(t, func() bool { return backend.calls("second") == 1 })

	// The later fetch completes first, then the earlier one arrives.
	replies["second"] <- statusReply{env: okStatus("second", 2)}
	waitFor(t, func() bool {
		snap := store.Snapshot()
		return snap.QueueStatus != nil && snap.QueueStatus.TokenID == "second"
	})
	replies["first"] <- statusReply{env: okStatus("first", 9)}
	wg.Wait()

	snap := store.Snapshot()
	if snap.QueueStatus.TokenID != "second" || snap.QueueStatus.Position != 2 {
		t.Fatalf("expected the later fetch to win, got %+v", snap.QueueStatus)
	}
	if snap.Loading {
		t.Fatalf("expected loading cleared")
	}
}

func TestEarlierCompletionIsOverwrittenByLaterFetch(t *testing.T) {
	replies := map[string]chan statusReply{
		"first":  make(chan statusReply),
		"second": make(chan statusReply),
	}
	backend := &fakeBackend{statusFn: func(ctx context.Context, tokenID string) (queueapi.Envelope[models.QueueStatus], error) {
		r := <-replies[tokenID]
		return r.env, r.err
	}}
	store := NewStore(backend, Options{})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		store.FetchQueueStatus(context.Background(), "first")
	}()
	waitFor(t, func() bool { return backend.calls("first") == 1 })
	go func() {
		defer wg.Done()
		store.FetchQueueStatus(context.Background(), "second")
	}()
	waitFor(t, func() bool { return backend.calls("second") == 1 })

	replies["first"] <- statusReply{env: okStatus("first", 9)}
	replies["second"] <- statusReply{env: okStatus("second", 2)}
	wg.Wait()

	if got := store.Snapshot().QueueStatus.TokenID; got != "second" {
		t.Fatalf("expected second, got %q", got)
	}
}

func TestFetchQueueStatusFailureKeepsPreviousValue(t *testing.T) {
	fail := atomic.Bool{}
	backend := &fakeBackend{statusFn: func(ctx context.Context, tokenID string) (queueapi.Envelope[models.QueueStatus], error) {
		if fail.Load() {
			return queueapi.Envelope[models.QueueStatus]{}, &queueapi.Error{Kind: queueapi.KindTimeout, Op: "queue status", Err: context.DeadlineExceeded}
		}
		return okStatus(tokenID, 4), nil
	}}
	store := NewStore(backend, Options{})

	store.FetchQueueStatus(context.Background(), "T1")
	fail.Store(true)
	store.FetchQueueStatus(context.Background(), "T1")

	snap := store.Snapshot()
	if snap.QueueStatus == nil || snap.QueueStatus.Position != 4 {
		t.Fatalf("expected previous status kept, got %+v", snap.QueueStatus)
	}
	if snap.Err == "" {
		t.Fatalf("expected error recorded")
	}

	fail.Store(false)
	store.FetchQueueStatus(context.Background(), "T1")
	if got := store.Snapshot().Err; got != "" {
		t.Fatalf("expected error cleared, got %q", got)
	}
}

func TestFetchOutletQueueNeverNil(t *testing.T) {
	cases := []struct {
		name string
		fn   func(ctx context.Context, outletID string) (queueapi.Envelope[models.OutletQueue], error)
	}{
		{name: "transport error", fn: func(ctx context.Context, outletID string) (queueapi.Envelope[models.OutletQueue], error) {
			return queueapi.Envelope[models.OutletQueue]{}, &queueapi.Error{Kind: queueapi.KindConnectionRefused, Err: errors.New("refused")}
		}},
		{name: "rejection", fn: func(ctx context.Context, outletID string) (queueapi.Envelope[models.OutletQueue], error) {
			return queueapi.Envelope[models.OutletQueue]{Success: false, Message: "Outlet closed"}, nil
		}},
		{name: "nil tokens", fn: func(ctx context.Context, outletID string) (queueapi.Envelope[models.OutletQueue], error) {
			return queueapi.Envelope[models.OutletQueue]{Success: true, HasData: true, Data: models.OutletQueue{OutletID: outletID}}, nil
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := NewStore(&fakeBackend{outletFn: tc.fn}, Options{})
			store.FetchOutletQueue(context.Background(), "outlet-1")
			q := store.Snapshot().OutletQueue
			if q == nil {
				t.Fatalf("outlet queue must not be nil")
			}
			if q.NextTokens == nil || q.CurrentlyServing != models.NoTokenServing {
				t.Fatalf("unexpected outlet queue %+v", q)
			}
		})
	}
}

func TestFaultIsolationBetweenSlices(t *testing.T) {
	backend := &fakeBackend{
		outletFn: func(ctx context.Context, outletID string) (queueapi.Envelope[models.OutletQueue], error) {
			return queueapi.Envelope[models.OutletQueue]{}, errors.New("down")
		},
		analyticsFn: func(ctx context.Context, outletID string) (queueapi.Envelope[models.AnalyticsData], error) {
			return queueapi.Envelope[models.AnalyticsData]{Success: true, HasData: true, Data: models.AnalyticsData{TotalCustomersToday: 12}}, nil
		},
	}
	store := NewStore(backend, Options{OutletID: "outlet-1"})
	store.FetchQueueStatus(context.Background(), "T1")
	store.FetchAnalytics(context.Background())
	store.FetchOutletQueue(context.Background(), "outlet-1")

	snap := store.Snapshot()
	if snap.QueueStatus == nil || snap.Analytics == nil || snap.Analytics.TotalCustomersToday != 12 {
		t.Fatalf("expected other slices intact, got %+v", snap)
	}
	if snap.Err == "" {
		t.Fatalf("expected latest error recorded")
	}
}

func TestAnalyticsFailureDoesNotSetOutletError(t *testing.T) {
	backend := &fakeBackend{
		outletFn: func(ctx context.Context, outletID string) (queueapi.Envelope[models.OutletQueue], error) {
			return queueapi.Envelope[models.OutletQueue]{Success: true, HasData: true, Data: models.OutletQueue{OutletID: outletID}}, nil
		},
	}
	store := NewStore(backend, Options{OutletID: "outlet-1"})
	store.FetchOutletQueue(context.Background(), "outlet-1")
	store.FetchAnalytics(context.Background())

	snap := store.Snapshot()
	if snap.Err == "" {
		t.Fatalf("expected analytics failure recorded as latest error")
	}
	if snap.OutletErr != "" {
		t.Fatalf("outlet error must only reflect outlet fetches, got %q", snap.OutletErr)
	}

	backend.outletFn = nil
	store.FetchOutletQueue(context.Background(), "outlet-1")
	if store.Snapshot().OutletErr == "" {
		t.Fatalf("expected outlet failure recorded")
	}
}

func TestStartRealTimeUpdatesTwiceKeepsOnePoller(t *testing.T) {
	backend := &fakeBackend{}
	store := NewStore(backend, Options{TokenInterval: 10 * time.Millisecond})
	defer store.Close()

	store.StartRealTimeUpdates("A")
	first := store.tokenPoller
	waitFor(t, func() bool { return backend.calls("A") > 0 })

	store.StartRealTimeUpdates("B")
	if first.Running() {
		t.Fatalf("expected first poller stopped")
	}
	if store.tokenPoller == first || !store.tokenPoller.Running() {
		t.Fatalf("expected a fresh running poller")
	}

	stoppedAt := backend.calls("A")
	waitFor(t, func() bool { return backend.calls("B") >= 3 })
	if got := backend.calls("A"); got != stoppedAt {
		t.Fatalf("first poller still fetching: %d calls after stop, %d before", got, stoppedAt)
	}
	if tok, ok := store.Tracking(); !ok || tok != "B" {
		t.Fatalf("expected tracking B, got %q %v", tok, ok)
	}
}

func TestStopRealTimeUpdatesIsIdempotent(t *testing.T) {
	store := NewStore(&fakeBackend{}, Options{TokenInterval: 10 * time.Millisecond})
	store.StopRealTimeUpdates()
	store.StartRealTimeUpdates("A")
	store.StopRealTimeUpdates()
	store.StopRealTimeUpdates()
	if _, ok := store.Tracking(); ok {
		t.Fatalf("expected no tracking after stop")
	}

	store.Close()
	store.StartRealTimeUpdates("A")
	if _, ok := store.Tracking(); ok {
		t.Fatalf("closed store must not start pollers")
	}
}

func TestSubscribeIsNotifiedOnChange(t *testing.T) {
	store := NewStore(&fakeBackend{}, Options{})
	ch, unsubscribe := store.Subscribe()
	defer unsubscribe()

	store.SetCurrentCustomer(&models.Customer{TokenNumber: "T1"})
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("expected change notification")
	}
	if store.Snapshot().CurrentCustomer.TokenNumber != "T1" {
		t.Fatalf("expected current customer set")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	backend := &fakeBackend{outletFn: func(ctx context.Context, outletID string) (queueapi.Envelope[models.OutletQueue], error) {
		return queueapi.Envelope[models.OutletQueue]{Success: true, HasData: true, Data: models.OutletQueue{
			CurrentlyServing: "A1",
			NextTokens:       []models.QueueEntry{{Token: "A2"}},
		}}, nil
	}}
	store := NewStore(backend, Options{})
	store.FetchOutletQueue(context.Background(), "outlet-1")

	snap := store.Snapshot()
	snap.OutletQueue.NextTokens[0].Token = "mutated"
	if got := store.Snapshot().OutletQueue.NextTokens[0].Token; got != "A2" {
		t.Fatalf("snapshot mutation leaked into store: %q", got)
	}
}
