package board

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"queueboard/infrastructure/queuestate"
	"queueboard/models"
)

type fakeSource struct {
	snap    queuestate.Snapshot
	fetched int
	onFetch *models.OutletQueue
}

func (f *fakeSource) Snapshot() queuestate.Snapshot { return f.snap }

func (f *fakeSource) FetchOutletQueue(ctx context.Context, outletID string) {
	f.fetched++
	if f.onFetch != nil {
		f.snap.OutletQueue = f.onFetch
	} else {
		q := models.EmptyOutletQueue(outletID)
		f.snap.OutletQueue = &q
	}
}

func queueWith(n int) *models.OutletQueue {
	q := models.OutletQueue{OutletID: "outlet-1", CurrentlyServing: "QT-20250929-0001", TotalWaiting: n, AverageWait: 12 * time.Minute}
	for i := 0; i < n; i++ {
		q.NextTokens = append(q.NextTokens, models.QueueEntry{Token: fmt.Sprintf("QT-20250929-%04d", i+2)})
	}
	return &q
}

func TestBuildViewCapsTilesAt12(t *testing.T) {
	v := buildView("outlet-1", queuestate.Snapshot{OutletQueue: queueWith(20)}, time.Date(2025, 9, 29, 9, 30, 0, 0, time.UTC))
	if len(v.Next) != 12 {
		t.Fatalf("expected 12 tiles, got %d", len(v.Next))
	}
	if v.Next[0].ShortToken != "T002" || v.Next[0].Position != 1 || v.Next[11].Position != 12 {
		t.Fatalf("unexpected tiles %+v", v.Next)
	}
	if v.TotalWaiting != 20 || v.AverageWait != "12m" {
		t.Fatalf("unexpected stats %+v", v)
	}
	if v.Clock != "Monday, September 29, 2025 - 09:30:00" {
		t.Fatalf("unexpected clock %q", v.Clock)
	}
}

func TestBuildViewWithoutQueueShowsPlaceholder(t *testing.T) {
	v := buildView("outlet-1", queuestate.Snapshot{}, time.Now())
	if v.CurrentlyServing != models.NoTokenServing {
		t.Fatalf("expected placeholder, got %q", v.CurrentlyServing)
	}
	if v.Next == nil || len(v.Next) != 0 {
		t.Fatalf("expected empty tiles, got %v", v.Next)
	}
}

func TestEmbeddedCustomerGetsServiceLabel(t *testing.T) {
	q := models.OutletQueue{NextTokens: []models.QueueEntry{{Token: "A045", Customer: &models.Customer{ServiceType: "bill_payments"}}}}
	v := buildView("outlet-1", queuestate.Snapshot{OutletQueue: &q}, time.Now())
	if v.Next[0].ShortToken != "A045" || v.Next[0].Service != "Bill Payments" {
		t.Fatalf("unexpected entry %+v", v.Next[0])
	}
}

func TestBoardFetchesOnlyWhenEmpty(t *testing.T) {
	src := &fakeSource{onFetch: queueWith(3)}
	rec := httptest.NewRecorder()
	BoardQueryHandler(src, "outlet-1").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/board", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if src.fetched != 1 {
		t.Fatalf("expected one synchronous fetch, got %d", src.fetched)
	}
	body := rec.Body.String()
	for _, want := range []string{"QT-20250929-0001", "T004", `content="5"`, `class="wide"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in body", want)
		}
	}

	rec = httptest.NewRecorder()
	BoardQueryHandler(src, "outlet-1").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/board", nil))
	if src.fetched != 1 {
		t.Fatalf("expected cached snapshot reuse, got %d fetches", src.fetched)
	}
}

func TestSnapshotJSON(t *testing.T) {
	src := &fakeSource{snap: queuestate.Snapshot{OutletQueue: queueWith(2), OutletErr: "Unable to reach the queue server. Please check your connection."}}
	rec := httptest.NewRecorder()
	SnapshotJSONHandler(src, "outlet-1").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/board/snapshot.json", nil))

	var v View
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.OutletID != "outlet-1" || len(v.Next) != 2 || v.Error == "" {
		t.Fatalf("unexpected snapshot %+v", v)
	}
}

func TestBoardIgnoresNonOutletErrors(t *testing.T) {
	src := &fakeSource{snap: queuestate.Snapshot{OutletQueue: queueWith(1), Err: "Failed to load analytics"}}
	rec := httptest.NewRecorder()
	BoardQueryHandler(src, "outlet-1").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/board", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "Failed to load analytics") {
		t.Fatalf("analytics error must not be shown on the board")
	}
}
