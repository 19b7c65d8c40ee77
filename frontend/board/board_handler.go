package board

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"queueboard/infrastructure/display"
	"queueboard/infrastructure/queuestate"
	"queueboard/models"
)

const (
	maxTiles       = 12
	refreshSeconds = 5
)

// Source is the shared store the board reads from.
type Source interface {
	Snapshot() queuestate.Snapshot
	FetchOutletQueue(ctx context.Context, outletID string)
}

// current returns the snapshot, fetching once synchronously when the board
// poller has not delivered anything yet.
func current(ctx context.Context, src Source, outletID string) queuestate.Snapshot {
	snap := src.Snapshot()
	if snap.OutletQueue == nil {
		src.FetchOutletQueue(ctx, outletID)
		snap = src.Snapshot()
	}
	return snap
}

func buildView(outletID string, snap queuestate.Snapshot, now time.Time) View {
	q := models.EmptyOutletQueue(outletID)
	if snap.OutletQueue != nil {
		q = *snap.OutletQueue
	}
	serving := q.CurrentlyServing
	if serving == "" {
		serving = models.NoTokenServing
	}

	v := View{
		OutletID:         q.OutletID,
		Clock:            display.FormatClock(now),
		CurrentlyServing: serving,
		TotalWaiting:     q.TotalWaiting,
		AverageWait:      display.FormatWait(q.AverageWait),
		Next:             make([]Entry, 0, min(len(q.NextTokens), maxTiles)),
		Updated:          display.Ago(snap.OutletQueueAt),
		Loading:          snap.Loading,
		Error:            snap.OutletErr,
	}
	for i, e := range q.NextTokens {
		if i == maxTiles {
			break
		}
		entry := Entry{Token: e.Token, ShortToken: display.ShortToken(e.Token), Position: i + 1}
		if e.Customer != nil {
			entry.Service = display.ServiceLabel(e.Customer.ServiceType)
		}
		v.Next = append(v.Next, entry)
	}
	return v
}

func BoardQueryHandler(src Source, outletID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view := buildView(outletID, current(r.Context(), src, outletID), time.Now())
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := BoardPage(view, refreshSeconds).Render(r.Context(), w); err != nil {
			slog.Error("render board failed", slog.Any("err", err))
		}
	}
}

func SnapshotJSONHandler(src Source, outletID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view := buildView(outletID, current(r.Context(), src, outletID), time.Now())
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if err := json.NewEncoder(w).Encode(view); err != nil {
			slog.Error("encode board snapshot failed", slog.Any("err", err))
		}
	}
}
