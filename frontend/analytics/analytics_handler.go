package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"golang.org/x/sync/errgroup"

	"queueboard/infrastructure/display"
	"queueboard/infrastructure/queueapi"
	"queueboard/infrastructure/queuestate"
	"queueboard/models"
)

const (
	refreshSeconds = 300
	waitPeriod     = "24h"
)

// Backend serves the series the shared store does not cache.
type Backend interface {
	GetWaitTimes(ctx context.Context, period string) (queueapi.Envelope[[]models.WaitTimeData], error)
	GetOfficerPerformance(ctx context.Context) (queueapi.Envelope[[]models.OfficerPerformance], error)
}

// Source is the shared store holding the analytics slice.
type Source interface {
	Snapshot() queuestate.Snapshot
	FetchAnalytics(ctx context.Context)
}

type series struct {
	waits         []models.WaitTimeData
	waitSample    bool
	officers      []models.OfficerPerformance
	officerSample bool
}

// load fetches both series concurrently, and refreshes the shared analytics
// when asked to or when nothing is cached yet. Transport failures fall back to
// the sample series; rejections render as empty.
func load(ctx context.Context, api Backend, src Source, refresh bool) (queuestate.Snapshot, series) {
	var s series
	g, gctx := errgroup.WithContext(ctx)

	if refresh || src.Snapshot().Analytics == nil {
		g.Go(func() error {
			src.FetchAnalytics(gctx)
			return nil
		})
	}
	g.Go(func() error {
		env, err := api.GetWaitTimes(gctx, waitPeriod)
		switch {
		case err != nil:
			slog.Warn("wait time series unavailable", slog.Any("err", err))
			s.waits, s.waitSample = sampleWaitTimes(), true
		case env.OK():
			s.waits = env.Data
		}
		return nil
	})
	g.Go(func() error {
		env, err := api.GetOfficerPerformance(gctx)
		switch {
		case err != nil:
			slog.Warn("officer performance unavailable", slog.Any("err", err))
			s.officers, s.officerSample = sampleOfficers(), true
		case env.OK():
			s.officers = env.Data
		}
		return nil
	})
	_ = g.Wait()

	return src.Snapshot(), s
}

func build(snap queuestate.Snapshot, s series) Dashboard {
	metrics := sampleMetrics()
	d := Dashboard{
		SampleMetrics:  snap.Analytics == nil,
		SampleWait:     s.waitSample,
		SampleOfficers: s.officerSample,
		Updated:        display.Ago(snap.AnalyticsAt),
		Error:          snap.Err,
	}
	if snap.Analytics != nil {
		metrics = *snap.Analytics
	}

	d.AverageWait = display.FormatWait(metrics.AverageWait)
	d.TotalCustomers = metrics.TotalCustomersToday
	d.Completed = metrics.CompletedServices
	if metrics.TotalCustomersToday > 0 {
		d.ServiceRate = metrics.CompletedServices * 100 / metrics.TotalCustomersToday
	}
	d.PeakHour = peakHour(metrics.PeakHours)
	d.Breakdown, d.BusiestService = breakdown(metrics.ServiceTypeBreakdown)
	d.WaitTimes = waitRows(s.waits)
	d.Officers, d.TopPerformer, d.Efficiency = officerRows(s.officers)
	return d
}

func peakHour(hours []models.PeakHour) string {
	if len(hours) == 0 {
		return "-"
	}
	best := hours[0]
	for _, h := range hours[1:] {
		if h.Count > best.Count {
			best = h
		}
	}
	return fmt.Sprintf("%02d:00 - %02d:00", best.Hour, (best.Hour+1)%24)
}

func breakdown(counts []models.ServiceCount) ([]BreakdownRow, string) {
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	rows := make([]BreakdownRow, 0, len(counts))
	for _, c := range counts {
		row := BreakdownRow{Service: display.ServiceLabel(c.Type), Count: c.Count}
		if total > 0 {
			row.Percent = c.Count * 100 / total
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })
	if len(rows) == 0 {
		return rows, "-"
	}
	return rows, rows[0].Service
}

func waitRows(waits []models.WaitTimeData) []WaitRow {
	var longest int64
	for _, w := range waits {
		longest = max(longest, int64(w.WaitTime))
	}
	rows := make([]WaitRow, 0, len(waits))
	for _, w := range waits {
		row := WaitRow{Time: w.Time, Wait: display.FormatWait(w.WaitTime), QueueLength: w.QueueLength}
		if longest > 0 {
			row.BarPercent = int(int64(w.WaitTime) * 100 / longest)
		}
		rows = append(rows, row)
	}
	return rows
}

func officerRows(perf []models.OfficerPerformance) ([]OfficerRow, string, int) {
	rows := make([]OfficerRow, 0, len(perf))
	top := "-"
	topServed := -1
	var efficiency float64
	for _, p := range perf {
		rows = append(rows, OfficerRow{
			Name:               p.Name,
			CustomersServed:    p.CustomersServed,
			AverageServiceTime: fmt.Sprintf("%.1f min", p.AverageServiceTime),
			Efficiency:         int(p.Efficiency + 0.5),
		})
		if p.CustomersServed > topServed {
			topServed = p.CustomersServed
			top = fmt.Sprintf("%s (%d customers)", p.Name, p.CustomersServed)
		}
		efficiency += p.Efficiency
	}
	if len(perf) == 0 {
		return rows, top, 0
	}
	return rows, top, int(efficiency/float64(len(perf)) + 0.5)
}

func DashboardQueryHandler(api Backend, src Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, s := load(r.Context(), api, src, r.URL.Query().Get("refresh") == "1")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := DashboardPage(build(snap, s), refreshSeconds).Render(r.Context(), w); err != nil {
			slog.Error("render analytics failed", slog.Any("err", err))
		}
	}
}
