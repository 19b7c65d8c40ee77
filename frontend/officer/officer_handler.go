package officer

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	sessioncontext "queueboard/frontend/shared/context"
	"queueboard/frontend/shared/nav"
	"queueboard/infrastructure/audit"
	"queueboard/infrastructure/display"
	"queueboard/infrastructure/queueapi"
	"queueboard/infrastructure/rbac"
	"queueboard/infrastructure/sqlite"
	"queueboard/models"
)

const (
	queuePath   = "/officer/queue"
	nextPreview = 3
)

// RefreshSeconds is the auto-refresh interval of the officer screens.
var RefreshSeconds = 30

// Refresher is the shared board store; a status change refreshes it at once
// so the public board does not wait for its next tick.
type Refresher interface {
	FetchOutletQueue(ctx context.Context, outletID string)
}

var updatableStatuses = map[string]bool{
	models.StatusWaiting:     true,
	models.StatusBeingServed: true,
	models.StatusCompleted:   true,
	models.StatusCancelled:   true,
}

func statusLabel(status string) string {
	switch status {
	case models.StatusWaiting:
		return "Waiting"
	case models.StatusBeingServed:
		return "Being served"
	case models.StatusCompleted:
		return "Completed"
	case models.StatusCancelled:
		return "Cancelled"
	}
	return status
}

func sessionFrom(r *http.Request) models.Session {
	session, _ := sessioncontext.GetSessionFromContext(r.Context())
	return session
}

func QueuePageQueryHandler(api Backend, outletID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFrom(r)
		service := strings.TrimSpace(r.URL.Query().Get("service"))
		list := loadQueue(r.Context(), api, outletID)

		data := QueuePageData{
			Nav:          nav.BuildTopNavData(session, queuePath),
			Serving:      list.serving,
			Rows:         filterRows(list.rows, service),
			Filters:      filters(service),
			TotalWaiting: list.totalWaiting,
			Banner:       list.banner,
			Flash:        r.URL.Query().Get("status"),
			CanUpdate:    session.ScreenPermissions[rbac.CodeQueueUpdate] == 1,
			CanExport:    session.ScreenPermissions[rbac.CodeQueueExport] == 1,
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := QueuePage(data).Render(r.Context(), w); err != nil {
			slog.Error("render officer queue failed", slog.Any("err", err))
		}
	}
}

// UpdateStatusCommandHandler changes a token's status on the backend and
// audits the change.
func UpdateStatusCommandHandler(db *sqlite.DB, api Backend, auditSvc *audit.Service, board Refresher, outletID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form data", http.StatusBadRequest)
			return
		}
		token := strings.TrimSpace(chi.URLParam(r, "token"))
		status := strings.TrimSpace(r.FormValue("status"))
		if token == "" || !updatableStatuses[status] {
			redirectToQueue(w, r, "Choose a valid status")
			return
		}

		env, err := api.UpdateQueueStatus(r.Context(), token, status)
		if err != nil {
			slog.Error("update queue status failed", slog.String("token", token), slog.String("status", status), slog.Any("err", err))
			redirectToQueue(w, r, queueapi.UserMessage(err))
			return
		}
		if !env.Success {
			redirectToQueue(w, r, env.Rejection())
			return
		}

		session := sessionFrom(r)
		if err := auditStatusChange(r.Context(), db, auditSvc, session.OfficerID, token, r.FormValue("from"), status); err != nil {
			slog.Error("audit status change failed", slog.String("token", token), slog.Any("err", err))
		}
		if board != nil {
			board.FetchOutletQueue(r.Context(), outletID)
		}
		redirectToQueue(w, r, display.ShortToken(token)+" marked "+strings.ToLower(statusLabel(status)))
	}
}

func redirectToQueue(w http.ResponseWriter, r *http.Request, message string) {
	http.Redirect(w, r, queuePath+"?status="+url.QueryEscape(message), http.StatusSeeOther)
}

func DashboardQueryHandler(db *sqlite.DB, api Backend, auditSvc *audit.Service, outletID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFrom(r)
		data := DashboardData{Nav: nav.BuildTopNavData(session, "/officer/dashboard")}

		var (
			list     queueList
			metrics  *models.AnalyticsData
			activity []Activity
		)
		g, gctx := errgroup.WithContext(r.Context())
		g.Go(func() error {
			list = loadQueue(gctx, api, outletID)
			return nil
		})
		g.Go(func() error {
			env, err := api.GetAnalytics(gctx, outletID)
			if err != nil {
				slog.Warn("officer analytics unavailable", slog.Any("err", err))
				return nil
			}
			if env.OK() {
				metrics = &env.Data
			}
			return nil
		})
		g.Go(func() error {
			var err error
			activity, err = recentActivity(gctx, db, auditSvc, session.OfficerID)
			if err != nil {
				slog.Error("load recent activity failed", slog.Any("err", err))
			}
			return nil
		})
		_ = g.Wait()

		data.Banner = list.banner
		data.Waiting = list.totalWaiting
		data.Next = list.rows[:min(len(list.rows), nextPreview)]
		data.Services = tally(list.rows)
		data.Recent = activity
		data.AverageWait = display.FormatWait(0)
		if metrics != nil {
			data.AverageWait = display.FormatWait(metrics.AverageWait)
			data.ServedToday = metrics.CompletedServices
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := DashboardPage(data).Render(r.Context(), w); err != nil {
			slog.Error("render officer dashboard failed", slog.Any("err", err))
		}
	}
}

// tally counts waiting customers per service label, in filter order.
func tally(rows []QueueRow) []ServiceTally {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[r.Service]++
	}
	out := make([]ServiceTally, 0, len(counts))
	for _, label := range serviceFilters[1:] {
		if n := counts[label]; n > 0 {
			out = append(out, ServiceTally{Service: label, Count: n})
		}
	}
	return out
}

// QueueExportCSVHandler streams the resolved queue list as CSV.
func QueueExportCSVHandler(db *sqlite.DB, api Backend, auditSvc *audit.Service, outletID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := loadQueue(r.Context(), api, outletID)
		if list.banner != "" && len(list.rows) == 0 && list.serving == nil {
			http.Error(w, list.banner, http.StatusServiceUnavailable)
			return
		}
		rows := filterRows(list.rows, strings.TrimSpace(r.URL.Query().Get("service")))
		if list.serving != nil {
			rows = append([]QueueRow{*list.serving}, rows...)
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=queue.csv")
		if err := writeQueueCSV(w, rows); err != nil {
			http.Error(w, "failed to export csv", http.StatusInternalServerError)
			return
		}
		if err := recordExportRun(r.Context(), db, auditSvc, sessionFrom(r).OfficerID, outletID, "queue_csv", len(rows)); err != nil {
			slog.Error("record export run failed", slog.String("type", "queue_csv"), slog.Any("err", err))
		}
	}
}

func writeQueueCSV(w io.Writer, rows []QueueRow) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"position", "token", "customer", "phone", "service", "estimated_wait", "status"}); err != nil {
		return err
	}
	for i, r := range rows {
		record := []string{strconv.Itoa(i + 1), r.Token, r.Customer, r.Phone, r.Service, r.Wait, r.Status}
		for j := range record {
			record[j] = csvCell(record[j])
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// csvCell keeps spreadsheet programs from evaluating customer-entered text
// as a formula.
func csvCell(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}
