package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	sessioncontext "queueboard/frontend/shared/context"
	"queueboard/infrastructure/display"
	"queueboard/infrastructure/queueapi"
	"queueboard/infrastructure/queuestate"
	"queueboard/models"
)

const (
	refreshSeconds = 5
	maxLongPoll    = 25 * time.Second
)

// Backend resolves a token to its customer when the visitor arrives by link
// rather than straight from registration.
type Backend interface {
	GetCustomerStatus(ctx context.Context, tokenID string) (queueapi.Envelope[models.Customer], error)
}

type Viewers interface {
	Store(visitorID string) *queuestate.Store
}

func visitorStore(r *http.Request, viewers Viewers) (*queuestate.Store, bool) {
	visitorID, ok := sessioncontext.GetVisitorFromContext(r.Context())
	if !ok {
		return nil, false
	}
	return viewers.Store(visitorID), true
}

func tokenParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "token"))
}

// track makes the visitor store follow token: the customer is loaded if the
// store holds someone else, real-time updates are (re)started and a status is
// fetched synchronously when none is cached yet. A visitor whose cookie was
// issued by this request only gets the synchronous fetch.
func track(ctx context.Context, api Backend, store *queuestate.Store, token string) {
	snap := store.Snapshot()
	if snap.CurrentCustomer == nil || snap.CurrentCustomer.TokenNumber != token {
		env, err := api.GetCustomerStatus(ctx, token)
		switch {
		case err != nil:
			slog.Warn("customer lookup failed", slog.String("token", token), slog.Any("err", err))
		case env.OK():
			customer := env.Data
			if customer.TokenNumber == "" {
				customer.TokenNumber = token
			}
			store.SetCurrentCustomer(&customer)
		}
	}

	if tracked, ok := store.Tracking(); !sessioncontext.IsNewVisitor(ctx) && (!ok || tracked != token) {
		store.StartRealTimeUpdates(token)
	}
	if !statusFor(snap.QueueStatus, token) {
		store.FetchQueueStatus(ctx, token)
	}
}

// statusFor reports whether q was fetched for token. The client tags every
// status with the token it was requested for.
func statusFor(q *models.QueueStatus, token string) bool {
	return q != nil && q.TokenID == token
}

// buildView derives the display values. The live status wins over the values
// captured at registration, except where it reports nothing.
func buildView(token string, snap queuestate.Snapshot) TokenView {
	v := TokenView{
		Token:      token,
		ShortToken: display.ShortToken(token),
		Service:    display.DefaultServiceLabel,
		NextInLine: []string{},
		Loading:    snap.Loading,
		Error:      snap.Err,
		Updated:    display.Ago(snap.QueueStatusAt),
	}

	var wait time.Duration
	if c := snap.CurrentCustomer; c != nil && c.TokenNumber == token {
		v.Name = c.Name
		v.Service = display.ServiceLabel(c.ServiceType)
		v.Status = c.Status
		v.Position = c.QueuePosition
		wait = c.EstimatedWait
	}
	if q := snap.QueueStatus; statusFor(q, token) {
		if q.Position > 0 {
			v.Position = q.Position
		}
		if q.EstimatedWait > 0 {
			wait = q.EstimatedWait
		}
		v.CurrentlyServing = q.CurrentlyServing
		v.TotalInQueue = q.TotalInQueue
		v.NextInLine = append(v.NextInLine, q.NextInLine...)
	}

	v.Wait = display.FormatWait(wait)
	v.Progress = display.ProgressPercent(v.Position)
	v.BeingServed = v.Status == models.StatusBeingServed || (v.CurrentlyServing != "" && v.CurrentlyServing == token)
	return v
}

func TokenPageQueryHandler(api Backend, viewers Viewers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := tokenParam(r)
		if token == "" {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		store, ok := visitorStore(r, viewers)
		if !ok {
			http.Error(w, "visitor session required", http.StatusBadRequest)
			return
		}
		track(r.Context(), api, store, token)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := TokenPage(buildView(token, store.Snapshot()), refreshSeconds).Render(r.Context(), w); err != nil {
			slog.Error("render token page failed", slog.Any("err", err))
		}
	}
}

// StatusJSONHandler returns the derived values. With ?wait=1 the response is
// held until the store changes or the long-poll window closes.
func StatusJSONHandler(api Backend, viewers Viewers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := tokenParam(r)
		if token == "" {
			http.Error(w, "token required", http.StatusBadRequest)
			return
		}
		store, ok := visitorStore(r, viewers)
		if !ok {
			http.Error(w, "visitor session required", http.StatusBadRequest)
			return
		}

		track(r.Context(), api, store, token)
		view := buildView(token, store.Snapshot())
		if r.URL.Query().Get("wait") == "1" {
			view = waitForChange(r.Context(), store, token, view)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if err := json.NewEncoder(w).Encode(view); err != nil {
			slog.Error("encode token status failed", slog.Any("err", err))
		}
	}
}

// waitForChange blocks until the displayed values differ from current, the
// long-poll window closes or the client goes away.
func waitForChange(ctx context.Context, store *queuestate.Store, token string, current TokenView) TokenView {
	changed, unsubscribe := store.Subscribe()
	defer unsubscribe()
	timer := time.NewTimer(maxLongPoll)
	defer timer.Stop()

	for {
		select {
		case <-changed:
			next := buildView(token, store.Snapshot())
			if next.fingerprint() != current.fingerprint() {
				return next
			}
		case <-timer.C:
			return buildView(token, store.Snapshot())
		case <-ctx.Done():
			return current
		}
	}
}

func QRCodeHandler(viewers Viewers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := tokenParam(r)
		if token == "" {
			http.Error(w, "token required", http.StatusBadRequest)
			return
		}
		payload := qrPayload{TokenNumber: token}
		if store, ok := visitorStore(r, viewers); ok {
			payload = payloadFor(token, store.Snapshot().CurrentCustomer)
		}
		img, err := renderQRPNG(payload, 256)
		if err != nil {
			slog.Error("render qr code failed", slog.String("token", token), slog.Any("err", err))
			http.Error(w, "failed to render qr code", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "private, max-age=300")
		_, _ = w.Write(img)
	}
}

func TicketPDFHandler(api Backend, viewers Viewers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := tokenParam(r)
		if token == "" {
			http.Error(w, "token required", http.StatusBadRequest)
			return
		}
		store, ok := visitorStore(r, viewers)
		if !ok {
			http.Error(w, "visitor session required", http.StatusBadRequest)
			return
		}
		track(r.Context(), api, store, token)
		snap := store.Snapshot()

		pdfBytes, err := renderTicketPDF(buildView(token, snap), payloadFor(token, snap.CurrentCustomer), time.Now())
		if err != nil {
			slog.Error("render ticket failed", slog.String("token", token), slog.Any("err", err))
			http.Error(w, "failed to render ticket", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `inline; filename="ticket-`+display.ShortToken(token)+`.pdf"`)
		_, _ = w.Write(pdfBytes)
	}
}

// DoneCommandHandler stops real-time updates and forgets the customer.
func DoneCommandHandler(viewers Viewers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store, ok := visitorStore(r, viewers); ok {
			store.StopRealTimeUpdates()
			store.SetCurrentCustomer(nil)
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func payloadFor(token string, c *models.Customer) qrPayload {
	p := qrPayload{TokenNumber: token}
	if c == nil || c.TokenNumber != token {
		return p
	}
	p.Name = c.Name
	p.ServiceType = c.ServiceType
	if !c.CreatedAt.IsZero() {
		p.Timestamp = c.CreatedAt.UTC().Format(time.RFC3339)
	}
	return p
}

// fingerprint covers the values a visitor can see change.
func (v TokenView) fingerprint() string {
	return fmt.Sprintf("%s|%d|%s|%s|%d|%v|%t|%s",
		v.Status, v.Position, v.Wait, v.CurrentlyServing, v.TotalInQueue, v.NextInLine, v.BeingServed, v.Error)
}
