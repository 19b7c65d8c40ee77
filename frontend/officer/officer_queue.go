package officer

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"queueboard/infrastructure/display"
	"queueboard/infrastructure/queueapi"
	"queueboard/models"
)

const (
	allServices    = "All Services"
	unknownName    = "Unknown Customer"
	resolveWorkers = 8
)

// Backend is the queue API as seen by an authenticated officer. Calls carry
// the officer's bearer token through the request context.
type Backend interface {
	GetOutletQueue(ctx context.Context, outletID string) (queueapi.Envelope[models.OutletQueue], error)
	GetCustomerStatus(ctx context.Context, tokenID string) (queueapi.Envelope[models.Customer], error)
	UpdateQueueStatus(ctx context.Context, tokenID, status string) (queueapi.Envelope[struct{}], error)
	GetAnalytics(ctx context.Context, outletID string) (queueapi.Envelope[models.AnalyticsData], error)
}

// queueList is the resolved outlet queue ready for rendering.
type queueList struct {
	serving      *QueueRow
	rows         []QueueRow
	totalWaiting int
	banner       string
}

// loadQueue fetches the outlet queue and resolves every token-only entry,
// plus the token being served, to customer details. All lookups finish before
// the list is returned so the page never renders half-resolved rows.
func loadQueue(ctx context.Context, api Backend, outletID string) queueList {
	q := models.EmptyOutletQueue(outletID)
	var list queueList

	env, err := api.GetOutletQueue(ctx, outletID)
	switch {
	case err != nil:
		slog.Warn("officer queue fetch failed", slog.String("outlet", outletID), slog.Any("err", err))
		list.banner = queueapi.UserMessage(err)
	case !env.OK():
		list.banner = env.Rejection()
	default:
		q = env.Data
	}

	rows := make([]QueueRow, len(q.NextTokens))
	var serving *QueueRow
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveWorkers)

	for i, entry := range q.NextTokens {
		if entry.Customer != nil {
			rows[i] = rowFromCustomer(entry.Token, *entry.Customer)
			continue
		}
		g.Go(func() error {
			rows[i] = resolve(gctx, api, entry.Token)
			return nil
		})
	}
	if token := strings.TrimSpace(q.CurrentlyServing); token != "" && token != models.NoTokenServing {
		g.Go(func() error {
			row := resolve(gctx, api, token)
			row.Status = models.StatusBeingServed
			serving = &row
			return nil
		})
	}
	_ = g.Wait()

	list.serving = serving
	list.rows = rows
	list.totalWaiting = max(q.TotalWaiting, len(rows))
	return list
}

// resolve looks a token up. Failures keep the row with placeholder details
// rather than hiding a waiting customer.
func resolve(ctx context.Context, api Backend, token string) QueueRow {
	env, err := api.GetCustomerStatus(ctx, token)
	if err != nil || !env.OK() {
		if err != nil {
			slog.Warn("customer details unavailable", slog.String("token", token), slog.Any("err", err))
		}
		return QueueRow{
			Token:      token,
			ShortToken: display.ShortToken(token),
			Customer:   unknownName,
			Service:    display.DefaultServiceLabel,
			Wait:       display.FormatWait(0),
			Status:     models.StatusWaiting,
		}
	}
	return rowFromCustomer(token, env.Data)
}

func rowFromCustomer(token string, c models.Customer) QueueRow {
	if c.TokenNumber != "" {
		token = c.TokenNumber
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = unknownName
	}
	status := c.Status
	if status == "" {
		status = models.StatusWaiting
	}
	return QueueRow{
		Token:      token,
		ShortToken: display.ShortToken(token),
		Customer:   name,
		Phone:      c.PhoneNumber,
		Service:    display.ServiceLabel(c.ServiceType),
		Wait:       display.FormatWait(c.EstimatedWait),
		Status:     status,
		Resolved:   true,
	}
}

// filterRows keeps rows whose service label matches; "All Services" or empty
// keeps everything.
func filterRows(rows []QueueRow, service string) []QueueRow {
	if service == "" || service == allServices {
		return rows
	}
	out := make([]QueueRow, 0, len(rows))
	for _, r := range rows {
		if r.Service == service {
			out = append(out, r)
		}
	}
	return out
}

var serviceFilters = []string{
	allServices,
	"New Connections",
	"Bill Payments",
	"Technical Support",
	"Account Services",
	"Device/SIM Issues",
	display.DefaultServiceLabel,
}

func filters(active string) []Filter {
	if active == "" {
		active = allServices
	}
	out := make([]Filter, 0, len(serviceFilters))
	for _, label := range serviceFilters {
		href := "/officer/queue"
		if label != allServices {
			href += "?service=" + url.QueryEscape(label)
		}
		out = append(out, Filter{Label: label, Href: href, Active: label == active})
	}
	return out
}
