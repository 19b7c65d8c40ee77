package officer

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/a-h/templ"

	"queueboard/frontend/shared/html"
	"queueboard/models"
)

var esc = templ.EscapeString[string]

func QueuePage(data QueuePageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<header class="page-header"><h1>Queue Management</h1><span class="muted">%d waiting</span>`, data.TotalWaiting); err != nil {
			return err
		}
		if data.CanExport {
			if _, err := io.WriteString(w, `<a class="button outline" href="/officer/queue.csv">Export CSV</a>`); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</header>`); err != nil {
			return err
		}
		if err := html.Banner("error", data.Banner).Render(ctx, w); err != nil {
			return err
		}
		if err := html.Banner("info", data.Flash).Render(ctx, w); err != nil {
			return err
		}

		if data.Serving != nil {
			s := data.Serving
			if _, err := fmt.Fprintf(w, `<section class="card now-serving"><h2>Now Serving</h2><div class="serving-token">%s</div><p>%s</p><p class="muted">%s %s</p>`,
				esc(s.ShortToken), esc(s.Customer), esc(s.Service), esc(s.Phone)); err != nil {
				return err
			}
			if data.CanUpdate {
				if err := statusForm(w, *s, models.StatusCompleted, "Complete"); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</section>`); err != nil {
				return err
			}
		}

		if _, err := io.WriteString(w, `<nav class="tabs">`); err != nil {
			return err
		}
		for _, f := range data.Filters {
			cls := ""
			if f.Active {
				cls = ` class="active"`
			}
			if _, err := fmt.Fprintf(w, `<a href="%s"%s>%s</a>`, esc(f.Href), cls, esc(f.Label)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</nav><table class="queue"><thead><tr><th>#</th><th>Token</th><th>Customer</th><th>Service</th><th>Wait</th><th>Status</th><th></th></tr></thead><tbody>`); err != nil {
			return err
		}
		if len(data.Rows) == 0 {
			if _, err := io.WriteString(w, `<tr><td colspan="7" class="muted">No customers waiting</td></tr>`); err != nil {
				return err
			}
		}
		for i, row := range data.Rows {
			cls := ""
			if !row.Resolved {
				cls = ` class="unresolved"`
			}
			if _, err := fmt.Fprintf(w, `<tr%s><td>%d</td><td title="%s">%s</td><td>%s<br><span class="muted">%s</span></td><td>%s</td><td>%s</td><td>%s</td><td>`,
				cls, i+1, esc(row.Token), esc(row.ShortToken), esc(row.Customer), esc(row.Phone), esc(row.Service), esc(row.Wait), esc(statusLabel(row.Status))); err != nil {
				return err
			}
			if data.CanUpdate {
				if err := statusForm(w, row, models.StatusBeingServed, "Serve"); err != nil {
					return err
				}
				if err := statusForm(w, row, models.StatusCancelled, "Skip"); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</td></tr>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody></table>`)
		return err
	})
	return html.Layout(html.Page{Title: "Officer Queue", RefreshSeconds: RefreshSeconds, Nav: &data.Nav}, body)
}

func statusForm(w io.Writer, row QueueRow, status, label string) error {
	_, err := fmt.Fprintf(w, `<form method="post" action="/officer/queue/%s/status" class="inline"><input type="hidden" name="status" value="%s"><input type="hidden" name="from" value="%s"><button type="submit">%s</button></form>`,
		esc(url.PathEscape(row.Token)), esc(status), esc(row.Status), esc(label))
	return err
}

func DashboardPage(data DashboardData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<header class="page-header"><h1>Dashboard</h1></header>`); err != nil {
			return err
		}
		if err := html.Banner("error", data.Banner).Render(ctx, w); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<div class="stat-grid">
<section class="card stat"><h3>Customers Waiting</h3><div class="stat-value waiting">%d</div></section>
<section class="card stat"><h3>Average Wait</h3><div class="stat-value">%s</div></section>
<section class="card stat"><h3>Served Today</h3><div class="stat-value served">%d</div></section></div>`,
			data.Waiting, esc(data.AverageWait), data.ServedToday); err != nil {
			return err
		}

		if _, err := io.WriteString(w, `<div class="two-col"><section class="card"><h3>Next in Queue</h3><ol class="next">`); err != nil {
			return err
		}
		for _, row := range data.Next {
			if _, err := fmt.Fprintf(w, `<li><strong>%s</strong> %s <span class="muted">%s, %s</span></li>`,
				esc(row.ShortToken), esc(row.Customer), esc(row.Service), esc(row.Wait)); err != nil {
				return err
			}
		}
		if len(data.Next) == 0 {
			if _, err := io.WriteString(w, `<li class="muted">Queue is empty</li>`); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</ol></section><section class="card"><h3>Waiting by Service</h3><table><tbody>`); err != nil {
			return err
		}
		for _, s := range data.Services {
			if _, err := fmt.Fprintf(w, `<tr><td>%s</td><td>%d</td></tr>`, esc(s.Service), s.Count); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</tbody></table></section></div><section class="card"><h3>My Recent Activity</h3><ul class="activity">`); err != nil {
			return err
		}
		for _, a := range data.Recent {
			if _, err := fmt.Fprintf(w, `<li><span class="muted">%s</span> %s <strong>%s</strong> %s</li>`,
				esc(a.When), esc(a.Action), esc(a.Token), esc(a.Detail)); err != nil {
				return err
			}
		}
		if len(data.Recent) == 0 {
			if _, err := io.WriteString(w, `<li class="muted">No activity yet</li>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul></section>`)
		return err
	})
	return html.Layout(html.Page{Title: "Officer Dashboard", RefreshSeconds: RefreshSeconds, Nav: &data.Nav}, body)
}
