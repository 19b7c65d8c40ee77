package analytics

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"queueboard/frontend/shared/html"
)

var esc = templ.EscapeString[string]

func DashboardPage(d Dashboard, refresh int) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<header class="page-header"><div><h1>Dashboard Overview</h1><p class="muted">Last updated: %s</p></div>
<a class="button outline" href="/analytics?refresh=1">Refresh</a></header>`, esc(d.Updated)); err != nil {
			return err
		}
		if err := html.Banner("error", d.Error).Render(ctx, w); err != nil {
			return err
		}
		if d.SampleMetrics || d.SampleWait || d.SampleOfficers {
			if err := html.Banner("info", "Live analytics are unavailable. Sections marked sample show demonstration data.").Render(ctx, w); err != nil {
				return err
			}
		}

		if _, err := fmt.Fprintf(w, `<div class="stat-grid">
<section class="card stat"><h3>Average Wait Time</h3><div class="stat-value">%s</div></section>
<section class="card stat"><h3>Total Customers</h3><div class="stat-value">%d</div></section>
<section class="card stat"><h3>Completed Services</h3><div class="stat-value">%d</div></section>
<section class="card stat"><h3>Service Rate</h3><div class="stat-value">%d%%</div></section></div>`,
			esc(d.AverageWait), d.TotalCustomers, d.Completed, d.ServiceRate); err != nil {
			return err
		}

		if _, err := fmt.Fprintf(w, `<div class="two-col"><section class="card"><h3>Wait Times (24h)%s</h3><table class="bars"><thead><tr><th>Time</th><th>Wait</th><th>Queue</th><th></th></tr></thead><tbody>`, sampleTag(d.SampleWait)); err != nil {
			return err
		}
		for _, row := range d.WaitTimes {
			if _, err := fmt.Fprintf(w, `<tr><td>%s</td><td>%s</td><td>%d</td><td><div class="bar"><div class="fill" style="width:%d%%"></div></div></td></tr>`,
				esc(row.Time), esc(row.Wait), row.QueueLength, row.BarPercent); err != nil {
				return err
			}
		}
		if err := emptyRow(w, len(d.WaitTimes), 4); err != nil {
			return err
		}

		if _, err := fmt.Fprintf(w, `</tbody></table></section><section class="card"><h3>Officer Performance%s</h3><table><thead><tr><th>Officer</th><th>Served</th><th>Avg service</th><th>Efficiency</th></tr></thead><tbody>`, sampleTag(d.SampleOfficers)); err != nil {
			return err
		}
		for _, o := range d.Officers {
			if _, err := fmt.Fprintf(w, `<tr><td>%s</td><td>%d</td><td>%s</td><td>%d%%</td></tr>`,
				esc(o.Name), o.CustomersServed, esc(o.AverageServiceTime), o.Efficiency); err != nil {
				return err
			}
		}
		if err := emptyRow(w, len(d.Officers), 4); err != nil {
			return err
		}

		if _, err := fmt.Fprintf(w, `</tbody></table></section></div><div class="two-col"><section class="card"><h3>Service Breakdown%s</h3><table><tbody>`, sampleTag(d.SampleMetrics)); err != nil {
			return err
		}
		for _, b := range d.Breakdown {
			if _, err := fmt.Fprintf(w, `<tr><td>%s</td><td>%d</td><td>%d%%</td></tr>`, esc(b.Service), b.Count, b.Percent); err != nil {
				return err
			}
		}
		if err := emptyRow(w, len(d.Breakdown), 3); err != nil {
			return err
		}

		_, err := fmt.Fprintf(w, `</tbody></table></section><section class="card"><h3>Today's Highlights</h3><dl class="stats">
<dt>Peak Hour</dt><dd>%s</dd><dt>Busiest Service</dt><dd>%s</dd><dt>Top Performer</dt><dd>%s</dd><dt>Efficiency Rate</dt><dd>%d%%</dd></dl></section></div>`,
			esc(d.PeakHour), esc(d.BusiestService), esc(d.TopPerformer), d.Efficiency)
		return err
	})
	return html.Layout(html.Page{Title: "Analytics", RefreshSeconds: refresh}, body)
}

func sampleTag(sample bool) string {
	if sample {
		return ` <span class="tag">sample</span>`
	}
	return ""
}

func emptyRow(w io.Writer, n, cols int) error {
	if n > 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, `<tr><td colspan="%d" class="muted">No data</td></tr>`, cols)
	return err
}
