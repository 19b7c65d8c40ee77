package board

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"queueboard/frontend/shared/html"
)

var esc = templ.EscapeString[string]

func BoardPage(v View, refresh int) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<header class="board-header"><h1>Queue Status</h1><p class="clock">%s</p></header>`, esc(v.Clock)); err != nil {
			return err
		}
		if err := html.Banner("error", v.Error).Render(ctx, w); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<div class="board-grid">
<section class="card now-serving"><h2>Now Serving</h2><div class="serving-token">%s</div><p>Please proceed to counter</p></section>
<section class="card stat"><h3>Waiting</h3><div class="stat-value waiting">%d</div><p class="muted">customers in queue</p></section>
<section class="card stat"><h3>Avg Wait</h3><div class="stat-value avg-wait">%s</div></section></div>`,
			esc(v.CurrentlyServing), v.TotalWaiting, esc(v.AverageWait)); err != nil {
			return err
		}

		if len(v.Next) > 0 {
			if _, err := io.WriteString(w, `<section class="card"><h2>Next in Line</h2><ol class="tiles">`); err != nil {
				return err
			}
			for _, e := range v.Next {
				if _, err := fmt.Fprintf(w, `<li class="tile" title="%s"><span class="tile-token">%s</span><span class="muted">Position %d</span>`,
					esc(e.Token), esc(e.ShortToken), e.Position); err != nil {
					return err
				}
				if e.Service != "" {
					if _, err := fmt.Fprintf(w, `<span class="muted">%s</span>`, esc(e.Service)); err != nil {
						return err
					}
				}
				if _, err := io.WriteString(w, `</li>`); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</ol></section>`); err != nil {
				return err
			}
		}

		_, err := fmt.Fprintf(w, `<section class="card info"><h3>Service Information</h3>
<p>Please have your documents ready. Stay alert for your token number.</p><p class="muted updated">Updated %s</p></section>`, esc(v.Updated))
		return err
	})
	return html.Layout(html.Page{Title: "Queue Status", RefreshSeconds: refresh, Wide: true}, body)
}
