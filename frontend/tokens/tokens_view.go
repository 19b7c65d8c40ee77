package tokens

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"queueboard/frontend/shared/html"
)

var esc = templ.EscapeString[string]

func TokenPage(v TokenView, refresh int) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		path := "/tokens/" + url.PathEscape(v.Token)
		if _, err := fmt.Fprintf(w, `<section class="card token-card"><h2>Your Token Number</h2>
<div class="token-number" data-token="%s">%s</div><p class="muted">%s</p>`,
			esc(v.Token), esc(v.ShortToken), esc(v.Token)); err != nil {
			return err
		}
		if v.Name != "" {
			if _, err := fmt.Fprintf(w, `<p>%s</p>`, esc(v.Name)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, `<p class="muted">%s</p>`, esc(v.Service)); err != nil {
			return err
		}
		if v.BeingServed {
			if _, err := io.WriteString(w, `<p class="serving-now">You're being served!</p>`); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</section>`); err != nil {
			return err
		}

		if err := html.Banner("error", v.Error).Render(ctx, w); err != nil {
			return err
		}

		if _, err := fmt.Fprintf(w, `<section class="card"><dl class="stats">
<dt>Queue Position</dt><dd class="position">#%d</dd>
<dt>Estimated Wait</dt><dd class="wait">%s</dd></dl>
<div class="progress"><span>Progress</span><span>%d%%</span><div class="bar"><div class="fill" style="width:%d%%"></div></div></div>`,
			v.Position, esc(v.Wait), v.Progress, v.Progress); err != nil {
			return err
		}
		if v.CurrentlyServing != "" {
			if _, err := fmt.Fprintf(w, `<div class="serving"><p class="muted">Currently Serving</p><p class="strong">%s</p></div>`, esc(v.CurrentlyServing)); err != nil {
				return err
			}
		}
		if len(v.NextInLine) > 0 {
			if _, err := fmt.Fprintf(w, `<p class="muted">Next in line: %s</p>`, esc(strings.Join(v.NextInLine, ", "))); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, `<p class="muted updated">Updated %s</p></section>`, esc(v.Updated)); err != nil {
			return err
		}

		_, err := fmt.Fprintf(w, `<section class="card qr"><h3>Your QR Code</h3>
<img src="%[1]s/qr.png" alt="Token QR Code" width="200" height="200">
<p class="muted">Show this QR code to the service representative</p>
<p><a href="%[1]s/ticket.pdf" target="_blank">Print ticket</a></p></section>
<form method="post" action="/tokens/done"><button type="submit" class="outline">Register Another Customer</button></form>`, esc(path))
		return err
	})
	return html.Layout(html.Page{Title: "Token " + v.ShortToken, RefreshSeconds: refresh}, body)
}
