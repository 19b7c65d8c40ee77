package html

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"queueboard/frontend/shared/nav"
)

// Page describes the shell around a view.
type Page struct {
	Title string
	// RefreshSeconds adds a meta refresh for live screens. Zero disables it.
	RefreshSeconds int
	Nav            *nav.TopNavData
	// Wide removes the centred container, used by the status board.
	Wide bool
}

var esc = templ.EscapeString[string]

// Layout wraps body in the document shell.
func Layout(p Page, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!doctype html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`); err != nil {
			return err
		}
		if p.RefreshSeconds > 0 {
			if _, err := fmt.Fprintf(w, `<meta http-equiv="refresh" content="%d">`, p.RefreshSeconds); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, `<title>%s</title><link rel="stylesheet" href="/assets/app.css"></head><body>`, esc(p.Title)); err != nil {
			return err
		}
		if p.Nav != nil {
			if err := TopNav(*p.Nav).Render(ctx, w); err != nil {
				return err
			}
		}
		class := "container"
		if p.Wide {
			class = "wide"
		}
		if _, err := fmt.Fprintf(w, `<main class="%s">`, class); err != nil {
			return err
		}
		if body != nil {
			if err := body.Render(ctx, w); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</main>`+CSRFFormScript()+`</body></html>`); err != nil {
			return err
		}
		return nil
	})
}

func TopNav(data nav.TopNavData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<nav class="topnav"><span class="brand">Queue Officer</span><ul>`); err != nil {
			return err
		}
		for _, l := range data.Links {
			cls := ""
			if l.Active {
				cls = ` class="active"`
			}
			if _, err := fmt.Fprintf(w, `<li><a href="%s"%s>%s</a></li>`, esc(l.Href), cls, esc(l.Label)); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, `</ul><span class="who">%s (%s)</span><form method="post" action="/logout"><button type="submit">Sign out</button></form></nav>`,
			esc(data.DisplayName), esc(data.Role))
		return err
	})
}

// Banner renders a dismissable notice; empty text renders nothing.
func Banner(kind, text string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if text == "" {
			return nil
		}
		_, err := fmt.Fprintf(w, `<div class="banner banner-%s" role="status">%s</div>`, esc(kind), esc(text))
		return err
	})
}
