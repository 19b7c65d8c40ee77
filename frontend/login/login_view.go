package login

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"queueboard/frontend/shared/html"
)

func GetLoginScreen(errorMessage, next string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<section class="card narrow"><h1>Officer sign in</h1>`); err != nil {
			return err
		}
		if err := html.Banner("error", errorMessage).Render(ctx, w); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, `<form method="post" action="/login">
<input type="hidden" name="next" value="%s">
<label>Username <input name="username" autocomplete="username" required></label>
<label>Password <input name="password" type="password" autocomplete="current-password" required></label>
<button type="submit">Sign in</button>
</form></section>`, templ.EscapeString(next))
		return err
	})
	return html.Layout(html.Page{Title: "Officer sign in"}, body)
}
