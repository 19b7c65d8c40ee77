package registration

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/a-h/templ"

	"queueboard/frontend/shared/html"
	"queueboard/infrastructure/display"
)

var esc = templ.EscapeString[string]

func RegistrationPage(data PageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<section class="card"><h1>Join the queue</h1>`); err != nil {
			return err
		}
		if err := html.Banner("error", data.Banner).Render(ctx, w); err != nil {
			return err
		}
		if data.CatalogFallback {
			if err := html.Banner("info", "Showing the standard service list.").Render(ctx, w); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `<form method="post" action="/register" novalidate>`); err != nil {
			return err
		}
		inputs := []struct {
			field, label, value, kind string
			required                  bool
		}{
			{FieldName, "Full name", data.Form.Name, "text", true},
			{FieldPhone, "Mobile number", data.Form.PhoneNumber, "tel", true},
			{FieldTelephone, "Telephone (optional)", data.Form.TelephoneNumber, "tel", false},
			{FieldNICPassport, "NIC / Passport", data.Form.NICPassport, "text", true},
			{FieldEmail, "Email (optional)", data.Form.Email, "email", false},
		}
		for _, in := range inputs {
			req := ""
			if in.required {
				req = " required"
			}
			if _, err := fmt.Fprintf(w, `<label>%s <input name="%s" type="%s" value="%s"%s></label>`,
				esc(in.label), in.field, in.kind, esc(in.value), req); err != nil {
				return err
			}
			if err := fieldError(w, data, in.field); err != nil {
				return err
			}
		}

		if _, err := fmt.Fprintf(w, `<label>Service <select name="%s" required><option value="">Select a service</option>`, FieldServiceType); err != nil {
			return err
		}
		for _, s := range data.Services {
			selected := ""
			if s.ID == data.Form.ServiceType {
				selected = " selected"
			}
			if _, err := fmt.Fprintf(w, `<option value="%s"%s>%s (~%d min)</option>`, esc(s.ID), selected, esc(s.Name), s.EstimatedTime); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</select></label>`); err != nil {
			return err
		}
		if err := fieldError(w, data, FieldServiceType); err != nil {
			return err
		}
		_, err := io.WriteString(w, `<button type="submit">Get my token</button></form>
<p class="muted"><a href="/lookup">Already registered? Find your token</a></p></section>`)
		return err
	})
	return html.Layout(html.Page{Title: "Register"}, body)
}

func fieldError(w io.Writer, data PageData, field string) error {
	msg, ok := data.Errors[field]
	if !ok {
		return nil
	}
	if _, err := fmt.Fprintf(w, `<p class="field-error" data-field="%s">%s`, field, esc(msg)); err != nil {
		return err
	}
	if field == FieldPhone && data.ExistingToken != "" {
		if _, err := fmt.Fprintf(w, ` Your token is <a href="/tokens/%s">%s</a>.`,
			esc(url.PathEscape(data.ExistingToken)), esc(data.ExistingToken)); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, `</p>`)
	return err
}

func LookupPage(data LookupData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<section class="card"><h1>Find my token</h1>
<form method="get" action="/lookup"><label>Mobile number <input name="phone" type="tel" value="%s"></label><button type="submit">Search</button></form>`, esc(data.Phone)); err != nil {
			return err
		}
		if err := html.Banner("error", data.Error).Render(ctx, w); err != nil {
			return err
		}
		if data.Phone != "" && data.Error == "" && len(data.Tokens) == 0 {
			if _, err := io.WriteString(w, `<p class="muted">No tokens found for this number today.</p>`); err != nil {
				return err
			}
		}
		if len(data.Tokens) > 0 {
			if _, err := io.WriteString(w, `<table><thead><tr><th>Token</th><th>Service</th><th>Status</th><th>Registered</th></tr></thead><tbody>`); err != nil {
				return err
			}
			for _, c := range data.Tokens {
				if _, err := fmt.Fprintf(w, `<tr><td><a href="/tokens/%s">%s</a></td><td>%s</td><td>%s</td><td>%s</td></tr>`,
					esc(url.PathEscape(c.TokenNumber)), esc(c.TokenNumber), esc(display.ServiceLabel(c.ServiceType)),
					esc(c.Status), esc(display.Ago(c.CreatedAt))); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</tbody></table>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</section>`)
		return err
	})
	return html.Layout(html.Page{Title: "Find my token"}, body)
}
