package registration

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	sessioncontext "queueboard/frontend/shared/context"
	"queueboard/infrastructure/queueapi"
	"queueboard/infrastructure/queuestate"
	"queueboard/models"
)

// Backend is the part of the queue API the registration screens call.
type Backend interface {
	GetServiceTypes(ctx context.Context) (queueapi.Envelope[[]models.ServiceType], error)
	RegisterCustomer(ctx context.Context, req queueapi.RegistrationRequest) (queueapi.Envelope[models.Customer], error)
	GetCustomerTokens(ctx context.Context, phoneNumber string) (queueapi.Envelope[[]models.Customer], error)
}

// Viewers hands out the per-visitor store.
type Viewers interface {
	Store(visitorID string) *queuestate.Store
}

// loadCatalog returns the backend service catalogue, or the built-in one when
// the backend has none to offer.
func loadCatalog(ctx context.Context, api Backend) ([]models.ServiceType, bool) {
	env, err := api.GetServiceTypes(ctx)
	if err != nil {
		slog.Warn("service catalogue unavailable, using defaults", slog.Any("err", err))
		return models.DefaultServiceTypes(), true
	}
	if !env.OK() || len(env.Data) == 0 {
		return models.DefaultServiceTypes(), true
	}
	return env.Data, false
}

func RegistrationPageQueryHandler(api Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, fallback := loadCatalog(r.Context(), api)
		render(w, r, http.StatusOK, PageData{Services: services, CatalogFallback: fallback, Errors: FieldErrors{}})
	}
}

func RegisterCommandHandler(api Backend, viewers Viewers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form data", http.StatusBadRequest)
			return
		}
		form := Normalize(Form{
			Name:            r.FormValue(FieldName),
			PhoneNumber:     r.FormValue(FieldPhone),
			TelephoneNumber: r.FormValue(FieldTelephone),
			NICPassport:     r.FormValue(FieldNICPassport),
			Email:           r.FormValue(FieldEmail),
			ServiceType:     r.FormValue(FieldServiceType),
		})

		services, fallback := loadCatalog(r.Context(), api)
		data := PageData{Form: form, Services: services, CatalogFallback: fallback}

		data.Errors = Validate(form, services)
		if len(data.Errors) > 0 {
			render(w, r, http.StatusUnprocessableEntity, data)
			return
		}

		env, err := api.RegisterCustomer(r.Context(), queueapi.RegistrationRequest{
			Name:            form.Name,
			PhoneNumber:     form.PhoneNumber,
			TelephoneNumber: form.TelephoneNumber,
			Email:           form.Email,
			NICPassport:     form.NICPassport,
			ServiceType:     form.ServiceType,
		})
		if err != nil {
			slog.Error("register customer failed", slog.Any("err", err))
			data.Banner = queueapi.UserMessage(err)
			render(w, r, http.StatusServiceUnavailable, data)
			return
		}
		if !env.OK() {
			if env.IsDuplicate() {
				data.Errors[FieldPhone] = env.Rejection()
				data.ExistingToken = env.ExistingToken
			} else {
				data.Errors[FieldServiceType] = env.Rejection()
			}
			render(w, r, http.StatusUnprocessableEntity, data)
			return
		}

		customer := env.Data
		if visitorID, ok := sessioncontext.GetVisitorFromContext(r.Context()); ok {
			viewers.Store(visitorID).SetCurrentCustomer(&customer)
		}
		http.Redirect(w, r, "/tokens/"+url.PathEscape(customer.TokenNumber), http.StatusSeeOther)
	}
}

// LookupQueryHandler lists the tokens issued to a phone number.
func LookupQueryHandler(api Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := LookupData{Phone: strings.TrimSpace(r.URL.Query().Get("phone"))}
		status := http.StatusOK
		switch {
		case data.Phone == "":
		case !phonePattern.MatchString(data.Phone):
			data.Error = "Enter a valid phone number (0XXXXXXXXX)"
			status = http.StatusUnprocessableEntity
		default:
			env, err := api.GetCustomerTokens(r.Context(), data.Phone)
			switch {
			case err != nil:
				data.Error = queueapi.UserMessage(err)
				status = http.StatusServiceUnavailable
			case !env.Success:
				data.Error = env.Rejection()
			default:
				data.Tokens = env.Data
			}
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := LookupPage(data).Render(r.Context(), w); err != nil {
			slog.Error("render lookup page failed", slog.Any("err", err))
		}
	}
}

func render(w http.ResponseWriter, r *http.Request, status int, data PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := RegistrationPage(data).Render(r.Context(), w); err != nil {
		slog.Error("render registration page failed", slog.Any("err", err))
	}
}
