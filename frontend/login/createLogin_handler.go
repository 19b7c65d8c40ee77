package login

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/uptrace/bun"

	"queueboard/infrastructure/audit"
	"queueboard/infrastructure/cache"
	"queueboard/infrastructure/rbac"
	sessioncookie "queueboard/infrastructure/session"
	"queueboard/infrastructure/sqlite"
	"queueboard/models"
)

const defaultLanding = "/officer/queue"

// CreateLoginHandler authenticates the officer and issues a session cookie.
func CreateLoginHandler(db *sqlite.DB, sessionCache *cache.OfficerSessionCache, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			redirectWithError(w, r, "invalid form data", "")
			return
		}

		next := safeNext(r.FormValue("next"))
		username := strings.TrimSpace(r.FormValue("username"))
		password := strings.TrimSpace(r.FormValue("password"))
		if username == "" || password == "" {
			redirectWithError(w, r, "username and password are required", next)
			return
		}

		officer, err := authenticateOfficer(r.Context(), db, username, password)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				redirectWithError(w, r, ErrInvalidCredentials.Error(), next)
				return
			}
			slog.Error("officer authentication failed", slog.String("username", username), slog.Any("err", err))
			redirectWithError(w, r, "authentication failed", next)
			return
		}

		session := newSession(officer)
		if err := persistSession(r.Context(), db, session); err != nil {
			slog.Error("persist session failed", slog.Int64("officer_id", officer.ID), slog.Any("err", err))
			redirectWithError(w, r, "failed to create session", next)
			return
		}
		sessionCache.AddSession(session)

		if err := db.WithWriteTx(r.Context(), func(ctx context.Context, tx bun.Tx) error {
			return auditSvc.Write(ctx, tx, officer.ID, audit.ActionLogin, "officer", officer.Username, nil, nil)
		}); err != nil {
			slog.Error("audit login failed", slog.Int64("officer_id", officer.ID), slog.Any("err", err))
		}

		http.SetCookie(w, sessioncookie.SessionCookie(session.ID, int(sessioncookie.TTL.Seconds())))
		if next == "" {
			next = defaultLanding
		}
		http.Redirect(w, r, next, http.StatusSeeOther)
	}
}

func newSession(officer models.Officer) models.Session {
	return models.Session{
		ID:        rand.Text(),
		OfficerID: officer.ID,
		Officer:   officer,
		UserRoles: rbac.Expand(officer.Role),
		ExpiresAt: sessioncookie.DefaultExpiry(),
	}
}

// safeNext only allows local officer paths as post-login targets.
func safeNext(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "/officer/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, "\\") {
		return ""
	}
	return raw
}

func redirectWithError(w http.ResponseWriter, r *http.Request, msg, next string) {
	q := url.Values{"error": {msg}}
	if next != "" {
		q.Set("next", next)
	}
	http.Redirect(w, r, "/login?"+q.Encode(), http.StatusSeeOther)
}
