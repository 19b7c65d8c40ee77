package login

import (
	"log/slog"
	"net/http"

	"queueboard/infrastructure/cache"
	sessioncookie "queueboard/infrastructure/session"
	"queueboard/infrastructure/sqlite"
)

// LogoutHandler removes session state and clears the cookie.
func LogoutHandler(db *sqlite.DB, sessionCache *cache.OfficerSessionCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessioncookie.CookieName)
		if err == nil && cookie.Value != "" {
			sessionCache.DeleteSessionBySessionToken(cookie.Value)
			if err := DeleteSessionByToken(r.Context(), db, cookie.Value); err != nil {
				slog.Error("delete session failed", slog.Any("err", err))
			}
		}
		http.SetCookie(w, sessioncookie.ClearSessionCookie())
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}
