// Package session holds the cookie conventions for officer sessions and
// anonymous visitors.
package session

import (
	"net/http"
	"time"
)

const (
	CookieName        = "X-Session-Token"
	VisitorCookieName = "queueboard_visitor"

	// TTL is how long an officer session stays valid after login.
	TTL = 12 * time.Hour

	visitorMaxAge = 30 * 24 * 60 * 60
)

func cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// SessionCookie sets the officer session cookie. A negative maxAge clears it.
func SessionCookie(value string, maxAge int) *http.Cookie {
	return cookie(CookieName, value, maxAge)
}

// ClearSessionCookie expires the officer session cookie.
func ClearSessionCookie() *http.Cookie {
	return cookie(CookieName, "", -1)
}

// VisitorCookie identifies an anonymous browser so its token tracking survives
// page loads.
func VisitorCookie(visitorID string) *http.Cookie {
	return cookie(VisitorCookieName, visitorID, visitorMaxAge)
}

func DefaultExpiry() time.Time {
	return time.Now().Add(TTL)
}
