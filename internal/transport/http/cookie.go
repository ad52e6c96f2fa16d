package http

import (
	"net/http"
	"time"
)

// RefreshCookieName is the cookie carrying the refresh token. The frontend
// never reads it: HttpOnly keeps it out of script reach, and SameSite=None
// with Secure lets the cross-origin storefront send it on refresh calls.
const RefreshCookieName = "refreshToken"

// RefreshCookie projects a refresh token into its Set-Cookie form. Pure
// function of its inputs so handlers and tests agree on the attributes.
func RefreshCookie(token string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}

// ClearRefreshCookie is the removal form: same attributes, empty value,
// expiry in the past so the browser drops it.
func ClearRefreshCookie() *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}
