package http

import (
	"net/http"
	"time"
)

// RefreshCookieName carries the user-refresh token for browser clients.
// Non-browser clients get the same token in the response body instead.
const RefreshCookieName = "forrrestUserRefreshToken"

// refreshCookiePath scopes the cookie to the auth endpoints only, so it
// never rides along on unrelated requests.
const refreshCookiePath = "/v1/auth"

func setRefreshCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// refreshTokenFromRequest prefers an explicit body token, falling back to
// the cookie for browser flows.
func refreshTokenFromRequest(r *http.Request, bodyToken string) string {
	if bodyToken != "" {
		return bodyToken
	}
	if c, err := r.Cookie(RefreshCookieName); err == nil {
		return c.Value
	}
	return ""
}
