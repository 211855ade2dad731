package api

import (
	"net/http"
)

const authCookie = "authToken"

// Cookie lifetime mirrors the original frontend's year-long session.
const authCookieMaxAge = 60 * 60 * 24 * 365

// Authorize sets the session cookie when the supplied code matches the
// configured shared secret
// @Summary Authorize
// @Param code query string true "shared-secret token"
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /authorize [get]
func (a *API) Authorize(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" || code != a.authToken {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    code,
		Path:     "/",
		MaxAge:   authCookieMaxAge,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// TestAuth lets the frontend probe whether its cookie is still valid.
func (a *API) TestAuth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// RequireAuth guards every endpoint except /authorize: the session cookie
// must equal the shared secret. Failure is a 401 with no state change.
func (a *API) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(authCookie)
		if err != nil || cookie.Value != a.authToken {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
