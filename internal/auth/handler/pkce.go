package handler

import (
	"net/http"

	"github.com/unstable-code/angple/internal/oauth/state"
)

// pkceCookieName carries the PKCE verifier between the authorize
// redirect and the callback. Same lifetime as the state cookie.
const pkceCookieName = "ap_oauth_pkce"

func (h *Handler) setPKCECookie(w http.ResponseWriter, verifier string) {
	http.SetCookie(w, &http.Cookie{
		Name:     pkceCookieName,
		Value:    verifier,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(state.TTL.Seconds()),
	})
}

// consumePKCECookie returns the stored verifier and deletes the cookie.
// Deletion happens whether or not the exchange that follows succeeds.
func (h *Handler) consumePKCECookie(r *http.Request, w http.ResponseWriter) string {
	cookie, err := r.Cookie(pkceCookieName)
	if err != nil {
		return ""
	}

	http.SetCookie(w, &http.Cookie{
		Name:     pkceCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return cookie.Value
}
