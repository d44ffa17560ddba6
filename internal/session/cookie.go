package session

import (
	"net/http"
	"time"
)

const (
	// CookieName carries the raw session identifier. httpOnly; the
	// browser never exposes it to script.
	CookieName = "ap_session"

	// CSRFCookieName carries the CSRF token. Deliberately NOT httpOnly:
	// client script reads it and echoes it in the X-CSRF-Token header
	// (double-submit pairing with the session cookie).
	CSRFCookieName = "ap_csrf"
)

// CookieOptions defines how session cookies are issued.
type CookieOptions struct {
	Path   string
	Secure bool
	Domain string
}

func (o CookieOptions) normalize() CookieOptions {
	if o.Path == "" {
		o.Path = "/"
	}
	return o
}

// SetCookies issues the session and CSRF cookies after a successful login.
func SetCookies(w http.ResponseWriter, created *Created, opts CookieOptions) {
	opts = opts.normalize()

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    created.SessionID,
		Path:     opts.Path,
		Domain:   opts.Domain,
		Expires:  created.ExpiresAt,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    created.CSRFToken,
		Path:     opts.Path,
		Domain:   opts.Domain,
		Expires:  created.ExpiresAt,
		HttpOnly: false,
		Secure:   opts.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearCookies removes the session and CSRF cookies on logout.
func ClearCookies(w http.ResponseWriter, opts CookieOptions) {
	opts = opts.normalize()

	expired := time.Unix(0, 0)
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     opts.Path,
		Domain:   opts.Domain,
		Expires:  expired,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    "",
		Path:     opts.Path,
		Domain:   opts.Domain,
		Expires:  expired,
		MaxAge:   -1,
		Secure:   opts.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
