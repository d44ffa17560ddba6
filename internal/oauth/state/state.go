// Package state implements the OAuth login correlation channel: a
// short-lived, single-use state value binding an authorization request
// to its callback, carried in a transient cookie rather than server
// storage.
package state

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/unstable-code/angple/internal/random"
)

var (
	// ErrMissingState covers an absent or undecodable state cookie as
	// well as an empty presented value.
	ErrMissingState = errors.New("state: missing or malformed")

	ErrStateMismatch = errors.New("state: value mismatch")

	// ErrProviderMismatch marks a callback invoked for a different flow
	// than the one that created the state.
	ErrProviderMismatch = errors.New("state: provider mismatch")

	ErrStateExpired = errors.New("state: expired")
)

const (
	// CookieName carries the serialized state payload between the
	// authorize redirect and the provider callback.
	CookieName = "ap_oauth_state"

	// TTL bounds how long a state value is acceptable.
	TTL = 10 * time.Minute
)

// Data is the correlation payload round-tripped through the cookie.
type Data struct {
	State          string `json:"state"`
	Provider       string `json:"provider"`
	RedirectTarget string `json:"redirect"`
	IssuedAt       int64  `json:"iat"`
}

// Channel issues and validates state cookies.
type Channel struct {
	secure bool
	now    func() time.Time
}

func NewChannel(secure bool) *Channel {
	return &Channel{secure: secure, now: time.Now}
}

// Issue mints a random state, stores the payload in the state cookie and
// returns the state value for embedding in the authorize URL.
func (c *Channel) Issue(w http.ResponseWriter, provider, redirectTarget string) (string, error) {
	data := Data{
		State:          random.Secret(),
		Provider:       provider,
		RedirectTarget: redirectTarget,
		IssuedAt:       c.now().Unix(),
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(TTL.Seconds()),
	})

	return data.State, nil
}

// Validate checks the presented state against the cookie. The state must
// match exactly, be within TTL, and have been issued for the provider
// named in the callback path. On success the cookie is deleted (single
// use) and the payload returned; any failure returns a sentinel and
// leaves the cookie to its natural expiry.
func (c *Channel) Validate(r *http.Request, w http.ResponseWriter, presentedState, provider string) (*Data, error) {
	if presentedState == "" {
		return nil, ErrMissingState
	}

	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrMissingState
	}

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil, ErrMissingState
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, ErrMissingState
	}

	if data.State != presentedState {
		return nil, ErrStateMismatch
	}
	if data.Provider != provider {
		return nil, ErrProviderMismatch
	}
	if c.now().Unix()-data.IssuedAt > int64(TTL.Seconds()) {
		return nil, ErrStateExpired
	}

	c.delete(w)
	return &data, nil
}

func (c *Channel) delete(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
