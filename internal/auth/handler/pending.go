package handler

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/unstable-code/angple/internal/bridge"
)

const (
	// pendingCookieName carries the profile snapshot of a first-time
	// social visitor between the callback and the registration submit.
	pendingCookieName = "ap_pending_reg"

	pendingTTL = 10 * time.Minute
)

type pendingPayload struct {
	Registration bridge.PendingRegistration `json:"reg"`
	IssuedAt     int64                      `json:"iat"`
}

func (h *Handler) setPendingCookie(w http.ResponseWriter, reg *bridge.PendingRegistration) error {
	raw, err := json.Marshal(pendingPayload{
		Registration: *reg,
		IssuedAt:     h.now().Unix(),
	})
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     pendingCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(pendingTTL.Seconds()),
	})
	return nil
}

// consumePendingCookie returns the stored registration if present and
// fresh, deleting the cookie either way.
func (h *Handler) consumePendingCookie(r *http.Request, w http.ResponseWriter) *bridge.PendingRegistration {
	cookie, err := r.Cookie(pendingCookieName)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     pendingCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var payload pendingPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	if h.now().Unix()-payload.IssuedAt > int64(pendingTTL.Seconds()) {
		return nil
	}
	return &payload.Registration
}
