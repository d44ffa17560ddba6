// Package handler exposes the authentication HTTP surface: social
// login, direct login, registration, token refresh and logout.
package handler

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/unstable-code/angple/internal/auth/credentials"
	"github.com/unstable-code/angple/internal/bridge"
	"github.com/unstable-code/angple/internal/jwt"
	"github.com/unstable-code/angple/internal/member"
	"github.com/unstable-code/angple/internal/oauth/provider"
	"github.com/unstable-code/angple/internal/oauth/state"
	"github.com/unstable-code/angple/internal/observability/metrics"
	"github.com/unstable-code/angple/internal/session"
	"github.com/unstable-code/angple/internal/token"
)

// Failure reason codes appended to the login page redirect.
const (
	reasonInvalidState        = "invalid_state"
	reasonProviderMismatch    = "provider_mismatch"
	reasonOAuthError          = "oauth_error"
	reasonAccountInactive     = "account_inactive"
	reasonUnknownProvider     = "unknown_provider"
	reasonMissingCode         = "missing_code"
	reasonRegistrationInvalid = "registration_invalid"
)

// refreshCookieName carries the signed refresh assertion. httpOnly and
// strict: it is only ever sent back to this origin.
const refreshCookieName = "ap_refresh"

// Config holds the handler's request-independent settings.
type Config struct {
	// LoginURL is where failed browser flows land, with an error
	// reason in the query string.
	LoginURL string

	Secure       bool
	CookieDomain string
}

type Handler struct {
	cfg       Config
	registry  *provider.Registry
	states    *state.Channel
	bridge    *bridge.Service
	sessions  *session.Service
	tokens    *token.Service
	issuer    *jwt.Issuer
	members   member.Repository
	passwords *credentials.Service

	secure bool
	now    func() time.Time
}

func New(
	cfg Config,
	registry *provider.Registry,
	states *state.Channel,
	bridgeSvc *bridge.Service,
	sessions *session.Service,
	tokens *token.Service,
	issuer *jwt.Issuer,
	members member.Repository,
	passwords *credentials.Service,
) *Handler {
	return &Handler{
		cfg:       cfg,
		registry:  registry,
		states:    states,
		bridge:    bridgeSvc,
		sessions:  sessions,
		tokens:    tokens,
		issuer:    issuer,
		members:   members,
		passwords: passwords,
		secure:    cfg.Secure,
		now:       time.Now,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/oauth/login/:provider", h.OAuthLogin)
	r.GET("/oauth/callback/:provider", h.OAuthCallback)
	r.POST("/oauth/callback/:provider", h.OAuthCallback)

	r.POST("/auth/login", h.Login)
	r.POST("/auth/register", h.Register)
	r.POST("/auth/register/social", h.RegisterSocial)
	r.POST("/auth/refresh", h.Refresh)
	r.POST("/auth/logout", h.Logout)
}

func (h *Handler) cookieOpts() session.CookieOptions {
	return session.CookieOptions{
		Path:   "/",
		Secure: h.secure,
		Domain: h.cfg.CookieDomain,
	}
}

// redirectFailure sends the browser back to the login page with the
// failure reason in the query string.
func (h *Handler) redirectFailure(c *gin.Context, reason string) {
	target := h.cfg.LoginURL
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	c.Redirect(http.StatusFound, target+sep+"error="+url.QueryEscape(reason))
}

// sanitizeRedirect keeps post-login redirects on this origin. Anything
// that is not a plain absolute path collapses to "/".
func sanitizeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "/"
	}
	return target
}

// establishSession creates the session and refresh-token pair for a
// logged-in member and sets both cookies.
func (h *Handler) establishSession(c *gin.Context, m *member.Member) (*session.Created, error) {
	meta := session.Metadata{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}

	created, err := h.sessions.Create(c.Request.Context(), m.ID, meta)
	if err != nil {
		return nil, err
	}
	session.SetCookies(c.Writer, created, h.cookieOpts())
	metrics.SessionsCreatedTotal.Inc()

	issued, err := h.tokens.Issue(c.Request.Context(), m.ID, "", token.Metadata{
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	assertion, err := h.issuer.IssueRefreshAssertion(m.ID, issued.Token)
	if err != nil {
		return nil, err
	}
	h.setRefreshCookie(c.Writer, assertion, issued.ExpiresAt)

	_ = h.members.UpdateLastLogin(c.Request.Context(), m.ID, meta.IP, h.now())
	return created, nil
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, assertion string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    assertion,
		Path:     "/",
		Domain:   h.cfg.CookieDomain,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.cfg.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func memberJSON(m *member.Member) gin.H {
	return gin.H{
		"id":       m.ID,
		"nickname": m.Nickname,
		"level":    m.Level,
		"email":    m.Email,
	}
}
