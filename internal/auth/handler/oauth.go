package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"github.com/unstable-code/angple/internal/bridge"
	"github.com/unstable-code/angple/internal/logger"
	"github.com/unstable-code/angple/internal/oauth/provider"
	"github.com/unstable-code/angple/internal/oauth/state"
	"github.com/unstable-code/angple/internal/observability/metrics"
)

// OAuthLogin starts the authorization flow: issues the state cookie and
// redirects the browser to the provider's consent page.
func (h *Handler) OAuthLogin(c *gin.Context) {
	name := c.Param("provider")
	adapter, err := h.registry.Get(name)
	if err != nil {
		h.redirectFailure(c, reasonUnknownProvider)
		return
	}

	st, err := h.states.Issue(c.Writer, name, c.Query("redirect"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to start login"})
		return
	}

	var authURL string
	if pk, ok := adapter.(provider.PKCEAdapter); ok {
		verifier := oauth2.GenerateVerifier()
		h.setPKCECookie(c.Writer, verifier)
		authURL, err = pk.AuthorizationURLWithPKCE(c.Request.Context(), st, oauth2.S256ChallengeFromVerifier(verifier))
	} else {
		authURL, err = adapter.AuthorizationURL(c.Request.Context(), st)
	}
	if err != nil {
		logger.Error("failed to build authorize url", map[string]any{
			"provider": name, "error": err.Error(),
		})
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to start login"})
		return
	}

	c.Redirect(http.StatusFound, authURL)
}

// OAuthCallback completes the flow. Registered for both GET and POST:
// providers using the form-post response mode deliver code and state in
// the request body instead of the query string.
func (h *Handler) OAuthCallback(c *gin.Context) {
	name := c.Param("provider")
	adapter, err := h.registry.Get(name)
	if err != nil {
		h.redirectFailure(c, reasonUnknownProvider)
		return
	}

	code, stateParam, errParam := callbackParams(c)
	if errParam != "" {
		metrics.LoginsTotal.WithLabelValues(name, "failure").Inc()
		logger.Info("provider returned an error", map[string]any{
			"provider": name, "error": errParam,
		})
		h.redirectFailure(c, reasonOAuthError)
		return
	}
	if code == "" {
		h.redirectFailure(c, reasonMissingCode)
		return
	}

	data, err := h.states.Validate(c.Request, c.Writer, stateParam, name)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(name, "failure").Inc()
		if errors.Is(err, state.ErrProviderMismatch) {
			h.redirectFailure(c, reasonProviderMismatch)
			return
		}
		h.redirectFailure(c, reasonInvalidState)
		return
	}

	// The verifier cookie is consumed regardless of how the exchange
	// goes; a failed exchange must not leave a reusable verifier.
	verifier := h.consumePKCECookie(c.Request, c.Writer)

	tok, err := adapter.ExchangeCode(c.Request.Context(), code, provider.ExchangeOptions{CodeVerifier: verifier})
	if err != nil {
		h.failUpstream(c, name, "code exchange failed", err)
		return
	}

	profile, err := adapter.GetUserProfile(c.Request.Context(), tok)
	if err != nil {
		h.failUpstream(c, name, "profile fetch failed", err)
		return
	}

	res, err := h.bridge.Resolve(c.Request.Context(), profile)
	if err != nil {
		if errors.Is(err, bridge.ErrInactiveMember) {
			metrics.LoginsTotal.WithLabelValues(name, "failure").Inc()
			h.redirectFailure(c, reasonAccountInactive)
			return
		}
		logger.Error("identity resolution failed", map[string]any{
			"provider": name, "error": err.Error(),
		})
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	if res.Pending != nil {
		if err := h.setPendingCookie(c.Writer, res.Pending); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
			return
		}
		c.Redirect(http.StatusFound, h.cfg.LoginURL+"?register=pending&provider="+name)
		return
	}

	if _, err := h.establishSession(c, res.Member); err != nil {
		logger.Error("session establishment failed", map[string]any{
			"provider": name, "member_id": res.Member.ID, "error": err.Error(),
		})
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	metrics.LoginsTotal.WithLabelValues(name, "success").Inc()
	c.Redirect(http.StatusFound, sanitizeRedirect(data.RedirectTarget))
}

// failUpstream logs the provider failure, keeping upstream status and
// body when available, and redirects with the oauth_error reason.
func (h *Handler) failUpstream(c *gin.Context, name, msg string, err error) {
	metrics.LoginsTotal.WithLabelValues(name, "failure").Inc()

	fields := map[string]any{"provider": name, "error": err.Error()}
	var ue *provider.UpstreamError
	if errors.As(err, &ue) {
		fields["upstream_status"] = ue.StatusCode
		fields["upstream_body"] = ue.Body
	}
	logger.Warn(msg, fields)

	h.redirectFailure(c, reasonOAuthError)
}

// callbackParams extracts code, state and the provider error from
// either the query string (GET) or the posted form (form-post mode).
func callbackParams(c *gin.Context) (code, stateParam, errParam string) {
	if c.Request.Method == http.MethodPost {
		return c.PostForm("code"), c.PostForm("state"), c.PostForm("error")
	}
	return c.Query("code"), c.Query("state"), c.Query("error")
}
