package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unstable-code/angple/internal/auth/credentials"
	"github.com/unstable-code/angple/internal/jwt"
	"github.com/unstable-code/angple/internal/logger"
	"github.com/unstable-code/angple/internal/member"
	"github.com/unstable-code/angple/internal/observability/metrics"
	"github.com/unstable-code/angple/internal/session"
	"github.com/unstable-code/angple/internal/token"
)

// Login authenticates with a member id and password.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		ID       string `json:"id" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id and password are required"})
		return
	}

	m, err := h.passwords.Login(c.Request.Context(), req.ID, req.Password)
	switch {
	case errors.Is(err, credentials.ErrInvalidLogin):
		metrics.LoginsTotal.WithLabelValues("local", "failure").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid id or password"})
		return
	case errors.Is(err, credentials.ErrInactiveMember):
		metrics.LoginsTotal.WithLabelValues("local", "failure").Inc()
		c.JSON(http.StatusForbidden, gin.H{"error": reasonAccountInactive})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	if err := h.respondLoggedIn(c, m); err != nil {
		return
	}
	metrics.LoginsTotal.WithLabelValues("local", "success").Inc()
}

// Register creates a member with a password credential and logs it in.
func (h *Handler) Register(c *gin.Context) {
	var req struct {
		ID       string `json:"id" binding:"required"`
		Nickname string `json:"nickname" binding:"required"`
		Email    string `json:"email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id, nickname and password are required"})
		return
	}

	m, err := h.passwords.Register(c.Request.Context(), req.ID, req.Nickname, req.Email, req.Password)
	switch {
	case errors.Is(err, member.ErrDuplicateID),
		errors.Is(err, member.ErrDuplicateNickname),
		errors.Is(err, member.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, credentials.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	if _, err := h.establishSession(c, m); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"member": memberJSON(m)})
}

// RegisterSocial finishes signup for a pending social visitor with the
// nickname they chose.
func (h *Handler) RegisterSocial(c *gin.Context) {
	reg := h.consumePendingCookie(c.Request, c.Writer)
	if reg == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": reasonRegistrationInvalid})
		return
	}

	var req struct {
		Nickname string `json:"nickname" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nickname is required"})
		return
	}

	m, err := h.bridge.CompleteRegistration(c.Request.Context(), &reg.Profile, req.Nickname)
	switch {
	case errors.Is(err, member.ErrDuplicateNickname):
		c.JSON(http.StatusConflict, gin.H{"error": "nickname already taken"})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": reasonRegistrationInvalid})
		return
	}

	if _, err := h.establishSession(c, m); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}
	metrics.LoginsTotal.WithLabelValues(reg.Profile.Provider, "success").Inc()
	c.JSON(http.StatusCreated, gin.H{"member": memberJSON(m)})
}

// Refresh rotates the refresh token and returns a fresh internal access
// token. The opaque token inside the assertion is validated against the
// store; the signature alone proves nothing once rotation has moved on.
func (h *Handler) Refresh(c *gin.Context) {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing refresh token"})
		return
	}

	memberID, opaque, ok := h.issuer.VerifyRefreshAssertion(cookie)
	if !ok {
		h.clearRefreshCookie(c.Writer)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	issued, rotatedID, err := h.tokens.Rotate(c.Request.Context(), opaque, token.Metadata{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil || rotatedID != memberID {
		h.clearRefreshCookie(c.Writer)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	m, err := h.members.FindByID(c.Request.Context(), rotatedID)
	if err != nil || m == nil || !m.Active {
		h.clearRefreshCookie(c.Writer)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	assertion, err := h.issuer.IssueRefreshAssertion(m.ID, issued.Token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}
	h.setRefreshCookie(c.Writer, assertion, issued.ExpiresAt)

	access, err := h.issuer.IssueInternal(jwt.Payload{
		MemberID: m.ID,
		Nickname: m.Nickname,
		Level:    m.Level,
		Email:    m.Email,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": access,
		"token_type":   "Bearer",
		"expires_in":   int(jwt.InternalTTL.Seconds()),
	})
}

// Logout destroys the session, revokes the active refresh token and
// clears all auth cookies. Always succeeds.
func (h *Handler) Logout(c *gin.Context) {
	if raw, err := c.Cookie(session.CookieName); err == nil && raw != "" {
		if err := h.sessions.Destroy(c.Request.Context(), raw); err != nil {
			logger.Warn("session destroy failed", map[string]any{"error": err.Error()})
		}
	}
	session.ClearCookies(c.Writer, h.cookieOpts())

	if cookie, err := c.Cookie(refreshCookieName); err == nil && cookie != "" {
		if _, opaque, ok := h.issuer.VerifyRefreshAssertion(cookie); ok {
			if err := h.tokens.Revoke(c.Request.Context(), opaque); err != nil {
				logger.Warn("refresh token revoke failed", map[string]any{"error": err.Error()})
			}
		}
	}
	h.clearRefreshCookie(c.Writer)

	c.Status(http.StatusNoContent)
}

// respondLoggedIn establishes the session and writes the standard login
// response body.
func (h *Handler) respondLoggedIn(c *gin.Context, m *member.Member) error {
	if _, err := h.establishSession(c, m); err != nil {
		logger.Error("session establishment failed", map[string]any{
			"member_id": m.ID, "error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return err
	}

	access, err := h.issuer.IssueInternal(jwt.Payload{
		MemberID: m.ID,
		Nickname: m.Nickname,
		Level:    m.Level,
		Email:    m.Email,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return err
	}

	c.JSON(http.StatusOK, gin.H{
		"member":       memberJSON(m),
		"access_token": access,
		"token_type":   "Bearer",
		"expires_in":   int(jwt.InternalTTL.Seconds()),
	})
	return nil
}
