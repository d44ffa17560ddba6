// Package middleware carries the request gate: session authentication
// and CSRF enforcement for cookie-authenticated requests.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unstable-code/angple/internal/jwt"
	"github.com/unstable-code/angple/internal/member"
	"github.com/unstable-code/angple/internal/observability/metrics"
	"github.com/unstable-code/angple/internal/session"
)

const (
	memberKey  = "auth.member"
	sessionKey = "auth.session"
)

// CSRFHeader is the request header checked against the session's CSRF
// token on state-changing requests.
const CSRFHeader = "X-CSRF-Token"

// Authenticate resolves the request's credential to a member and stores
// it on the request context. The session cookie is tried first; a
// bearer token (current or legacy-signed) is the fallback for API
// clients. Any failure leaves the request anonymous; it never aborts.
func Authenticate(sessions *session.Service, members member.Repository, issuer *jwt.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rawID, err := c.Cookie(session.CookieName); err == nil && rawID != "" {
			sess, err := sessions.Validate(c.Request.Context(), rawID)
			if err == nil && sess != nil {
				m, err := members.FindByID(c.Request.Context(), sess.MemberID)
				if err == nil && m != nil && m.Active {
					c.Set(sessionKey, sess)
					c.Set(memberKey, m)
				}
			}
			c.Next()
			return
		}

		if tok := bearerToken(c); tok != "" {
			payload := issuer.VerifyInternal(tok)
			if payload == nil {
				payload = issuer.VerifyLegacy(tok)
			}
			if payload != nil {
				m, err := members.FindByID(c.Request.Context(), payload.MemberID)
				if err == nil && m != nil && m.Active {
					// Header auth carries no session; CSRF does not
					// apply to it.
					c.Set(memberKey, m)
				}
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return h[len(prefix):]
}

// RequireAuth aborts with 401 when Authenticate left the request
// anonymous.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if MemberFrom(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// CSRF enforces the double-submit check on state-changing requests that
// were authenticated by a session cookie. The header must match the
// session's token exactly.
func CSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		sess := SessionFrom(c)
		if sess == nil {
			c.Next()
			return
		}

		if c.GetHeader(CSRFHeader) != sess.CSRFToken {
			metrics.CSRFRejectionsTotal.Inc()
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "csrf token mismatch"})
			return
		}
		c.Next()
	}
}

// MemberFrom returns the authenticated member, or nil for anonymous
// requests.
func MemberFrom(c *gin.Context) *member.Member {
	v, ok := c.Get(memberKey)
	if !ok {
		return nil
	}
	m, _ := v.(*member.Member)
	return m
}

// SessionFrom returns the validated session, or nil.
func SessionFrom(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*session.Session)
	return s
}
