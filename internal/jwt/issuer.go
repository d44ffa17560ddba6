// Package jwt issues and verifies the short-lived signed assertions used
// for internal service-to-service calls and for pairing refresh tokens
// with their store entries. Tokens here never reach the browser except
// the refresh assertion, which is only a carrier for the opaque token
// the store remains authoritative for.
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuerName = "angple-auth"

	// InternalTTL is the lifetime of an internal access token.
	InternalTTL = 15 * time.Minute

	assertionTTL = 7 * 24 * time.Hour
)

// ErrInvalidToken is the only error surfaced from verification; callers
// never learn why a token failed.
var ErrInvalidToken = errors.New("jwt: invalid token")

// Payload is the member identity carried by an internal token.
type Payload struct {
	MemberID string
	Nickname string
	Level    int
	Email    string
}

type internalClaims struct {
	jwt.RegisteredClaims
	Nickname string `json:"nick"`
	Level    int    `json:"level"`
	Email    string `json:"email"`
}

type assertionClaims struct {
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tokens with a server-held secret.
type Issuer struct {
	secret       []byte
	legacySecret []byte
	now          func() time.Time
}

func NewIssuer(secret, legacySecret string) *Issuer {
	return &Issuer{
		secret:       []byte(secret),
		legacySecret: []byte(legacySecret),
		now:          time.Now,
	}
}

// IssueInternal mints a 15-minute token for service-to-service calls.
func (i *Issuer) IssueInternal(p Payload) (string, error) {
	now := i.now()
	claims := internalClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.MemberID,
			Issuer:    issuerName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(InternalTTL)),
		},
		Nickname: p.Nickname,
		Level:    p.Level,
		Email:    p.Email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// VerifyInternal checks signature, expiry and issuer. Returns nil on any
// failure.
func (i *Issuer) VerifyInternal(tokenString string) *Payload {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&internalClaims{},
		func(*jwt.Token) (interface{}, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuerName),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil
	}
	claims, ok := token.Claims.(*internalClaims)
	if !ok || !token.Valid {
		return nil
	}
	return &Payload{
		MemberID: claims.Subject,
		Nickname: claims.Nickname,
		Level:    claims.Level,
		Email:    claims.Email,
	}
}

// IssueRefreshAssertion wraps an opaque refresh token in a signed
// envelope. The jti carries the opaque token; the store, not the
// signature, decides whether it is still valid.
func (i *Issuer) IssueRefreshAssertion(memberID, opaqueToken string) (string, error) {
	now := i.now()
	claims := assertionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        opaqueToken,
			Subject:   memberID,
			Issuer:    issuerName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(assertionTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// VerifyRefreshAssertion checks the envelope and returns the member id
// and the opaque token for store validation. ok is false on any failure.
func (i *Issuer) VerifyRefreshAssertion(tokenString string) (memberID, opaqueToken string, ok bool) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&assertionClaims{},
		func(*jwt.Token) (interface{}, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuerName),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return "", "", false
	}
	claims, okc := token.Claims.(*assertionClaims)
	if !okc || !token.Valid || claims.ID == "" {
		return "", "", false
	}
	return claims.Subject, claims.ID, true
}
