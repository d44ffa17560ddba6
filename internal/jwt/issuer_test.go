package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(now *time.Time) *Issuer {
	i := NewIssuer("current-secret", "legacy-secret")
	i.now = func() time.Time { return *now }
	return i
}

func TestInternalRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	i := newTestIssuer(&now)

	in := Payload{MemberID: "m1", Nickname: "dahl", Level: 2, Email: "dahl@example.com"}
	token, err := i.IssueInternal(in)
	require.NoError(t, err)

	out := i.VerifyInternal(token)
	require.NotNil(t, out)
	assert.Equal(t, in, *out)
}

func TestVerifyInternalFailures(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	i := newTestIssuer(&now)

	token, err := i.IssueInternal(Payload{MemberID: "m1"})
	require.NoError(t, err)

	// garbage
	assert.Nil(t, i.VerifyInternal("not-a-token"))

	// wrong secret
	other := NewIssuer("other-secret", "")
	other.now = i.now
	assert.Nil(t, other.VerifyInternal(token))

	// wrong issuer claim
	claims := jwt.MapClaims{
		"sub": "m1",
		"iss": "someone-else",
		"exp": now.Add(time.Hour).Unix(),
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("current-secret"))
	require.NoError(t, err)
	assert.Nil(t, i.VerifyInternal(forged))

	// expired
	now = now.Add(16 * time.Minute)
	assert.Nil(t, i.VerifyInternal(token))
}

func TestRefreshAssertionRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	i := newTestIssuer(&now)

	token, err := i.IssueRefreshAssertion("m1", "opaque-refresh-token")
	require.NoError(t, err)

	memberID, opaque, ok := i.VerifyRefreshAssertion(token)
	require.True(t, ok)
	assert.Equal(t, "m1", memberID)
	assert.Equal(t, "opaque-refresh-token", opaque)

	// assertion lives 7 days, then is dead regardless of the store
	now = now.Add(7*24*time.Hour + time.Minute)
	_, _, ok = i.VerifyRefreshAssertion(token)
	assert.False(t, ok)
}

func TestVerifyLegacyClaimVariants(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	i := newTestIssuer(&now)

	sign := func(claims jwt.MapClaims) string {
		claims["exp"] = now.Add(time.Hour).Unix()
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("legacy-secret"))
		require.NoError(t, err)
		return s
	}

	// modern-ish spelling
	p := i.VerifyLegacy(sign(jwt.MapClaims{
		"sub": "m1", "nick": "dahl", "level": float64(3), "email": "a@b.c",
	}))
	require.NotNil(t, p)
	assert.Equal(t, Payload{MemberID: "m1", Nickname: "dahl", Level: 3, Email: "a@b.c"}, *p)

	// board-era spelling
	p = i.VerifyLegacy(sign(jwt.MapClaims{
		"mb_id": "m2", "mb_nick": "yun", "mb_level": float64(8), "mb_email": "y@b.c",
	}))
	require.NotNil(t, p)
	assert.Equal(t, Payload{MemberID: "m2", Nickname: "yun", Level: 8, Email: "y@b.c"}, *p)

	// no issuer check in legacy mode
	p = i.VerifyLegacy(sign(jwt.MapClaims{"sub": "m3", "iss": "whatever"}))
	require.NotNil(t, p)
	assert.Equal(t, "m3", p.MemberID)
}

func TestVerifyLegacyFailures(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	i := newTestIssuer(&now)

	// signed with the current secret, not the legacy one
	claims := jwt.MapClaims{"sub": "m1", "exp": now.Add(time.Hour).Unix()}
	wrong, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("current-secret"))
	require.NoError(t, err)
	assert.Nil(t, i.VerifyLegacy(wrong))

	// no subject under any known name
	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"nick": "x", "exp": now.Add(time.Hour).Unix(),
	}).SignedString([]byte("legacy-secret"))
	require.NoError(t, err)
	assert.Nil(t, i.VerifyLegacy(noSub))

	// legacy path disabled entirely when no legacy secret configured
	disabled := NewIssuer("current-secret", "")
	disabled.now = i.now
	legit, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "m1", "exp": now.Add(time.Hour).Unix(),
	}).SignedString([]byte("legacy-secret"))
	require.NoError(t, err)
	assert.Nil(t, disabled.VerifyLegacy(legit))
}
