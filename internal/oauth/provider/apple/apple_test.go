package apple

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unstable-code/angple/internal/oauth/credentials"
	"github.com/unstable-code/angple/internal/oauth/provider"
)

func writeTestKey(t *testing.T) (string, *ecdsa.PrivateKey) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	der, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "authkey.p8")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, pem.Encode(f, &pem.Block{Type: "EC PRIVATE KEY", Bytes: der}))
	require.NoError(t, f.Close())

	return path, key
}

func testAdapter(t *testing.T) (*Adapter, *ecdsa.PrivateKey) {
	t.Helper()

	keyPath, key := writeTestKey(t)
	cache := credentials.NewCache(credentials.StaticSource{
		providerName: {ClientID: "com.example.angple"},
	})

	a, err := New(cache, "https://example.com/oauth/callback/apple", "TEAM1234", "KEY1234", keyPath)
	require.NoError(t, err)
	return a, key
}

func TestNewRequiresKeyConfig(t *testing.T) {
	cache := credentials.NewCache(credentials.StaticSource{})
	_, err := New(cache, "https://example.com/cb", "", "KEY1234", "/no/such/key")
	assert.Error(t, err)
}

func TestAuthorizationURLRequestsFormPost(t *testing.T) {
	a, _ := testAdapter(t)

	u, err := a.AuthorizationURL(context.Background(), "st")
	require.NoError(t, err)
	assert.Contains(t, u, "response_mode=form_post")
	assert.Contains(t, u, "state=st")
	assert.Contains(t, u, "scope=name+email")
}

func TestClientAssertionClaims(t *testing.T) {
	a, key := testAdapter(t)
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return issued }

	signed, err := a.clientAssertion("com.example.angple")
	require.NoError(t, err)

	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(signed, &claims, func(tok *jwt.Token) (any, error) {
		assert.Equal(t, "ES256", tok.Method.Alg())
		assert.Equal(t, "KEY1234", tok.Header["kid"])
		return &key.PublicKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return issued }))
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	assert.Equal(t, "TEAM1234", claims.Issuer)
	assert.Equal(t, "com.example.angple", claims.Subject)
	assert.Equal(t, jwt.ClaimStrings{"https://appleid.apple.com"}, claims.Audience)
	assert.Equal(t, issued.Add(assertionTTL), claims.ExpiresAt.Time)
}

func TestExchangeCodeSendsFreshAssertion(t *testing.T) {
	a, key := testAdapter(t)

	idToken := signIDToken(t, key, jwt.MapClaims{"sub": "apple-7", "email": "a@example.com"})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "com.example.angple", r.FormValue("client_id"))

		secret := r.FormValue("client_secret")
		_, err := jwt.Parse(secret, func(*jwt.Token) (any, error) { return &key.PublicKey, nil })
		assert.NoError(t, err, "client_secret must be a valid signed assertion")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"bearer","expires_in":3600,"id_token":"` + idToken + `"}`))
	}))
	defer srv.Close()

	a.tokenURL = srv.URL

	tok, err := a.ExchangeCode(context.Background(), "code", provider.ExchangeOptions{})
	require.NoError(t, err)
	assert.Equal(t, idToken, tok.IDToken)
}

func TestExchangeCodeRejectsMissingIDToken(t *testing.T) {
	a, _ := testAdapter(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"bearer"}`))
	}))
	defer srv.Close()

	a.tokenURL = srv.URL

	_, err := a.ExchangeCode(context.Background(), "code", provider.ExchangeOptions{})
	assert.Error(t, err)
}

func TestGetUserProfileFromIDToken(t *testing.T) {
	a, key := testAdapter(t)
	idToken := signIDToken(t, key, jwt.MapClaims{"sub": "apple-7", "email": "a@example.com"})

	p, err := a.GetUserProfile(context.Background(), &provider.TokenResponse{IDToken: idToken})
	require.NoError(t, err)
	assert.Equal(t, "apple", p.Provider)
	assert.Equal(t, "apple-7", p.Identifier)
	assert.Equal(t, "a@example.com", p.Email)
	assert.Empty(t, p.DisplayName)
}

func TestGetUserProfileRequiresIDToken(t *testing.T) {
	a, _ := testAdapter(t)

	_, err := a.GetUserProfile(context.Background(), &provider.TokenResponse{AccessToken: "at"})
	assert.Error(t, err)
}

func TestParseUserProfileRequiredFieldsOnly(t *testing.T) {
	a, _ := testAdapter(t)

	p, err := a.ParseUserProfile([]byte(`{"sub": "apple-9"}`))
	require.NoError(t, err)
	assert.Equal(t, "apple-9", p.Identifier)
	assert.Empty(t, p.Email)
	assert.Empty(t, p.DisplayName)
}

func signIDToken(t *testing.T, key *ecdsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}
