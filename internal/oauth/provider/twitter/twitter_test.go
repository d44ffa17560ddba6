package twitter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unstable-code/angple/internal/oauth/credentials"
	"github.com/unstable-code/angple/internal/oauth/provider"
)

func testAdapter() *Adapter {
	cache := credentials.NewCache(credentials.StaticSource{
		providerName: {ClientID: "cid", ClientSecret: "cs"},
	})
	return New(cache, "https://example.com/oauth/callback/twitter")
}

func TestAuthorizationURLWithPKCE(t *testing.T) {
	a := testAdapter()

	u, err := a.AuthorizationURLWithPKCE(context.Background(), "st", "the-challenge")
	require.NoError(t, err)
	assert.Contains(t, u, "code_challenge=the-challenge")
	assert.Contains(t, u, "code_challenge_method=S256")
	assert.Contains(t, u, "state=st")
}

func TestExchangeCodeRequiresVerifier(t *testing.T) {
	a := testAdapter()

	_, err := a.ExchangeCode(context.Background(), "code", provider.ExchangeOptions{})
	assert.Error(t, err)
}

func TestExchangeCodeSendsVerifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "cid", user)
		assert.Equal(t, "cs", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-verifier", r.FormValue("code_verifier"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"bearer","expires_in":7200}`))
	}))
	defer srv.Close()

	a := testAdapter()
	a.tokenURL = srv.URL

	tok, err := a.ExchangeCode(context.Background(), "code", provider.ExchangeOptions{CodeVerifier: "the-verifier"})
	require.NoError(t, err)
	assert.Equal(t, "at", tok.AccessToken)
}

func TestParseUserProfile(t *testing.T) {
	a := testAdapter()

	p, err := a.ParseUserProfile([]byte(`{
		"data": {
			"id": "tw-9",
			"name": "Dahl",
			"username": "dahl_dev",
			"profile_image_url": "https://pbs.example.com/p.jpg"
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "twitter", p.Provider)
	assert.Equal(t, "tw-9", p.Identifier)
	assert.Equal(t, "Dahl", p.DisplayName)
	assert.Equal(t, "https://twitter.com/dahl_dev", p.ProfileURL)
	assert.Empty(t, p.Email)
}

func TestParseUserProfileRequiredFieldsOnly(t *testing.T) {
	a := testAdapter()

	p, err := a.ParseUserProfile([]byte(`{"data": {"id": "tw-9"}}`))
	require.NoError(t, err)
	assert.Equal(t, "tw-9", p.Identifier)
	assert.Empty(t, p.DisplayName)
	assert.Empty(t, p.Email)
	assert.Empty(t, p.PhotoURL)
	assert.Empty(t, p.ProfileURL)
}
