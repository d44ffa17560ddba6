package naver

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
	return New(cache, "https://example.com/oauth/callback/naver")
}

func TestParseUserProfile(t *testing.T) {
	a := testAdapter()

	p, err := a.ParseUserProfile([]byte(`{
		"resultcode": "00",
		"response": {
			"id": "naver-123",
			"nickname": "dahl",
			"email": "dahl@example.com",
			"profile_image": "https://img.example.com/p.png"
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "naver", p.Provider)
	assert.Equal(t, "naver-123", p.Identifier)
	assert.Equal(t, "dahl", p.DisplayName)
	assert.Equal(t, "dahl@example.com", p.Email)
	assert.Equal(t, "https://img.example.com/p.png", p.PhotoURL)
}

func TestParseUserProfileRequiredFieldsOnly(t *testing.T) {
	a := testAdapter()

	p, err := a.ParseUserProfile([]byte(`{"response": {"id": "naver-123"}}`))
	require.NoError(t, err)
	assert.Equal(t, "naver-123", p.Identifier)
	assert.Empty(t, p.DisplayName)
	assert.Empty(t, p.Email)
	assert.Empty(t, p.PhotoURL)
	assert.Empty(t, p.ProfileURL)
}

func TestParseUserProfileMissingID(t *testing.T) {
	a := testAdapter()
	_, err := a.ParseUserProfile([]byte(`{"response": {}}`))
	assert.Error(t, err)
}

func TestExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "auth-code", r.FormValue("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	a := testAdapter()
	a.tokenURL = srv.URL

	tok, err := a.ExchangeCode(context.Background(), "auth-code", provider.ExchangeOptions{})
	require.NoError(t, err)
	assert.Equal(t, "at", tok.AccessToken)
}

func TestExchangeCodeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	a := testAdapter()
	a.tokenURL = srv.URL

	_, err := a.ExchangeCode(context.Background(), "bad-code", provider.ExchangeOptions{})
	require.Error(t, err)

	var ue *provider.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusBadRequest, ue.StatusCode)
	assert.Contains(t, ue.Body, "invalid_grant")
	assert.Equal(t, "naver", ue.Provider)
}

func TestGetUserProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":{"id":"n1","nickname":"yun"}}`))
	}))
	defer srv.Close()

	a := testAdapter()
	a.profileURL = srv.URL

	p, err := a.GetUserProfile(context.Background(), &provider.TokenResponse{AccessToken: "at"})
	require.NoError(t, err)
	assert.Equal(t, "n1", p.Identifier)
	assert.Equal(t, "yun", p.DisplayName)
}

func TestAuthorizationURLCarriesState(t *testing.T) {
	a := testAdapter()

	u, err := a.AuthorizationURL(context.Background(), "the-state")
	require.NoError(t, err)
	assert.Contains(t, u, "state=the-state")
	assert.Contains(t, u, "client_id=cid")
}
