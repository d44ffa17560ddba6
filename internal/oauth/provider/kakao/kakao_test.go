package kakao

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
	return New(cache, "https://example.com/oauth/callback/kakao")
}

func TestParseUserProfile(t *testing.T) {
	a := testAdapter()

	p, err := a.ParseUserProfile([]byte(`{
		"id": 20250831,
		"kakao_account": {
			"email": "k@example.com",
			"profile": {
				"nickname": "kouser",
				"profile_image_url": "https://k.kakaocdn.net/p.jpg"
			}
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "kakao", p.Provider)
	assert.Equal(t, "20250831", p.Identifier)
	assert.Equal(t, "kouser", p.DisplayName)
	assert.Equal(t, "k@example.com", p.Email)
	assert.Equal(t, "https://k.kakaocdn.net/p.jpg", p.PhotoURL)
}

func TestParseUserProfileRequiredFieldsOnly(t *testing.T) {
	a := testAdapter()

	p, err := a.ParseUserProfile([]byte(`{"id": 7}`))
	require.NoError(t, err)
	assert.Equal(t, "7", p.Identifier)
	assert.Empty(t, p.DisplayName)
	assert.Empty(t, p.Email)
	assert.Empty(t, p.PhotoURL)
}

func TestParseUserProfileMissingID(t *testing.T) {
	a := testAdapter()
	_, err := a.ParseUserProfile([]byte(`{"kakao_account": {}}`))
	assert.Error(t, err)
}

func TestGetUserProfileSendsBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 42}`))
	}))
	defer srv.Close()

	a := testAdapter()
	a.profileURL = srv.URL

	p, err := a.GetUserProfile(context.Background(), &provider.TokenResponse{AccessToken: "at"})
	require.NoError(t, err)
	assert.Equal(t, "42", p.Identifier)
}
