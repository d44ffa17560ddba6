package kakao

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/unstable-code/angple/internal/oauth/credentials"
	"github.com/unstable-code/angple/internal/oauth/provider"
)

const providerName = "kakao"

type Adapter struct {
	creds       *credentials.Cache
	redirectURL string

	authURL    string
	tokenURL   string
	profileURL string
	httpClient *http.Client
}

func New(creds *credentials.Cache, redirectURL string) *Adapter {
	return &Adapter{
		creds:       creds,
		redirectURL: redirectURL,
		authURL:     "https://kauth.kakao.com/oauth/authorize",
		tokenURL:    "https://kauth.kakao.com/oauth/token",
		profileURL:  "https://kapi.kakao.com/v2/user/me",
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *Adapter) Name() string {
	return providerName
}

func (a *Adapter) config(ctx context.Context) (*oauth2.Config, error) {
	c, err := a.creds.Get(ctx, providerName)
	if err != nil {
		return nil, err
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  a.redirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:  a.authURL,
			TokenURL: a.tokenURL,
		},
		Scopes: []string{"profile_nickname", "profile_image", "account_email"},
	}, nil
}

func (a *Adapter) AuthorizationURL(ctx context.Context, state string) (string, error) {
	cfg, err := a.config(ctx)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(state), nil
}

func (a *Adapter) ExchangeCode(ctx context.Context, code string, _ provider.ExchangeOptions) (*provider.TokenResponse, error) {
	cfg, err := a.config(ctx)
	if err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, provider.WrapExchangeError(providerName, err)
	}
	return provider.TokenFromOAuth2(tok), nil
}

func (a *Adapter) GetUserProfile(ctx context.Context, token *provider.TokenResponse) (*provider.Profile, error) {
	body, err := provider.FetchJSON(ctx, a.httpClient, providerName, a.profileURL, map[string]string{
		"Authorization": "Bearer " + token.AccessToken,
	})
	if err != nil {
		return nil, err
	}
	return a.ParseUserProfile(body)
}

// ParseUserProfile maps the /v2/user/me payload. The kakao id is
// numeric on the wire and converted to its decimal string form.
func (a *Adapter) ParseUserProfile(raw []byte) (*provider.Profile, error) {
	var payload struct {
		ID      int64 `json:"id"`
		Account struct {
			Email   string `json:"email"`
			Profile struct {
				Nickname        string `json:"nickname"`
				ProfileImageURL string `json:"profile_image_url"`
			} `json:"profile"`
		} `json:"kakao_account"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("kakao profile parse failed: %w", err)
	}
	if payload.ID == 0 {
		return nil, fmt.Errorf("kakao profile missing id")
	}

	return &provider.Profile{
		Provider:    providerName,
		Identifier:  strconv.FormatInt(payload.ID, 10),
		DisplayName: payload.Account.Profile.Nickname,
		Email:       payload.Account.Email,
		PhotoURL:    payload.Account.Profile.ProfileImageURL,
	}, nil
}
