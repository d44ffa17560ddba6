package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/unstable-code/angple/internal/oauth/credentials"
	"github.com/unstable-code/angple/internal/oauth/provider"
)

const providerName = "naver"

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
		authURL:     "https://nid.naver.com/oauth2.0/authorize",
		tokenURL:    "https://nid.naver.com/oauth2.0/token",
		profileURL:  "https://openapi.naver.com/v1/nid/me",
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

// ParseUserProfile maps the /v1/nid/me envelope onto the common profile
// shape. Optional fields default to empty strings.
func (a *Adapter) ParseUserProfile(raw []byte) (*provider.Profile, error) {
	var payload struct {
		ResultCode string `json:"resultcode"`
		Response   struct {
			ID           string `json:"id"`
			Nickname     string `json:"nickname"`
			Name         string `json:"name"`
			Email        string `json:"email"`
			ProfileImage string `json:"profile_image"`
		} `json:"response"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("naver profile parse failed: %w", err)
	}
	if payload.Response.ID == "" {
		return nil, fmt.Errorf("naver profile missing id")
	}

	displayName := payload.Response.Nickname
	if displayName == "" {
		displayName = payload.Response.Name
	}

	return &provider.Profile{
		Provider:    providerName,
		Identifier:  payload.Response.ID,
		DisplayName: displayName,
		Email:       payload.Response.Email,
		PhotoURL:    payload.Response.ProfileImage,
	}, nil
}
