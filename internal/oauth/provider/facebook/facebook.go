package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/unstable-code/angple/internal/oauth/credentials"
	"github.com/unstable-code/angple/internal/oauth/provider"
)

const providerName = "facebook"

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
		authURL:     "https://www.facebook.com/v19.0/dialog/oauth",
		tokenURL:    "https://graph.facebook.com/v19.0/oauth/access_token",
		profileURL:  "https://graph.facebook.com/me",
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
		Scopes: []string{"public_profile", "email"},
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
	u := a.profileURL + "?" + url.Values{
		"fields": {"id,name,email,picture"},
	}.Encode()

	body, err := provider.FetchJSON(ctx, a.httpClient, providerName, u, map[string]string{
		"Authorization": "Bearer " + token.AccessToken,
	})
	if err != nil {
		return nil, err
	}
	return a.ParseUserProfile(body)
}

// ParseUserProfile maps the Graph API /me payload.
func (a *Adapter) ParseUserProfile(raw []byte) (*provider.Profile, error) {
	var payload struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("facebook profile parse failed: %w", err)
	}
	if payload.ID == "" {
		return nil, fmt.Errorf("facebook profile missing id")
	}

	return &provider.Profile{
		Provider:    providerName,
		Identifier:  payload.ID,
		DisplayName: payload.Name,
		Email:       payload.Email,
		PhotoURL:    payload.Picture.Data.URL,
	}, nil
}
