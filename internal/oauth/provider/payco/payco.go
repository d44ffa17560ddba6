package payco

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

const providerName = "payco"

// Adapter implements Payco login. The profile endpoint identifies the
// client by a client_id header rather than a bearer or basic scheme.
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
		authURL:     "https://id.payco.com/oauth2.0/authorize",
		tokenURL:    "https://id.payco.com/oauth2.0/token",
		profileURL:  "https://apis-payco.krp.toastoven.net/payco/friends/find_member_v2.json",
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
			AuthURL:   a.authURL,
			TokenURL:  a.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}, nil
}

func (a *Adapter) AuthorizationURL(ctx context.Context, state string) (string, error) {
	cfg, err := a.config(ctx)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(
		state,
		oauth2.SetAuthURLParam("serviceProviderCode", "FRIENDS"),
	), nil
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

// GetUserProfile calls the member endpoint with client_id and
// access_token headers, the credential scheme Payco expects.
func (a *Adapter) GetUserProfile(ctx context.Context, token *provider.TokenResponse) (*provider.Profile, error) {
	c, err := a.creds.Get(ctx, providerName)
	if err != nil {
		return nil, err
	}

	body, err := provider.FetchJSON(ctx, a.httpClient, providerName, a.profileURL, map[string]string{
		"client_id":    c.ClientID,
		"access_token": token.AccessToken,
	})
	if err != nil {
		return nil, err
	}
	return a.ParseUserProfile(body)
}

// ParseUserProfile maps the find_member_v2 envelope.
func (a *Adapter) ParseUserProfile(raw []byte) (*provider.Profile, error) {
	var payload struct {
		Header struct {
			IsSuccessful bool `json:"isSuccessful"`
		} `json:"header"`
		Data struct {
			Member struct {
				IDNo     string `json:"idNo"`
				Email    string `json:"email"`
				Name     string `json:"name"`
				Nickname string `json:"nickname"`
			} `json:"member"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("payco profile parse failed: %w", err)
	}
	if payload.Data.Member.IDNo == "" {
		return nil, fmt.Errorf("payco profile missing idNo")
	}

	displayName := payload.Data.Member.Nickname
	if displayName == "" {
		displayName = payload.Data.Member.Name
	}

	return &provider.Profile{
		Provider:    providerName,
		Identifier:  payload.Data.Member.IDNo,
		DisplayName: displayName,
		Email:       payload.Data.Member.Email,
	}, nil
}
