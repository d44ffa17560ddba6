package twitter

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

const providerName = "twitter"

// Adapter implements the X (Twitter) OAuth 2.0 flow. The authorization
// request must carry an S256 code challenge; the matching verifier is
// supplied back at exchange time.
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
		authURL:     "https://twitter.com/i/oauth2/authorize",
		tokenURL:    "https://api.twitter.com/2/oauth2/token",
		profileURL:  "https://api.twitter.com/2/users/me",
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
			AuthURL: a.authURL,
			// X requires client credentials via basic auth at the
			// token endpoint.
			TokenURL:  a.tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
		Scopes: []string{"users.read", "tweet.read", "offline.access"},
	}, nil
}

// AuthorizationURL without a challenge is rejected upstream; the handler
// always dispatches through the PKCE path for this adapter.
func (a *Adapter) AuthorizationURL(ctx context.Context, state string) (string, error) {
	cfg, err := a.config(ctx)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(state), nil
}

// AuthorizationURLWithPKCE builds the authorize URL carrying the S256
// code challenge.
func (a *Adapter) AuthorizationURLWithPKCE(ctx context.Context, state, codeChallenge string) (string, error) {
	cfg, err := a.config(ctx)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(
		state,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	), nil
}

func (a *Adapter) ExchangeCode(ctx context.Context, code string, opts provider.ExchangeOptions) (*provider.TokenResponse, error) {
	if opts.CodeVerifier == "" {
		return nil, fmt.Errorf("twitter code exchange requires a pkce verifier")
	}

	cfg, err := a.config(ctx)
	if err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	tok, err := cfg.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", opts.CodeVerifier),
	)
	if err != nil {
		return nil, provider.WrapExchangeError(providerName, err)
	}
	return provider.TokenFromOAuth2(tok), nil
}

func (a *Adapter) GetUserProfile(ctx context.Context, token *provider.TokenResponse) (*provider.Profile, error) {
	u := a.profileURL + "?" + url.Values{
		"user.fields": {"profile_image_url"},
	}.Encode()

	body, err := provider.FetchJSON(ctx, a.httpClient, providerName, u, map[string]string{
		"Authorization": "Bearer " + token.AccessToken,
	})
	if err != nil {
		return nil, err
	}
	return a.ParseUserProfile(body)
}

// ParseUserProfile maps the /2/users/me payload. X accounts carry no
// email; it defaults to empty.
func (a *Adapter) ParseUserProfile(raw []byte) (*provider.Profile, error) {
	var payload struct {
		Data struct {
			ID              string `json:"id"`
			Name            string `json:"name"`
			Username        string `json:"username"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("twitter profile parse failed: %w", err)
	}
	if payload.Data.ID == "" {
		return nil, fmt.Errorf("twitter profile missing id")
	}

	profileURL := ""
	if payload.Data.Username != "" {
		profileURL = "https://twitter.com/" + payload.Data.Username
	}

	return &provider.Profile{
		Provider:    providerName,
		Identifier:  payload.Data.ID,
		DisplayName: payload.Data.Name,
		PhotoURL:    payload.Data.ProfileImageURL,
		ProfileURL:  profileURL,
	}, nil
}
