package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/unstable-code/angple/internal/oauth/provider"
)

const providerName = "google"

// Adapter authenticates against Google via OIDC discovery. The profile
// comes from the verified id_token, not a separate profile endpoint.
type Adapter struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
	httpClient  *http.Client
}

func New(
	ctx context.Context,
	clientID string,
	clientSecret string,
	redirectURL string,
) (*Adapter, error) {

	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("google oauth config missing required fields")
	}

	oidcProvider, err := oidc.NewProvider(ctx, "https://accounts.google.com")
	if err != nil {
		return nil, fmt.Errorf("failed to init google oidc provider: %w", err)
	}

	verifier := oidcProvider.Verifier(&oidc.Config{
		ClientID: clientID,
	})

	oauthCfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     oidcProvider.Endpoint(),
		Scopes: []string{
			oidc.ScopeOpenID,
			"profile",
			"email",
		},
	}

	return &Adapter{
		oauthConfig: oauthCfg,
		verifier:    verifier,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (a *Adapter) Name() string {
	return providerName
}

func (a *Adapter) AuthorizationURL(_ context.Context, state string) (string, error) {
	return a.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

func (a *Adapter) ExchangeCode(ctx context.Context, code string, _ provider.ExchangeOptions) (*provider.TokenResponse, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	tok, err := a.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, provider.WrapExchangeError(providerName, err)
	}

	resp := provider.TokenFromOAuth2(tok)
	if resp.IDToken == "" {
		return nil, errors.New("google did not return id_token")
	}
	return resp, nil
}

// GetUserProfile verifies the id_token returned at exchange time and
// maps its claims; no profile endpoint call is made.
func (a *Adapter) GetUserProfile(ctx context.Context, token *provider.TokenResponse) (*provider.Profile, error) {
	if token.IDToken == "" {
		return nil, errors.New("google profile requires id_token")
	}

	idToken, err := a.verifier.Verify(ctx, token.IDToken)
	if err != nil {
		return nil, fmt.Errorf("google id_token verification failed: %w", err)
	}

	var claims json.RawMessage
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("google id_token claims parse failed: %w", err)
	}

	return a.ParseUserProfile(claims)
}

// ParseUserProfile maps id_token claims onto the common profile shape.
func (a *Adapter) ParseUserProfile(raw []byte) (*provider.Profile, error) {
	var claims struct {
		Subject string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, fmt.Errorf("google profile parse failed: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("google id_token missing subject")
	}

	return &provider.Profile{
		Provider:    providerName,
		Identifier:  claims.Subject,
		DisplayName: claims.Name,
		Email:       claims.Email,
		PhotoURL:    claims.Picture,
	}, nil
}
