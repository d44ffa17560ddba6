package apple

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/unstable-code/angple/internal/oauth/credentials"
	"github.com/unstable-code/angple/internal/oauth/provider"
)

const providerName = "apple"

// assertionTTL bounds the validity of a generated client assertion.
const assertionTTL = 5 * time.Minute

// Adapter implements Sign in with Apple. Three protocol deviations
// apply: the client secret is a freshly signed ES256 assertion generated
// at exchange time, the callback arrives as a form post, and the profile
// is decoded from the returned identity token instead of a profile
// endpoint call.
type Adapter struct {
	creds       *credentials.Cache
	redirectURL string

	teamID     string
	keyID      string
	privateKey *ecdsa.PrivateKey

	authURL    string
	tokenURL   string
	audience   string
	httpClient *http.Client
	now        func() time.Time
}

func New(creds *credentials.Cache, redirectURL, teamID, keyID, privateKeyPath string) (*Adapter, error) {
	if teamID == "" || keyID == "" || privateKeyPath == "" {
		return nil, errors.New("apple oauth config missing required fields")
	}

	pemBytes, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read apple private key: %w", err)
	}

	key, err := jwt.ParseECPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse apple private key: %w", err)
	}

	return &Adapter{
		creds:       creds,
		redirectURL: redirectURL,
		teamID:      teamID,
		keyID:       keyID,
		privateKey:  key,
		authURL:     "https://appleid.apple.com/auth/authorize",
		tokenURL:    "https://appleid.apple.com/auth/token",
		audience:    "https://appleid.apple.com",
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		now:         time.Now,
	}, nil
}

func (a *Adapter) Name() string {
	return providerName
}

// AuthorizationURL requests the form-post response mode: Apple delivers
// code and state in a POST body rather than a query-string redirect.
func (a *Adapter) AuthorizationURL(ctx context.Context, state string) (string, error) {
	c, err := a.creds.Get(ctx, providerName)
	if err != nil {
		return "", err
	}

	cfg := &oauth2.Config{
		ClientID:    c.ClientID,
		RedirectURL: a.redirectURL,
		Endpoint:    oauth2.Endpoint{AuthURL: a.authURL},
		Scopes:      []string{"name", "email"},
	}
	return cfg.AuthCodeURL(
		state,
		oauth2.SetAuthURLParam("response_mode", "form_post"),
	), nil
}

// clientAssertion signs a short-lived ES256 assertion identifying the
// application by team (issuer), bundle (subject) and Apple's token
// service (audience).
func (a *Adapter) clientAssertion(clientID string) (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Issuer:    a.teamID,
		Subject:   clientID,
		Audience:  jwt.ClaimStrings{a.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(assertionTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = a.keyID
	return token.SignedString(a.privateKey)
}

// ExchangeCode exchanges the authorization code using a client secret
// generated fresh for this call.
func (a *Adapter) ExchangeCode(ctx context.Context, code string, _ provider.ExchangeOptions) (*provider.TokenResponse, error) {
	c, err := a.creds.Get(ctx, providerName)
	if err != nil {
		return nil, err
	}

	assertion, err := a.clientAssertion(c.ClientID)
	if err != nil {
		return nil, fmt.Errorf("apple client assertion failed: %w", err)
	}

	cfg := &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: assertion,
		RedirectURL:  a.redirectURL,
		Endpoint: oauth2.Endpoint{
			TokenURL:  a.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, provider.WrapExchangeError(providerName, err)
	}

	resp := provider.TokenFromOAuth2(tok)
	if resp.IDToken == "" {
		return nil, errors.New("apple did not return id_token")
	}
	return resp, nil
}

// GetUserProfile decodes the identity token's payload. Its signature is
// trusted as already validated by the direct TLS exchange that returned
// it; no profile endpoint exists. A missing id_token is an error, not an
// empty profile.
func (a *Adapter) GetUserProfile(_ context.Context, token *provider.TokenResponse) (*provider.Profile, error) {
	if token == nil || token.IDToken == "" {
		return nil, errors.New("apple profile requires id_token")
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token.IDToken, claims); err != nil {
		return nil, fmt.Errorf("apple id_token decode failed: %w", err)
	}

	raw, err := json.Marshal(claims)
	if err != nil {
		return nil, err
	}
	return a.ParseUserProfile(raw)
}

// ParseUserProfile maps identity-token claims. Apple sends the user's
// name only in the first authorization response, so DisplayName is
// empty here.
func (a *Adapter) ParseUserProfile(raw []byte) (*provider.Profile, error) {
	var claims struct {
		Subject string `json:"sub"`
		Email   string `json:"email"`
	}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, fmt.Errorf("apple profile parse failed: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("apple id_token missing subject")
	}

	return &provider.Profile{
		Provider:   providerName,
		Identifier: claims.Subject,
		Email:      claims.Email,
	}, nil
}
