// Package provider defines the contract every external identity
// provider adapter implements, plus the registry that dispatches on
// provider name. Adapters return identity facts only; member lookup,
// linking and session creation happen elsewhere.
package provider

import "context"

// Profile is the normalized identity returned by every adapter.
// Optional fields default to the empty string when a provider omits them.
type Profile struct {
	Provider    string
	Identifier  string // provider-scoped unique id
	DisplayName string
	Email       string
	PhotoURL    string
	ProfileURL  string
}

// TokenResponse is the result of a code exchange.
type TokenResponse struct {
	AccessToken  string
	TokenType    string
	RefreshToken string
	IDToken      string
	ExpiresIn    int64
}

// ExchangeOptions carries per-flow parameters some providers require.
type ExchangeOptions struct {
	// CodeVerifier is the PKCE verifier, set only for adapters that
	// advertised a code challenge at authorization time.
	CodeVerifier string
}

// Adapter is the common capability contract.
type Adapter interface {
	// Name returns the provider identifier (e.g. "naver", "kakao").
	Name() string

	// AuthorizationURL builds the provider authorize URL carrying the
	// opaque state.
	AuthorizationURL(ctx context.Context, state string) (string, error)

	// ExchangeCode exchanges the authorization code for provider
	// credentials. Upstream failures surface as *UpstreamError.
	ExchangeCode(ctx context.Context, code string, opts ExchangeOptions) (*TokenResponse, error)

	// GetUserProfile returns the normalized profile for the exchanged
	// credentials.
	GetUserProfile(ctx context.Context, token *TokenResponse) (*Profile, error)
}

// PKCEAdapter is implemented by adapters whose authorization request
// must carry an S256 code challenge. Callers dispatch on this
// capability, not on concrete types.
type PKCEAdapter interface {
	Adapter
	AuthorizationURLWithPKCE(ctx context.Context, state, codeChallenge string) (string, error)
}
