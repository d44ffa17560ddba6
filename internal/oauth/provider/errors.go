package provider

import (
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// UpstreamError reports a non-success response from a provider
// endpoint, preserving status and body for server-side diagnostics.
// Handlers surface it to the user as a generic oauth_error only.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream error: status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// WrapExchangeError converts x/oauth2 token-endpoint failures into
// UpstreamError; other errors pass through wrapped.
func WrapExchangeError(provider string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return &UpstreamError{
			Provider:   provider,
			StatusCode: status,
			Body:       string(re.Body),
		}
	}
	return fmt.Errorf("%s token exchange failed: %w", provider, err)
}
