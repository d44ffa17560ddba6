package provider

import (
	"time"

	"golang.org/x/oauth2"
)

// TokenFromOAuth2 maps an x/oauth2 token onto the adapter contract,
// lifting the id_token extra when the provider returned one.
func TokenFromOAuth2(tok *oauth2.Token) *TokenResponse {
	t := &TokenResponse{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
	}
	if !tok.Expiry.IsZero() {
		t.ExpiresIn = int64(time.Until(tok.Expiry).Seconds())
	}
	if id, ok := tok.Extra("id_token").(string); ok {
		t.IDToken = id
	}
	return t
}
