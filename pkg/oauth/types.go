package oauth

import (
	"time"

	"golang.org/x/oauth2"
)

// DefaultScope is the scope requested during authorization. It covers
// identity (openid), profile data, the email claim used for the cached
// identity, and offline_access so the provider issues a refresh token.
const DefaultScope = "openid profile email offline_access"

// Endpoints holds the provider endpoints the client talks to.
// They are either discovered from the issuer's well-known configuration
// or pinned explicitly in the configuration file.
type Endpoints struct {
	// Issuer is the base URL of the identity provider.
	Issuer string `json:"issuer"`

	// Authorization is the authorization endpoint (browser redirect, GET).
	Authorization string `json:"authorization_endpoint"`

	// Token is the token endpoint (POST, form-encoded).
	Token string `json:"token_endpoint"`

	// Userinfo is the userinfo endpoint (GET, bearer auth).
	Userinfo string `json:"userinfo_endpoint,omitempty"`

	// EndSession is the RP-initiated logout endpoint (browser redirect, GET).
	EndSession string `json:"end_session_endpoint,omitempty"`
}

// Complete reports whether the endpoints needed for an authorization-code
// flow are all present. Userinfo and EndSession are optional.
func (e *Endpoints) Complete() bool {
	return e != nil && e.Authorization != "" && e.Token != ""
}

// tokenResponse is the JSON body returned by the token endpoint for both
// the authorization-code and refresh-token grants.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	Scope        string `json:"scope"`
}

// toToken converts a token endpoint response into an oauth2.Token,
// computing the absolute expiry from expires_in at time of receipt.
// The ID token, when present, is carried in the token's extra data.
func (r *tokenResponse) toToken(now time.Time) *oauth2.Token {
	token := &oauth2.Token{
		AccessToken:  r.AccessToken,
		TokenType:    r.TokenType,
		RefreshToken: r.RefreshToken,
	}

	if r.ExpiresIn > 0 {
		token.Expiry = now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}

	if r.IDToken != "" {
		token = token.WithExtra(map[string]interface{}{
			"id_token": r.IDToken,
		})
	}

	return token
}

// IDToken extracts the OIDC ID token from a token's extra data.
// Returns "" when the provider did not issue one.
func IDToken(token *oauth2.Token) string {
	if token == nil {
		return ""
	}
	if raw, ok := token.Extra("id_token").(string); ok {
		return raw
	}
	return ""
}

// UserInfo holds the identity claims fetched from the userinfo endpoint.
// Only the email claim is used; it becomes the session's cached identity.
type UserInfo struct {
	Email string `json:"email"`
}
