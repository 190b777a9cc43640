// Package oauth implements the OAuth 2.1 protocol operations used by the
// campus CLI: PKCE generation, endpoint discovery, authorization-code and
// refresh-token exchange, and userinfo lookup.
//
// The package is a protocol leaf. It holds no session state; the session
// manager in internal/auth orchestrates these operations and owns the
// resulting tokens.
package oauth
