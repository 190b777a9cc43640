// Package auth implements the authentication session manager for the
// campus CLI.
//
// The Manager owns the single session of the running process: it drives
// the interactive browser login (authorization-code grant with PKCE),
// persists credentials through the credential store, and transparently
// refreshes expired access tokens for every caller that needs one.
//
// Collaborators depend on the core through two operations only:
// Authorize (start an interactive login) and FreshToken (obtain a
// currently-valid access token). FreshToken is the hot path and is safe
// for concurrent use; at most one refresh exchange is in flight at a
// time, no matter how many callers ask simultaneously.
package auth
