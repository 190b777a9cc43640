package auth

import "time"

// State is the session manager's position in its lifecycle.
type State int

const (
	// StateSignedOut means no usable credentials are held.
	StateSignedOut State = iota

	// StateAuthorizing means an interactive login is in flight.
	StateAuthorizing

	// StateSignedIn means credentials are held. The access token may be
	// expired; FreshToken refreshes it transparently.
	StateSignedIn
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateSignedOut:
		return "signed_out"
	case StateAuthorizing:
		return "authorizing"
	case StateSignedIn:
		return "signed_in"
	default:
		return "signed_out"
	}
}

// Session is the credential set of the single signed-in user. The Manager
// holds one Session value and replaces it wholesale, so readers never
// observe a half-updated credential set.
//
// The ephemeral PKCE code verifier is deliberately not a field here: it
// lives only inside an in-flight Authorize call and is never persisted.
type Session struct {
	// AccessToken is the bearer credential for API calls.
	AccessToken string

	// RefreshToken mints new access tokens without user interaction.
	// If absent, the session is unrecoverable without Authorize.
	RefreshToken string

	// IDToken is used only as the end-session hint during logout.
	IDToken string

	// ExpiresAt is the absolute expiry of AccessToken.
	ExpiresAt time.Time

	// Email is the cached identity from the userinfo endpoint. It is not
	// authoritative; IsAuthorized compares against this cached value.
	Email string
}

// Empty reports whether the session holds no credentials at all.
func (s Session) Empty() bool {
	return s.AccessToken == "" && s.RefreshToken == "" && s.IDToken == "" &&
		s.ExpiresAt.IsZero() && s.Email == ""
}

// Status is a read-only view of the session for display purposes.
// It never carries token values.
type Status struct {
	State           State
	Email           string
	ExpiresAt       time.Time
	HasRefreshToken bool
}
