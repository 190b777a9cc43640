package oauth

import (
	"errors"
	"fmt"
)

// ErrMissingRefreshToken is returned by ExchangeRefresh when no refresh
// token is held. The session manager treats this as "session unrecoverable
// without interactive login", not as a transport failure.
var ErrMissingRefreshToken = errors.New("no refresh token held")

// TokenExchangeError indicates a failed round trip to the token endpoint:
// either a transport error or a non-2xx response.
type TokenExchangeError struct {
	// Status is the HTTP status code, or 0 for transport errors.
	Status int

	// Body is the response body for non-2xx responses, truncated.
	Body string

	// Err is the underlying transport or decode error, if any.
	Err error
}

// Error implements the error interface.
func (e *TokenExchangeError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("token exchange failed with status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("token exchange failed: %v", e.Err)
}

// Unwrap returns the underlying error for errors.Is/As inspection.
func (e *TokenExchangeError) Unwrap() error {
	return e.Err
}

// maxErrorBodyLen bounds how much of an error response body is retained.
const maxErrorBodyLen = 512

func truncateBody(body []byte) string {
	if len(body) > maxErrorBodyLen {
		return string(body[:maxErrorBodyLen]) + "..."
	}
	return string(body)
}
