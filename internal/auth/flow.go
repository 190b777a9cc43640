package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"campus/pkg/oauth"
)

// CallbackTimeout is how long an authorization attempt waits for the
// browser redirect before it is abandoned.
const CallbackTimeout = 10 * time.Minute

// endSessionTimeout bounds the best-effort logout redirect. Logout never
// depends on this round trip succeeding.
const endSessionTimeout = 1 * time.Minute

// Flow drives the interactive authorization round trip through the
// external user-agent: it opens the system browser at the authorization
// endpoint and captures the redirect on a loopback callback server.
//
// Only one attempt is awaiting a callback at a time. Starting a new
// attempt supersedes the old one; a stale redirect for a superseded
// attempt is ignored.
type Flow struct {
	client      *oauth.Client
	port        int
	openBrowser func(url string) error
	onAuthURL   func(url string)
	timeout     time.Duration
	logger      *slog.Logger

	mu      sync.Mutex
	current *attempt
}

// attempt is one in-flight authorization round trip.
type attempt struct {
	id     uuid.UUID
	state  string
	server *CallbackServer
	cancel context.CancelFunc
}

// FlowConfig configures the interactive flow.
type FlowConfig struct {
	// Client performs protocol operations and builds URLs.
	Client *oauth.Client

	// CallbackPort is the loopback port for the redirect. 0 uses the
	// default.
	CallbackPort int

	// OpenBrowser opens a URL in the external user-agent. Nil uses the
	// system browser.
	OpenBrowser func(url string) error

	// OnAuthURL, if set, receives the authorization URL once it is built,
	// so the caller can print it for copy/paste when the browser fails to
	// open.
	OnAuthURL func(url string)

	// Timeout bounds the wait for the redirect. 0 uses CallbackTimeout.
	Timeout time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// NewFlow creates an interactive authorization flow.
func NewFlow(cfg FlowConfig) *Flow {
	f := &Flow{
		client:      cfg.Client,
		port:        cfg.CallbackPort,
		openBrowser: cfg.OpenBrowser,
		onAuthURL:   cfg.OnAuthURL,
		timeout:     cfg.Timeout,
		logger:      cfg.Logger,
	}
	if f.openBrowser == nil {
		f.openBrowser = OpenBrowser
	}
	if f.timeout == 0 {
		f.timeout = CallbackTimeout
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Authorize runs one full interactive round trip: it opens the browser at
// the authorization endpoint and blocks until the redirect arrives, the
// timeout elapses, or ctx is cancelled. On success it returns the
// authorization code and the redirect URI that must accompany the code
// exchange.
func (f *Flow) Authorize(ctx context.Context, endpoints *oauth.Endpoints, pkce *oauth.PKCEChallenge, state string) (code, redirectURI string, err error) {
	att, redirectURI, err := f.begin(ctx, endpoints, pkce, state)
	if err != nil {
		return "", "", err
	}
	defer f.finish(att)

	waitCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	result, err := att.server.Wait(waitCtx)
	if err != nil {
		return "", "", fmt.Errorf("callback failed: %w", err)
	}

	// The callback must be bound to the request that produced it.
	if result.State != att.state {
		f.logger.Warn("Authorization state mismatch detected",
			"attempt_id", att.id.String(),
			"expected_state_len", len(att.state),
			"received_state_len", len(result.State),
		)
		return "", "", ErrStateMismatch
	}

	if result.IsError() {
		f.logger.Warn("Authorization denied by provider",
			"attempt_id", att.id.String(),
			"error", result.Error,
		)
		return "", "", &AuthorizationDeniedError{Code: result.Error, Description: result.ErrorDescription}
	}

	if result.Code == "" {
		return "", "", ErrInvalidCallback
	}

	return result.Code, redirectURI, nil
}

// begin starts the callback server, builds the authorization URL, and
// opens the browser. Any pending attempt is superseded.
func (f *Flow) begin(ctx context.Context, endpoints *oauth.Endpoints, pkce *oauth.PKCEChallenge, state string) (*attempt, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.supersedeLocked()

	attemptCtx, cancel := context.WithCancel(ctx)
	server := NewCallbackServer(f.port)

	redirectURI, err := server.Start(attemptCtx)
	if err != nil {
		cancel()
		return nil, "", err
	}

	att := &attempt{
		id:     uuid.New(),
		state:  state,
		server: server,
		cancel: cancel,
	}
	f.current = att

	authURL, err := f.client.BuildAuthorizationURL(endpoints, redirectURI, state, oauth.DefaultScope, pkce)
	if err != nil {
		f.supersedeLocked()
		return nil, "", fmt.Errorf("failed to build authorization URL: %w", err)
	}

	if f.onAuthURL != nil {
		f.onAuthURL(authURL)
	}

	f.logger.Debug("Starting interactive authorization",
		"attempt_id", att.id.String(),
		"redirect_uri", redirectURI,
	)

	if err := f.openBrowser(authURL); err != nil {
		// Not fatal: the user can still open the printed URL by hand.
		f.logger.Warn("Failed to open browser", "error", err.Error())
	}

	return att, redirectURI, nil
}

// finish returns the flow to idle if the given attempt is still current.
func (f *Flow) finish(att *attempt) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.current == att {
		f.supersedeLocked()
	}
}

// supersedeLocked cancels and discards the current attempt.
// Must be called with f.mu held.
func (f *Flow) supersedeLocked() {
	if f.current != nil {
		f.current.server.Stop()
		f.current.cancel()
		f.current = nil
	}
}

// Resume hands an externally received redirect URL to the pending
// attempt. This is the entry point for redirects that arrive through an
// OS-registered URL scheme rather than the loopback server.
//
// A redirect whose state does not match the pending attempt belongs to a
// superseded attempt and is ignored. Returns ErrNoPendingAttempt when no
// attempt is awaiting a callback.
func (f *Flow) Resume(rawURL string) error {
	result, err := ParseCallbackURL(rawURL)
	if err != nil {
		return err
	}

	f.mu.Lock()
	att := f.current
	f.mu.Unlock()

	if att == nil {
		return ErrNoPendingAttempt
	}

	if result.State != att.state {
		f.logger.Debug("Ignoring callback for superseded attempt",
			"attempt_id", att.id.String(),
		)
		return nil
	}

	att.server.Deliver(result)
	return nil
}

// Pending reports whether an attempt is awaiting a callback.
func (f *Flow) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current != nil
}

// EndSession performs the best-effort RP-initiated logout round trip:
// it opens the provider's end-session endpoint in the browser with the
// session's ID token as a hint and waits briefly for the redirect back.
func (f *Flow) EndSession(ctx context.Context, endpoints *oauth.Endpoints, idToken string) error {
	waitCtx, cancel := context.WithTimeout(ctx, endSessionTimeout)
	defer cancel()

	server := NewCallbackServer(f.port)
	redirectURI, err := server.Start(waitCtx)
	if err != nil {
		return err
	}
	defer server.Stop()

	endURL, err := f.client.BuildEndSessionURL(endpoints, idToken, redirectURI)
	if err != nil {
		return err
	}

	if err := f.openBrowser(endURL); err != nil {
		return fmt.Errorf("failed to open browser for end-session: %w", err)
	}

	if _, err := server.Wait(waitCtx); err != nil {
		return fmt.Errorf("end-session redirect not received: %w", err)
	}

	return nil
}
