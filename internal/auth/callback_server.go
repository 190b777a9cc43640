package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// DefaultCallbackPort is the default port for the local callback server.
const DefaultCallbackPort = 3000

// CallbackResult represents the query parameters of an authorization
// redirect.
type CallbackResult struct {
	// Code is the authorization code from the provider.
	Code string

	// State is the state parameter to verify against the original request.
	State string

	// Error is the error code if the authorization failed.
	Error string

	// ErrorDescription is a human-readable error description.
	ErrorDescription string
}

// IsError returns true if the callback result represents an error.
func (r *CallbackResult) IsError() bool {
	return r.Error != ""
}

// ParseCallbackURL extracts a CallbackResult from a redirect URL, whether
// it arrived over the loopback server or was handed to Resume directly.
func ParseCallbackURL(rawURL string) (*CallbackResult, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("malformed callback URL: %w", err)
	}

	query := parsed.Query()
	return &CallbackResult{
		Code:             query.Get("code"),
		State:            query.Get("state"),
		Error:            query.Get("error"),
		ErrorDescription: query.Get("error_description"),
	}, nil
}

const callbackSuccessHTML = `<!DOCTYPE html>
<html>
<head><title>Signed in</title></head>
<body>
<h1>Signed in</h1>
<p>You can close this window and return to the terminal.</p>
</body>
</html>`

const callbackErrorHTML = `<!DOCTYPE html>
<html>
<head><title>Sign-in failed</title></head>
<body>
<h1>Sign-in failed</h1>
<p>Return to the terminal for details, then try again.</p>
</body>
</html>`

// CallbackServer is a temporary local HTTP server that receives a single
// authorization redirect, hands it to its owner, then shuts down.
type CallbackServer struct {
	port      int
	server    *http.Server
	listener  net.Listener
	resultCh  chan *CallbackResult
	errorCh   chan error
	once      sync.Once
	serverURL string
}

// NewCallbackServer creates a new callback server on the specified port.
// Port 0 falls back to DefaultCallbackPort.
func NewCallbackServer(port int) *CallbackServer {
	if port == 0 {
		port = DefaultCallbackPort
	}

	return &CallbackServer{
		port:     port,
		resultCh: make(chan *CallbackResult, 1),
		errorCh:  make(chan error, 1),
	}
}

// Start begins listening for the authorization redirect. The server stops
// when the context is cancelled. Returns the redirect URI to use in the
// authorization request.
func (s *CallbackServer) Start(ctx context.Context) (string, error) {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to start callback server on %s: %w", addr, err)
	}

	s.listener = listener
	s.port = listener.Addr().(*net.TCPAddr).Port
	s.serverURL = fmt.Sprintf("http://localhost:%d", s.port)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			select {
			case s.errorCh <- err:
			default:
			}
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return s.serverURL + "/callback", nil
}

// Wait blocks until the redirect arrives, the server fails, or the
// context is done.
func (s *CallbackServer) Wait(ctx context.Context) (*CallbackResult, error) {
	select {
	case result := <-s.resultCh:
		return result, nil
	case err := <-s.errorCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Deliver resolves the pending wait with an externally received redirect,
// e.g. one routed to the application through a registered URL scheme.
// Only the first delivery wins; later ones are no-ops.
func (s *CallbackServer) Deliver(result *CallbackResult) {
	s.once.Do(func() {
		s.resultCh <- result
	})
}

// handleCallback handles the authorization redirect over loopback HTTP.
func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")

	query := r.URL.Query()
	result := &CallbackResult{
		Code:             query.Get("code"),
		State:            query.Get("state"),
		Error:            query.Get("error"),
		ErrorDescription: query.Get("error_description"),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if result.IsError() {
		fmt.Fprint(w, callbackErrorHTML)
	} else {
		fmt.Fprint(w, callbackSuccessHTML)
	}

	s.Deliver(result)

	// Give the response time to flush before tearing the server down.
	go func() {
		time.Sleep(1 * time.Second)
		s.Stop()
	}()
}

// Stop gracefully shuts down the callback server.
func (s *CallbackServer) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

// RedirectURI returns the redirect URI served by this server.
func (s *CallbackServer) RedirectURI() string {
	return s.serverURL + "/callback"
}

// Port returns the port the server is listening on.
func (s *CallbackServer) Port() int {
	return s.port
}
