package auth

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"campus/internal/credstore"
	"campus/pkg/oauth"
)

// userinfoTimeout bounds the asynchronous identity fetch after login.
const userinfoTimeout = 30 * time.Second

// TokenExchanger is the subset of the protocol client the manager needs.
// Satisfied by *oauth.Client; stubbed in tests.
type TokenExchanger interface {
	ExchangeCode(ctx context.Context, endpoints *oauth.Endpoints, code, verifier, redirectURI string) (*oauth2.Token, error)
	ExchangeRefresh(ctx context.Context, endpoints *oauth.Endpoints, refreshToken string) (*oauth2.Token, error)
	FetchUserInfo(ctx context.Context, endpoints *oauth.Endpoints, accessToken string) (*oauth.UserInfo, error)
}

// AuthorizationFlow drives the interactive browser round trip.
// Satisfied by *Flow; stubbed in tests.
type AuthorizationFlow interface {
	Authorize(ctx context.Context, endpoints *oauth.Endpoints, pkce *oauth.PKCEChallenge, state string) (code, redirectURI string, err error)
	EndSession(ctx context.Context, endpoints *oauth.Endpoints, idToken string) error
}

// EndpointsSource resolves the provider endpoints, either from pinned
// configuration or via discovery.
type EndpointsSource func(ctx context.Context) (*oauth.Endpoints, error)

// StaticEndpoints returns an EndpointsSource that always yields the given
// endpoints. Used when the configuration pins them explicitly.
func StaticEndpoints(endpoints *oauth.Endpoints) EndpointsSource {
	return func(context.Context) (*oauth.Endpoints, error) {
		return endpoints, nil
	}
}

// DiscoveredEndpoints returns an EndpointsSource backed by provider
// discovery against the given issuer. The client caches the discovery
// document, so repeated resolution is cheap.
func DiscoveredEndpoints(client *oauth.Client, issuer string) EndpointsSource {
	return func(ctx context.Context) (*oauth.Endpoints, error) {
		return client.DiscoverEndpoints(ctx, issuer)
	}
}

// Manager owns the single session of the running process. All mutations
// to the session go through the manager; collaborators read it only via
// FreshToken and IsAuthorized.
//
// There is exactly one Manager per process, constructed at the
// composition root and passed explicitly to every collaborator.
type Manager struct {
	exchanger TokenExchanger
	flow      AuthorizationFlow
	store     credstore.Store
	endpoints EndpointsSource
	logger    *slog.Logger
	now       func() time.Time

	mu          sync.RWMutex
	session     Session
	authorizing bool

	// refreshGroup guarantees at most one refresh exchange in flight:
	// concurrent FreshToken callers share the single exchange's result.
	refreshGroup singleflight.Group
}

// ManagerConfig configures the session manager.
type ManagerConfig struct {
	Exchanger TokenExchanger
	Flow      AuthorizationFlow
	Store     credstore.Store
	Endpoints EndpointsSource

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// NewManager creates the session manager and restores any persisted
// session from the credential store. A partially-present store (refresh
// token held, access token missing or expired) restores as signed-in
// needing refresh, not as corrupted.
func NewManager(cfg ManagerConfig) *Manager {
	m := &Manager{
		exchanger: cfg.Exchanger,
		flow:      cfg.Flow,
		store:     cfg.Store,
		endpoints: cfg.Endpoints,
		logger:    cfg.Logger,
		now:       time.Now,
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}

	m.session = m.restore()
	return m
}

// restore loads every session field from the credential store. Missing
// keys leave their fields empty; read errors are logged and treated as
// missing.
func (m *Manager) restore() Session {
	var sess Session

	sess.AccessToken = m.loadString(credstore.KeyAccessToken)
	sess.RefreshToken = m.loadString(credstore.KeyRefreshToken)
	sess.IDToken = m.loadString(credstore.KeyIDToken)
	sess.Email = m.loadString(credstore.KeyEmail)

	if raw := m.loadString(credstore.KeyExpiresAt); raw != "" {
		epoch, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			m.logger.Warn("Stored expiry is malformed, treating access token as expired",
				"value_len", len(raw))
		} else {
			sess.ExpiresAt = time.Unix(epoch, 0)
		}
	}

	if !sess.Empty() {
		m.logger.Debug("Restored session from credential store",
			"has_access_token", sess.AccessToken != "",
			"has_refresh_token", sess.RefreshToken != "",
		)
	}

	return sess
}

func (m *Manager) loadString(key string) string {
	value, err := m.store.Load(key)
	if err != nil {
		if !errors.Is(err, credstore.ErrNotFound) {
			m.logger.Warn("Failed to read credential", "key", key, "error", err.Error())
		}
		return ""
	}
	return string(value)
}

// Authorize runs the interactive login: PKCE generation, the browser
// round trip, the code exchange, and atomic persistence of the new
// credential set. The cached identity is then populated asynchronously;
// a failed userinfo fetch does not fail the login.
//
// A second Authorize while one is in flight is a no-op.
func (m *Manager) Authorize(ctx context.Context) error {
	m.mu.Lock()
	if m.authorizing {
		m.mu.Unlock()
		m.logger.Debug("Authorize called while a login is already in flight")
		return nil
	}
	m.authorizing = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.authorizing = false
		m.mu.Unlock()
	}()

	endpoints, err := m.endpoints(ctx)
	if err != nil {
		return err
	}

	// The verifier lives only inside this call. Every return path below
	// drops it, fulfilled or not; it is never persisted.
	pkce, err := oauth.GeneratePKCE()
	if err != nil {
		return err
	}

	state, err := oauth.GenerateState()
	if err != nil {
		return err
	}

	code, redirectURI, err := m.flow.Authorize(ctx, endpoints, pkce, state)
	if err != nil {
		return err
	}

	token, err := m.exchanger.ExchangeCode(ctx, endpoints, code, pkce.CodeVerifier, redirectURI)
	if err != nil {
		return err
	}

	next := Session{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		IDToken:      oauth.IDToken(token),
		ExpiresAt:    token.Expiry,
	}
	m.publish(next)

	m.logger.Info("Signed in",
		"expiry", next.ExpiresAt.Format(time.RFC3339),
		"has_refresh_token", next.RefreshToken != "",
	)

	go m.populateEmail(endpoints, next.AccessToken)

	return nil
}

// populateEmail fetches the userinfo email and caches it, in memory and
// in the store. Failure leaves Email empty until the next login.
func (m *Manager) populateEmail(endpoints *oauth.Endpoints, accessToken string) {
	ctx, cancel := context.WithTimeout(context.Background(), userinfoTimeout)
	defer cancel()

	info, err := m.exchanger.FetchUserInfo(ctx, endpoints, accessToken)
	if err != nil {
		m.logger.Warn("Failed to fetch user identity", "error", err.Error())
		return
	}

	m.mu.Lock()
	// The session may have been replaced or cleared while the fetch ran.
	if m.session.AccessToken != accessToken {
		m.mu.Unlock()
		return
	}
	m.session.Email = info.Email
	m.mu.Unlock()

	if err := m.store.Save(credstore.KeyEmail, []byte(info.Email)); err != nil {
		m.logger.Warn("Failed to persist cached identity", "error", err.Error())
	}
}

// FreshToken returns a currently-valid bearer token, refreshing it first
// if the held one is expired. An expiry exactly at now counts as expired.
//
// When no refresh token is held the session is cleared and ("", nil) is
// returned: the empty token is the normal session-expiry signal, not an
// error. Transient exchange failures leave the session intact and return
// the error so the caller can retry.
//
// Safe for concurrent use; at most one refresh exchange is in flight at a
// time, and concurrent callers share its result.
func (m *Manager) FreshToken(ctx context.Context) (string, error) {
	m.mu.RLock()
	sess := m.session
	m.mu.RUnlock()

	if tokenValid(sess, m.now()) {
		return sess.AccessToken, nil
	}

	result, err, _ := m.refreshGroup.Do("refresh", func() (interface{}, error) {
		// Re-check: a refresh that completed while we waited on the
		// group already produced a fresh token.
		m.mu.RLock()
		cur := m.session
		m.mu.RUnlock()

		if tokenValid(cur, m.now()) {
			return cur.AccessToken, nil
		}

		if cur.RefreshToken == "" {
			// Unrecoverable without interactive login. Force sign-out;
			// callers observe the empty token, not an error.
			m.logger.Info("Session has no refresh token, signing out")
			m.clear()
			return "", nil
		}

		endpoints, err := m.endpoints(ctx)
		if err != nil {
			return "", err
		}

		token, err := m.exchanger.ExchangeRefresh(ctx, endpoints, cur.RefreshToken)
		if errors.Is(err, oauth.ErrMissingRefreshToken) {
			m.clear()
			return "", nil
		}
		if err != nil {
			return "", err
		}

		next := cur
		next.AccessToken = token.AccessToken
		next.ExpiresAt = token.Expiry
		// The refresh token is carried forward unless the provider
		// rotated it.
		if token.RefreshToken != "" {
			next.RefreshToken = token.RefreshToken
		}
		if idToken := oauth.IDToken(token); idToken != "" {
			next.IDToken = idToken
		}
		m.publish(next)

		m.logger.Debug("Access token refreshed",
			"expiry", next.ExpiresAt.Format(time.RFC3339))

		return next.AccessToken, nil
	})

	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// tokenValid reports whether the access token can still be used at the
// given instant. An expiry equal to now is expired.
func tokenValid(sess Session, now time.Time) bool {
	return sess.AccessToken != "" && now.Before(sess.ExpiresAt)
}

// Logout ends the session. When an ID token is held it attempts the
// provider's end-session round trip so the provider-side session dies
// too, but local sign-out never depends on that: every field and every
// stored key is cleared regardless, and Logout always returns nil.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.RLock()
	sess := m.session
	m.mu.RUnlock()

	if sess.IDToken != "" {
		endpoints, err := m.endpoints(ctx)
		if err != nil {
			m.logger.Warn("Skipping end-session round trip", "error", err.Error())
		} else if err := m.flow.EndSession(ctx, endpoints, sess.IDToken); err != nil {
			m.logger.Warn("End-session round trip failed", "error", err.Error())
		}
	}

	m.clear()
	m.logger.Info("Signed out")
	return nil
}

// IsAuthorized reports whether the cached identity matches user. This is
// a pure read of the cached email, not a live server assertion.
func (m *Manager) IsAuthorized(user string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Email != "" && m.session.Email == user
}

// Status returns a read-only view of the session for display.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state := StateSignedOut
	switch {
	case m.authorizing:
		state = StateAuthorizing
	case m.session.AccessToken != "" || m.session.RefreshToken != "":
		state = StateSignedIn
	}

	return Status{
		State:           state,
		Email:           m.session.Email,
		ExpiresAt:       m.session.ExpiresAt,
		HasRefreshToken: m.session.RefreshToken != "",
	}
}

// publish makes a new credential set current: it writes every value to
// the store first, then swaps the in-memory snapshot, so no reader ever
// observes a half-updated session. A storage failure is logged but does
// not fail the in-memory sign-in; the next process start will simply
// require re-authorization.
func (m *Manager) publish(next Session) {
	m.persist(next)

	m.mu.Lock()
	m.session = next
	m.mu.Unlock()
}

// persist writes each session field under its own key. Empty fields are
// deleted so a restore reproduces the session exactly.
func (m *Manager) persist(next Session) {
	fields := map[string]string{
		credstore.KeyAccessToken:  next.AccessToken,
		credstore.KeyRefreshToken: next.RefreshToken,
		credstore.KeyIDToken:      next.IDToken,
		credstore.KeyEmail:        next.Email,
	}
	if !next.ExpiresAt.IsZero() {
		fields[credstore.KeyExpiresAt] = strconv.FormatInt(next.ExpiresAt.Unix(), 10)
	} else {
		fields[credstore.KeyExpiresAt] = ""
	}

	for _, key := range credstore.SessionKeys() {
		value := fields[key]
		var err error
		if value == "" {
			err = m.store.Delete(key)
		} else {
			err = m.store.Save(key, []byte(value))
		}
		if err != nil {
			m.logger.Warn("Failed to persist credential", "key", key, "error", err.Error())
		}
	}
}

// clear wipes the session: every store key is deleted, then the in-memory
// snapshot is replaced with the empty session.
func (m *Manager) clear() {
	for _, key := range credstore.SessionKeys() {
		if err := m.store.Delete(key); err != nil {
			m.logger.Warn("Failed to delete credential", "key", key, "error", err.Error())
		}
	}

	m.mu.Lock()
	m.session = Session{}
	m.mu.Unlock()
}
