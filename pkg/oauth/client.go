package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultEndpointsCacheTTL is the default TTL for cached endpoint
	// discovery results.
	DefaultEndpointsCacheTTL = 30 * time.Minute
)

// endpointsCacheEntry holds discovered endpoints with their timestamp.
type endpointsCacheEntry struct {
	endpoints *Endpoints
	fetchedAt time.Time
}

// Client performs the token-endpoint round trips and endpoint discovery
// for a single OAuth client ID.
type Client struct {
	clientID   string
	httpClient *http.Client
	logger     *slog.Logger

	// Discovery cache with mutex for thread safety.
	endpointsMu    sync.RWMutex
	endpointsCache map[string]*endpointsCacheEntry
	endpointsTTL   time.Duration

	// singleflight group to deduplicate concurrent discovery fetches.
	discoveryGroup singleflight.Group

	// now is replaceable for tests.
	now func() time.Time
}

// ClientOption configures the OAuth client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithEndpointsCacheTTL sets the discovery cache TTL.
func WithEndpointsCacheTTL(ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.endpointsTTL = ttl
	}
}

// NewClient creates a new OAuth client for the given client ID.
func NewClient(clientID string, opts ...ClientOption) *Client {
	c := &Client{
		clientID:       clientID,
		httpClient:     &http.Client{Timeout: DefaultHTTPTimeout},
		logger:         slog.Default(),
		endpointsCache: make(map[string]*endpointsCacheEntry),
		endpointsTTL:   DefaultEndpointsCacheTTL,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ClientID returns the OAuth client ID this client authenticates as.
func (c *Client) ClientID() string {
	return c.clientID
}

// DiscoverEndpoints fetches provider endpoints from the issuer's OpenID
// Connect well-known configuration. Results are cached with a TTL, and
// concurrent fetches for the same issuer are deduplicated.
func (c *Client) DiscoverEndpoints(ctx context.Context, issuer string) (*Endpoints, error) {
	issuer = strings.TrimSuffix(issuer, "/")

	// Check cache first with read lock
	c.endpointsMu.RLock()
	if entry, ok := c.endpointsCache[issuer]; ok {
		if time.Since(entry.fetchedAt) < c.endpointsTTL {
			c.endpointsMu.RUnlock()
			return entry.endpoints, nil
		}
	}
	c.endpointsMu.RUnlock()

	result, err, _ := c.discoveryGroup.Do(issuer, func() (interface{}, error) {
		// Double-check cache after acquiring the singleflight lock
		c.endpointsMu.RLock()
		if entry, ok := c.endpointsCache[issuer]; ok {
			if time.Since(entry.fetchedAt) < c.endpointsTTL {
				c.endpointsMu.RUnlock()
				return entry.endpoints, nil
			}
		}
		c.endpointsMu.RUnlock()

		return c.doDiscoverEndpoints(ctx, issuer)
	})

	if err != nil {
		return nil, err
	}

	return result.(*Endpoints), nil
}

// doDiscoverEndpoints performs the actual HTTP fetch of the well-known
// configuration document.
func (c *Client) doDiscoverEndpoints(ctx context.Context, issuer string) (*Endpoints, error) {
	wellKnownURL := issuer + "/.well-known/openid-configuration"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wellKnownURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to discover endpoints for %s: %w", issuer, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("endpoint discovery for %s failed with status %d", issuer, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var endpoints Endpoints
	if err := json.Unmarshal(body, &endpoints); err != nil {
		return nil, fmt.Errorf("failed to parse discovery document: %w", err)
	}

	if !endpoints.Complete() {
		return nil, fmt.Errorf("discovery document for %s is missing required endpoints", issuer)
	}

	c.endpointsMu.Lock()
	c.endpointsCache[issuer] = &endpointsCacheEntry{
		endpoints: &endpoints,
		fetchedAt: time.Now(),
	}
	c.endpointsMu.Unlock()

	c.logger.Debug("Discovered provider endpoints",
		"issuer", issuer,
		"authorization_endpoint", endpoints.Authorization,
		"token_endpoint", endpoints.Token)

	return &endpoints, nil
}

// ExchangeCode exchanges an authorization code for tokens using the PKCE
// verifier that produced the code's challenge.
func (c *Client) ExchangeCode(ctx context.Context, endpoints *Endpoints, code, verifier, redirectURI string) (*oauth2.Token, error) {
	data := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {c.clientID},
		"code":          {code},
		"redirect_uri":  {redirectURI},
		"code_verifier": {verifier},
	}

	return c.doTokenRequest(ctx, endpoints.Token, data)
}

// ExchangeRefresh obtains a new access token using a refresh token.
// Returns ErrMissingRefreshToken without a network round trip when no
// refresh token is held.
func (c *Client) ExchangeRefresh(ctx context.Context, endpoints *Endpoints, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, ErrMissingRefreshToken
	}

	data := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {c.clientID},
		"refresh_token": {refreshToken},
	}

	return c.doTokenRequest(ctx, endpoints.Token, data)
}

// doTokenRequest performs a form-encoded POST to the token endpoint and
// decodes the token response.
func (c *Client) doTokenRequest(ctx context.Context, tokenEndpoint string, data url.Values) (*oauth2.Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenEndpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TokenExchangeError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TokenExchangeError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("Token request failed",
			"grant_type", data.Get("grant_type"),
			"status", resp.StatusCode)
		return nil, &TokenExchangeError{Status: resp.StatusCode, Body: truncateBody(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, &TokenExchangeError{Err: fmt.Errorf("failed to parse token response: %w", err)}
	}

	return tr.toToken(c.now()), nil
}

// FetchUserInfo fetches identity claims from the userinfo endpoint using
// the given access token.
func (c *Client) FetchUserInfo(ctx context.Context, endpoints *Endpoints, accessToken string) (*UserInfo, error) {
	if endpoints.Userinfo == "" {
		return nil, fmt.Errorf("provider has no userinfo endpoint")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoints.Userinfo, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request failed with status %d", resp.StatusCode)
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to parse userinfo response: %w", err)
	}

	return &info, nil
}

// BuildAuthorizationURL constructs the authorization URL the browser is
// sent to at the start of an interactive login.
func (c *Client) BuildAuthorizationURL(endpoints *Endpoints, redirectURI, state, scope string, pkce *PKCEChallenge) (string, error) {
	authURL, err := url.Parse(endpoints.Authorization)
	if err != nil {
		return "", fmt.Errorf("invalid authorization endpoint: %w", err)
	}

	query := authURL.Query()
	query.Set("response_type", "code")
	query.Set("client_id", c.clientID)
	query.Set("redirect_uri", redirectURI)
	query.Set("state", state)
	query.Set("scope", scope)
	query.Set("code_challenge", pkce.CodeChallenge)
	query.Set("code_challenge_method", pkce.CodeChallengeMethod)

	authURL.RawQuery = query.Encode()
	return authURL.String(), nil
}

// BuildEndSessionURL constructs the RP-initiated logout URL, hinting the
// provider with the session's ID token.
func (c *Client) BuildEndSessionURL(endpoints *Endpoints, idToken, postLogoutRedirectURI string) (string, error) {
	if endpoints.EndSession == "" {
		return "", fmt.Errorf("provider has no end-session endpoint")
	}

	endURL, err := url.Parse(endpoints.EndSession)
	if err != nil {
		return "", fmt.Errorf("invalid end-session endpoint: %w", err)
	}

	query := endURL.Query()
	query.Set("id_token_hint", idToken)
	query.Set("post_logout_redirect_uri", postLogoutRedirectURI)

	endURL.RawQuery = query.Encode()
	return endURL.String(), nil
}
