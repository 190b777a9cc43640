// Package api is the REST client for the course-management backend.
//
// It depends on the authentication core through a single capability:
// obtaining a currently-valid access token. An empty token means
// "unauthenticated" and short-circuits the request before any network
// traffic; it is how session expiry reaches the command layer.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"campus/internal/cache"
)

// ErrUnauthenticated is returned when no valid session exists. Commands
// react by directing the user to campus auth login, not by retrying.
var ErrUnauthenticated = errors.New("not authenticated - run 'campus auth login'")

// DefaultHTTPTimeout is the default timeout for API requests.
const DefaultHTTPTimeout = 30 * time.Second

// DefaultCacheTTL is how long GET responses are served from cache.
const DefaultCacheTTL = 5 * time.Minute

// TokenSource supplies a currently-valid bearer token, refreshing it
// transparently when needed. Satisfied by *auth.Manager.
type TokenSource interface {
	FreshToken(ctx context.Context) (string, error)
}

// Client talks to the course service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	responses  *cache.Cache[string, []byte]
}

// ClientConfig configures the API client.
type ClientConfig struct {
	// BaseURL is the root of the course service REST API.
	BaseURL string

	// Tokens supplies bearer tokens for every request.
	Tokens TokenSource

	// HTTPClient is an optional custom HTTP client.
	HTTPClient *http.Client

	// CacheTTL overrides the GET response cache TTL. 0 uses the default.
	CacheTTL time.Duration
}

// NewClient creates a course service client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}

	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: httpClient,
		tokens:     cfg.Tokens,
		responses:  cache.New[string, []byte](ttl),
	}
}

// ListCourses returns every course visible to the signed-in user.
func (c *Client) ListCourses(ctx context.Context) ([]Course, error) {
	var courses []Course
	if err := c.get(ctx, "/courses", &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// GetCourse returns one course by ID.
func (c *Client) GetCourse(ctx context.Context, id int64) (*Course, error) {
	var course Course
	if err := c.get(ctx, fmt.Sprintf("/courses/%d", id), &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListLessons returns the lessons of a course.
func (c *Client) ListLessons(ctx context.Context, courseID int64) ([]Lesson, error) {
	var lessons []Lesson
	if err := c.get(ctx, fmt.Sprintf("/courses/%d/lessons", courseID), &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

// GetPointsSummary returns the points earned in a course.
func (c *Client) GetPointsSummary(ctx context.Context, courseID int64) (*PointsSummary, error) {
	var summary PointsSummary
	if err := c.get(ctx, fmt.Sprintf("/courses/%d/points", courseID), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// InvalidateCache drops all cached responses, e.g. after a mutation.
func (c *Client) InvalidateCache() {
	c.responses.Clear()
}

// get performs an authenticated GET, serving repeats from the response
// cache.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	if body, ok := c.responses.Get(path); ok {
		return json.Unmarshal(body, out)
	}

	token, err := c.tokens.FreshToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to obtain access token: %w", err)
	}
	if token == "" {
		// Normal session-expiry signal; never send a request without an
		// Authorization header.
		return ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthenticated
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("request to %s failed with status %d", path, resp.StatusCode)
	}

	c.responses.Set(path, body)

	return json.Unmarshal(body, out)
}
