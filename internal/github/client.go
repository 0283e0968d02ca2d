package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/jonathan/portfolio-generator/internal/cache"
)

// DefaultBaseURL is the public GitHub REST endpoint
const DefaultBaseURL = "https://api.github.com"

const (
	mediaTypeJSON = "application/vnd.github+json"
	mediaTypeHTML = "application/vnd.github.html"
	apiVersion    = "2022-11-28"
)

// Config configures the client
type Config struct {
	BaseURL           string
	Token             string
	UserAgent         string
	Timeout           time.Duration
	PerPage           int
	MaxPages          int
	RequestsPerSecond float64 // 0 disables pacing
	Burst             int
	// HTTPClient is the base transport; the token source wraps it when Token is set
	HTTPClient *http.Client
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		UserAgent:         "portfolio-generator/1.0",
		Timeout:           30 * time.Second,
		PerPage:           100,
		MaxPages:          10,
		RequestsPerSecond: 10,
		Burst:             10,
	}
}

// Client fetches one user's repositories. It is scoped to a single (userID, username)
// pair so cache entries never leak across users.
type Client struct {
	http     *http.Client
	cfg      Config
	userID   uuid.UUID
	username string
	cache    *cache.Cache
	limiter  *rate.Limiter
	logger   *zap.Logger
	now      func() time.Time
}

// NewClient creates a client for username, caching under userID
func NewClient(ctx context.Context, userID uuid.UUID, username string, cfg Config, c *cache.Cache, logger *zap.Logger) *Client {
	defaults := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = defaults.PerPage
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaults.MaxPages
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Token != "" {
		base := context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(base, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
		httpClient.Timeout = cfg.Timeout
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		http:     httpClient,
		cfg:      cfg,
		userID:   userID,
		username: username,
		cache:    c,
		limiter:  limiter,
		logger:   logger.With(zap.Stringer("user_id", userID), zap.String("github_user", username)),
		now:      time.Now,
	}
}

// get issues a GET and returns the body and headers. Non-2xx responses become *APIError.
func (c *Client) get(ctx context.Context, path string, query url.Values, accept string) ([]byte, http.Header, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if accept == "" {
		accept = mediaTypeJSON
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("github request %s failed: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body for %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			StatusCode:         resp.StatusCode,
			URL:                path,
			RateLimitExhausted: resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0",
		}
		var payload struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &payload) == nil {
			apiErr.Message = payload.Message
		}
		return nil, resp.Header, apiErr
	}
	return body, resp.Header, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) (http.Header, error) {
	body, header, err := c.get(ctx, path, query, mediaTypeJSON)
	if err != nil {
		return header, err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return header, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return header, nil
}

func (c *Client) repoPath(name string, parts ...string) string {
	p := "/repos/" + url.PathEscape(c.username) + "/" + url.PathEscape(name)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}
