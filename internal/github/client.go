// Package github provides a minimal, pre-authenticated client for the GitHub
// REST API. It exposes one method per HTTP verb the tools need and returns the
// raw JSON body, leaving interpretation to the caller.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const (
	// DefaultBaseURL is the public GitHub API endpoint.
	DefaultBaseURL = "https://api.github.com"

	// DefaultAPIVersion pins the REST API version sent with every request.
	DefaultAPIVersion = "2022-11-28"

	// DefaultUserAgent identifies this adapter to GitHub.
	DefaultUserAgent = "github-mcp"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 32 << 20

// Config holds the settings needed to build a Client.
type Config struct {
	// BaseURL is the API root. Defaults to DefaultBaseURL. Must use HTTPS.
	BaseURL string

	// Token is a personal access token or fine-grained token. Required.
	Token string

	// APIVersion is sent as X-GitHub-Api-Version. Defaults to DefaultAPIVersion.
	APIVersion string

	// UserAgent defaults to DefaultUserAgent.
	UserAgent string

	// HTTPClient is used for all requests. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client is bound to one base URL and one credential for its whole lifetime.
// All fields are read-only after NewClient returns, so a Client is safe for
// concurrent use.
type Client struct {
	baseURL    string
	authHeader string
	apiVersion string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient validates cfg and returns a Client. It fails when no token is
// configured or when the base URL is not HTTPS.
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("github: API client requires HTTPS (got %q)", baseURL)
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("github: no token configured")
	}

	c := &Client{
		baseURL:    baseURL,
		authHeader: "Bearer " + cfg.Token,
		apiVersion: cfg.APIVersion,
		userAgent:  cfg.UserAgent,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}
	if c.apiVersion == "" {
		c.apiVersion = DefaultAPIVersion
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// BaseURL returns the API root the client is bound to.
func (c *Client) BaseURL() string { return c.baseURL }

// Get issues a GET for path, relative to the base URL.
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST for path with body JSON-encoded.
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

// Put issues a PUT for path with body JSON-encoded.
func (c *Client) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

// do performs a single attempt. Every failure that involves the upstream
// (non-2xx status, network error, unreadable body) is returned as *APIError.
// Only local faults, such as a body that cannot be encoded, are returned as
// plain errors.
func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("github: encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("github: creating request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", c.apiVersion)
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "github request failed", "method", method, "path", path, "error", err)
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "reading response body: " + err.Error()}
	}

	c.logger.DebugContext(ctx, "github request", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseAPIError(resp.StatusCode, raw)
	}
	return decodeBody(resp.StatusCode, raw)
}

// decodeBody returns the body as JSON. An empty body is reported as null.
func decodeBody(status int, raw []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(trimmed) {
		return nil, &APIError{StatusCode: status, Message: "response body is not valid JSON"}
	}
	return json.RawMessage(trimmed), nil
}
