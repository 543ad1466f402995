package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the scorekit HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the given baseURL (e.g., http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests.
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAPIKey adds an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to all calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

// SubmitScore posts a finished game. It reports false without error when the server's
// ranking store is unavailable; validation failures come back as *APIError.
func (c *Client) SubmitScore(ctx context.Context, s ScoreSubmission) (bool, error) {
	if strings.TrimSpace(s.PlayerID) == "" {
		return false, ErrEmptyPlayerID
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return false, err
	}
	resp, err := c.do(ctx, http.MethodPost, "/scores", nil, bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	var body struct {
		Submitted bool `json:"submitted"`
	}
	if err := decodeJSON(resp, &body, http.StatusServiceUnavailable); err != nil {
		return false, err
	}
	return body.Submitted, nil
}

// Leaderboard fetches the ranked entries. A non-empty player flags that player's rows.
func (c *Client) Leaderboard(ctx context.Context, player string) (Leaderboard, error) {
	var q url.Values
	if player != "" {
		q = url.Values{"player": {player}}
	}
	resp, err := c.do(ctx, http.MethodGet, "/leaderboard", q, nil)
	if err != nil {
		return Leaderboard{}, err
	}
	defer resp.Body.Close()

	var lb Leaderboard
	if err := decodeJSON(resp, &lb); err != nil {
		return Leaderboard{}, err
	}
	return lb, nil
}

// Health probes /healthz. A degraded server (503) is a status, not an error.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return HealthStatus{}, err
	}
	defer resp.Body.Close()

	var hs HealthStatus
	if err := decodeJSON(resp, &hs, http.StatusServiceUnavailable); err != nil {
		return HealthStatus{}, err
	}
	return hs, nil
}

// Probe asks the server to re-check its ranking store.
func (c *Client) Probe(ctx context.Context) (ProbeResult, error) {
	resp, err := c.do(ctx, http.MethodPost, "/store/probe", nil, nil)
	if err != nil {
		return ProbeResult{}, err
	}
	defer resp.Body.Close()

	var pr ProbeResult
	if err := decodeJSON(resp, &pr); err != nil {
		return ProbeResult{}, err
	}
	return pr, nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body io.Reader) (*http.Response, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.applyHeaders(req)
	return c.httpClient.Do(req)
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}
