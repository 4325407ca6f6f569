package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/getmockd/stubd/pkg/config"
)

// DefaultClientTimeout bounds each call made by a Client.
const DefaultClientTimeout = 30 * time.Second

// APIError represents an error response from the control API.
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
	Details    []string
}

func (e *APIError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Details, "; ")
}

// IsNotFound reports whether err is a 404 from the control API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client calls the control API of a running stubd.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the HTTP timeout for the client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient returns a client for the control API at baseURL, for example
// "http://localhost:4290".
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultClientTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the control API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health checks that the control API answers.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, "", http.StatusOK, nil)
}

// Status returns the stub server status.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var out StatusResponse
	if err := c.do(ctx, http.MethodGet, "/status", nil, "", http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListStubs returns every registered stub, sorted by URL.
func (c *Client) ListStubs(ctx context.Context) ([]config.StubEntry, error) {
	var out StubListResponse
	if err := c.do(ctx, http.MethodGet, "/stubs", nil, "", http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out.Stubs, nil
}

// GetStub returns the stub registered for stubURL.
func (c *Client) GetStub(ctx context.Context, stubURL string) (*config.StubEntry, error) {
	var out config.StubEntry
	if err := c.do(ctx, http.MethodGet, lookupPath(stubURL), nil, "", http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegisterStub registers entry, replacing any stub with the same URL, and
// returns the stub as stored.
func (c *Client) RegisterStub(ctx context.Context, entry config.StubEntry) (*config.StubEntry, error) {
	body, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode stub: %w", err)
	}
	var out config.StubEntry
	if err := c.do(ctx, http.MethodPost, "/stubs", body, "application/json", http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReplaceStubs replaces every registered stub with those in file and
// returns how many are now registered.
func (c *Client) ReplaceStubs(ctx context.Context, file *config.StubFile) (int, error) {
	body, err := config.ToJSON(file)
	if err != nil {
		return 0, err
	}
	var out ReplaceResponse
	if err := c.do(ctx, http.MethodPut, "/stubs", body, "application/json", http.StatusOK, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// DeleteStub removes the stub registered for stubURL.
func (c *Client) DeleteStub(ctx context.Context, stubURL string) error {
	return c.do(ctx, http.MethodDelete, lookupPath(stubURL), nil, "", http.StatusNoContent, nil)
}

// ClearStubs removes every stub and returns how many there were.
func (c *Client) ClearStubs(ctx context.Context) (int, error) {
	var out ReplaceResponse
	if err := c.do(ctx, http.MethodDelete, "/stubs", nil, "", http.StatusOK, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Settings returns the read timeout and response delay.
func (c *Client) Settings(ctx context.Context) (*SettingsResponse, error) {
	var out SettingsResponse
	if err := c.do(ctx, http.MethodGet, "/settings", nil, "", http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSettings changes the fields set in req and returns the result.
func (c *Client) UpdateSettings(ctx context.Context, req SettingsRequest) (*SettingsResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	var out SettingsResponse
	if err := c.do(ctx, http.MethodPut, "/settings", body, "application/json", http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestQuery narrows ListRequests. Zero-valued fields are not sent.
type RequestQuery struct {
	Method  string
	URL     string
	Status  int
	Matched *bool
	Limit   int
	Offset  int
}

func (q RequestQuery) encode() string {
	v := url.Values{}
	if q.Method != "" {
		v.Set("method", q.Method)
	}
	if q.URL != "" {
		v.Set("url", q.URL)
	}
	if q.Status != 0 {
		v.Set("status", strconv.Itoa(q.Status))
	}
	if q.Matched != nil {
		v.Set("matched", strconv.FormatBool(*q.Matched))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// ListRequests returns journaled requests, newest first.
func (c *Client) ListRequests(ctx context.Context, q RequestQuery) (*RequestListResponse, error) {
	var out RequestListResponse
	if err := c.do(ctx, http.MethodGet, "/requests"+q.encode(), nil, "", http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LastRequest returns the most recent request the stub server parsed.
func (c *Client) LastRequest(ctx context.Context) (*LastRequestResponse, error) {
	var out LastRequestResponse
	if err := c.do(ctx, http.MethodGet, "/requests/last", nil, "", http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearRequests empties the request journal.
func (c *Client) ClearRequests(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/requests", nil, "", http.StatusNoContent, nil)
}

// Metrics returns the Prometheus text exposition.
func (c *Client) Metrics(ctx context.Context) (string, error) {
	resp, err := c.send(ctx, http.MethodGet, "/metrics", nil, "")
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", parseError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return string(data), nil
}

func lookupPath(stubURL string) string {
	return "/stubs/lookup?url=" + url.QueryEscape(stubURL)
}

// do sends a request, checks for want and decodes the JSON reply into out
// when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string, want int, out any) error {
	resp, err := c.send(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != want {
		return parseError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, contentType string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{
			ErrorCode: "connection_error",
			Message:   fmt.Sprintf("cannot connect to control API at %s: %v", c.baseURL, err),
		}
	}
	return resp, nil
}

func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Details any    `json:"details"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			ErrorCode:  errResp.Error,
			Message:    errResp.Message,
		}
		if list, ok := errResp.Details.([]any); ok {
			for _, d := range list {
				apiErr.Details = append(apiErr.Details, fmt.Sprint(d))
			}
		}
		return apiErr
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		ErrorCode:  "unknown_error",
		Message:    fmt.Sprintf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
	}
}
