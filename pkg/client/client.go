// Package client is a Go SDK for the examtraining callable functions and
// the server-hosted training API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/examtraining/examtraining/internal/api"
	"github.com/examtraining/examtraining/internal/training"
)

// Client is a Go SDK for the examtraining API.
type Client struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithClientID sets the identity under which training sessions are kept.
// Without it every Client gets a fresh random id.
func WithClientID(id string) Option {
	return func(c *Client) {
		c.clientID = id
	}
}

// NewClient creates a new examtraining client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: uuid.NewString(),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ClientID returns the training identity of the client.
func (c *Client) ClientID() string {
	return c.clientID
}

// Error is a failure reported by the server.
type Error struct {
	HTTPStatus int
	Status     string
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("API error: %s - %s", e.Status, e.Message)
}

// IsStatus reports whether err is an API error with the given status, for
// example api.CodeNotFound.
func IsStatus(err error, status string) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type envelope struct {
	Result json.RawMessage    `json:"result"`
	Error  *api.FunctionError `json:"error"`
}

// call invokes a callable function and decodes its result into out. A null
// result leaves out untouched and reports false.
func (c *Client) call(ctx context.Context, name string, data, out any) (bool, error) {
	body, err := json.Marshal(map[string]any{"data": data})
	if err != nil {
		return false, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, "/functions/"+url.PathEscape(name), bytes.NewReader(body), out)
}

func (c *Client) trainingPath(slug, suffix string) string {
	return "/training/" + url.PathEscape(slug) + suffix
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) (bool, error) {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return false, err
	}
	if len(resp.Result) == 0 || string(resp.Result) == "null" {
		return false, nil
	}
	if out != nil {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return false, fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return true, nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(api.ClientIDHeader, c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if env.Error != nil {
		return nil, &Error{HTTPStatus: resp.StatusCode, Status: env.Error.Status, Message: env.Error.Message}
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return &env, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}

// emptyResult is returned by the server instead of a session when nothing
// qualifies.
type emptyResult struct {
	Empty bool `json:"empty"`
}

// isEmptyPool reports whether a start-training result is the empty marker.
func isEmptyPool(raw json.RawMessage) bool {
	var e emptyResult
	return json.Unmarshal(raw, &e) == nil && e.Empty
}

// ErrEmptyPool is training.ErrEmptyPool, re-exported for SDK users.
var ErrEmptyPool = training.ErrEmptyPool
