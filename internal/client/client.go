// Package client is a typed HTTP client for the task API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"taskdash/internal/service"
)

// DefaultTimeout bounds each API call.
const DefaultTimeout = 30 * time.Second

// APIError is a non-2xx response from the task API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap maps the status code back to the service error kinds, so
// errors.Is(err, service.ErrNotFound) works on the client side.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return service.ErrUnauthorized
	case http.StatusForbidden:
		return service.ErrForbidden
	case http.StatusNotFound:
		return service.ErrNotFound
	case http.StatusBadRequest:
		return service.ErrValidation
	default:
		return nil
	}
}

// Option configures a Client.
type Option func(*Client)

// WithTransport sets the base transport under the bearer transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.base = rt }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// Client calls the task API with a bearer token from an oauth2.TokenSource.
type Client struct {
	baseURL string
	base    http.RoundTripper
	timeout time.Duration
	http    *http.Client
}

// New creates a client for the API at baseURL. Every request carries
// the token returned by ts.
func New(baseURL string, ts oauth2.TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		base:    http.DefaultTransport,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = &http.Client{
		Timeout:   c.timeout,
		Transport: &oauth2.Transport{Source: ts, Base: c.base},
	}
	return c
}

// List returns the caller's tasks.
func (c *Client) List(ctx context.Context) ([]service.Task, error) {
	var tasks []service.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []service.Task{}
	}
	return tasks, nil
}

// Create creates a task and returns the stored record.
func (c *Client) Create(ctx context.Context, in service.TaskInput) (service.Task, error) {
	var t service.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", in, &t); err != nil {
		return service.Task{}, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

// Update overwrites task id and returns the merged record.
func (c *Client) Update(ctx context.Context, id string, in service.TaskInput) (service.Task, error) {
	var t service.Task
	if err := c.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id), in, &t); err != nil {
		return service.Task{}, fmt.Errorf("update task: %w", err)
	}
	return t, nil
}

// Delete removes task id and returns the deleted id.
func (c *Client) Delete(ctx context.Context, id string) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, &resp); err != nil {
		return "", fmt.Errorf("delete task: %w", err)
	}
	return resp.ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &body) == nil {
		apiErr.Message = body.Error
	}
	return apiErr
}
