// Package todoist provides a typed client for the Todoist REST API.
//
// The client owns retry/backoff and error classification for transport
// failures: every call carries a bounded timeout, transient faults
// (network errors, timeouts, 429, 5xx) are retried with exponential
// backoff up to a small attempt cap and then surfaced as ErrUnavailable,
// while ErrNotFound and ErrRejected are terminal for the call.
package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the Todoist REST API endpoint.
	DefaultBaseURL = "https://api.todoist.com/rest/v2"

	// DefaultTimeout bounds each individual HTTP attempt.
	DefaultTimeout = 5 * time.Second

	// DefaultMaxAttempts caps retries for transient failures.
	DefaultMaxAttempts = 3

	// DefaultBackoff is the initial retry delay; it doubles per attempt.
	DefaultBackoff = 250 * time.Millisecond
)

// Item is the remote representation of a task.
type Item struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	IsCompleted bool   `json:"is_completed"`
}

// Config holds client configuration.
type Config struct {
	// Token is the API token attached as a bearer credential.
	// Modeled as an explicit value, not ambient state.
	Token string

	// BaseURL overrides the API endpoint (default: DefaultBaseURL).
	// Used by tests to point at a local server.
	BaseURL string

	// Timeout bounds each HTTP attempt (default: DefaultTimeout).
	Timeout time.Duration

	// MaxAttempts caps transient retries (default: DefaultMaxAttempts).
	MaxAttempts int

	// Backoff is the initial retry delay (default: DefaultBackoff).
	Backoff time.Duration

	// Logger for client activity (default: stderr logger).
	Logger *log.Logger

	// HTTPClient overrides the transport (default: http.DefaultClient).
	HTTPClient *http.Client
}

// Client issues get/create/update/close operations against Todoist.
type Client struct {
	baseURL     string
	token       string
	timeout     time.Duration
	maxAttempts int
	backoff     time.Duration
	httpc       *http.Client
	logger      *log.Logger
}

// New creates a new Client with the given configuration.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[todoist] ", log.LstdFlags)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		token:       cfg.Token,
		timeout:     cfg.Timeout,
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.Backoff,
		httpc:       cfg.HTTPClient,
		logger:      cfg.Logger,
	}
}

// Fetch retrieves the authoritative remote task by id.
// Returns ErrNotFound if the remote record no longer exists.
func (c *Client) Fetch(ctx context.Context, id string) (*Item, error) {
	var item Item
	err := c.do(ctx, http.MethodGet, "/tasks/"+id, nil, &item)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch remote task %s: %w", id, err)
	}
	return &item, nil
}

// Create adds a new remote task with the given content.
// The remote service assigns the id returned on the Item.
func (c *Client) Create(ctx context.Context, content string) (*Item, error) {
	body := map[string]string{"content": content}
	var item Item
	err := c.do(ctx, http.MethodPost, "/tasks", body, &item)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote task: %w", err)
	}
	return &item, nil
}

// Update rewrites the content of an existing remote task.
// Returns ErrNotFound if the remote id no longer exists.
func (c *Client) Update(ctx context.Context, id, content string) (*Item, error) {
	body := map[string]string{"content": content}
	var item Item
	err := c.do(ctx, http.MethodPost, "/tasks/"+id, body, &item)
	if err != nil {
		return nil, fmt.Errorf("failed to update remote task %s: %w", id, err)
	}
	return &item, nil
}

// Close marks a remote task completed.
// Returns ErrNotFound if the remote id no longer exists.
func (c *Client) Close(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodPost, "/tasks/"+id+"/close", nil, nil); err != nil {
		return fmt.Errorf("failed to close remote task %s: %w", id, err)
	}
	return nil
}

// do issues a request with retry/backoff. The out parameter, when
// non-nil, receives the decoded JSON response body.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	var lastErr error
	delay := c.backoff

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			c.logger.Printf("Retrying %s %s (attempt %d/%d) after %v: %v",
				method, path, attempt, c.maxAttempts, delay, lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", ErrTransient, ctx.Err())
			}
			delay *= 2
		}

		lastErr = c.attempt(ctx, method, path, payload, out)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("%w: giving up after %d attempts: %v", ErrUnavailable, c.maxAttempts, lastErr)
}

// attempt issues a single HTTP request bounded by the client timeout.
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		// Network faults and timeouts are transient by classification.
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: malformed response body: %v", ErrRejected, err)
		}
	}

	return nil
}
