// Package backend holds the HTTP clients for the two external
// collaborators: the contact CRUD API and the comment agent. Both are
// thin JSON clients with bounded retries on transient failures and a
// shared error taxonomy callers can classify with errors.Is.
package backend

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
	"time"

	"github.com/codeGROOVE-dev/retry"
)

// Sentinel errors. APIError wraps the matching sentinel, so errors.Is
// works on every client return.
var (
	ErrUnreachable  = errors.New("backend: unreachable")
	ErrUnauthorized = errors.New("backend: unauthorized")
	ErrForbidden    = errors.New("backend: forbidden")
	ErrRateLimited  = errors.New("backend: rate limited")
	ErrNotFound     = errors.New("backend: not found")
)

// APIError carries the status and the server's human-readable message.
type APIError struct {
	Status  int
	Message string
	kind    error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend: status %d", e.Status)
}

func (e *APIError) Unwrap() error { return e.kind }

// Config configures a client.
type Config struct {
	BaseURL string
	Token   string

	// HTTPClient overrides the default client (10s timeout).
	HTTPClient *http.Client

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
}

type client struct {
	cfg Config
}

// errEnvelope is the error shape both backends respond with.
type errEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// doJSON performs one JSON round trip. in==nil sends no body; out==nil
// discards the response body. Transient failures (network, 5xx, 429)
// are retried twice with backoff.
func (c *client) doJSON(ctx context.Context, method, path string, in, out any) error {
	body, err := retry.DoWithData(
		func() ([]byte, error) { return c.once(ctx, method, path, in) },
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.MaxJitter(200*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			c.cfg.Logger.Debug("backend: retrying", "attempt", n+1, "method", method, "path", path, "error", err)
		}),
	)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("backend: decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *client) once(ctx context.Context, method, path string, in any) ([]byte, error) {
	var reqBody io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("backend: encode %s %s: %w", method, path, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnreachable, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, statusError(resp.StatusCode, body)
}

// statusError maps a non-2xx response to the taxonomy, keeping the
// server's message when it sent one.
func statusError(status int, body []byte) error {
	var env errEnvelope
	_ = json.Unmarshal(body, &env)
	msg := env.Message
	if msg == "" {
		msg = env.Error
	}

	var kind error
	switch {
	case status == http.StatusUnauthorized:
		kind = ErrUnauthorized
	case status == http.StatusForbidden:
		kind = ErrForbidden
	case status == http.StatusTooManyRequests:
		kind = ErrRateLimited
	case status == http.StatusNotFound:
		kind = ErrNotFound
	case status >= 500:
		kind = ErrUnreachable
	}
	return &APIError{Status: status, Message: msg, kind: kind}
}

func isTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 || apiErr.Status == http.StatusTooManyRequests
	}
	return errors.Is(err, ErrUnreachable)
}
