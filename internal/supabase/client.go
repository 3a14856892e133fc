// Package supabase is the gateway to the managed marketplace backend. It
// exposes narrow, per-aggregate interfaces (see gateways.go) whose contracts
// mirror the backend tables and RPCs; the backend's internal logic (row-level
// security, the get_user_conversations algorithm, realtime fan-out) is
// opaque and deliberately not reimplemented here.
//
// This file implements the low-level REST/RPC client: request construction,
// auth headers, bounded retries with backoff, and error normalization.
package supabase

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

	"github.com/codeGROOVE-dev/retry"
	"github.com/rs/zerolog/log"
)

// Error is a normalized backend failure carrying the HTTP status.
type Error struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("backend: %s (status %d)", e.Message, e.Status)
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Status == http.StatusNotFound
}

// Client is the shared HTTP transport for all gateway implementations.
// It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient returns a Client for the backend at baseURL authenticated with
// apiKey. The trailing slash of baseURL is trimmed.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the configured backend base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// get issues a GET against a REST path and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// send issues a mutating request (POST/PATCH/DELETE) with a JSON body.
// out may be nil when the response body is irrelevant.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.do(ctx, method, path, query, body, out)
}

// rpc invokes a backend database function under /rest/v1/rpc/<name>.
func (c *Client) rpc(ctx context.Context, name string, args, out any) error {
	return c.do(ctx, http.MethodPost, "/rest/v1/rpc/"+name, nil, args, out)
}

// do performs one HTTP exchange with bounded retries. 5xx and transport
// errors are retried with jittered backoff; 4xx responses are terminal.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	err := retry.Do(
		func() error {
			var rd io.Reader
			if payload != nil {
				rd = bytes.NewReader(payload)
			} else {
				rd = http.NoBody
			}
			req, err := http.NewRequestWithContext(ctx, method, u, rd)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("apikey", c.apiKey)
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
			if payload != nil {
				req.Header.Set("Content-Type", "application/json")
			}
			if method != http.MethodGet {
				req.Header.Set("Prefer", "return=representation")
			}

			resp, err := c.http.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 500 {
				return &Error{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
			}
			if resp.StatusCode >= 400 {
				return retry.Unrecoverable(&Error{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)})
			}

			if out == nil {
				// Drain so the connection can be reused.
				_, _ = io.Copy(io.Discard, resp.Body)
				return nil
			}
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode response: %w", err))
			}
			return nil
		},
		retry.Attempts(4),
		retry.Delay(250*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.MaxJitter(500*time.Millisecond),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().
				Uint("attempt", n).
				Str("method", method).
				Str("path", path).
				Err(err).
				Msg("backend call retrying")
		}),
	)
	if err != nil {
		return err
	}
	return nil
}

// readErrorMessage extracts the PostgREST error message from a failed
// response body, falling back to the raw text.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4<<10))
	if err != nil || len(raw) == 0 {
		return "request failed"
	}
	var e struct {
		Message string `json:"message"`
		Msg     string `json:"msg"`
	}
	if json.Unmarshal(raw, &e) == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Msg != "" {
			return e.Msg
		}
	}
	return strings.TrimSpace(string(raw))
}
