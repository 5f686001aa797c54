// Package transport supplies the raw diagnosis feed to a session, either from
// the orchestration backend over HTTP or from a captured feed on disk.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/joss/ddx/internal/logging"
)

// Request is the body sent to start a diagnosis run.
type Request struct {
	InitialInfo string `json:"initial_info"`
	FullCase    string `json:"full_case"`
	GroundTruth string `json:"ground_truth"`
}

// Source opens the raw text stream for one run. Cancelling ctx must abort a
// pending Read on the returned body.
type Source interface {
	Open(ctx context.Context, req Request) (io.ReadCloser, error)
}

// HTTPClient interface for HTTP requests (enables testing)
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Verify http.Client implements HTTPClient
var _ HTTPClient = (*http.Client)(nil)

const maxErrorBody = 512

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("backend returned %d %s: %s", e.Code, http.StatusText(e.Code), e.Body)
}

// Client streams diagnosis runs from the orchestration backend.
type Client struct {
	url           string
	http          HTTPClient
	headerTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c HTTPClient) Option {
	return func(cl *Client) { cl.http = c }
}

// WithHeaderTimeout bounds the wait for response headers. The streamed body
// itself is never subject to a deadline.
func WithHeaderTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.headerTimeout = d }
}

// NewClient creates a client posting to baseURL+endpoint.
func NewClient(baseURL, endpoint string, opts ...Option) *Client {
	c := &Client{
		url:  strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(endpoint, "/"),
		http: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// URL returns the full endpoint URL.
func (c *Client) URL() string {
	return c.url
}

// Open starts a run and returns the streamed response body.
func (c *Client) Open(ctx context.Context, req Request) (io.ReadCloser, error) {
	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	reqCtx, cancel := context.WithCancel(ctx)
	var timer *time.Timer
	if c.headerTimeout > 0 {
		timer = time.AfterFunc(c.headerTimeout, cancel)
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.url, bytes.NewReader(jsonBody))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")
	if id := logging.SessionIDFromContext(ctx); id != "" {
		httpReq.Header.Set(logging.SessionHeader, id)
	}

	resp, err := c.http.Do(httpReq)
	fired := timer != nil && !timer.Stop()
	if err != nil {
		cancel()
		if fired && ctx.Err() == nil {
			return nil, fmt.Errorf("send request: no response within %v: %w", c.headerTimeout, context.DeadlineExceeded)
		}
		return nil, fmt.Errorf("send request: %w", err)
	}
	if fired {
		// Headers arrived just as the timer fired; the context is already gone.
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("waiting for response headers: %w", context.DeadlineExceeded)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		cancel()
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return &cancelBody{ReadCloser: resp.Body, cancel: cancel}, nil
}

// cancelBody releases the request context when the body is closed.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

var _ Source = (*Client)(nil)
