// Package delivery wraps the single HTTP POST to the event sink with bounded
// retries. Delivery is best effort: there is no durable queue, so an event
// that exhausts its attempts is reported and dropped.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shelfpoint/scanbridge/internal/models"
)

// Doer abstracts the HTTP transport so tests can count attempts without a
// network.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Error reports an exhausted delivery: every attempt failed at the transport
// level.
type Error struct {
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("delivery failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Result is the sink's response to a delivered event. OK is any 2xx status.
// A non-2xx response is returned here rather than retried; status handling is
// the caller's call.
type Result struct {
	StatusCode int
	OK         bool
}

// Client posts scan events to the sink.
type Client struct {
	sinkURL    string
	httpClient Doer
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewClient creates a delivery client for the given sink endpoint.
func NewClient(sinkURL string, maxRetries int, retryDelay, timeout time.Duration) *Client {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Client{
		sinkURL:    sinkURL,
		httpClient: &http.Client{},
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		timeout:    timeout,
		sleep:      sleepCtx,
	}
}

// Send delivers one scan event. Each attempt is bounded by the configured
// timeout; a timed-out request is canceled and counts as a transport failure.
// Backoff between attempts is linear: retryDelay*1, retryDelay*2, and so on.
// A received HTTP response of any status ends the retry loop.
func (c *Client) Send(ctx context.Context, event *models.ScanEvent) (*Result, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal scan event: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		result, err := c.attempt(ctx, payload)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == c.maxRetries {
			break
		}
		if err := c.sleep(ctx, c.retryDelay*time.Duration(attempt)); err != nil {
			return nil, &Error{Attempts: attempt, Err: err}
		}
	}

	return nil, &Error{Attempts: c.maxRetries, Err: lastErr}
}

func (c *Client) attempt(ctx context.Context, payload []byte) (*Result, error) {
	attemptCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.sinkURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build sink request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post scan event: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return &Result{
		StatusCode: resp.StatusCode,
		OK:         resp.StatusCode >= 200 && resp.StatusCode < 300,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
