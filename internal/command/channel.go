package command

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"
)

// Defaults for the outbound command channel. Overridable via config.
const (
	DefaultAttemptTimeout = 5 * time.Second
	DefaultMaxAttempts    = 3

	// maxResponseBody bounds how much of a device response is read back.
	maxResponseBody = 1 << 20
)

// Logger defines the logging interface used by the Channel.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options tune a single Send call.
type Options struct {
	// Headers are added to every attempt's request.
	Headers map[string]string

	// Timeout overrides the per-attempt timeout for this call.
	Timeout time.Duration
}

// Response is the successful or terminally rejected wire response.
type Response struct {
	StatusCode int
	Body       []byte
	Attempts   int
}

// Channel is the shared retrying, timeout-bounded outbound HTTP sender used
// by device platforms.
//
// Retry policy: server errors (5xx) and per-attempt timeouts are retried up
// to the attempt budget; client errors (4xx) are never retried, because the
// device is correctly rejecting the input; any other transport error aborts
// immediately. Failure is reported as a false boolean, not an error, so
// callers treat "could not command the device" as a normal outcome.
type Channel struct {
	client  *http.Client
	timeout time.Duration
	logger  Logger
}

// NewChannel creates a command channel with the given per-attempt timeout.
// A non-positive timeout falls back to DefaultAttemptTimeout.
func NewChannel(timeout time.Duration) *Channel {
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	return &Channel{
		client:  &http.Client{},
		timeout: timeout,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the channel.
func (c *Channel) SetLogger(logger Logger) {
	c.logger = logger
}

// Send dispatches a command to an endpoint, retrying per the channel policy.
//
// The returned boolean reports overall success. On a 4xx rejection the
// response is returned alongside false so callers can inspect the refusal;
// every other failure path returns a nil response.
func (c *Channel) Send(ctx context.Context, endpoint string, payload any, method string, maxAttempts int, opts *Options) (*Response, bool) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	timeout := c.timeout
	if opts != nil && opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			c.logger.Error("command payload not serialisable", "endpoint", endpoint, "error", err)
			return nil, false
		}
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, retriable := c.attempt(ctx, endpoint, method, body, timeout, opts)
		if resp != nil {
			resp.Attempts = attempt
			switch {
			case resp.StatusCode < 400:
				return resp, true
			case resp.StatusCode < 500:
				// The device rejected the input; retrying cannot help.
				c.logger.Warn("command rejected by device",
					"endpoint", endpoint, "status", resp.StatusCode)
				return resp, false
			default:
				c.logger.Debug("retriable server error",
					"endpoint", endpoint, "status", resp.StatusCode, "attempt", attempt)
			}
			continue
		}
		if !retriable {
			return nil, false
		}
		c.logger.Debug("retriable transport failure",
			"endpoint", endpoint, "attempt", attempt)
	}

	c.logger.Warn("command attempts exhausted",
		"endpoint", endpoint, "attempts", maxAttempts)
	return nil, false
}

// attempt performs one bounded request. A nil response with retriable=true
// means a timeout; retriable=false means a terminal transport failure.
func (c *Channel) attempt(ctx context.Context, endpoint, method string, body []byte, timeout time.Duration, opts *Options) (*Response, bool) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, endpoint, reader)
	if err != nil {
		c.logger.Error("building command request", "endpoint", endpoint, "error", err)
		return nil, false
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts != nil {
		for k, v := range opts.Headers {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// The caller cancelling is terminal; our own attempt timeout is not.
		if ctx.Err() != nil {
			return nil, false
		}
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, true
		}
		c.logger.Error("command transport failure", "endpoint", endpoint, "error", err)
		return nil, false
	}
	defer resp.Body.Close() //nolint:errcheck // Read-only body

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		// Status line arrived; classify by status and carry what we read.
		c.logger.Debug("truncated command response", "endpoint", endpoint, "error", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, true
}
