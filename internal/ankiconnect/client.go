// Package ankiconnect is a client for the AnkiConnect add-on's JSON-RPC
// endpoint (API version 6).
package ankiconnect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"codeberg.org/snonux/smartdeck/internal/retry"
	"codeberg.org/snonux/smartdeck/internal/svcerr"
	"codeberg.org/snonux/smartdeck/internal/throttle"
)

const (
	// DefaultURL is where AnkiConnect listens unless configured otherwise.
	DefaultURL = "http://localhost:8765"

	apiVersion     = 6
	defaultTimeout = 30 * time.Second
	serviceName    = "anki"
)

// Config configures the client.
type Config struct {
	URL     string
	Timeout time.Duration

	// BreakerFailures is the number of consecutive connectivity failures,
	// each after a full retry cycle, that mark the store as down.
	BreakerFailures uint32
	// BreakerCooldown is how long a tripped breaker rejects calls before
	// letting a probe through.
	BreakerCooldown time.Duration

	Policy  retry.Policy
	Limiter *throttle.Limiter
	Logger  *slog.Logger
}

// Client talks to AnkiConnect.
type Client struct {
	url        string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	policy     retry.Policy
	limiter    *throttle.Limiter
	logger     *slog.Logger
}

// APIError is an error reported by AnkiConnect itself, e.g. an unknown
// model or a duplicate note.
type APIError struct {
	Action  string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Action, e.Message)
}

type request struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params,omitempty"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// New creates a client.
func New(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 2
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger.With("component", "ankiconnect")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ankiconnect",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			// Only connectivity counts against the store; API errors
			// prove it is up.
			return err == nil || !svcerr.IsStoreUnavailable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("note store circuit breaker changed state", "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		policy:     cfg.Policy,
		limiter:    cfg.Limiter,
		logger:     logger,
	}
}

// URL returns the endpoint the client talks to.
func (c *Client) URL() string {
	return c.url
}

// invoke performs one action. Transient failures are retried; a spent
// retry budget or an open breaker is reported as StoreUnavailableError.
func (c *Client) invoke(ctx context.Context, action string, params, result any) error {
	policy := c.policy.WithNotify(func(err error, wait time.Duration) {
		c.logger.Warn("retrying note store request", "action", action, "wait", wait, "error", err)
	})

	_, err := c.breaker.Execute(func() (interface{}, error) {
		err := policy.Do(ctx, func(ctx context.Context) error {
			return c.limiter.Do(ctx, func(ctx context.Context) error {
				return c.roundTrip(ctx, action, params, result)
			})
		})
		if err != nil && retry.Exhausted(err) {
			return nil, &svcerr.StoreUnavailableError{URL: c.url, Err: err}
		}
		return nil, err
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &svcerr.StoreUnavailableError{URL: c.url, Err: err}
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, action string, params, result any) error {
	body, err := json.Marshal(request{Action: action, Version: apiVersion, Params: params})
	if err != nil {
		return svcerr.Permanent(serviceName, action, 0, fmt.Errorf("failed to encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return svcerr.Permanent(serviceName, action, 0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return svcerr.Transient(serviceName, action, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return svcerr.Classify(serviceName, action, resp.StatusCode, fmt.Errorf("unexpected status: %s", bytes.TrimSpace(msg)))
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return svcerr.Permanent(serviceName, action, 0, fmt.Errorf("malformed response: %w", err))
	}
	if r.Error != nil {
		return svcerr.Permanent(serviceName, action, 0, &APIError{Action: action, Message: *r.Error})
	}
	if result == nil || len(r.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Result, result); err != nil {
		return svcerr.Permanent(serviceName, action, 0, fmt.Errorf("unexpected result: %w", err))
	}
	return nil
}
