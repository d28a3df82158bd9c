// Package gateway wraps all outbound calls to a destination service with
// request pacing, endpoint failover and exponential backoff on throttling.
//
// Throttling (429-class responses) is never surfaced to callers: the gateway
// rotates to the next endpoint in the pool, doubles the shared backoff delay
// and retries the same logical request until it succeeds or the context is
// cancelled. Quota exhaustion and authorization failures are terminal and
// returned as typed errors.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"playlistporter/internal/shared"
)

const (
	backoffSeed = 2 * time.Second
	backoffCap  = 60 * time.Second
	backoffStep = 500 * time.Millisecond

	defaultRateLimit = 5.0 // requests per second
)

// Request describes one logical call against a destination endpoint pool.
// Path is joined to whichever endpoint base is currently active.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Response is the raw result of a successful request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Classifier maps a non-2xx response to a typed error.
//
// Returning [shared.ErrThrottled] makes the gateway back off and retry;
// [shared.ErrQuotaExceeded] and [shared.ErrAuthRequired] are terminal and
// propagate to the caller unretried. Destinations with quirky quota signals
// (YouTube reports quota exhaustion as a 403 with a reason field) supply
// their own classifier.
type Classifier func(status int, body []byte) error

// DefaultClassifier treats 429 as throttling, 401/403 as authorization
// failure and everything else as a plain request failure.
func DefaultClassifier(status int, body []byte) error {
	switch {
	case status == http.StatusTooManyRequests:
		return shared.ErrThrottled
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", shared.ErrAuthRequired, status)
	default:
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, status)
	}
}

// Options configures a Gateway.
type Options struct {
	Endpoints []string     // base URL pool; rotated round-robin on throttling
	Client    *http.Client // defaults to http.DefaultClient
	RateLimit float64      // steady-state requests per second
	Classify  Classifier   // defaults to DefaultClassifier
	Logger    *log.Logger
}

// Gateway is the single writer of per-destination backoff state. One gateway
// is created per destination at transfer start and discarded at transfer end.
type Gateway struct {
	client   *http.Client
	limiter  *rate.Limiter
	classify Classifier
	logger   *log.Logger
	sleep    func(context.Context, time.Duration) error

	mu        sync.Mutex
	endpoints []string
	active    int
	backoff   time.Duration
}

// New creates a Gateway over the given endpoint pool.
func New(opts Options) (*Gateway, error) {
	if len(opts.Endpoints) == 0 {
		return nil, fmt.Errorf("%w: gateway requires at least one endpoint", shared.ErrInvalidConfig)
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}
	if opts.Classify == nil {
		opts.Classify = DefaultClassifier
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	return &Gateway{
		client:    opts.Client,
		limiter:   rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		classify:  opts.Classify,
		logger:    opts.Logger,
		sleep:     sleepContext,
		endpoints: opts.Endpoints,
	}, nil
}

// Do issues a logical request, transparently absorbing throttling.
//
// The shared backoff delay is applied before every attempt while the gateway
// is backing off, not just the first retry, so concurrent callers cannot
// bypass it.
func (g *Gateway) Do(ctx context.Context, req Request) (*Response, error) {
	for {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		if delay := g.currentBackoff(); delay > 0 {
			if err := g.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		resp, err := g.attempt(ctx, req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			g.recordSuccess()
			return resp, nil
		}

		cerr := g.classify(resp.StatusCode, resp.Body)
		if errors.Is(cerr, shared.ErrThrottled) {
			delay, endpoint := g.recordThrottle()
			g.logger.Warn("throttled, backing off", "delay", delay, "endpoint", endpoint)
			continue
		}
		return nil, cerr
	}
}

func (g *Gateway) attempt(ctx context.Context, req Request) (*Response, error) {
	apiURL := g.ActiveEndpoint() + req.Path
	if len(req.Query) > 0 {
		apiURL += "?" + req.Query.Encode()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, apiURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	if httpReq.Header.Get("Content-Type") == "" && len(req.Body) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// ActiveEndpoint returns the endpoint base currently in use. Adapters use it
// to relativize absolute pagination links the APIs hand back.
func (g *Gateway) ActiveEndpoint() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.endpoints[g.active]
}

func (g *Gateway) currentBackoff() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.backoff
}

// recordThrottle rotates the endpoint pool and doubles the shared backoff,
// seeding it on the first throttle and capping it at backoffCap.
func (g *Gateway) recordThrottle() (time.Duration, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.active = (g.active + 1) % len(g.endpoints)

	if g.backoff == 0 {
		g.backoff = backoffSeed
	} else {
		g.backoff *= 2
	}
	if g.backoff > backoffCap {
		g.backoff = backoffCap
	}

	return g.backoff, g.endpoints[g.active]
}

// recordSuccess decays the backoff one step toward zero; a run of successful
// calls gradually restores full speed.
func (g *Gateway) recordSuccess() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.backoff -= backoffStep
	if g.backoff < 0 {
		g.backoff = 0
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
