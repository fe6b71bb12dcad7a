// Package checker issues bounded-concurrency HTTP GET requests against a
// base URL and collects one result per input path, index-aligned with the
// input so no correlation step is needed downstream.
package checker

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrRequestTimeout is the cancellation cause attached to each per-request
// deadline. Comparing context.Cause against it distinguishes "this request
// exceeded its own timeout" from run-level cancellation and transport errors.
var ErrRequestTimeout = errors.New("request timeout")

// Result records the outcome of checking a single URL. Status is 0 when the
// request never completed; Err then carries the cause.
type Result struct {
	URL    string
	Status int
	Err    error
}

// OK reports whether the check passed: the server answered with exactly 200.
func (r Result) OK() bool {
	return r.Status == http.StatusOK
}

// Options configures a Checker. The zero value is not usable; use New.
type Options struct {
	// Workers bounds the number of simultaneously in-flight requests.
	Workers int

	// Timeout is the per-request deadline, derived from the run context so
	// an interrupt still cancels requests immediately.
	Timeout time.Duration

	// RatePerSec caps the request start rate across all workers.
	// Zero means unlimited.
	RatePerSec float64

	// Client issues the requests. Required; owned by the caller so tests
	// can substitute transports and no package-level client exists.
	Client *http.Client
}

// Checker fans out one goroutine per URL behind a counting admission gate.
type Checker struct {
	workers int
	timeout time.Duration
	limiter *rate.Limiter
	client  *http.Client
}

// New builds a Checker from opts. A nil Client falls back to a fresh
// http.Client with no global timeout (deadlines come from contexts).
func New(opts Options) *Checker {
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}

	var limiter *rate.Limiter
	if opts.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), 1)
	}

	return &Checker{
		workers: opts.Workers,
		timeout: opts.Timeout,
		limiter: limiter,
		client:  client,
	}
}

// Check requests baseURL+url for every entry of urls and returns one Result
// per URL in input order. It blocks until every check reaches a terminal
// state. Cancelling ctx aborts unadmitted checks immediately and in-flight
// requests at their next blocking point.
func (c *Checker) Check(ctx context.Context, baseURL string, urls []string) []Result {
	sem := make(chan struct{}, c.workers)
	results := make([]Result, len(urls))
	var wg sync.WaitGroup

	for i, url := range urls {
		wg.Add(1)
		go func(idx int, u string) {
			defer wg.Done()
			results[idx] = c.checkOne(ctx, sem, baseURL, u)
		}(i, url)
	}

	wg.Wait()
	return results
}

// checkOne runs the full lifecycle of a single URL: admission, per-request
// deadline, request, classification. The semaphore slot is released exactly
// once on every exit path.
func (c *Checker) checkOne(ctx context.Context, sem chan struct{}, baseURL, url string) Result {
	select {
	case <-ctx.Done():
		return Result{URL: url, Err: context.Cause(ctx)}
	case sem <- struct{}{}:
	}
	defer func() { <-sem }()

	reqCtx, cancel := context.WithTimeoutCause(ctx, c.timeout, ErrRequestTimeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(reqCtx); err != nil {
			return Result{URL: url, Err: classify(reqCtx, err)}
		}
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, baseURL+url, nil)
	if err != nil {
		return Result{URL: url, Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{URL: url, Err: classify(reqCtx, err)}
	}
	defer resp.Body.Close()

	return Result{URL: url, Status: resp.StatusCode}
}

// classify maps a failed request to the timeout sentinel when the request
// context was cancelled by its own deadline, and to the raw error otherwise.
func classify(reqCtx context.Context, err error) error {
	if cause := context.Cause(reqCtx); cause != nil && errors.Is(cause, ErrRequestTimeout) {
		return ErrRequestTimeout
	}
	return err
}
