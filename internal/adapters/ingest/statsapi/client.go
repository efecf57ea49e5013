// Package statsapi provides a resilient client for the NHL stats API
package statsapi

import (
	"context"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	perr "nhldata/internal/platform/errors"
	"nhldata/internal/platform/logger"

	"golang.org/x/time/rate"
)

const (
	baseURLDefault   = "https://statsapi.web.nhl.com/api/v1"
	defaultTimeout   = 10 * time.Second
	defaultUA        = "nhldata-crawl"
	defaultAttempts  = 5
	defaultRetryBase = 500 * time.Millisecond
	defaultRetryCap  = 30 * time.Second

	maxBodyBytes  = 16 << 20
	errorBodySize = 2 << 10
)

// DefaultRetryStatuses are the statuses worth another attempt
var DefaultRetryStatuses = []int{408, 413, 429, 500, 502, 503, 504}

// Options configures the Client
type Options struct {
	BaseURL   string
	UserAgent string

	// Timeout bounds each attempt, not the whole call
	Timeout time.Duration

	// MaxAttempts counts every attempt including the first
	MaxAttempts   int
	RetryBase     time.Duration
	RetryCap      time.Duration
	RetryStatuses []int

	// RateLimit caps requests per second across all callers, 0 disables it
	RateLimit float64
	Burst     int

	// OnAttempt observes every attempt; status is 0 for transport failures
	OnAttempt func(endpoint string, status int, err error)

	// Transport overrides the http transport, mostly for tests
	Transport http.RoundTripper
}

// Client issues GETs with per attempt timeouts and capped exponential backoff with jitter
//
// Retry state lives inside each Get call so concurrent callers never share backoff.
// Shared across calls: the http connection pool and the optional rate limiter.
type Client struct {
	http    *http.Client
	opts    Options
	retry   map[int]bool
	limiter *rate.Limiter
	log     logger.Logger
	now     func() time.Time
	sleep   func(context.Context, time.Duration) error
	jitter  func(n int64) int64
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultAttempts
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	if o.RetryCap <= 0 {
		o.RetryCap = defaultRetryCap
	}
	if o.RetryStatuses == nil {
		o.RetryStatuses = DefaultRetryStatuses
	}
	retry := make(map[int]bool, len(o.RetryStatuses))
	for _, s := range o.RetryStatuses {
		retry[s] = true
	}

	var lim *rate.Limiter
	if o.RateLimit > 0 {
		lim = rate.NewLimiter(rate.Limit(o.RateLimit), max(o.Burst, 1))
	}

	return &Client{
		http:    &http.Client{Transport: o.Transport},
		opts:    o,
		retry:   retry,
		limiter: lim,
		log:     *logger.Named("statsapi"),
		now:     time.Now,
		sleep:   sleepCtx,
		jitter:  rand.Int64N,
	}
}

// Get fetches base+path with query and returns the 2xx body
// failures come back as *HTTPError; a canceled ctx returns the ctx error wrapped
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.opts.BaseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	endpoint := endpointOf(path)

	var last *HTTPError
	for attempt := 0; attempt < c.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeTransport, "statsapi %s canceled", endpoint)
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, perr.Wrapf(err, perr.ErrorCodeTransport, "statsapi %s rate wait", endpoint)
			}
		}

		start := c.now()
		res, err := c.once(ctx, u)
		lat := c.now().Sub(start)
		if c.opts.OnAttempt != nil {
			c.opts.OnAttempt(endpoint, res.status, err)
		}

		if err != nil {
			if ctx.Err() != nil {
				return nil, perr.Wrapf(ctx.Err(), perr.ErrorCodeTransport, "statsapi %s canceled", endpoint)
			}
			last = &HTTPError{URL: u, Attempts: attempt + 1, Err: err}
		} else {
			c.log.Debug().
				Str("endpoint", endpoint).
				Int("status", res.status).
				Int("attempt", attempt+1).
				Dur("latency", lat).
				Msg("statsapi http response")

			if res.status >= 200 && res.status < 300 {
				return res.body, nil
			}
			last = &HTTPError{Status: res.status, Body: string(res.body), URL: u, Attempts: attempt + 1}
			if !c.retry[res.status] {
				return nil, last
			}
		}

		if attempt == c.opts.MaxAttempts-1 {
			break
		}
		wait := c.backoff(attempt)
		if honoursRetryAfter(res.status) {
			if ra := retryAfter(res.header, c.now()); ra > wait {
				wait = min(ra, c.opts.RetryCap)
			}
		}
		c.log.Warn().
			Str("endpoint", endpoint).
			Int("status", res.status).
			Err(err).
			Int("attempt", attempt+1).
			Dur("retry_in", wait).
			Msg("statsapi retrying")
		if err := c.sleep(ctx, wait); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeTransport, "statsapi %s canceled", endpoint)
		}
	}
	return nil, last
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// once runs a single attempt under its own timeout derived from ctx
func (c *Client) once(ctx context.Context, u string) (response, error) {
	actx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodGet, u, nil)
	if err != nil {
		return response{}, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "statsapi new request")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return response{}, err
	}
	defer func() { _ = drainAndClose(resp.Body) }()

	limit := int64(maxBodyBytes)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		limit = errorBodySize
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return response{status: 0, header: resp.Header}, err
	}
	return response{status: resp.StatusCode, header: resp.Header, body: body}, nil
}

// backoff is capped exponential with jitter in [d/2, d)
func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.RetryCap
	if attempt < 32 {
		d = min(c.opts.RetryBase<<uint(attempt), c.opts.RetryCap)
	}
	if half := int64(d / 2); half > 0 {
		return time.Duration(half + c.jitter(half))
	}
	return d
}

// endpointOf labels a path for logs and metrics without ids
func endpointOf(path string) string {
	p := strings.Trim(path, "/")
	switch {
	case strings.HasPrefix(p, "schedule"):
		return "schedule"
	case strings.HasSuffix(p, "/boxscore"):
		return "boxscore"
	default:
		return "other"
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
