package statsapi

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	perr "nhldata/internal/platform/errors"
)

// HTTPError is a fetch that failed after the retry budget or on a non retryable status
// Status 0 means no response was received
type HTTPError struct {
	Status   int
	Body     string
	URL      string
	Attempts int
	Err      error
}

// Error interface
func (e *HTTPError) Error() string {
	if e.Transport() {
		return fmt.Sprintf("statsapi GET %s: transport failure after %d attempts: %v", e.URL, e.Attempts, e.Err)
	}
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("statsapi GET %s: status %d after %d attempts: %s", e.URL, e.Status, e.Attempts, body)
}

// Unwrap interface
func (e *HTTPError) Unwrap() error { return e.Err }

// Transport reports whether the failure was network level
func (e *HTTPError) Transport() bool { return e.Status == 0 }

// HTTPStatus interface
func (e *HTTPError) HTTPStatus() int { return e.Status }

// ErrCode lets perr.CodeOf classify the failure
func (e *HTTPError) ErrCode() perr.ErrorCode {
	if e.Transport() {
		return perr.ErrorCodeTransport
	}
	return perr.ErrorCodeUpstream
}

// retryAfter reads Retry-After as seconds or an HTTP date
// only rate limiting and maintenance answers carry a meaningful Retry-After
func honoursRetryAfter(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

func retryAfter(h http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if s, err := strconv.Atoi(v); err == nil {
		if s <= 0 {
			return 0
		}
		return time.Duration(s) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}
