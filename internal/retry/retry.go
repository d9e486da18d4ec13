// Package retry wraps a single outbound call with bounded retry,
// exponential backoff plus full jitter, and a classifier that decides
// which failures are worth another attempt.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"syscall"
	"time"
)

// HTTPError carries an upstream status code so the classifier can
// separate throttling and server faults (retryable) from client errors
// (not). Outbound clients return it for any non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

// Client retries a wrapped call up to Attempts times. Callers must
// ensure the wrapped action is safe to repeat (or carries a provider
// idempotency key); the client cannot tell a lost response from a lost
// request.
type Client struct {
	// Attempts is the total attempt budget, first call included.
	// Zero or less defaults to 3.
	Attempts int

	// BaseDelay seeds the backoff: attempt n sleeps
	// BaseDelay*2^n + random(0, BaseDelay), capped at MaxDelay.
	// Zero or less defaults to 250ms.
	BaseDelay time.Duration

	// MaxDelay caps a single backoff sleep. Zero or less defaults to 30s.
	MaxDelay time.Duration

	Logger *slog.Logger
}

// Do invokes fn, retrying retryable failures until the attempt budget
// or the context runs out. The last error is returned unwrapped so
// callers can still classify it.
func (c Client) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := c.Attempts
	if attempts <= 0 {
		attempts = 3
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !Retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts-1 {
			break
		}

		delay := c.backoff(attempt)
		if c.Logger != nil {
			c.Logger.Debug("retrying after transient failure",
				"attempt", attempt+1,
				"delay", delay,
				"error", lastErr,
			)
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

// Retryable reports whether err is worth another attempt: HTTP 429 or
// 5xx, or a transient connection failure (timeout, reset, refused,
// truncated response).
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == 429 || httpErr.StatusCode >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	return false
}

func (c Client) backoff(attempt int) time.Duration {
	base := c.BaseDelay
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	maximum := c.MaxDelay
	if maximum <= 0 {
		maximum = 30 * time.Second
	}

	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= maximum {
			delay = maximum
			break
		}
	}

	jitter := time.Duration(rand.Int63n(int64(base) + 1))
	if delay+jitter > maximum {
		return maximum
	}
	return delay + jitter
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
