package httpx

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

type HTTPStatusCoder interface {
	HTTPStatusCode() int
}

func IsRetryableHTTPStatus(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var sc HTTPStatusCoder
	if errors.As(err, &sc) {
		return IsRetryableHTTPStatus(sc.HTTPStatusCode())
	}
	return false
}

func RetryAfterDuration(resp *http.Response, fallback, max time.Duration) time.Duration {
	sleepFor := fallback
	if resp != nil {
		if ra := strings.TrimSpace(resp.Header.Get("Retry-After")); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
				sleepFor = time.Duration(secs) * time.Second
			}
		}
	}
	if max > 0 && sleepFor > max {
		sleepFor = max
	}
	return sleepFor
}

// JitterSleep spreads base by +/-20%.
func JitterSleep(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delta := base.Seconds() * 0.2
	low := base.Seconds() - delta
	v := low + rand.Float64()*(2*delta)
	return time.Duration(v * float64(time.Second))
}

// Attempt performs one request. It returns the response (possibly nil) so
// Retry can honour Retry-After.
type Attempt func(ctx context.Context) (*http.Response, error)

// Retry runs attempt until it succeeds, fails permanently, or maxRetries is
// exhausted, backing off exponentially from base.
func Retry(ctx context.Context, log *logger.Logger, name string, maxRetries int, base time.Duration, attempt Attempt) (*http.Response, error) {
	backoff := base
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := attempt(ctx)
		if err == nil {
			return resp, nil
		}
		if !IsRetryableError(err) || i >= maxRetries {
			return resp, err
		}
		sleepFor := JitterSleep(RetryAfterDuration(resp, backoff, 10*time.Second))
		log.Warn("HTTP request retrying",
			"request", name,
			"attempt", i+1,
			"max_retries", maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleepFor):
		}
		backoff *= 2
	}
}

// BearerToken returns the "token" query parameter, falling back to an
// "Authorization: Bearer" header. Empty when neither is present.
func BearerToken(r *http.Request) string {
	if q := strings.TrimSpace(r.URL.Query().Get("token")); q != "" {
		return q
	}
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
