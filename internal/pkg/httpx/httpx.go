package httpx

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"time"
)

func IsRetryableHTTPStatus(code int) bool {
	if code == 408 || code == 429 {
		return true
	}
	return code >= 500 && code <= 599
}

func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// Backoff returns an exponential backoff for the given 1-based attempt with
// +/-20% jitter.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	d := base << uint(attempt-1)
	if max > 0 && d > max {
		d = max
	}
	delta := d.Seconds() * 0.2
	v := d.Seconds() - delta + rand.Float64()*2*delta
	return time.Duration(v * float64(time.Second))
}
