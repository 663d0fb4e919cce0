package generation

import "time"

const (
	baseRetryDelay = time.Second
	maxRetryDelay  = 10 * time.Second
)

// RetryDelay returns the backoff before retry attempt n (1-indexed):
// min(1s * 2^(n-1), 10s).
func RetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := baseRetryDelay << uint(attempt-1)
	if d <= 0 || d > maxRetryDelay {
		return maxRetryDelay
	}
	return d
}
