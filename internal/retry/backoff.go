package retry

import "time"

// maxShift caps the doubling so large attempt counts cannot overflow the
// duration arithmetic.
const maxShift = 16

// ExponentialBackoff returns base doubled attempt times (base * 2^attempt).
func ExponentialBackoff(attempt int, base time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > maxShift {
		attempt = maxShift
	}
	return base << uint(attempt)
}
