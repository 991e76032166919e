package frame

import (
	"golang.org/x/time/rate"
)

// newFrameLimiter paces ticks at fps with a burst of one
func newFrameLimiter(fps float64) *rate.Limiter {
	if fps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(fps), 1)
}
