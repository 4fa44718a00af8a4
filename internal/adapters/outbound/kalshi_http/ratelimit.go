package kalshi_http

import (
	"context"
	"time"

	"github.com/charleschow/kalshi-mm/internal/telemetry"
	"golang.org/x/time/rate"
)

// DefaultRateInterval keeps the client at or under ~8 calls/second, below the
// exchange's basic-tier write limit.
const DefaultRateInterval = 120 * time.Millisecond

// RateLimiter enforces a minimum spacing between outbound calls. Burst is
// one: a caller never gets more than the single call it is about to make.
type RateLimiter struct {
	lim      *rate.Limiter
	interval time.Duration
}

func NewRateLimiter(interval time.Duration) *RateLimiter {
	if interval <= 0 {
		return &RateLimiter{lim: rate.NewLimiter(rate.Inf, 1)}
	}
	return &RateLimiter{
		lim:      rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
	}
}

// Wait blocks until interval has elapsed since the previous call was let
// through, or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := r.lim.Wait(ctx); err != nil {
		return err
	}
	telemetry.Metrics.RateLimiterWait.Record(time.Since(start))
	return nil
}

func (r *RateLimiter) Interval() time.Duration { return r.interval }
