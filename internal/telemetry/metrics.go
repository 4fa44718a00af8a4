package telemetry

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

type Counter struct{ n atomic.Int64 }

func (c *Counter) Inc()         { c.n.Add(1) }
func (c *Counter) Add(d int64)  { c.n.Add(d) }
func (c *Counter) Value() int64 { return c.n.Load() }

// Gauge holds a level rather than a running total (quotes up: 0 or 1).
type Gauge struct{ v atomic.Int64 }

func (g *Gauge) Set(v int64)  { g.v.Store(v) }
func (g *Gauge) Value() int64 { return g.v.Load() }

// LatencyTracker keeps the most recent samples in a fixed ring. The REST
// client feeds it one sample per exchange call; the engines read P50/P99
// only for the shutdown summary, so percentiles sort a copy on demand.
type LatencyTracker struct {
	mu   sync.Mutex
	ring []time.Duration
	next int
	full bool
}

func NewLatencyTracker(size int) *LatencyTracker {
	return &LatencyTracker{ring: make([]time.Duration, max(size, 1))}
}

func (lt *LatencyTracker) Record(d time.Duration) {
	lt.mu.Lock()
	lt.ring[lt.next] = d
	lt.next = (lt.next + 1) % len(lt.ring)
	if lt.next == 0 {
		lt.full = true
	}
	lt.mu.Unlock()
}

func (lt *LatencyTracker) P50() time.Duration { return lt.percentile(0.50) }
func (lt *LatencyTracker) P99() time.Duration { return lt.percentile(0.99) }

func (lt *LatencyTracker) percentile(p float64) time.Duration {
	lt.mu.Lock()
	n := lt.next
	if lt.full {
		n = len(lt.ring)
	}
	samples := slices.Clone(lt.ring[:n])
	lt.mu.Unlock()

	if len(samples) == 0 {
		return 0
	}
	slices.Sort(samples)
	return samples[int(float64(len(samples)-1)*p)]
}

// Registry is the process-wide set of engine counters. Both engines share
// it; each binary runs one engine, so the counts are per engine in practice.
type Registry struct {
	OrdersSent      Counter
	OrderErrors     Counter
	OrdersCancelled Counter
	CancelErrors    Counter
	FillsProcessed  Counter
	Reposts         Counter
	Pauses          Counter
	AlertsSent      Counter
	AlertsFailed    Counter
	QuotesUp        Gauge

	RequestLatency  *LatencyTracker
	RateLimiterWait *LatencyTracker
}

func NewRegistry() *Registry {
	return &Registry{
		RequestLatency:  NewLatencyTracker(1000),
		RateLimiterWait: NewLatencyTracker(1000),
	}
}

// Summary is the one-line shutdown report.
func (r *Registry) Summary() string {
	return fmt.Sprintf("orders=%d order_errors=%d cancels=%d cancel_errors=%d fills=%d reposts=%d pauses=%d alerts=%d/%d api_p50=%s api_p99=%s",
		r.OrdersSent.Value(), r.OrderErrors.Value(),
		r.OrdersCancelled.Value(), r.CancelErrors.Value(),
		r.FillsProcessed.Value(), r.Reposts.Value(), r.Pauses.Value(),
		r.AlertsSent.Value(), r.AlertsSent.Value()+r.AlertsFailed.Value(),
		r.RequestLatency.P50(), r.RequestLatency.P99(),
	)
}

var Metrics = NewRegistry()
