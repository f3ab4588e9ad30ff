// Package ratelimit throttles outbound REST calls. A global limiter caps
// total throughput while named buckets give endpoint classes (public
// market data vs. signed trading calls) their own budgets.
package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Limiter combines a global rate limit with per-bucket limits.
type Limiter struct {
	global  *rate.Limiter
	mu      sync.RWMutex
	buckets map[string]*rate.Limiter

	requests int
	period   time.Duration
	metrics  metrics
}

type metrics struct {
	total   atomic.Int64
	allowed atomic.Int64
	denied  atomic.Int64
}

// New creates a Limiter allowing requests per period, with burst equal to
// the request count.
func New(requests int, period time.Duration) *Limiter {
	return &Limiter{
		global:   rate.NewLimiter(perSecond(requests, period), requests),
		buckets:  make(map[string]*rate.Limiter),
		requests: requests,
		period:   period,
	}
}

func perSecond(requests int, period time.Duration) rate.Limit {
	return rate.Limit(float64(requests) / period.Seconds())
}

// Wait blocks until the global limiter admits a request or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.record(l.global.Wait(ctx))
}

// WaitBucket blocks on both the named bucket's limiter and the global
// limiter. Unknown buckets are created with the default limit.
func (l *Limiter) WaitBucket(ctx context.Context, bucket string) error {
	if err := l.record(l.bucket(bucket).Wait(ctx)); err != nil {
		return err
	}
	return l.global.Wait(ctx)
}

// Allow reports whether the global limiter admits a request right now.
func (l *Limiter) Allow() bool {
	l.metrics.total.Add(1)
	ok := l.global.Allow()
	if ok {
		l.metrics.allowed.Add(1)
	} else {
		l.metrics.denied.Add(1)
	}
	return ok
}

func (l *Limiter) record(err error) error {
	l.metrics.total.Add(1)
	if err != nil {
		l.metrics.denied.Add(1)
		return err
	}
	l.metrics.allowed.Add(1)
	return nil
}

func (l *Limiter) bucket(name string) *rate.Limiter {
	l.mu.RLock()
	lim, ok := l.buckets[name]
	l.mu.RUnlock()
	if ok {
		return lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok = l.buckets[name]; ok {
		return lim
	}
	lim = rate.NewLimiter(perSecond(l.requests, l.period), l.requests)
	l.buckets[name] = lim
	return lim
}

// SetLimit replaces the global limit.
func (l *Limiter) SetLimit(requests int, period time.Duration) {
	l.mu.Lock()
	l.requests = requests
	l.period = period
	l.mu.Unlock()
	l.global.SetLimit(perSecond(requests, period))
	l.global.SetBurst(requests)
}

// SetBucketLimit replaces the limit for one bucket, creating it if needed.
func (l *Limiter) SetBucketLimit(name string, requests int, period time.Duration) {
	lim := l.bucket(name)
	lim.SetLimit(perSecond(requests, period))
	lim.SetBurst(requests)
}

// Snapshot is a point-in-time capture of limiter statistics.
type Snapshot struct {
	Total   int64
	Allowed int64
	Denied  int64
	Buckets int
}

// Metrics returns current limiter statistics.
func (l *Limiter) Metrics() Snapshot {
	l.mu.RLock()
	buckets := len(l.buckets)
	l.mu.RUnlock()
	return Snapshot{
		Total:   l.metrics.total.Load(),
		Allowed: l.metrics.allowed.Load(),
		Denied:  l.metrics.denied.Load(),
		Buckets: buckets,
	}
}
