// Package ratelimit provides a keyed fixed-window request limiter.
package ratelimit

import (
	"sync"
	"sync/atomic"
	"time"

	"fraud_simulator/pkg/clock"
)

const DefaultWindow = time.Minute

// Limiter admits at most maxRequests per key within each fixed window. The
// window for a key opens on its first request and resets entirely once
// window has elapsed. Buckets are created lazily and never evicted.
type Limiter struct {
	maxRequests int
	window      time.Duration
	clock       clock.Clock
	buckets     sync.Map // string -> *bucket
	size        atomic.Int64
}

type bucket struct {
	mu          sync.Mutex
	windowStart time.Time
	started     bool
	count       int
}

// New returns a limiter admitting maxRequests per key in each window. A
// non-positive window means DefaultWindow and a nil clock means clock.Real.
func New(maxRequests int, window time.Duration, c clock.Clock) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if c == nil {
		c = clock.Real{}
	}
	return &Limiter{
		maxRequests: maxRequests,
		window:      window,
		clock:       c,
	}
}

// Allow reports whether a request for key fits in the current window and, if
// so, counts it. A non-positive limit denies everything.
func (l *Limiter) Allow(key string) bool {
	b := l.bucket(key)

	b.mu.Lock()
	defer b.mu.Unlock()

	now := l.clock.Now()
	if !b.started || now.Sub(b.windowStart) >= l.window {
		b.windowStart = now
		b.started = true
		b.count = 0
	}
	if b.count >= l.maxRequests {
		return false
	}
	b.count++
	return true
}

// Len returns the number of distinct keys seen so far.
func (l *Limiter) Len() int {
	return int(l.size.Load())
}

// MaxRequests is the per-key admission count for one window.
func (l *Limiter) MaxRequests() int {
	return l.maxRequests
}

// Window is the length of a counting window.
func (l *Limiter) Window() time.Duration {
	return l.window
}

func (l *Limiter) bucket(key string) *bucket {
	if v, ok := l.buckets.Load(key); ok {
		return v.(*bucket)
	}
	v, loaded := l.buckets.LoadOrStore(key, &bucket{})
	if !loaded {
		l.size.Add(1)
	}
	return v.(*bucket)
}
