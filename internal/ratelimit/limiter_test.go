package ratelimit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraud_simulator/pkg/clock"
)

var epoch = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func TestLimiterAllow_ExhaustsWindow(t *testing.T) {
	c := clock.NewFake(epoch)
	limiter := New(3, time.Minute, c)

	for i := 0; i < 3; i++ {
		require.True(t, limiter.Allow("10.0.0.1"), "request %d should be allowed", i)
	}
	assert.False(t, limiter.Allow("10.0.0.1"), "request over the limit should be denied")

	c.Advance(59 * time.Second)
	assert.False(t, limiter.Allow("10.0.0.1"), "still inside the window")
}

func TestLimiterAllow_ResetsAtWindowBoundary(t *testing.T) {
	c := clock.NewFake(epoch)
	limiter := New(2, time.Minute, c)

	require.True(t, limiter.Allow("k"))
	require.True(t, limiter.Allow("k"))
	require.False(t, limiter.Allow("k"))

	// Exactly one window later counts as a new window.
	c.Advance(time.Minute)
	assert.True(t, limiter.Allow("k"))
	assert.True(t, limiter.Allow("k"), "count restarted at 1 after reset")
	assert.False(t, limiter.Allow("k"))
}

func TestLimiterAllow_DeniedCallsDoNotCount(t *testing.T) {
	c := clock.NewFake(epoch)
	limiter := New(1, time.Minute, c)

	require.True(t, limiter.Allow("k"))
	for i := 0; i < 10; i++ {
		require.False(t, limiter.Allow("k"))
	}

	c.Advance(time.Minute)
	assert.True(t, limiter.Allow("k"))
}

func TestLimiterAllow_KeysAreIndependent(t *testing.T) {
	limiter := New(1, time.Minute, clock.NewFake(epoch))

	assert.True(t, limiter.Allow("client-a"))
	assert.False(t, limiter.Allow("client-a"))
	assert.True(t, limiter.Allow("client-b"))
	assert.Equal(t, 2, limiter.Len())
}

func TestLimiterAllow_NonPositiveLimitDeniesAll(t *testing.T) {
	for _, limit := range []int{0, -5} {
		limiter := New(limit, time.Minute, clock.NewFake(epoch))
		assert.False(t, limiter.Allow("k"), "limit %d", limit)
	}
}

func TestNew_Defaults(t *testing.T) {
	limiter := New(5, 0, nil)

	assert.Equal(t, DefaultWindow, limiter.Window())
	assert.Equal(t, 5, limiter.MaxRequests())
	assert.True(t, limiter.Allow("k"))
}

func TestLimiterAllow_ConcurrentSameKey(t *testing.T) {
	const (
		limit   = 50
		callers = 500
	)
	limiter := New(limit, time.Minute, clock.NewFake(epoch))

	var allowed, denied atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			<-start
			if limiter.Allow("shared") {
				allowed.Add(1)
			} else {
				denied.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(limit), allowed.Load())
	assert.Equal(t, int64(callers-limit), denied.Load())
	assert.Equal(t, 1, limiter.Len())
}

func TestLimiterAllow_LastSlotRace(t *testing.T) {
	for round := 0; round < 200; round++ {
		limiter := New(2, time.Minute, clock.NewFake(epoch))
		require.True(t, limiter.Allow("k"))

		results := make(chan bool, 2)
		var wg sync.WaitGroup
		wg.Add(2)
		for i := 0; i < 2; i++ {
			go func() {
				defer wg.Done()
				results <- limiter.Allow("k")
			}()
		}
		wg.Wait()
		close(results)

		admitted := 0
		for ok := range results {
			if ok {
				admitted++
			}
		}
		require.Equal(t, 1, admitted, "round %d", round)
	}
}

func TestLimiterAllow_ConcurrentManyKeys(t *testing.T) {
	const (
		keys  = 20
		limit = 5
		calls = 30
	)
	limiter := New(limit, time.Minute, clock.NewFake(epoch))

	counts := make([]atomic.Int64, keys)
	var wg sync.WaitGroup
	for k := 0; k < keys; k++ {
		for i := 0; i < calls; i++ {
			wg.Add(1)
			go func(k int) {
				defer wg.Done()
				if limiter.Allow(fmt.Sprintf("client-%d", k)) {
					counts[k].Add(1)
				}
			}(k)
		}
	}
	wg.Wait()

	for k := range counts {
		assert.Equal(t, int64(limit), counts[k].Load(), "client-%d", k)
	}
	assert.Equal(t, keys, limiter.Len())
}
