package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_BurstThenDeny(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 6, Burst: 3})
	defer l.Stop()

	for i := 0; i < 3; i++ {
		info := l.Allow("owner-a")
		require.True(t, info.Allowed, "request %d", i+1)
		assert.Equal(t, 6, info.Limit)
		assert.Equal(t, 2-i, info.Remaining)
	}

	info := l.Allow("owner-a")
	assert.False(t, info.Allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Greater(t, info.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, info.RetryAfter, 10*time.Second)
}

func TestLimiter_Refill(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 60, Burst: 1})
	defer l.Stop()

	clock := time.Now()
	l.now = func() time.Time { return clock }

	assert.True(t, l.Allow("k").Allowed)
	assert.False(t, l.Allow("k").Allowed)

	clock = clock.Add(1100 * time.Millisecond)
	assert.True(t, l.Allow("k").Allowed)
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 1, Burst: 1})
	defer l.Stop()

	assert.True(t, l.Allow("a").Allowed)
	assert.False(t, l.Allow("a").Allowed)
	assert.True(t, l.Allow("b").Allowed)
	assert.Equal(t, 2, l.Len())
}

func TestLimiter_Disabled(t *testing.T) {
	l := NewLimiter(Config{})
	defer l.Stop()

	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("a").Allowed)
	}
	assert.False(t, l.Enabled())
	assert.Equal(t, 0, l.Len())
}

func TestLimiter_RemoveIdle(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 10, IdleTTL: time.Minute})
	defer l.Stop()

	clock := time.Now()
	l.now = func() time.Time { return clock }
	l.Allow("old")
	clock = clock.Add(2 * time.Minute)
	l.Allow("new")

	l.removeIdle()

	assert.Equal(t, 1, l.Len())
}

func TestLimiter_Concurrent(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 1, Burst: 50, CleanupInterval: time.Millisecond})
	defer l.Stop()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if l.Allow(fmt.Sprintf("k%d", i%2)).Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	// 50 per key, both keys drained
	assert.Equal(t, 100, allowed)
	assert.False(t, l.Allow("k0").Allowed)
}

func TestLimiter_StopTwice(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 1, CleanupInterval: time.Second})
	l.Stop()
	l.Stop()
}
