package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(t *testing.T, config *Config) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLimiter(config)
	l.now = clock.Now
	t.Cleanup(l.Stop)
	return l, clock
}

func TestTokenBucket(t *testing.T) {
	start := time.Now()
	bucket := newTokenBucket(3, 1.0, start)

	for i := 0; i < 3; i++ {
		assert.True(t, bucket.take(start), "request %d", i+1)
	}
	assert.False(t, bucket.take(start))

	assert.True(t, bucket.take(start.Add(1100*time.Millisecond)))
	assert.False(t, bucket.take(start.Add(1100*time.Millisecond)))

	remaining, reset := bucket.status(start.Add(1100 * time.Millisecond))
	assert.Equal(t, 0, remaining)
	assert.True(t, reset.After(start.Add(1100*time.Millisecond)))
}

func TestLimiter_DefaultLimit(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 5, DefaultWindow: time.Minute})

	for i := 0; i < 5; i++ {
		allowed, info := l.Allow("10.0.0.1", "/directors", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 5, info.Limit)
		assert.Equal(t, 4-i, info.Remaining)
	}

	allowed, info := l.Allow("10.0.0.1", "/directors", "GET")
	assert.False(t, allowed)
	assert.InDelta(t, float64(12*time.Second), float64(info.RetryAfter), float64(time.Millisecond))

	allowed, _ = l.Allow("10.0.0.2", "/directors", "GET")
	assert.True(t, allowed, "clients are limited independently")

	clock.Advance(13 * time.Second)
	allowed, _ = l.Allow("10.0.0.1", "/directors", "GET")
	assert.True(t, allowed, "one token refilled")
}

func TestLimiter_MatchEndpointsShareBucket(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{
		Enabled:         true,
		DefaultLimit:    100,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(6, time.Hour),
	})

	allowed, info := l.Allow("10.0.0.1", "/match/director", "POST")
	assert.True(t, allowed)
	assert.Equal(t, 6, info.Limit)

	allowed, _ = l.Allow("10.0.0.1", "/match/nurse", "POST")
	assert.False(t, allowed, "burst of 1 is shared across /match/ endpoints")
}

func TestLimiter_HealthIsUnlimited(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{
		Enabled:         true,
		DefaultLimit:    1,
		DefaultWindow:   time.Hour,
		EndpointConfigs: DefaultEndpointConfigs(30, time.Hour),
	})

	for i := 0; i < 10; i++ {
		allowed, _ := l.Allow("10.0.0.1", "/health", "GET")
		assert.True(t, allowed)
	}
}

func TestLimiter_DisabledWhitelistBlacklist(t *testing.T) {
	disabled, _ := newTestLimiter(t, &Config{Enabled: false})
	allowed, _ := disabled.Allow("10.0.0.1", "/match/director", "POST")
	assert.True(t, allowed)

	l, _ := newTestLimiter(t, &Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Hour,
		Whitelist:     map[string]bool{"10.0.0.9": true},
		Blacklist:     map[string]bool{"10.0.0.6": true},
	})
	for i := 0; i < 3; i++ {
		allowed, _ = l.Allow("10.0.0.9", "/stats", "GET")
		assert.True(t, allowed)
	}
	allowed, _ = l.Allow("10.0.0.6", "/stats", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Cleanup(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute, IdleTTL: time.Hour})

	l.Allow("10.0.0.1", "/stats", "GET")
	clock.Advance(30 * time.Minute)
	l.Allow("10.0.0.2", "/stats", "GET")
	clock.Advance(45 * time.Minute)

	l.cleanup()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.entries, 1)
	assert.Contains(t, l.entries, "10.0.0.2 GET /stats")
}

func TestLimiter_StopEndsCleanupLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := NewLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute, CleanupInterval: time.Millisecond})
	l.Allow("10.0.0.1", "/stats", "GET")
	time.Sleep(5 * time.Millisecond)

	l.Stop()
	l.Stop()
}

func TestLimiter_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 50, DefaultWindow: time.Hour})

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("10.0.0.1", "/nurses", "GET"); ok {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowedCount)
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/match/", Method: "POST", Limit: 30},
		{Path: "/match/manual", Method: "POST", Limit: 5},
		{Path: "/auth/login", Method: "POST", Limit: 10},
	}

	tests := []struct {
		path, method string
		wantLimit    int
		wantNil      bool
	}{
		{"/match/director", "POST", 30, false},
		{"/match/manual", "POST", 5, false},
		{"/auth/login", "POST", 10, false},
		{"/auth/login/extra", "POST", 0, true},
		{"/match/director", "GET", 0, true},
		{"/stats", "GET", 0, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %s", tt.method, tt.path), func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantLimit, got.Limit)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "")
	t.Setenv("RATE_LIMIT_MATCH_LIMIT", "12")
	t.Setenv("RATE_LIMIT_WHITELIST", "127.0.0.1, 10.0.0.1")
	t.Setenv("RATE_LIMIT_DEFAULT_WINDOW", "not-a-duration")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, time.Minute, cfg.DefaultWindow)
	assert.True(t, cfg.Whitelist["10.0.0.1"])

	match := MatchEndpoint("/match/nurse", "POST", cfg.EndpointConfigs)
	require.NotNil(t, match)
	assert.Equal(t, 12, match.Limit)
	assert.Equal(t, 2, match.Burst)

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig().Enabled)
}
