package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(config *Config) (*Limiter, *fakeClock) {
	config.CleanupInterval = 0
	l := NewLimiter(config)
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l.now = clock.Now
	return l, clock
}

func analyzeConfig(limit, burst int) *Config {
	return &Config{
		Enabled:         true,
		EndpointConfigs: AnalysisEndpoints(limit, time.Minute, burst),
	}
}

func TestLimiter_Allow(t *testing.T) {
	l, _ := newTestLimiter(analyzeConfig(60, 3))
	defer l.Stop()

	for i := 0; i < 3; i++ {
		allowed, info := l.Allow("10.0.0.1", "/api/analyze", "POST")
		if !allowed {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
		if info.Limit != 60 {
			t.Errorf("Expected limit 60, got %d", info.Limit)
		}
		if info.Remaining != 2-i {
			t.Errorf("Expected %d remaining, got %d", 2-i, info.Remaining)
		}
	}

	allowed, info := l.Allow("10.0.0.1", "/api/analyze", "POST")
	if allowed {
		t.Fatal("Expected 4th request to be denied")
	}
	if info.RetryAfter <= 0 || info.RetryAfter > time.Second {
		t.Errorf("Expected retry after within one token interval, got %v", info.RetryAfter)
	}
}

func TestLimiter_Refill(t *testing.T) {
	l, clock := newTestLimiter(analyzeConfig(60, 1))
	defer l.Stop()

	if allowed, _ := l.Allow("c", "/api/analyze", "POST"); !allowed {
		t.Fatal("Expected first request to be allowed")
	}
	if allowed, _ := l.Allow("c", "/api/analyze", "POST"); allowed {
		t.Fatal("Expected second request to be denied")
	}

	clock.Advance(time.Second)

	if allowed, _ := l.Allow("c", "/api/analyze", "POST"); !allowed {
		t.Error("Expected request to be allowed after refill")
	}
}

func TestLimiter_SeparateClientsAndEndpoints(t *testing.T) {
	l, _ := newTestLimiter(analyzeConfig(60, 1))
	defer l.Stop()

	l.Allow("a", "/api/analyze", "POST")
	if allowed, _ := l.Allow("b", "/api/analyze", "POST"); !allowed {
		t.Error("Expected a different client to have its own bucket")
	}
	if allowed, _ := l.Allow("a", "/api/upload-resume", "POST"); !allowed {
		t.Error("Expected a different endpoint to have its own bucket")
	}
}

func TestLimiter_UnlimitedRoutes(t *testing.T) {
	l, _ := newTestLimiter(analyzeConfig(1, 1))
	defer l.Stop()

	for i := 0; i < 10; i++ {
		for _, path := range []string{"/health", "/metrics", "/"} {
			if allowed, info := l.Allow("c", path, "GET"); !allowed || info.Limit != 0 {
				t.Fatalf("Expected %s to be unlimited", path)
			}
		}
	}
	if l.Len() != 0 {
		t.Errorf("Expected no tracked entries, got %d", l.Len())
	}
}

func TestLimiter_DefaultLimit(t *testing.T) {
	config := analyzeConfig(60, 5)
	config.DefaultLimit = 1
	config.DefaultWindow = time.Hour
	l, _ := newTestLimiter(config)
	defer l.Stop()

	l.Allow("c", "/other", "GET")
	if allowed, _ := l.Allow("c", "/other", "GET"); allowed {
		t.Error("Expected default limit to apply to unmatched endpoints")
	}
}

func TestLimiter_WhitelistBlacklist(t *testing.T) {
	config := analyzeConfig(1, 1)
	config.Whitelist = ParseIPList("10.0.0.1, 10.0.0.2")
	config.Blacklist = ParseIPList("10.0.0.9")
	l, _ := newTestLimiter(config)
	defer l.Stop()

	for i := 0; i < 5; i++ {
		if allowed, _ := l.Allow("10.0.0.2", "/api/analyze", "POST"); !allowed {
			t.Fatal("Expected whitelisted client to be allowed")
		}
	}
	if allowed, _ := l.Allow("10.0.0.9", "/health", "GET"); allowed {
		t.Error("Expected blacklisted client to be denied")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: false, EndpointConfigs: AnalysisEndpoints(1, time.Minute, 1)})
	defer l.Stop()

	for i := 0; i < 5; i++ {
		if allowed, _ := l.Allow("c", "/api/analyze", "POST"); !allowed {
			t.Fatal("Expected all requests to be allowed when disabled")
		}
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(analyzeConfig(60, 50))
	defer l.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := l.Allow("c", "/api/analyze", "POST"); allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowedCount != 50 {
		t.Errorf("Expected exactly the burst of 50 to be allowed, got %d", allowedCount)
	}
}

func TestLimiter_EvictIdle(t *testing.T) {
	config := analyzeConfig(60, 5)
	config.IdleTTL = time.Minute
	l, clock := newTestLimiter(config)
	defer l.Stop()

	for i := 0; i < 3; i++ {
		l.Allow(fmt.Sprintf("client-%d", i), "/api/analyze", "POST")
	}
	clock.Advance(2 * time.Minute)
	l.Allow("fresh", "/api/analyze", "POST")

	l.evictIdle(clock.Now())

	if l.Len() != 1 {
		t.Errorf("Expected only the fresh entry to remain, got %d", l.Len())
	}
}

func TestLimiter_StopTwice(t *testing.T) {
	l := NewLimiter(nil)
	l.Stop()
	l.Stop()
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/api/analyze", Method: "POST", Limit: 1},
		{Path: "/api/jobs/", Method: "POST", Limit: 2},
		{Path: "/api/jobs/bulk/", Method: "POST", Limit: 3},
	}

	tests := []struct {
		path, method string
		wantLimit    int
		wantNil      bool
	}{
		{"/api/analyze", "POST", 1, false},
		{"/api/analyze", "GET", 0, true},
		{"/api/jobs/42", "POST", 2, false},
		{"/api/jobs/bulk/7", "POST", 3, false},
		{"/health", "GET", 0, false},
		{"/metrics", "GET", 0, false},
		{"/unknown", "POST", 0, true},
	}

	for _, tt := range tests {
		got := MatchEndpoint(tt.path, tt.method, configs)
		if tt.wantNil {
			if got != nil {
				t.Errorf("%s %s: expected no match, got %+v", tt.method, tt.path, got)
			}
			continue
		}
		if got == nil || got.Limit != tt.wantLimit {
			t.Errorf("%s %s: expected limit %d, got %+v", tt.method, tt.path, tt.wantLimit, got)
		}
	}
}
