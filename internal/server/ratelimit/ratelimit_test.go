package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// newTestLimiter returns a limiter without the cleanup goroutine and with a settable clock
func newTestLimiter(config *Config) (*Limiter, *time.Time) {
	config.CleanupInterval = 0
	l := NewLimiter(config)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiter_Allow(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  3,
		DefaultWindow: time.Minute,
	})

	for i := 0; i < 3; i++ {
		allowed, info := limiter.Allow("client1", "/jobs/abc", "GET")
		if !allowed {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
		if info.Limit != 3 {
			t.Errorf("Expected limit 3, got %d", info.Limit)
		}
		if info.Remaining != 2-i {
			t.Errorf("Request %d: expected %d remaining, got %d", i+1, 2-i, info.Remaining)
		}
	}

	allowed, info := limiter.Allow("client1", "/jobs/abc", "GET")
	if allowed {
		t.Fatal("Expected 4th request to be denied")
	}
	if info.Remaining != 0 {
		t.Errorf("Expected 0 remaining, got %d", info.Remaining)
	}
	// One token every 20s
	if info.RetryAfter < 19*time.Second || info.RetryAfter > 21*time.Second {
		t.Errorf("Expected RetryAfter near 20s, got %v", info.RetryAfter)
	}

	// A different client has its own bucket
	if allowed, _ := limiter.Allow("client2", "/jobs/abc", "GET"); !allowed {
		t.Error("Expected request from another client to be allowed")
	}
}

func TestLimiter_Refill(t *testing.T) {
	limiter, now := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  3,
		DefaultWindow: time.Minute,
	})

	for i := 0; i < 3; i++ {
		limiter.Allow("client1", "/health-check", "GET")
	}
	if allowed, _ := limiter.Allow("client1", "/health-check", "GET"); allowed {
		t.Fatal("Expected request to be denied once the bucket is empty")
	}

	*now = now.Add(21 * time.Second)
	if allowed, _ := limiter.Allow("client1", "/health-check", "GET"); !allowed {
		t.Error("Expected request to be allowed after refill")
	}
	if allowed, _ := limiter.Allow("client1", "/health-check", "GET"); allowed {
		t.Error("Expected request to be denied after consuming the refilled token")
	}
}

func TestLimiter_ResetTime(t *testing.T) {
	limiter, now := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  6,
		DefaultWindow: time.Minute,
	})

	_, info := limiter.Allow("client1", "/jobs/x", "GET")
	// One token spent, refilled in 10s
	reset := info.ResetTime.Sub(*now)
	if reset < 9*time.Second || reset > 11*time.Second {
		t.Errorf("Expected reset near 10s, got %v", reset)
	}
}

func TestLimiter_Whitelist(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"10.0.0.1": true},
	})

	for i := 0; i < 10; i++ {
		if allowed, _ := limiter.Allow("10.0.0.1", "/jobs/x", "GET"); !allowed {
			t.Fatalf("Expected whitelisted request %d to be allowed", i+1)
		}
	}
}

func TestLimiter_Blacklist(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
		Blacklist:     map[string]bool{"10.0.0.2": true},
	})

	if allowed, _ := limiter.Allow("10.0.0.2", "/jobs/x", "GET"); allowed {
		t.Error("Expected blacklisted request to be denied")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:      false,
		DefaultLimit: 1,
	})

	for i := 0; i < 5; i++ {
		if allowed, _ := limiter.Allow("client1", "/jobs/x", "GET"); !allowed {
			t.Fatal("Expected all requests to be allowed when disabled")
		}
	}
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    100,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(10),
	})

	// Burst of 2 on generation, shared across portfolio ids
	paths := []string{"/portfolios/a/generate", "/portfolios/b/generate", "/portfolios/c/generate"}
	for i, path := range paths[:2] {
		allowed, info := limiter.Allow("client1", path, "POST")
		if !allowed {
			t.Fatalf("Expected generate request %d to be allowed", i+1)
		}
		if info.Limit != 10 {
			t.Errorf("Expected endpoint limit 10, got %d", info.Limit)
		}
	}
	allowed, info := limiter.Allow("client1", paths[2], "POST")
	if allowed {
		t.Fatal("Expected third generate request to be denied")
	}
	// 10 per hour is one token every 6 minutes
	if info.RetryAfter < 5*time.Minute || info.RetryAfter > 7*time.Minute {
		t.Errorf("Expected RetryAfter near 6m, got %v", info.RetryAfter)
	}

	// The status endpoint still uses the default limit
	if allowed, _ := limiter.Allow("client1", "/jobs/abc", "GET"); !allowed {
		t.Error("Expected status request to be allowed")
	}
	// Health is unlimited
	for i := 0; i < 200; i++ {
		if allowed, _ := limiter.Allow("client1", "/health", "GET"); !allowed {
			t.Fatal("Expected health check to be unlimited")
		}
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  50,
		DefaultWindow: time.Hour,
	})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := limiter.Allow("client1", "/jobs/x", "GET"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("Expected exactly 50 allowed requests, got %d", allowed)
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	limiter, now := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
		IdleTimeout:   time.Minute,
	})

	for i := 0; i < 5; i++ {
		limiter.Allow(fmt.Sprintf("client%d", i), "/jobs/x", "GET")
	}
	if got := limiter.bucketCount(); got != 5 {
		t.Fatalf("Expected 5 buckets, got %d", got)
	}

	*now = now.Add(30 * time.Second)
	limiter.Allow("client0", "/jobs/x", "GET")
	*now = now.Add(45 * time.Second)
	limiter.cleanupBuckets()

	if got := limiter.bucketCount(); got != 1 {
		t.Errorf("Expected only the recently used bucket to remain, got %d", got)
	}
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()

	if !limiter.config.Enabled {
		t.Error("Expected default config to be enabled")
	}
	if limiter.config.DefaultLimit != 600 {
		t.Errorf("Expected default limit 600, got %d", limiter.config.DefaultLimit)
	}
	// Stop is idempotent
	limiter.Stop()
}

func TestMatchEndpoint(t *testing.T) {
	configs := append(DefaultEndpointConfigs(10), EndpointConfig{Path: "/admin/", Method: "GET", Limit: 5, Window: time.Minute})

	tests := []struct {
		name     string
		path     string
		method   string
		wantPath string
	}{
		{"generate", "/portfolios/123/generate", "POST", "/portfolios/{id}/generate"},
		{"stream", "/portfolios/123/generate/stream", "POST", "/portfolios/{id}/generate/stream"},
		{"wrong method", "/portfolios/123/generate", "GET", ""},
		{"missing id", "/portfolios//generate", "POST", ""},
		{"prefix", "/admin/users/1", "GET", "/admin/"},
		{"health", "/health", "GET", "/health"},
		{"no match", "/jobs/123", "GET", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantPath == "" {
				if got != nil {
					t.Errorf("Expected no match, got %s", got.Path)
				}
				return
			}
			if got == nil || got.Path != tt.wantPath {
				t.Errorf("Expected match %s, got %v", tt.wantPath, got)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "42")
	t.Setenv("RATE_LIMIT_GENERATE_PER_HOUR", "3")
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 10.0.0.2")

	config := LoadConfig()
	if config.DefaultLimit != 42 {
		t.Errorf("Expected default limit 42, got %d", config.DefaultLimit)
	}
	if !config.Whitelist["10.0.0.2"] {
		t.Error("Expected whitelist to contain 10.0.0.2")
	}
	if len(config.EndpointConfigs) != 2 || config.EndpointConfigs[0].Limit != 3 {
		t.Errorf("Expected generate endpoints limited to 3/hour, got %+v", config.EndpointConfigs)
	}

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	if LoadConfig().Enabled {
		t.Error("Expected rate limiting to be disabled")
	}
}
