package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestLimiterSlidingWindow(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()
	limiter := Limiter{Client: client}

	ctx := context.Background()
	window := 2 * time.Second
	max := 3

	for i := 0; i < max; i++ {
		allowed, remaining, _, err := limiter.Allow(ctx, "203.0.113.7", window, max)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !allowed {
			t.Fatalf("expected request %d to be allowed", i)
		}
		if remaining != max-(i+1) {
			t.Fatalf("unexpected remaining after request %d: %d", i, remaining)
		}
	}

	allowed, remaining, _, err := limiter.Allow(ctx, "203.0.113.7", window, max)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if allowed {
		t.Fatal("expected request over the limit to be rejected")
	}
	if remaining != 0 {
		t.Fatalf("expected remaining 0, got %d", remaining)
	}

	// a different key has its own window
	allowed, _, _, err = limiter.Allow(ctx, "198.51.100.4", window, max)
	if err != nil {
		t.Fatalf("allow other key: %v", err)
	}
	if !allowed {
		t.Fatal("expected a fresh key to be allowed")
	}

	mr.FastForward(window)

	allowed, _, _, err = limiter.Allow(ctx, "203.0.113.7", window, max)
	if err != nil {
		t.Fatalf("allow after window: %v", err)
	}
	if !allowed {
		t.Fatal("expected request after the window to be allowed")
	}
}

func TestLimiterWithoutClientFailsOpen(t *testing.T) {
	limiter := Limiter{}
	allowed, _, _, err := limiter.Allow(context.Background(), "any", time.Second, 1)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !allowed {
		t.Fatal("expected limiter without a client to allow")
	}
}
