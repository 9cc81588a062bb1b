package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMiddlewareEnforcesLimit(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	handler := Handler{
		Limiter: Limiter{Client: client},
		Config: Config{
			Key:    func(*http.Request) string { return "checkout" },
			Window: time.Second,
			Max:    1,
		},
	}

	limited := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	first := httptest.NewRecorder()
	limited.ServeHTTP(first, req.Clone(req.Context()))
	if first.Code != http.StatusCreated {
		t.Fatalf("expected first request through, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	limited.ServeHTTP(second, req.Clone(req.Context()))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on second request, got %d", second.Code)
	}
	if second.Header().Get("X-RateLimit-Limit") != "1" {
		t.Fatalf("unexpected limit header: %q", second.Header().Get("X-RateLimit-Limit"))
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on rejection")
	}
}

func TestMiddlewareFailsOpenOnRedisError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer func() { _ = client.Close() }()

	var seenErr error
	handler := Handler{
		Limiter: Limiter{Client: client},
		Config: Config{
			Key:    func(*http.Request) string { return "checkout" },
			Window: time.Second,
			Max:    1,
		},
		OnError: func(err error) { seenErr = err },
	}

	limited := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected request through on limiter failure, got %d", rec.Code)
	}
	if seenErr == nil {
		t.Fatal("expected OnError callback to receive the limiter error")
	}
}

func TestMiddlewareWithoutKeyFuncPassesThrough(t *testing.T) {
	handler := Handler{}
	limited := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected pass through, got %d", rec.Code)
	}
}
