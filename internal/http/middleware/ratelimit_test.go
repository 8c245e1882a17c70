package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryLimiterRefills(t *testing.T) {
	rl := NewMemoryLimiter(1, 2)
	defer rl.Close()
	now := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow(ctx, "1.2.3.4"); !ok {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if ok, _ := rl.Allow(ctx, "1.2.3.4"); ok {
		t.Fatalf("expected burst to be exhausted")
	}
	if ok, _ := rl.Allow(ctx, "5.6.7.8"); !ok {
		t.Fatalf("other keys have their own bucket")
	}

	now = now.Add(1500 * time.Millisecond)
	if ok, _ := rl.Allow(ctx, "1.2.3.4"); !ok {
		t.Fatalf("expected refill after 1.5s")
	}
}

func TestMemoryLimiterEvictsIdleBuckets(t *testing.T) {
	rl := NewMemoryLimiter(1, 1)
	defer rl.Close()
	_, _ = rl.Allow(context.Background(), "idle")
	rl.evict(time.Now().Add(time.Minute))
	if len(rl.buckets) != 0 {
		t.Fatalf("expected idle bucket to be evicted")
	}
}

func TestRedisLimiterSharesWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	rl := NewRedisLimiter(client, 2)
	now := time.Unix(1700000000, 0)
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, "1.2.3.4")
		if err != nil || !ok {
			t.Fatalf("request %d should be allowed: %v", i, err)
		}
	}
	if ok, _ := rl.Allow(ctx, "1.2.3.4"); ok {
		t.Fatalf("expected third request in window to be rejected")
	}

	now = now.Add(time.Second)
	if ok, _ := rl.Allow(ctx, "1.2.3.4"); !ok {
		t.Fatalf("expected new window to allow")
	}
}

type errLimiter struct{}

func (errLimiter) Allow(context.Context, string) (bool, error) { return false, errors.New("redis down") }

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewMemoryLimiter(0, 1)
	defer rl.Close()
	handler := RateLimit(rl, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func() int {
		req := httptest.NewRequest(http.MethodPost, "/chat", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}
	if code := serve(); code != http.StatusOK {
		t.Fatalf("expected first request allowed, got %d", code)
	}
	if code := serve(); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}

	open := RateLimit(errLimiter{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	open.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected limiter errors to fail open, got %d", rec.Code)
	}
}
