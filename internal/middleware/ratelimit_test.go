package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupRateLimit(t *testing.T, maxPerMin int) http.Handler {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	return LoginRateLimit(cache, maxPerMin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestLoginRateLimitAllowsUnderLimit(t *testing.T) {
	handler := setupRateLimit(t, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i+1, rr.Code)
		}
	}
}

func TestLoginRateLimitBlocksOverLimit(t *testing.T) {
	handler := setupRateLimit(t, 2)
	var last int
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		handler.ServeHTTP(rr, req)
		last = rr.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on third attempt, got %d", last)
	}
}

func TestLoginRateLimitSeparatesClients(t *testing.T) {
	handler := setupRateLimit(t, 1)
	for _, addr := range []string{"10.0.0.3:1", "10.0.0.4:1"} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = addr
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected first attempt from %s to pass, got %d", addr, rr.Code)
		}
	}
}

func TestLoginRateLimitNilClientNoOp(t *testing.T) {
	handler := LoginRateLimit(nil, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	for i := 0; i < 5; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected no-op without redis, got %d", rr.Code)
		}
	}
}
