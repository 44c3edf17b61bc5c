package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestFixedWindowLimiter(t *testing.T) {
	redisSrv := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redisSrv.Addr(), "", "", 2, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}

	if !limiter.Allow("1.2.3.4") {
		t.Fatal("first request should pass")
	}
	if !limiter.Allow("1.2.3.4") {
		t.Fatal("second request should pass")
	}
	if limiter.Allow("1.2.3.4") {
		t.Fatal("third request should be limited")
	}
	// Other keys have their own window.
	if !limiter.Allow("5.6.7.8") {
		t.Fatal("different key should pass")
	}
}

func TestFixedWindowLimiterFailsClosed(t *testing.T) {
	redisSrv := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redisSrv.Addr(), "", "", 1, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	redisSrv.Close()

	if limiter.Allow("1.2.3.4") {
		t.Fatal("redis failure must deny the request")
	}
}

func TestFixedWindowLimiterValidation(t *testing.T) {
	if _, err := NewRedisFixedWindowLimiter("", "", "", 1, time.Minute); err == nil {
		t.Fatal("expected error for missing addr")
	}
	if _, err := NewRedisFixedWindowLimiter("localhost:6379", "", "", 0, time.Minute); err == nil {
		t.Fatal("expected error for zero limit")
	}
}
