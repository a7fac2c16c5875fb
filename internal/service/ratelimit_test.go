package service_test

import (
	"sync"
	"testing"
	"time"

	"github.com/msomdec/askhub/internal/service"
)

func TestCredentialLimiter_BurstThenDeny(t *testing.T) {
	tb := service.NewCredentialLimiter()
	defer tb.Close()

	const ip = "203.0.113.7"
	for i := 0; i < service.CredentialBurst; i++ {
		if !tb.Allow(ip) {
			t.Fatalf("login attempt %d should be allowed", i+1)
		}
	}
	ok, wait := tb.Take(ip)
	if ok {
		t.Fatalf("attempt %d should be denied", service.CredentialBurst+1)
	}
	if limit := time.Duration(float64(time.Second) / service.CredentialRate); wait <= 0 || wait > limit {
		t.Fatalf("expected a wait in (0, %s], got %s", limit, wait)
	}
}

func TestCredentialLimiter_PerIP(t *testing.T) {
	tb := service.NewCredentialLimiter()
	defer tb.Close()

	for tb.Allow("198.51.100.1") {
	}
	for _, ip := range []string{"198.51.100.2", "2001:db8::1"} {
		if ok, wait := tb.Take(ip); !ok || wait != 0 {
			t.Fatalf("%s should have its own bucket, got ok=%v wait=%s", ip, ok, wait)
		}
	}
	if tb.Allow("198.51.100.1") {
		t.Fatal("exhausted IP should stay denied")
	}
}

func TestTokenBucket_TakeAllowedHasNoWait(t *testing.T) {
	tb := service.NewTokenBucket(1, 2)
	defer tb.Close()

	for i := 0; i < 2; i++ {
		ok, wait := tb.Take("session-refresh")
		if !ok || wait != 0 {
			t.Fatalf("take %d: expected ok with no wait, got ok=%v wait=%s", i+1, ok, wait)
		}
	}
	if ok, wait := tb.Take("session-refresh"); ok || wait != time.Second {
		t.Fatalf("expected denial with 1s wait, got ok=%v wait=%s", ok, wait)
	}
}

func TestTokenBucket_ZeroRateNeverRefills(t *testing.T) {
	tb := service.NewTokenBucket(0, 2)
	defer tb.Close()

	tb.Allow("k")
	tb.Allow("k")
	ok, wait := tb.Take("k")
	if ok {
		t.Fatal("third request should be denied")
	}
	if wait != 0 {
		t.Fatalf("a bucket that never refills reports no wait, got %s", wait)
	}
}

func TestTokenBucket_ConcurrentCallersShareCapacity(t *testing.T) {
	tb := service.NewTokenBucket(0, 25)
	defer tb.Close()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tb.Allow("shared") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if allowed != 25 {
		t.Fatalf("expected exactly 25 allowed, got %d", allowed)
	}
}

func TestTokenBucket_CloseIsIdempotent(t *testing.T) {
	tb := service.NewTokenBucket(1, 1)
	tb.Close()
	tb.Close()
	if !tb.Allow("k") {
		t.Fatal("Allow should still work after Close")
	}
}
