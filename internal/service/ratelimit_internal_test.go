package service

import (
	"testing"
	"time"
)

func TestTokenBucket_RefillsOverTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tb := newTokenBucket(0.5, 1, func() time.Time { return now })

	if !tb.Allow("k") {
		t.Fatal("first request should be allowed")
	}
	ok, wait := tb.Take("k")
	if ok {
		t.Fatal("second request should be denied")
	}
	if wait != 2*time.Second {
		t.Fatalf("expected 2s until next token, got %s", wait)
	}

	now = now.Add(2 * time.Second)
	if !tb.Allow("k") {
		t.Fatal("request after refill should be allowed")
	}
}

func TestTokenBucket_EvictIdle(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tb := newTokenBucket(1, 1, func() time.Time { return now })

	tb.Allow("old")
	now = now.Add(11 * time.Minute)
	tb.Allow("fresh")

	if n := tb.evictIdle(10 * time.Minute); n != 1 {
		t.Fatalf("expected 1 evicted bucket, got %d", n)
	}
	if _, ok := tb.buckets["fresh"]; !ok {
		t.Fatal("fresh bucket should remain")
	}
}
