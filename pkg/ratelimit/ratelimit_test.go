package ratelimit

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter(limit int, window time.Duration) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	l := New(limit, window)
	l.now = clock.now
	return l, clock
}

func TestAllowExhaustsAndRefills(t *testing.T) {
	l, clock := newTestLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d rejected", i)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("fourth request allowed")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("other key rejected")
	}
	clock.t = clock.t.Add(20 * time.Second)
	if !l.Allow("10.0.0.1") {
		t.Error("request after refill rejected")
	}
	if l.Allow("10.0.0.1") {
		t.Error("refill granted more than one token")
	}
}

func TestZeroLimitRejects(t *testing.T) {
	l, _ := newTestLimiter(0, time.Minute)
	if l.Allow("k") || l.Allow("k") {
		t.Error("zero limit allowed a request")
	}
}

func TestSweep(t *testing.T) {
	l, clock := newTestLimiter(5, time.Minute)
	l.Allow("old")
	clock.t = clock.t.Add(90 * time.Second)
	l.Allow("new")
	clock.t = clock.t.Add(40 * time.Second)
	l.sweep()
	if l.Len() != 1 {
		t.Errorf("Len = %d after sweep, want 1", l.Len())
	}
}

func TestRetryAfter(t *testing.T) {
	if got := New(60, time.Minute).RetryAfter(); got != time.Second {
		t.Errorf("RetryAfter = %v, want 1s", got)
	}
}
