package clock

import (
	"testing"
	"time"
)

func TestFakeAdvance(t *testing.T) {
	start := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	c := NewFake(start)

	if !c.Now().Equal(start) {
		t.Fatalf("expected %s, got %s", start, c.Now())
	}

	c.Advance(30 * time.Minute)
	if got := c.Now().Sub(start); got != 30*time.Minute {
		t.Fatalf("expected 30m after advance, got %s", got)
	}

	// Going backwards is ignored.
	c.Advance(-time.Hour)
	c.Set(start)
	if got := c.Now().Sub(start); got != 30*time.Minute {
		t.Fatalf("clock moved backwards: %s", got)
	}

	c.Set(start.Add(2 * time.Hour))
	if got := c.Now().Sub(start); got != 2*time.Hour {
		t.Fatalf("expected 2h after set, got %s", got)
	}
}

func TestRealIsMonotonicEnough(t *testing.T) {
	var c Real
	a := c.Now()
	b := c.Now()
	if b.Before(a) {
		t.Fatalf("real clock went backwards: %s then %s", a, b)
	}
}
