package clock

import (
	"testing"
	"time"
)

func TestFake_Advance(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewFake(start)

	if got := c.Now(); !got.Equal(start) {
		t.Fatalf("expected %v, got %v", start, got)
	}
	c.Advance(time.Minute)
	if got := Since(c, start); got != time.Minute {
		t.Errorf("expected 1m since start, got %v", got)
	}
}

func TestFake_Step(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewFake(start)
	c.SetStep(250 * time.Millisecond)

	first := c.Now()
	second := c.Now()

	if d := second.Sub(first); d != 250*time.Millisecond {
		t.Errorf("expected step of 250ms, got %v", d)
	}
}
