package timeutil

import (
	"testing"
	"time"
)

func TestMockClockNowAndAdvance(t *testing.T) {
	start := time.Date(2019, 4, 10, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	if got := c.Now(); !got.Equal(start) {
		t.Errorf("Now() = %v, want %v", got, start)
	}

	c.Advance(90 * time.Second)
	want := start.Add(90 * time.Second)
	if got := c.Now(); !got.Equal(want) {
		t.Errorf("after Advance, Now() = %v, want %v", got, want)
	}
	if got := c.Since(start); got != 90*time.Second {
		t.Errorf("Since(start) = %v, want 90s", got)
	}
}

func TestMockClockSet(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	target := time.Date(2019, 4, 12, 8, 30, 0, 0, time.UTC)
	c.Set(target)
	if got := c.Now(); !got.Equal(target) {
		t.Errorf("Now() = %v, want %v", got, target)
	}
}

func TestMockClockRecordsSleeps(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	c.Sleep(50 * time.Millisecond)
	c.Sleep(100 * time.Millisecond)

	sleeps := c.Sleeps()
	if len(sleeps) != 2 {
		t.Fatalf("recorded %d sleeps, want 2", len(sleeps))
	}
	if sleeps[0] != 50*time.Millisecond || sleeps[1] != 100*time.Millisecond {
		t.Errorf("sleeps = %v, want [50ms 100ms]", sleeps)
	}
}

func TestRealClock(t *testing.T) {
	var c Clock = RealClock{}
	before := time.Now()
	if c.Now().Before(before) {
		t.Error("RealClock.Now went backwards")
	}
	if c.Since(before) < 0 {
		t.Error("RealClock.Since returned a negative duration")
	}
}
