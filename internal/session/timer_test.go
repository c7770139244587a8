package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCountdownRemainingWallClock(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	c := NewCountdown(start, time.Hour, nil)

	c.now = func() time.Time { return start.Add(15 * time.Minute) }
	assert.Equal(t, 45*time.Minute, c.Remaining())
	assert.Equal(t, 45*60, c.RemainingSeconds())

	// A reconnect later sees less time; the value derives from the wall
	// clock, not from any local decrement.
	c.now = func() time.Time { return start.Add(59*time.Minute + 30*time.Second) }
	assert.Equal(t, 30, c.RemainingSeconds())
}

func TestCountdownRemainingFloorsAtZero(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	c := NewCountdown(start, time.Hour, nil)

	c.now = func() time.Time { return start.Add(2 * time.Hour) }
	assert.Equal(t, time.Duration(0), c.Remaining())
	assert.Equal(t, 0, c.RemainingSeconds())
}

func TestCountdownFiresOnceOnExpiry(t *testing.T) {
	fired := make(chan struct{}, 2)
	// Session started long ago: the first tick is already past deadline.
	c := NewCountdown(time.Now().Add(-time.Hour), time.Minute, func() {
		fired <- struct{}{}
	})
	c.Start()
	defer c.Stop()

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("countdown never fired for an expired session")
	}

	// fireTimeUp is once-only even if invoked again.
	c.fireTimeUp()
	select {
	case <-fired:
		t.Fatal("time-up callback fired twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCountdownStopPreventsFiring(t *testing.T) {
	fired := make(chan struct{}, 1)
	c := NewCountdown(time.Now().Add(-time.Hour), time.Minute, func() {
		fired <- struct{}{}
	})
	c.Start()
	c.Stop()

	select {
	case <-fired:
		t.Fatal("callback fired after Stop")
	case <-time.After(1500 * time.Millisecond):
	}

	// Stop is idempotent.
	c.Stop()
}

func TestCountdownStartIdempotent(t *testing.T) {
	c := NewCountdown(time.Now(), time.Hour, nil)
	c.Start()
	c.Start() // second Start is a no-op, no goroutine leak or panic
	c.Stop()
}
