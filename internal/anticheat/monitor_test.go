package anticheat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock lets tests advance the monitor's idea of time explicitly.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestMonitor(cfg MonitorConfig, clock *fakeClock, onViolation func(string, int), onMax func()) *Monitor {
	m := NewMonitor(cfg, onViolation, onMax)
	m.now = clock.Now
	return m
}

func TestMonitorCountsAndNotifies(t *testing.T) {
	clock := newFakeClock()
	var got []int
	m := newTestMonitor(MonitorConfig{MaxViolations: 4, DebounceWindow: time.Second}, clock,
		func(_ string, count int) { got = append(got, count) }, nil)

	m.ReportViolation("Tab switch or window minimized")
	clock.Advance(2 * time.Second)
	m.ReportViolation("Copied exam content")

	assert.Equal(t, []int{1, 2}, got)
	assert.Equal(t, 2, m.Count())
	assert.False(t, m.Terminal())
	assert.Equal(t, 1, m.WarningsRemaining())
}

func TestMonitorDebouncesRapidSignals(t *testing.T) {
	clock := newFakeClock()
	m := newTestMonitor(MonitorConfig{MaxViolations: 4, DebounceWindow: time.Second}, clock, nil, nil)

	// One physical blur cascading into three listener firings.
	m.ReportViolation("Left exam window")
	clock.Advance(100 * time.Millisecond)
	m.ReportViolation("Left exam window")
	clock.Advance(100 * time.Millisecond)
	m.ReportViolation("Tab switch or window minimized")

	assert.Equal(t, 1, m.Count(), "signals inside the window collapse into one violation")

	clock.Advance(time.Second)
	m.ReportViolation("Left exam window")
	assert.Equal(t, 2, m.Count())
}

func TestMonitorUnknownTypeStillCounted(t *testing.T) {
	clock := newFakeClock()
	m := newTestMonitor(MonitorConfig{MaxViolations: 4, DebounceWindow: time.Second}, clock, nil, nil)

	m.ReportViolation("some future violation type")
	assert.Equal(t, 1, m.Count())
}

func TestMonitorTerminalAtMax(t *testing.T) {
	clock := newFakeClock()
	maxFired := 0
	m := newTestMonitor(MonitorConfig{MaxViolations: 2, DebounceWindow: time.Second}, clock,
		nil, func() { maxFired++ })

	m.ReportViolation("a")
	clock.Advance(2 * time.Second)
	m.ReportViolation("b")

	assert.True(t, m.Terminal())
	assert.Equal(t, 1, maxFired, "zero grace fires synchronously")
	assert.Equal(t, 0, m.WarningsRemaining())

	// Terminal is irreversible: further reports are inert.
	clock.Advance(2 * time.Second)
	m.ReportViolation("c")
	assert.Equal(t, 2, m.Count())
	assert.Equal(t, 1, maxFired, "OnMaxViolations fires exactly once")
}

func TestMonitorGraceDelaysCallback(t *testing.T) {
	clock := newFakeClock()
	fired := make(chan struct{})
	m := newTestMonitor(MonitorConfig{
		MaxViolations:  1,
		DebounceWindow: time.Second,
		TerminateGrace: 50 * time.Millisecond,
	}, clock, nil, func() { close(fired) })

	m.ReportViolation("a")
	assert.True(t, m.Terminal())

	select {
	case <-fired:
		t.Fatal("callback fired before the grace period")
	case <-time.After(10 * time.Millisecond):
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("callback never fired after the grace period")
	}
}

func TestMonitorCloseStopsPendingGrace(t *testing.T) {
	clock := newFakeClock()
	fired := make(chan struct{}, 1)
	m := newTestMonitor(MonitorConfig{
		MaxViolations:  1,
		DebounceWindow: time.Second,
		TerminateGrace: 50 * time.Millisecond,
	}, clock, nil, func() { fired <- struct{}{} })

	m.ReportViolation("a")
	m.Close()

	select {
	case <-fired:
		t.Fatal("callback fired after Close")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestMonitorSeedResume(t *testing.T) {
	clock := newFakeClock()
	m := newTestMonitor(MonitorConfig{MaxViolations: 4, DebounceWindow: time.Second}, clock, nil, nil)

	m.Seed(3)
	assert.Equal(t, 3, m.Count())
	assert.Equal(t, 0, m.WarningsRemaining())
	assert.False(t, m.Terminal())

	m.ReportViolation("final")
	assert.True(t, m.Terminal())
}

func TestMonitorSeedAlreadyTerminal(t *testing.T) {
	clock := newFakeClock()
	var calls int
	m := newTestMonitor(MonitorConfig{MaxViolations: 4, DebounceWindow: time.Second}, clock,
		func(string, int) { calls++ }, nil)

	m.Seed(4)
	assert.True(t, m.Terminal())

	m.ReportViolation("extra")
	assert.Equal(t, 0, calls, "terminal monitor accepts but never notifies")
	assert.Equal(t, 4, m.Count())
}

func TestMonitorConcurrentReports(t *testing.T) {
	clock := newFakeClock()
	m := newTestMonitor(MonitorConfig{MaxViolations: 1000, DebounceWindow: 0}, clock, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.ReportViolation("concurrent")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, m.Count())
}
