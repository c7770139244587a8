package anticheat

import (
	"sync"
	"time"
)

// MonitorConfig tunes the violation accumulator.
type MonitorConfig struct {
	// MaxViolations is the count at which the session terminates. The
	// Nth violation is the terminal one, so the student sees at most
	// MaxViolations-1 warnings before forced submission.
	MaxViolations int
	// DebounceWindow drops signals arriving within this interval of the
	// previous accepted violation. One physical event (a single blur)
	// can cascade into several overlapping listener firings.
	DebounceWindow time.Duration
	// TerminateGrace delays the OnMaxViolations callback so the terminal
	// warning can render before navigation or forced submission.
	TerminateGrace time.Duration
}

// Monitor accumulates violations reported by the Detector. It debounces
// rapid-fire signals, counts accepted ones, and notifies its host through
// the two callbacks. It holds no persistence responsibility: the host owns
// writing counts and warning logs.
//
// Once the count reaches MaxViolations the monitor is terminal for the
// rest of its lifetime: further reports are accepted but inert, and
// OnMaxViolations fires exactly once.
type Monitor struct {
	cfg         MonitorConfig
	onViolation func(violationType string, count int)
	onMax       func()

	mu         sync.Mutex
	count      int
	last       time.Time
	terminal   bool
	graceTimer *time.Timer

	now func() time.Time // overridable in tests
}

// NewMonitor creates a Monitor. Both callbacks may be nil.
func NewMonitor(cfg MonitorConfig, onViolation func(string, int), onMax func()) *Monitor {
	if cfg.MaxViolations <= 0 {
		cfg.MaxViolations = 4
	}
	return &Monitor{
		cfg:         cfg,
		onViolation: onViolation,
		onMax:       onMax,
		now:         time.Now,
	}
}

// ReportViolation processes one detected violation. The type string is
// informational only and never validated; unknown types are still counted.
// Safe for concurrent use.
func (m *Monitor) ReportViolation(violationType string) {
	m.mu.Lock()

	if m.terminal {
		// Past the threshold: accepted but inert.
		m.mu.Unlock()
		return
	}

	now := m.now()
	if !m.last.IsZero() && now.Sub(m.last) < m.cfg.DebounceWindow {
		m.mu.Unlock()
		return
	}

	m.last = now
	m.count++
	count := m.count

	reachedMax := count >= m.cfg.MaxViolations
	if reachedMax {
		m.terminal = true
	}
	m.mu.Unlock()

	if m.onViolation != nil {
		m.onViolation(violationType, count)
	}

	if reachedMax && m.onMax != nil {
		if m.cfg.TerminateGrace <= 0 {
			m.onMax()
			return
		}
		m.mu.Lock()
		m.graceTimer = time.AfterFunc(m.cfg.TerminateGrace, m.onMax)
		m.mu.Unlock()
	}
}

// Count returns the accepted violation count.
func (m *Monitor) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// Terminal reports whether the max-violations threshold has been reached.
func (m *Monitor) Terminal() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.terminal
}

// WarningsRemaining returns how many more violations the student may incur
// before the terminal one, never negative.
func (m *Monitor) WarningsRemaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	remaining := m.cfg.MaxViolations - 1 - m.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Seed sets the starting count when resuming a session that already has
// recorded violations. Must be called before the first report.
func (m *Monitor) Seed(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count = count
	if count >= m.cfg.MaxViolations {
		m.terminal = true
	}
}

// Close stops a pending grace timer. The terminal callback will not fire
// after Close returns if it has not already been scheduled to run.
func (m *Monitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.graceTimer != nil {
		m.graceTimer.Stop()
		m.graceTimer = nil
	}
}
