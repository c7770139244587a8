package anticheat

import (
	"fmt"
	"sync"
	"time"
)

// Banner is the current state of the warning surface, pushed to the client
// whenever it changes.
type Banner struct {
	Visible   bool   `json:"visible"`
	Message   string `json:"message"`
	Count     int    `json:"count"`
	Remaining int    `json:"remaining"`
	Terminal  bool   `json:"terminal"`
}

// Surface is a reactive projection of Monitor state: a transient warning
// banner that auto-clears after a fixed delay unless superseded, and a
// terminal view once max violations is reached. It mutates no session
// state; it only renders what the callbacks tell it.
type Surface struct {
	display time.Duration
	notify  func(Banner)

	mu         sync.Mutex
	banner     Banner
	clearTimer *time.Timer
	closed     bool
}

// NewSurface creates a Surface. notify is invoked on every state change
// and may be nil.
func NewSurface(display time.Duration, notify func(Banner)) *Surface {
	if display <= 0 {
		display = 5 * time.Second
	}
	return &Surface{display: display, notify: notify}
}

// ShowViolation renders a warning banner for one accepted violation.
// A previous banner is superseded and its clear timer reset.
func (s *Surface) ShowViolation(violationType string, count, remaining int) {
	s.mu.Lock()
	if s.closed || s.banner.Terminal {
		s.mu.Unlock()
		return
	}

	s.banner = Banner{
		Visible:   true,
		Message:   fmt.Sprintf("Warning: %s. You have %d warning(s) remaining.", violationType, remaining),
		Count:     count,
		Remaining: remaining,
	}
	s.resetClearTimerLocked()
	banner := s.banner
	s.mu.Unlock()

	s.publish(banner)
}

// ShowTerminated renders the terminal view. It does not auto-clear.
func (s *Surface) ShowTerminated(count int) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.clearTimer != nil {
		s.clearTimer.Stop()
		s.clearTimer = nil
	}
	s.banner = Banner{
		Visible:  true,
		Message:  "Maximum violations reached. Your exam will be submitted.",
		Count:    count,
		Terminal: true,
	}
	banner := s.banner
	s.mu.Unlock()

	s.publish(banner)
}

// Snapshot returns the current banner state.
func (s *Surface) Snapshot() Banner {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.banner
}

// Close stops the clear timer and suppresses further updates.
func (s *Surface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.clearTimer != nil {
		s.clearTimer.Stop()
		s.clearTimer = nil
	}
}

func (s *Surface) resetClearTimerLocked() {
	if s.clearTimer != nil {
		s.clearTimer.Stop()
	}
	s.clearTimer = time.AfterFunc(s.display, s.clear)
}

func (s *Surface) clear() {
	s.mu.Lock()
	if s.closed || s.banner.Terminal || !s.banner.Visible {
		s.mu.Unlock()
		return
	}
	s.banner.Visible = false
	s.banner.Message = ""
	banner := s.banner
	s.mu.Unlock()

	s.publish(banner)
}

func (s *Surface) publish(b Banner) {
	if s.notify != nil {
		s.notify(b)
	}
}
