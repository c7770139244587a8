package session

import (
	"sync"
	"time"
)

// Countdown derives the remaining exam time from the session start and a
// fixed duration. The remaining value is always recomputed from the wall
// clock, never decremented locally, so it stays correct across page
// reloads and resumed sessions. OnTimeUp fires exactly once, on the first
// tick where the remaining time reaches zero, after which the ticker
// stops itself.
type Countdown struct {
	startedAt time.Time
	duration  time.Duration
	onTimeUp  func()

	now  func() time.Time // overridable in tests
	once sync.Once

	mu   sync.Mutex
	stop chan struct{}
}

// NewCountdown creates a Countdown. onTimeUp may be nil.
func NewCountdown(startedAt time.Time, duration time.Duration, onTimeUp func()) *Countdown {
	return &Countdown{
		startedAt: startedAt,
		duration:  duration,
		onTimeUp:  onTimeUp,
		now:       time.Now,
	}
}

// Remaining returns the time left, floored at zero.
func (c *Countdown) Remaining() time.Duration {
	remaining := c.startedAt.Add(c.duration).Sub(c.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RemainingSeconds returns the whole seconds left, floored at zero.
func (c *Countdown) RemainingSeconds() int {
	return int(c.Remaining() / time.Second)
}

// Start begins ticking once per second on its own goroutine. Starting an
// already-started countdown is a no-op. If the deadline has already
// passed, OnTimeUp fires on the first tick.
func (c *Countdown) Start() {
	c.mu.Lock()
	if c.stop != nil {
		c.mu.Unlock()
		return
	}
	c.stop = make(chan struct{})
	stop := c.stop
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if c.Remaining() > 0 {
					continue
				}
				c.fireTimeUp()
				return
			}
		}
	}()
}

// Stop halts the ticker. Safe to call multiple times and after expiry.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

func (c *Countdown) fireTimeUp() {
	c.once.Do(func() {
		c.Stop()
		if c.onTimeUp != nil {
			c.onTimeUp()
		}
	})
}
