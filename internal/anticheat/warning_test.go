package anticheat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// bannerRecorder captures every banner state the surface publishes.
type bannerRecorder struct {
	mu      sync.Mutex
	banners []Banner
}

func (r *bannerRecorder) notify(b Banner) {
	r.mu.Lock()
	r.banners = append(r.banners, b)
	r.mu.Unlock()
}

func (r *bannerRecorder) last() (Banner, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.banners) == 0 {
		return Banner{}, false
	}
	return r.banners[len(r.banners)-1], true
}

func TestSurfaceShowViolation(t *testing.T) {
	rec := &bannerRecorder{}
	s := NewSurface(time.Minute, rec.notify)
	defer s.Close()

	s.ShowViolation(ViolationTabSwitch, 1, 2)

	b := s.Snapshot()
	assert.True(t, b.Visible)
	assert.Contains(t, b.Message, ViolationTabSwitch)
	assert.Contains(t, b.Message, "2 warning(s) remaining")
	assert.Equal(t, 1, b.Count)
	assert.False(t, b.Terminal)

	got, ok := rec.last()
	assert.True(t, ok)
	assert.Equal(t, b, got)
}

func TestSurfaceAutoClears(t *testing.T) {
	rec := &bannerRecorder{}
	s := NewSurface(30*time.Millisecond, rec.notify)
	defer s.Close()

	s.ShowViolation(ViolationCopy, 1, 2)

	assert.Eventually(t, func() bool {
		return !s.Snapshot().Visible
	}, time.Second, 10*time.Millisecond)

	b := s.Snapshot()
	assert.Empty(t, b.Message)
	assert.Equal(t, 1, b.Count, "the count survives the banner clearing")
}

func TestSurfaceSupersedeResetsTimer(t *testing.T) {
	s := NewSurface(60*time.Millisecond, nil)
	defer s.Close()

	s.ShowViolation(ViolationCopy, 1, 2)
	time.Sleep(40 * time.Millisecond)
	s.ShowViolation(ViolationCut, 2, 1)

	// The first clear timer would have fired by now; the second banner
	// must still be up because its own window restarted.
	time.Sleep(30 * time.Millisecond)
	b := s.Snapshot()
	assert.True(t, b.Visible)
	assert.Contains(t, b.Message, ViolationCut)
	assert.Equal(t, 2, b.Count)
}

func TestSurfaceTerminatedSticky(t *testing.T) {
	s := NewSurface(20*time.Millisecond, nil)
	defer s.Close()

	s.ShowTerminated(4)

	time.Sleep(80 * time.Millisecond)
	b := s.Snapshot()
	assert.True(t, b.Visible, "terminal view never auto-clears")
	assert.True(t, b.Terminal)
	assert.Equal(t, 4, b.Count)

	// Late violations cannot replace the terminal view.
	s.ShowViolation(ViolationCopy, 5, 0)
	assert.True(t, s.Snapshot().Terminal)
}

func TestSurfaceCloseSuppressesUpdates(t *testing.T) {
	rec := &bannerRecorder{}
	s := NewSurface(time.Minute, rec.notify)

	s.Close()
	s.ShowViolation(ViolationCopy, 1, 2)

	_, ok := rec.last()
	assert.False(t, ok)
	assert.False(t, s.Snapshot().Visible)
}
