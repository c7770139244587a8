package anticheat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// reportRecorder collects violations delivered by the detector.
type reportRecorder struct {
	mu    sync.Mutex
	types []string
}

func (r *reportRecorder) report(violationType string) {
	r.mu.Lock()
	r.types = append(r.types, violationType)
	r.mu.Unlock()
}

func (r *reportRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.types...)
}

func newTestDetector(cfg DetectorConfig) (*Detector, *reportRecorder) {
	rec := &reportRecorder{}
	return NewDetector(cfg, rec.report), rec
}

func TestDetectorVisibilityHidden(t *testing.T) {
	d, rec := newTestDetector(DetectorConfig{})
	defer d.Close()

	v := d.Handle(Signal{Kind: KindVisibilityHidden})
	assert.Equal(t, ViolationTabSwitch, v.Violation)
	assert.False(t, v.Block)
	assert.Equal(t, []string{ViolationTabSwitch}, rec.all())
}

func TestDetectorClipboardPolicy(t *testing.T) {
	tests := []struct {
		kind      Kind
		wantBlock bool
		wantType  string
	}{
		{KindCopy, true, ViolationCopy},
		{KindCut, true, ViolationCut},
		{KindContextMenu, true, ""},
		{KindDragStart, true, ""},
	}

	for _, tt := range tests {
		d, rec := newTestDetector(DetectorConfig{})
		v := d.Handle(Signal{Kind: tt.kind})
		assert.Equal(t, tt.wantBlock, v.Block, "kind %s", tt.kind)
		assert.Equal(t, tt.wantType, v.Violation, "kind %s", tt.kind)
		if tt.wantType == "" {
			assert.Empty(t, rec.all(), "kind %s must block without counting", tt.kind)
		}
		d.Close()
	}
}

func TestDetectorPasteBlockedNotCounted(t *testing.T) {
	d, rec := newTestDetector(DetectorConfig{})
	defer d.Close()

	v := d.Handle(Signal{Kind: KindPaste})
	assert.True(t, v.Block)
	assert.Empty(t, v.Violation)
	assert.Empty(t, rec.all())
}

func TestDetectorPasteCountedWhenConfigured(t *testing.T) {
	d, rec := newTestDetector(DetectorConfig{CountPaste: true})
	defer d.Close()

	v := d.Handle(Signal{Kind: KindPaste})
	assert.True(t, v.Block)
	assert.Equal(t, ViolationPaste, v.Violation)
	assert.Equal(t, []string{ViolationPaste}, rec.all())
}

func TestDetectorDevtoolsShortcuts(t *testing.T) {
	keys := []Signal{
		{Kind: KindKeyDown, Key: "F12"},
		{Kind: KindKeyDown, Key: "i", Ctrl: true, Shift: true},
		{Kind: KindKeyDown, Key: "J", Meta: true, Shift: true},
		{Kind: KindKeyDown, Key: "c", Ctrl: true, Shift: true},
	}

	for _, sig := range keys {
		d, _ := newTestDetector(DetectorConfig{})
		v := d.Handle(sig)
		assert.True(t, v.Block, "key %q", sig.Key)
		assert.Equal(t, ViolationDevtoolsKey, v.Violation, "key %q", sig.Key)
		d.Close()
	}
}

func TestDetectorHardeningShortcutsBlockSilently(t *testing.T) {
	for _, key := range []string{"a", "p", "s", "u", "f"} {
		d, rec := newTestDetector(DetectorConfig{})
		v := d.Handle(Signal{Kind: KindKeyDown, Key: key, Ctrl: true})
		assert.True(t, v.Block, "ctrl+%s", key)
		assert.Empty(t, v.Violation, "ctrl+%s", key)
		assert.Empty(t, rec.all(), "ctrl+%s", key)
		d.Close()
	}
}

func TestDetectorPrintScreenObservedOnly(t *testing.T) {
	d, rec := newTestDetector(DetectorConfig{})
	defer d.Close()

	v := d.Handle(Signal{Kind: KindKeyDown, Key: "PrintScreen"})
	assert.False(t, v.Block, "printscreen cannot be prevented")
	assert.Equal(t, ViolationPrintScreen, v.Violation)
	assert.Equal(t, []string{ViolationPrintScreen}, rec.all())
}

func TestDetectorPlainKeysIgnored(t *testing.T) {
	d, rec := newTestDetector(DetectorConfig{})
	defer d.Close()

	for _, key := range []string{"a", "Enter", "Tab", "ArrowDown"} {
		v := d.Handle(Signal{Kind: KindKeyDown, Key: key})
		assert.False(t, v.Block, "key %q", key)
		assert.Empty(t, v.Violation, "key %q", key)
	}
	assert.Empty(t, rec.all())
}

func TestDetectorBlurSettledByFocus(t *testing.T) {
	d, rec := newTestDetector(DetectorConfig{BlurSettleDelay: 50 * time.Millisecond})
	defer d.Close()

	d.Handle(Signal{Kind: KindBlur})
	d.Handle(Signal{Kind: KindFocus}) // focus returns inside the window

	time.Sleep(120 * time.Millisecond)
	assert.Empty(t, rec.all(), "a transient blur must not count")
}

func TestDetectorBlurReportedAfterSettle(t *testing.T) {
	d, rec := newTestDetector(DetectorConfig{BlurSettleDelay: 30 * time.Millisecond})
	defer d.Close()

	d.Handle(Signal{Kind: KindBlur})

	assert.Eventually(t, func() bool {
		got := rec.all()
		return len(got) == 1 && got[0] == ViolationWindowBlur
	}, time.Second, 10*time.Millisecond)
}

func TestDetectorHiddenSubsumesPendingBlur(t *testing.T) {
	d, rec := newTestDetector(DetectorConfig{BlurSettleDelay: 50 * time.Millisecond})
	defer d.Close()

	d.Handle(Signal{Kind: KindBlur})
	d.Handle(Signal{Kind: KindVisibilityHidden})

	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, []string{ViolationTabSwitch}, rec.all(),
		"the hidden transition reports once; the pending blur is canceled")
}

func TestDetectorDevtoolsResizeEdgeTriggered(t *testing.T) {
	d, rec := newTestDetector(DetectorConfig{DevtoolsThreshold: 160})
	defer d.Close()

	normal := Signal{Kind: KindResize, OuterWidth: 1920, InnerWidth: 1920, OuterHeight: 1080, InnerHeight: 1000}
	open := Signal{Kind: KindResize, OuterWidth: 1920, InnerWidth: 1500, OuterHeight: 1080, InnerHeight: 1000}

	assert.Empty(t, d.Handle(normal).Violation)

	v := d.Handle(open)
	assert.Equal(t, ViolationDevtools, v.Violation)

	// Held open: no re-fire.
	assert.Empty(t, d.Handle(open).Violation)

	// Close and reopen: fires again.
	assert.Empty(t, d.Handle(normal).Violation)
	assert.Equal(t, ViolationDevtools, d.Handle(open).Violation)

	assert.Equal(t, []string{ViolationDevtools, ViolationDevtools}, rec.all())
}

func TestDetectorCloseCancelsBlur(t *testing.T) {
	d, rec := newTestDetector(DetectorConfig{BlurSettleDelay: 30 * time.Millisecond})

	d.Handle(Signal{Kind: KindBlur})
	d.Close()

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, rec.all())
}
