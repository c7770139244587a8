package anticheat

import (
	"strings"
	"sync"
	"time"
)

// DetectorConfig tunes signal classification.
type DetectorConfig struct {
	// CountPaste reports paste events as violations. The baseline policy
	// blocks pastes without counting them.
	CountPaste bool
	// DevtoolsThreshold is the outer-minus-inner window size delta (px)
	// above which devtools is considered open.
	DevtoolsThreshold int
	// BlurSettleDelay is how long a blur signal waits for a follow-up
	// focus before it is reported. Absorbs false positives from OS
	// notifications and slow window manager transitions.
	BlurSettleDelay time.Duration
}

// Detector classifies raw input signals into blocked actions and named
// violations. Violations are delivered through the report callback; the
// Verdict return value tells the transport what the client must block.
//
// The devtools size heuristic is edge-triggered: it fires on open, stays
// silent while devtools is held open, and re-arms once the window returns
// to normal. Best-effort only, not a security boundary.
type Detector struct {
	cfg    DetectorConfig
	report func(violationType string)

	mu           sync.Mutex
	devtoolsOpen bool
	blurTimer    *time.Timer
	closed       bool
}

// NewDetector creates a Detector delivering violations to report.
func NewDetector(cfg DetectorConfig, report func(violationType string)) *Detector {
	if cfg.DevtoolsThreshold <= 0 {
		cfg.DevtoolsThreshold = 160
	}
	return &Detector{cfg: cfg, report: report}
}

// Handle classifies one signal. Safe for concurrent use; the blur settle
// timer fires on its own goroutine.
func (d *Detector) Handle(sig Signal) Verdict {
	switch sig.Kind {
	case KindVisibilityHidden:
		d.cancelPendingBlur() // the hidden transition subsumes the blur
		d.report(ViolationTabSwitch)
		return Verdict{Violation: ViolationTabSwitch}

	case KindBlur:
		d.schedulePendingBlur()
		return Verdict{}

	case KindFocus:
		d.cancelPendingBlur()
		return Verdict{}

	case KindCopy:
		d.report(ViolationCopy)
		return Verdict{Block: true, Violation: ViolationCopy}

	case KindCut:
		d.report(ViolationCut)
		return Verdict{Block: true, Violation: ViolationCut}

	case KindPaste:
		if d.cfg.CountPaste {
			d.report(ViolationPaste)
			return Verdict{Block: true, Violation: ViolationPaste}
		}
		return Verdict{Block: true}

	case KindContextMenu, KindDragStart:
		return Verdict{Block: true}

	case KindKeyDown:
		return d.classifyKey(sig)

	case KindBeforePrint:
		d.report(ViolationPrint)
		return Verdict{Violation: ViolationPrint}

	case KindResize:
		return d.checkDevtools(sig)
	}

	return Verdict{}
}

// Close cancels any pending blur timer. Further signals are ignored.
func (d *Detector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.blurTimer != nil {
		d.blurTimer.Stop()
		d.blurTimer = nil
	}
}

func (d *Detector) classifyKey(sig Signal) Verdict {
	key := strings.ToLower(sig.Key)
	mod := sig.Ctrl || sig.Meta

	// Devtools shortcuts: F12, Ctrl/Cmd+Shift+I/J/C.
	if key == "f12" || (mod && sig.Shift && (key == "i" || key == "j" || key == "c")) {
		d.report(ViolationDevtoolsKey)
		return Verdict{Block: true, Violation: ViolationDevtoolsKey}
	}

	if mod {
		switch key {
		case "c":
			d.report(ViolationCopy)
			return Verdict{Block: true, Violation: ViolationCopy}
		case "x":
			d.report(ViolationCut)
			return Verdict{Block: true, Violation: ViolationCut}
		case "v":
			if d.cfg.CountPaste {
				d.report(ViolationPaste)
				return Verdict{Block: true, Violation: ViolationPaste}
			}
			return Verdict{Block: true}
		case "a", "p", "s", "u", "f":
			// Hardening only: select-all, print, save, view-source, find.
			return Verdict{Block: true}
		}
	}

	if key == "printscreen" {
		// Cannot be prevented, only observed.
		d.report(ViolationPrintScreen)
		return Verdict{Violation: ViolationPrintScreen}
	}

	if sig.Alt && key == "tab" {
		d.report(ViolationAltTab)
		return Verdict{Block: true, Violation: ViolationAltTab}
	}

	return Verdict{}
}

func (d *Detector) checkDevtools(sig Signal) Verdict {
	deltaW := sig.OuterWidth - sig.InnerWidth
	deltaH := sig.OuterHeight - sig.InnerHeight
	open := deltaW > d.cfg.DevtoolsThreshold || deltaH > d.cfg.DevtoolsThreshold

	d.mu.Lock()
	fire := open && !d.devtoolsOpen
	d.devtoolsOpen = open
	d.mu.Unlock()

	if fire {
		d.report(ViolationDevtools)
		return Verdict{Violation: ViolationDevtools}
	}
	return Verdict{}
}

// schedulePendingBlur arms the settle timer. A focus signal arriving within
// the window cancels it; otherwise the blur is reported as a violation.
func (d *Detector) schedulePendingBlur() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.blurTimer != nil {
		return
	}

	if d.cfg.BlurSettleDelay <= 0 {
		// No settle window configured: report immediately.
		go d.report(ViolationWindowBlur)
		return
	}

	d.blurTimer = time.AfterFunc(d.cfg.BlurSettleDelay, func() {
		d.mu.Lock()
		expired := d.blurTimer != nil && !d.closed
		d.blurTimer = nil
		d.mu.Unlock()
		if expired {
			d.report(ViolationWindowBlur)
		}
	})
}

func (d *Detector) cancelPendingBlur() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.blurTimer != nil {
		d.blurTimer.Stop()
		d.blurTimer = nil
	}
}
