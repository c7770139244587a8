package anticheat

// Kind names a raw browser-origin input signal reported by the exam client.
// The client is a thin reporter: it forwards events verbatim and applies the
// block decision the server returns; all classification happens here.
type Kind string

const (
	KindVisibilityHidden Kind = "visibility_hidden"
	KindBlur             Kind = "blur"
	KindFocus            Kind = "focus"
	KindCopy             Kind = "copy"
	KindCut              Kind = "cut"
	KindPaste            Kind = "paste"
	KindContextMenu      Kind = "context_menu"
	KindKeyDown          Kind = "key_down"
	KindBeforePrint      Kind = "before_print"
	KindResize           Kind = "resize"
	KindDragStart        Kind = "drag_start"
)

// Signal is one raw input event. Key and the modifier flags are only
// meaningful for KindKeyDown; the dimension fields only for KindResize.
type Signal struct {
	Kind  Kind   `json:"kind"`
	Key   string `json:"key,omitempty"`
	Ctrl  bool   `json:"ctrl,omitempty"`
	Meta  bool   `json:"meta,omitempty"`
	Shift bool   `json:"shift,omitempty"`
	Alt   bool   `json:"alt,omitempty"`

	OuterWidth  int `json:"outer_width,omitempty"`
	InnerWidth  int `json:"inner_width,omitempty"`
	OuterHeight int `json:"outer_height,omitempty"`
	InnerHeight int `json:"inner_height,omitempty"`
}

// Violation type descriptions. These strings end up in the session's
// warnings log and in teacher-facing views, so they stay human-readable.
const (
	ViolationTabSwitch   = "Tab switch or window minimized"
	ViolationWindowBlur  = "Left exam window"
	ViolationCopy        = "Copied exam content"
	ViolationCut         = "Cut exam content"
	ViolationPaste       = "Pasted external content"
	ViolationDevtoolsKey = "Developer tools shortcut"
	ViolationDevtools    = "Developer tools opened"
	ViolationPrintScreen = "Screen capture attempt"
	ViolationPrint       = "Print attempt"
	ViolationAltTab      = "Switched application"
)

// Verdict is the policy outcome for one signal. Block tells the client to
// prevent the default action; Violation, when non-empty, is the counted
// violation type. The two axes are independent: hardening the UI is not the
// same decision as penalizing the student.
type Verdict struct {
	Block     bool   `json:"block"`
	Violation string `json:"violation,omitempty"`
}
