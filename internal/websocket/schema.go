package websocket

import "github.com/examguard/examguard-backend/internal/anticheat"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer Action = "answer"
	ActionSave   Action = "save"
	ActionSignal Action = "signal"
	ActionSubmit Action = "submit"
	ActionPing   Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AnswerRequest records a single answer in the server-side session.
type AnswerRequest struct {
	Action Action `json:"action"`
	QID    string `json:"q_id"`
	Answer string `json:"ans"`
}

// SignalRequest carries one raw browser signal for classification. The
// client reports what happened; the server decides what it means.
type SignalRequest struct {
	Action Action           `json:"action"`
	Signal anticheat.Signal `json:"signal"`
}

// SaveRequest asks for an immediate answer flush.
type SaveRequest struct {
	Action Action `json:"action"`
}

// SubmitRequest finishes and grades the exam.
type SubmitRequest struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState      Event = "state"
	EventWarning    Event = "warning"
	EventTerminated Event = "terminated"
	EventSaved      Event = "saved"
	EventSaveError  Event = "save_error"
	EventSubmitted  Event = "submitted"
	EventSignalAck  Event = "signal_ack"
	EventTimeUp     Event = "time_up"
	EventError      Event = "error"
	EventPong       Event = "pong"
)

// StateEvent is pushed once after connect: the full session snapshot the
// client needs to render a resumed exam.
type StateEvent struct {
	Event            Event             `json:"event"`
	Answers          map[string]string `json:"answers"`
	RemainingSeconds int               `json:"remaining_seconds"`
	ViolationCount   int               `json:"violation_count"`
	Banner           anticheat.Banner  `json:"banner"`
}

// WarningEvent pushes the current warning banner state. Sent on every
// banner transition, including the auto-clear.
type WarningEvent struct {
	Event  Event            `json:"event"`
	Banner anticheat.Banner `json:"banner"`
}

// TerminatedEvent tells the client the session is terminal and a forced
// submission is underway.
type TerminatedEvent struct {
	Event   Event  `json:"event"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// SavedEvent reports the outcome of an autosave or manual save.
type SavedEvent struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}

// SubmittedEvent reports a completed submission with the grade.
type SubmittedEvent struct {
	Event       Event `json:"event"`
	Forced      bool  `json:"forced"`
	Score       int   `json:"score"`
	TotalPoints int   `json:"total_points"`
}

// SignalAck tells the client whether the signaled action must be blocked
// (preventDefault on the originating event).
type SignalAck struct {
	Event Event `json:"event"`
	Block bool  `json:"block"`
}

// TimeUpEvent announces countdown expiry; a SubmittedEvent follows.
type TimeUpEvent struct {
	Event Event `json:"event"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
