package model

import (
	"time"

	"github.com/google/uuid"
)

// Activity actions recorded in the audit trail.
const (
	ActionExamStarted       = "EXAM_STARTED"
	ActionExamSubmitted     = "EXAM_SUBMITTED"
	ActionExamAutoSubmitted = "EXAM_AUTO_SUBMITTED"
	ActionViolation         = "VIOLATION"
)

// ActivityLog is a best-effort audit record. Writes never block the exam;
// the worker persists them asynchronously from the Redis queue.
type ActivityLog struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	SessionID uuid.UUID `json:"session_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}
