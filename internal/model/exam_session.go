package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamSession represents one student's exam attempt.
//
// Answers grows freely during the exam; TabSwitches and Warnings are
// monotonic, append-only violation facts; the submission columns (Score,
// TotalPoints, IsSubmitted, SubmittedAt) are set together exactly once.
// A submitted session is immutable.
type ExamSession struct {
	ID          uuid.UUID         `json:"id"`
	UserID      uuid.UUID         `json:"user_id"`
	StartedAt   time.Time         `json:"started_at"`
	Answers     map[string]string `json:"answers"`
	TabSwitches int               `json:"tab_switches"`
	Warnings    []string          `json:"warnings"`
	IsSubmitted bool              `json:"is_submitted"`
	Score       *int              `json:"score,omitempty"`
	TotalPoints *int              `json:"total_points,omitempty"`
	SubmittedAt *time.Time        `json:"submitted_at,omitempty"`
}

// Deadline returns the wall-clock moment the session expires.
func (s *ExamSession) Deadline(duration time.Duration) time.Time {
	return s.StartedAt.Add(duration)
}

// AnswerRequest is the payload for saving a single answer over HTTP.
type AnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required,max=64"`
	Answer     string `json:"answer" binding:"max=4000"`
}

// SubmitRequest is the payload for a voluntary HTTP submission.
type SubmitRequest struct {
	Answers map[string]string `json:"answers" binding:"required"`
}
