package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/examguard/examguard-backend/internal/repository"
)

// ResultsSummary aggregates exam outcomes for the teacher dashboard.
type ResultsSummary struct {
	TotalSessions  int     `json:"total_sessions"`
	SubmittedCount int     `json:"submitted_count"`
	InProgress     int     `json:"in_progress"`
	AverageScore   float64 `json:"average_score"`
	ViolationTotal int     `json:"violation_total"`
}

// ResultsService serves the teacher-facing results views.
type ResultsService struct {
	sessions *repository.SessionRepository
	activity *repository.ActivityRepository
}

// NewResultsService creates a new ResultsService.
func NewResultsService(sessions *repository.SessionRepository, activity *repository.ActivityRepository) *ResultsService {
	return &ResultsService{sessions: sessions, activity: activity}
}

// List returns every student session plus an aggregate summary.
func (s *ResultsService) List(ctx context.Context) ([]repository.SessionResult, *ResultsSummary, error) {
	results, err := s.sessions.ListResults(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list results: %w", err)
	}

	summary := &ResultsSummary{TotalSessions: len(results)}
	scoreSum := 0
	for _, r := range results {
		summary.ViolationTotal += r.TabSwitches
		if r.IsSubmitted {
			summary.SubmittedCount++
			if r.Score != nil {
				scoreSum += *r.Score
			}
		} else {
			summary.InProgress++
		}
	}
	if summary.SubmittedCount > 0 {
		summary.AverageScore = float64(scoreSum) / float64(summary.SubmittedCount)
	}

	return results, summary, nil
}

// Detail returns one student's session with answers, the warning log, and
// their recent activity trail. Returns nil when the student never started.
func (s *ResultsService) Detail(ctx context.Context, userID uuid.UUID) (*repository.ResultDetail, []ActivityEntry, error) {
	detail, err := s.sessions.GetResultByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("get result: %w", err)
	}
	if detail == nil {
		return nil, nil, nil
	}

	logs, err := s.activity.ListByUser(ctx, userID, 100)
	if err != nil {
		return nil, nil, fmt.Errorf("list activity: %w", err)
	}

	entries := make([]ActivityEntry, 0, len(logs))
	for _, l := range logs {
		entries = append(entries, ActivityEntry{
			Action:    l.Action,
			Details:   l.Details,
			Timestamp: l.CreatedAt.Unix(),
		})
	}

	return detail, entries, nil
}

// ActivityEntry is the trimmed activity record exposed to teachers.
type ActivityEntry struct {
	Action    string `json:"action"`
	Details   string `json:"details"`
	Timestamp int64  `json:"timestamp"`
}
