package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examguard/examguard-backend/internal/model"
)

// SessionResult combines student data with their exam session details for
// the teacher results views.
type SessionResult struct {
	UserID      uuid.UUID  `json:"user_id"`
	FullName    string     `json:"full_name"`
	Email       string     `json:"email"`
	Score       *int       `json:"score"`
	TotalPoints *int       `json:"total_points"`
	TabSwitches int        `json:"tab_switches"`
	IsSubmitted bool       `json:"is_submitted"`
	StartedAt   time.Time  `json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at"`
}

// SessionRepository handles exam session data access.
//
// The three mutation paths touch disjoint column sets: UpdateAnswers owns
// answers, UpdateViolations owns tab_switches/warnings, and MarkSubmitted
// owns the submission columns plus the final answers snapshot. Autosave
// ticks and violation writes can interleave freely without clobbering
// each other's fields.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// LatestByUser retrieves the most recent session for a user, or nil when
// the user has never started the exam.
func (r *SessionRepository) LatestByUser(ctx context.Context, userID uuid.UUID) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, started_at, answers, tab_switches, warnings,
		        is_submitted, score, total_points, submitted_at
		 FROM exam_sessions
		 WHERE user_id = $1
		 ORDER BY started_at DESC
		 LIMIT 1`, userID,
	).Scan(&s.ID, &s.UserID, &s.StartedAt, &s.Answers, &s.TabSwitches, &s.Warnings,
		&s.IsSubmitted, &s.Score, &s.TotalPoints, &s.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new session for the user with empty answers.
func (r *SessionRepository) Create(ctx context.Context, userID uuid.UUID) (*model.ExamSession, error) {
	s := &model.ExamSession{
		UserID:  userID,
		Answers: map[string]string{},
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (user_id)
		 VALUES ($1)
		 RETURNING id, started_at`, userID,
	).Scan(&s.ID, &s.StartedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// UpdateAnswers replaces the answers snapshot. Touches no other columns.
// A submitted session is immutable.
func (r *SessionRepository) UpdateAnswers(ctx context.Context, id uuid.UUID, answers map[string]string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET answers = $1
		 WHERE id = $2 AND is_submitted = FALSE`,
		answers, id)
	return err
}

// UpdateViolations sets the violation count and appends one warning entry.
func (r *SessionRepository) UpdateViolations(ctx context.Context, id uuid.UUID, tabSwitches int, warning string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET tab_switches = $1, warnings = array_append(warnings, $2)
		 WHERE id = $3 AND is_submitted = FALSE`,
		tabSwitches, warning, id)
	return err
}

// MarkSubmitted persists the final answers snapshot, score, and submission
// flag in a single statement. The is_submitted guard makes the transition
// one-way even under a racing duplicate submit.
func (r *SessionRepository) MarkSubmitted(ctx context.Context, id uuid.UUID, answers map[string]string, score, totalPoints int, submittedAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET answers = $1, score = $2, total_points = $3,
		     is_submitted = TRUE, submitted_at = $4
		 WHERE id = $5 AND is_submitted = FALSE`,
		answers, score, totalPoints, submittedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadySubmitted
	}
	return nil
}

// ErrAlreadySubmitted signals a lost submit race: another writer flipped
// is_submitted first.
var ErrAlreadySubmitted = errors.New("session already submitted")

// ListResults retrieves all student sessions joined with user identity,
// newest first. One row per session.
func (r *SessionRepository) ListResults(ctx context.Context) ([]SessionResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.full_name, u.email,
		        es.score, es.total_points, es.tab_switches,
		        es.is_submitted, es.started_at, es.submitted_at
		 FROM exam_sessions es
		 JOIN users u ON es.user_id = u.id
		 WHERE u.role = 'student'
		 ORDER BY es.started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SessionResult
	for rows.Next() {
		var res SessionResult
		if err := rows.Scan(
			&res.UserID, &res.FullName, &res.Email,
			&res.Score, &res.TotalPoints, &res.TabSwitches,
			&res.IsSubmitted, &res.StartedAt, &res.SubmittedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// ResultDetail is the per-student drill-down: the session row plus the
// full warning log and answers.
type ResultDetail struct {
	SessionResult
	Answers  map[string]string `json:"answers"`
	Warnings []string          `json:"warnings"`
}

// GetResultByUser retrieves the detailed result for one student, or nil
// when no session exists.
func (r *SessionRepository) GetResultByUser(ctx context.Context, userID uuid.UUID) (*ResultDetail, error) {
	d := &ResultDetail{}
	err := r.pool.QueryRow(ctx,
		`SELECT u.id, u.full_name, u.email,
		        es.score, es.total_points, es.tab_switches,
		        es.is_submitted, es.started_at, es.submitted_at,
		        es.answers, es.warnings
		 FROM exam_sessions es
		 JOIN users u ON es.user_id = u.id
		 WHERE u.id = $1
		 ORDER BY es.started_at DESC
		 LIMIT 1`, userID,
	).Scan(&d.UserID, &d.FullName, &d.Email,
		&d.Score, &d.TotalPoints, &d.TabSwitches,
		&d.IsSubmitted, &d.StartedAt, &d.SubmittedAt,
		&d.Answers, &d.Warnings)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}
