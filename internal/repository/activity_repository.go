package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examguard/examguard-backend/internal/model"
)

// ActivityRepository handles activity log data access. Writes arrive in
// batches from the persistence worker, never from the request path.
type ActivityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

// BulkInsert writes a batch of activity logs via COPY.
func (r *ActivityRepository) BulkInsert(ctx context.Context, logs []*model.ActivityLog) error {
	rows := make([][]interface{}, 0, len(logs))
	for _, l := range logs {
		rows = append(rows, []interface{}{
			l.UserID, l.SessionID, l.Action, l.Details, l.CreatedAt,
		})
	}

	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"activity_logs"},
		[]string{"user_id", "session_id", "action", "details", "created_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

// Insert writes a single activity log. Used by the worker's row-by-row
// recovery path when a bulk insert fails.
func (r *ActivityRepository) Insert(ctx context.Context, l *model.ActivityLog) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO activity_logs (user_id, session_id, action, details, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		l.UserID, l.SessionID, l.Action, l.Details, l.CreatedAt)
	return err
}

// ListByUser retrieves a user's activity trail, newest first.
func (r *ActivityRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.ActivityLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, session_id, action, details, created_at
		 FROM activity_logs
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivityRows(rows)
}

// ListSince retrieves all activity after a cutoff, oldest first. Feeds the
// teacher monitor stream's catch-up on connect.
func (r *ActivityRepository) ListSince(ctx context.Context, since time.Time, limit int) ([]model.ActivityLog, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, session_id, action, details, created_at
		 FROM activity_logs
		 WHERE created_at > $1
		 ORDER BY created_at ASC
		 LIMIT $2`, since, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivityRows(rows)
}

func scanActivityRows(rows pgx.Rows) ([]model.ActivityLog, error) {
	var logs []model.ActivityLog
	for rows.Next() {
		var l model.ActivityLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.SessionID, &l.Action, &l.Details, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
