package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/examguard/examguard-backend/internal/config"
	"github.com/examguard/examguard-backend/internal/model"
	"github.com/examguard/examguard-backend/internal/repository"
	"github.com/examguard/examguard-backend/internal/service"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// ActivityWorker drains the persist queue and writes activity logs to
// Postgres in batches. Bulk COPY first; on failure, row-by-row recovery;
// rows that still fail go back to Redis so a database outage loses
// nothing that reached the queue.
type ActivityWorker struct {
	repo *repository.ActivityRepository
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewActivityWorker creates a new ActivityWorker.
func NewActivityWorker(repo *repository.ActivityRepository, rdb *redis.Client, log zerolog.Logger) *ActivityWorker {
	return &ActivityWorker{
		repo: repo,
		rdb:  rdb,
		log:  log.With().Str("component", "activity_worker").Logger(),
	}
}

// Start runs the drain loop until ctx is canceled, then flushes whatever
// is buffered.
func (w *ActivityWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ActivityWorker started")

	buffer := make([]*service.ActivityEvent, 0, BatchSize)
	lastFlush := time.Now()

	for {
		if len(buffer) > 0 {
			if len(buffer) >= BatchSize || time.Since(lastFlush) >= BatchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0]
				lastFlush = time.Now()
			}
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistActivityQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue // queue empty, loop back to check flush timer
			}
			if ctx.Err() != nil {
				w.shutdown(buffer)
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		if len(result) < 2 {
			continue
		}

		var event service.ActivityEvent
		if err := json.Unmarshal([]byte(result[1]), &event); err != nil {
			// Malformed JSON can never succeed on retry. Log and discard.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}

		buffer = append(buffer, &event)
	}
}

// flushSafe attempts bulk insert, then fallback insert, then requeue.
func (w *ActivityWorker) flushSafe(ctx context.Context, batch []*service.ActivityEvent) {
	if err := w.bulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, batch)
	}
}

func (w *ActivityWorker) bulkInsert(ctx context.Context, batch []*service.ActivityEvent) error {
	logs := make([]*model.ActivityLog, 0, len(batch))
	for _, e := range batch {
		l, err := toLog(e)
		if err != nil {
			// Trigger fallback, which handles the bad row individually.
			return err
		}
		logs = append(logs, l)
	}
	return w.repo.BulkInsert(ctx, logs)
}

func (w *ActivityWorker) fallbackInsert(ctx context.Context, batch []*service.ActivityEvent) {
	requeueList := make([]*service.ActivityEvent, 0)

	for _, e := range batch {
		l, err := toLog(e)
		if err != nil {
			w.log.Error().Str("user_id", e.UserID).Msg("Dropping activity event with invalid UUID")
			continue
		}

		if err := w.repo.Insert(ctx, l); err != nil {
			w.log.Error().Err(err).Str("user_id", e.UserID).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, e)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *ActivityWorker) requeue(ctx context.Context, items []*service.ActivityEvent) {
	pipe := w.rdb.Pipeline()
	for _, e := range items {
		data, _ := json.Marshal(e)
		pipe.RPush(ctx, config.WorkerKey.PersistActivityQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue items to Redis. Data loss occurred.")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed items back to Redis")
	// Avoid thrashing while the database is down hard.
	time.Sleep(2 * time.Second)
}

func (w *ActivityWorker) shutdown(buffer []*service.ActivityEvent) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}

func toLog(e *service.ActivityEvent) (*model.ActivityLog, error) {
	userID, err := uuid.Parse(e.UserID)
	if err != nil {
		return nil, err
	}
	sessionID, err := uuid.Parse(e.SessionID)
	if err != nil {
		return nil, err
	}
	return &model.ActivityLog{
		UserID:    userID,
		SessionID: sessionID,
		Action:    e.Action,
		Details:   e.Details,
		CreatedAt: time.Unix(e.Timestamp, 0),
	}, nil
}
