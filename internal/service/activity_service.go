package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/examguard/examguard-backend/internal/config"
)

// ActivityEvent is the wire payload pushed to the persistence queue and
// fanned out on the monitor channel.
type ActivityEvent struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Action    string `json:"action"`
	Details   string `json:"details"`
	Timestamp int64  `json:"timestamp"`
}

// ActivityService records audit events. The exam path only touches Redis:
// one RPush to the persistence queue (drained by the activity worker) and
// one Publish to the live monitor channel. Both are best-effort; a Redis
// outage costs audit records, never exam progress.
type ActivityService struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewActivityService creates a new ActivityService.
func NewActivityService(rdb *redis.Client, log zerolog.Logger) *ActivityService {
	return &ActivityService{
		rdb: rdb,
		log: log.With().Str("component", "activity_service").Logger(),
	}
}

// Log enqueues one activity event. Never returns an error: failures are
// logged and dropped so the caller cannot stall on the audit trail.
func (s *ActivityService) Log(ctx context.Context, userID, sessionID uuid.UUID, action, details string) {
	event := ActivityEvent{
		UserID:    userID.String(),
		SessionID: sessionID.String(),
		Action:    action,
		Details:   details,
		Timestamp: time.Now().Unix(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.log.Error().Err(err).Str("action", action).Msg("Marshal activity event failed")
		return
	}

	// Detach from the caller's context so a canceled request cannot
	// drop the event mid-push.
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if err := s.rdb.RPush(opCtx, config.WorkerKey.PersistActivityQueue, data).Err(); err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("Activity enqueue failed, event dropped")
		return
	}

	if err := s.rdb.Publish(opCtx, config.CacheKey.ExamMonitorChannel(), data).Err(); err != nil {
		s.log.Debug().Err(err).Msg("Monitor publish failed")
	}
}

// Subscribe opens a subscription on the live monitor channel. The caller
// owns closing the returned PubSub.
func (s *ActivityService) Subscribe(ctx context.Context) *redis.PubSub {
	return s.rdb.Subscribe(ctx, config.CacheKey.ExamMonitorChannel())
}
