package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examguard/examguard-backend/internal/config"
	"github.com/examguard/examguard-backend/internal/model"
)

func TestActivityLogEnqueues(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewActivityService(rdb, zerolog.Nop())

	userID := uuid.New()
	sessionID := uuid.New()

	s.Log(context.Background(), userID, sessionID, model.ActionViolation, "Copied exam content - Violation #1")

	items, err := mr.List(config.WorkerKey.PersistActivityQueue)
	require.NoError(t, err)
	require.Len(t, items, 1)

	var event ActivityEvent
	require.NoError(t, json.Unmarshal([]byte(items[0]), &event))
	assert.Equal(t, userID.String(), event.UserID)
	assert.Equal(t, sessionID.String(), event.SessionID)
	assert.Equal(t, model.ActionViolation, event.Action)
	assert.NotZero(t, event.Timestamp)
}

func TestActivityLogSurvivesRedisOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewActivityService(rdb, zerolog.Nop())

	mr.Close()

	// Must not panic or block; the event is dropped.
	s.Log(context.Background(), uuid.New(), uuid.New(), model.ActionExamStarted, "")
}

func TestActivityLogIgnoresCanceledCaller(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewActivityService(rdb, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // request already gone; the audit write still lands

	s.Log(ctx, uuid.New(), uuid.New(), model.ActionExamSubmitted, "Score: 10/85 (11%)")

	items, err := mr.List(config.WorkerKey.PersistActivityQueue)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
