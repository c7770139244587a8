package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examguard/examguard-backend/internal/config"
	"github.com/examguard/examguard-backend/internal/middleware"
	"github.com/examguard/examguard-backend/internal/model"
	"github.com/examguard/examguard-backend/internal/service"
	"github.com/examguard/examguard-backend/internal/validator"
)

// stubStore is a single-session in-memory session.Store for handler tests.
type stubStore struct {
	mu      sync.Mutex
	session *model.ExamSession
}

func (s *stubStore) LatestByUser(_ context.Context, _ uuid.UUID) (*model.ExamSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, nil
	}
	snap := *s.session
	return &snap, nil
}

func (s *stubStore) Create(_ context.Context, userID uuid.UUID) (*model.ExamSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = &model.ExamSession{
		ID:        uuid.New(),
		UserID:    userID,
		StartedAt: time.Now().UTC(),
		Answers:   map[string]string{},
	}
	snap := *s.session
	return &snap, nil
}

func (s *stubStore) UpdateAnswers(_ context.Context, _ uuid.UUID, answers map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Answers = answers
	return nil
}

func (s *stubStore) UpdateViolations(_ context.Context, _ uuid.UUID, tabSwitches int, warning string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.TabSwitches = tabSwitches
	s.session.Warnings = append(s.session.Warnings, warning)
	return nil
}

func (s *stubStore) MarkSubmitted(_ context.Context, _ uuid.UUID, answers map[string]string, score, totalPoints int, submittedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Answers = answers
	s.session.Score = &score
	s.session.TotalPoints = &totalPoints
	s.session.IsSubmitted = true
	s.session.SubmittedAt = &submittedAt
	return nil
}

func (s *stubStore) snapshot() model.ExamSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.session
}

type nopActivity struct{}

func (nopActivity) Log(_ context.Context, _, _ uuid.UUID, _, _ string) {}

func newSubmitRouter(t *testing.T, store *stubStore, claims *service.Claims) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.Setup()

	cfg := &config.Config{
		ExamDuration:     time.Hour,
		AutosaveInterval: time.Hour,
	}
	h := NewExamHandler(cfg, store, nopActivity{}, zerolog.Nop())

	r := gin.New()
	r.POST("/exam/submit", func(c *gin.Context) {
		c.Set(middleware.ContextKeyClaims, claims)
	}, h.Submit)
	return r
}

func postSubmit(t *testing.T, r *gin.Engine, answers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(model.SubmitRequest{Answers: answers})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/exam/submit", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHTTPSubmitMergesPersistedAnswers(t *testing.T) {
	userID := uuid.New()
	store := &stubStore{session: &model.ExamSession{
		ID:        uuid.New(),
		UserID:    userID,
		StartedAt: time.Now().UTC().Add(-10 * time.Minute),
		Answers:   map[string]string{"mc_1": "saved earlier"},
	}}
	claims := &service.Claims{UserID: userID, Role: model.RoleStudent}

	r := newSubmitRouter(t, store, claims)
	w := postSubmit(t, r, map[string]string{
		"id_1":  "Dennis Ritchie",
		"bogus": "dropped",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	final := store.snapshot()
	assert.True(t, final.IsSubmitted)
	// The body's answers land on top of the autosaved ones; the server
	// never discards what it already holds.
	assert.Equal(t, "saved earlier", final.Answers["mc_1"])
	assert.Equal(t, "Dennis Ritchie", final.Answers["id_1"])
	assert.NotContains(t, final.Answers, "bogus")
}

func TestHTTPSubmitRejectedPastDeadline(t *testing.T) {
	userID := uuid.New()
	store := &stubStore{session: &model.ExamSession{
		ID:        uuid.New(),
		UserID:    userID,
		StartedAt: time.Now().UTC().Add(-2 * time.Hour),
		Answers:   map[string]string{},
	}}
	claims := &service.Claims{UserID: userID, Role: model.RoleStudent}

	r := newSubmitRouter(t, store, claims)
	w := postSubmit(t, r, map[string]string{"mc_1": "too late"})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "EXAM_TIME_UP")
	assert.False(t, store.snapshot().IsSubmitted, "expired submissions must not land")
}

func TestHTTPSubmitConflictWhenAlreadySubmitted(t *testing.T) {
	userID := uuid.New()
	score := 10
	store := &stubStore{session: &model.ExamSession{
		ID:          uuid.New(),
		UserID:      userID,
		StartedAt:   time.Now().UTC().Add(-10 * time.Minute),
		Answers:     map[string]string{},
		IsSubmitted: true,
		Score:       &score,
	}}
	claims := &service.Claims{UserID: userID, Role: model.RoleStudent}

	r := newSubmitRouter(t, store, claims)
	w := postSubmit(t, r, map[string]string{"mc_1": "again"})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "EXAM_ALREADY_SUBMITTED")
}
