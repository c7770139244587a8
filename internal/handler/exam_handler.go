package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/examguard/examguard-backend/internal/config"
	"github.com/examguard/examguard-backend/internal/metrics"
	"github.com/examguard/examguard-backend/internal/middleware"
	"github.com/examguard/examguard-backend/internal/model"
	"github.com/examguard/examguard-backend/internal/questionbank"
	"github.com/examguard/examguard-backend/internal/repository"
	"github.com/examguard/examguard-backend/internal/response"
	"github.com/examguard/examguard-backend/internal/session"
	"github.com/examguard/examguard-backend/internal/validator"
)

// ExamHandler serves the HTTP side of the student exam: start/resume,
// state snapshot, the paper, and a fallback submit for clients whose
// WebSocket dropped at the worst moment.
type ExamHandler struct {
	cfg      *config.Config
	sessions session.Store
	activity session.ActivityLogger
	log      zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(cfg *config.Config, sessions session.Store, activity session.ActivityLogger, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		cfg:      cfg,
		sessions: sessions,
		activity: activity,
		log:      log.With().Str("component", "exam_handler").Logger(),
	}
}

// Start godoc
// POST /api/v1/student/exam/start
// Resumes the student's existing session or creates a fresh one. A
// submitted session is terminal: the response carries the result instead.
func (h *ExamHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	ctx := c.Request.Context()

	sess, err := h.sessions.LatestByUser(ctx, claims.UserID)
	if err != nil {
		h.log.Error().Err(err).Msg("Fetch latest session failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if sess != nil && sess.IsSubmitted {
		response.Success(c, http.StatusOK, gin.H{
			"session":   sess,
			"submitted": true,
		})
		return
	}

	resumed := sess != nil
	if sess == nil {
		sess, err = h.sessions.Create(ctx, claims.UserID)
		if err != nil {
			h.log.Error().Err(err).Msg("Create session failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}
		h.activity.Log(ctx, claims.UserID, sess.ID, model.ActionExamStarted,
			"Exam started at "+sess.StartedAt.UTC().Format(time.RFC3339))
	}

	response.Success(c, http.StatusOK, gin.H{
		"session":           sess,
		"resumed":           resumed,
		"remaining_seconds": remainingSeconds(sess, h.cfg.ExamDuration),
	})
}

// State godoc
// GET /api/v1/student/exam/state
// Returns the current session snapshot, or 404 when none exists.
func (h *ExamHandler) State(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sess, err := h.sessions.LatestByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if sess == nil {
		response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session":           sess,
		"remaining_seconds": remainingSeconds(sess, h.cfg.ExamDuration),
	})
}

// Paper godoc
// GET /api/v1/student/exam/paper
// Returns the question set without correct answers.
func (h *ExamHandler) Paper(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"questions":    questionbank.Paper(),
		"total_points": questionbank.TotalPoints,
	})
}

// Submit godoc
// POST /api/v1/student/exam/submit
// Fallback voluntary submission over HTTP. The WebSocket path is
// preferred; this one exists so a dropped connection cannot strand a
// finished student. It runs the same controller path as the stream: the
// persisted answers are resumed, the body's answers are merged on top
// of them, and the at-most-once guard and scorer do the rest. A session
// past its deadline is refused; the server-side countdown owns the
// forced submission.
func (h *ExamHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ctx := c.Request.Context()
	sess, err := h.sessions.LatestByUser(ctx, claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if sess == nil {
		response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
		return
	}
	if sess.IsSubmitted {
		response.Fail(c, http.StatusConflict, response.ErrExamSubmitted)
		return
	}
	if remainingSeconds(sess, h.cfg.ExamDuration) == 0 {
		response.Fail(c, http.StatusConflict, response.ErrExamTimeUp)
		return
	}

	ctrl := session.NewController(
		session.Config{
			ExamDuration:     h.cfg.ExamDuration,
			AutosaveInterval: h.cfg.AutosaveInterval,
		},
		h.sessions, h.activity, questionbank.Score, claims.UserID, h.log,
	)
	if _, err := ctrl.Initialize(ctx); err != nil {
		if errors.Is(err, session.ErrAlreadySubmitted) {
			response.Fail(c, http.StatusConflict, response.ErrExamSubmitted)
			return
		}
		h.log.Error().Err(err).Msg("HTTP submit init failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	// Merge the client's latest edits over the persisted answers; unknown
	// question ids are dropped the same way the stream drops them.
	for id, answer := range req.Answers {
		if questionbank.ByID(id) != nil {
			ctrl.SetAnswer(id, answer)
		}
	}

	result, err := ctrl.Submit(ctx, false)
	if err != nil {
		if errors.Is(err, session.ErrAlreadySubmitted) || errors.Is(err, repository.ErrAlreadySubmitted) {
			response.Fail(c, http.StatusConflict, response.ErrExamSubmitted)
			return
		}
		h.log.Error().Err(err).Msg("HTTP submit failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrSubmitFailed)
		return
	}

	metrics.SubmissionsTotal.WithLabelValues("voluntary").Inc()

	final := ctrl.Session()
	response.Success(c, http.StatusOK, gin.H{
		"score":        result.Score,
		"total_points": result.TotalPoints,
		"submitted_at": final.SubmittedAt,
	})
}

func remainingSeconds(sess *model.ExamSession, duration time.Duration) int {
	remaining := time.Until(sess.Deadline(duration))
	if remaining < 0 {
		return 0
	}
	return int(remaining / time.Second)
}
