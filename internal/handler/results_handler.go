package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/examguard/examguard-backend/internal/response"
	"github.com/examguard/examguard-backend/internal/service"
)

const keepAliveInterval = 30 * time.Second

// ResultsHandler serves the teacher-facing results and live monitor.
type ResultsHandler struct {
	resultsService  *service.ResultsService
	activityService *service.ActivityService
	log             zerolog.Logger
}

// NewResultsHandler creates a new ResultsHandler.
func NewResultsHandler(resultsService *service.ResultsService, activityService *service.ActivityService, log zerolog.Logger) *ResultsHandler {
	return &ResultsHandler{
		resultsService:  resultsService,
		activityService: activityService,
		log:             log.With().Str("component", "results_handler").Logger(),
	}
}

// List godoc
// GET /api/v1/teacher/results
// Returns every student session plus aggregate statistics.
func (h *ResultsHandler) List(c *gin.Context) {
	results, summary, err := h.resultsService.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("List results failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"results": results,
		"summary": summary,
	})
}

// Detail godoc
// GET /api/v1/teacher/results/:user_id
// Returns one student's session with answers, warnings, and activity trail.
func (h *ResultsHandler) Detail(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	detail, activity, err := h.resultsService.Detail(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Result detail failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if detail == nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"result":   detail,
		"activity": activity,
	})
}

// MonitorSSE godoc
// GET /api/v1/teacher/monitor
// Streams live activity events (starts, violations, submissions) over SSE.
// Events arrive via the Redis monitor channel; a keep-alive ping holds
// proxies open during quiet stretches.
func (h *ResultsHandler) MonitorSSE(c *gin.Context) {
	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	pubsub := h.activityService.Subscribe(reqCtx)
	defer pubsub.Close()

	ch := pubsub.Channel()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	h.log.Info().Msg("Teacher attached to live monitor SSE")

	c.Writer.WriteString("event: ready\ndata: {}\n\n")
	c.Writer.Flush()

	for {
		select {
		case <-reqCtx.Done():
			h.log.Debug().Msg("Monitor SSE disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			c.Writer.WriteString("event: activity\ndata: " + msg.Payload + "\n\n")
			c.Writer.Flush()
		case <-keepAlive.C:
			c.Writer.WriteString(": keep-alive\n\n")
			c.Writer.Flush()
		}
	}
}
