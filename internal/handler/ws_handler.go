package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/examguard/examguard-backend/internal/anticheat"
	"github.com/examguard/examguard-backend/internal/config"
	"github.com/examguard/examguard-backend/internal/metrics"
	"github.com/examguard/examguard-backend/internal/middleware"
	"github.com/examguard/examguard-backend/internal/questionbank"
	"github.com/examguard/examguard-backend/internal/repository"
	"github.com/examguard/examguard-backend/internal/service"
	"github.com/examguard/examguard-backend/internal/session"
	ws "github.com/examguard/examguard-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler owns the student exam stream. One connection carries the whole
// exam: answers flow up, warnings and save states flow down, and the
// server-side detector/monitor/countdown decide when the session ends.
type WSHandler struct {
	cfg      *config.Config
	sessions *repository.SessionRepository
	activity *service.ActivityService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(cfg *config.Config, sessions *repository.SessionRepository, activity *service.ActivityService, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		cfg:      cfg,
		sessions: sessions,
		activity: activity,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(cfg.AllowedOrigins),
	}
}

// examConn bundles the per-connection machinery. Everything in here dies
// with the connection; the database rows are the only survivors.
type examConn struct {
	conn       *ws.Conn
	controller *session.Controller
	detector   *anticheat.Detector
	monitor    *anticheat.Monitor
	surface    *anticheat.Surface
	log        zerolog.Logger
}

// ExamStream godoc
// WS /ws/v1/student/exam/stream?token=...
// Upgrades to WebSocket and runs the exam session until submit, timeout,
// max violations, or disconnect.
func (h *WSHandler) ExamStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw)
	defer conn.Close()

	metrics.ActiveExamConnections.Inc()
	defer metrics.ActiveExamConnections.Dec()

	wsLog := h.log.With().Str("user_id", claims.UserID.String()).Logger()

	ec, err := h.buildExamConn(c.Request.Context(), conn, claims, wsLog)
	if err != nil {
		if errors.Is(err, session.ErrAlreadySubmitted) {
			conn.WriteError("exam already submitted")
		} else {
			wsLog.Error().Err(err).Msg("Session init failed")
			conn.WriteError("failed to start exam session")
		}
		return
	}
	defer ec.close()

	wsLog.Info().Msg("Student connected")
	ec.sendState()
	ec.readLoop()
}

// buildExamConn initializes the session and wires the anti-cheat pipeline:
// detector reports feed the monitor, accepted violations fan out to the
// warning surface, persistence, and the live monitor channel, and the
// threshold triggers a forced submission after the grace period.
func (h *WSHandler) buildExamConn(ctx context.Context, conn *ws.Conn, claims *service.Claims, wsLog zerolog.Logger) (*examConn, error) {
	ec := &examConn{conn: conn, log: wsLog}

	ec.controller = session.NewController(
		session.Config{
			ExamDuration:     h.cfg.ExamDuration,
			AutosaveInterval: h.cfg.AutosaveInterval,
		},
		h.sessions, h.activity, questionbank.Score, claims.UserID, wsLog,
	)

	sess, err := ec.controller.Initialize(ctx)
	if err != nil {
		return nil, err
	}

	ec.surface = anticheat.NewSurface(h.cfg.WarningDisplay, func(b anticheat.Banner) {
		conn.WriteTyped(ws.WarningEvent{Event: ws.EventWarning, Banner: b})
	})

	ec.monitor = anticheat.NewMonitor(
		anticheat.MonitorConfig{
			MaxViolations:  h.cfg.MaxViolations,
			DebounceWindow: h.cfg.DebounceWindow,
			TerminateGrace: h.cfg.TerminateGrace,
		},
		func(violationType string, count int) {
			metrics.ViolationsTotal.WithLabelValues(violationType).Inc()
			ec.controller.RecordViolation(context.Background(), violationType, count)
			if ec.monitor.Terminal() {
				ec.surface.ShowTerminated(count)
				conn.WriteTyped(ws.TerminatedEvent{
					Event:   ws.EventTerminated,
					Message: "Maximum violations reached. Your exam will be submitted.",
					Count:   count,
				})
				return
			}
			ec.surface.ShowViolation(violationType, count, ec.monitor.WarningsRemaining())
		},
		func() {
			metrics.SubmissionsTotal.WithLabelValues("max_violations").Inc()
			ec.controller.HandleMaxViolations()
		},
	)
	ec.monitor.Seed(sess.TabSwitches)

	ec.detector = anticheat.NewDetector(
		anticheat.DetectorConfig{
			CountPaste:        h.cfg.CountPaste,
			DevtoolsThreshold: h.cfg.DevtoolsThreshold,
			BlurSettleDelay:   h.cfg.BlurSettleDelay,
		},
		ec.monitor.ReportViolation,
	)

	ec.controller.OnSaveStatus = func(s session.SaveStatus) {
		switch s {
		case session.SaveSaved:
			metrics.AutosavesTotal.WithLabelValues("ok").Inc()
			conn.WriteTyped(ws.SavedEvent{Event: ws.EventSaved, Status: string(s)})
		case session.SaveError:
			metrics.AutosavesTotal.WithLabelValues("error").Inc()
			conn.WriteTyped(ws.SavedEvent{Event: ws.EventSaveError, Status: string(s)})
		}
	}

	ec.controller.OnSubmitted = func(forced bool, result questionbank.Result) {
		conn.WriteTyped(ws.SubmittedEvent{
			Event:       ws.EventSubmitted,
			Forced:      forced,
			Score:       result.Score,
			TotalPoints: result.TotalPoints,
		})
	}

	if err := ec.controller.Start(func() {
		metrics.SubmissionsTotal.WithLabelValues("time_up").Inc()
		conn.WriteTyped(ws.TimeUpEvent{Event: ws.EventTimeUp})
	}); err != nil {
		return nil, err
	}

	return ec, nil
}

func (ec *examConn) sendState() {
	ec.conn.WriteTyped(ws.StateEvent{
		Event:            ws.EventState,
		Answers:          ec.controller.Answers(),
		RemainingSeconds: ec.controller.RemainingSeconds(),
		ViolationCount:   ec.monitor.Count(),
		Banner:           ec.surface.Snapshot(),
	})
}

func (ec *examConn) readLoop() {
	for {
		data, err := ec.conn.ReadRaw()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ec.log.Warn().Err(err).Msg("Unexpected close")
			} else {
				ec.log.Debug().Msg("Connection closed")
			}
			return
		}

		var envelope ws.RequestEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			ec.conn.WriteError("malformed message")
			continue
		}

		switch envelope.Action {
		case ws.ActionAnswer:
			ec.handleAnswer(data)
		case ws.ActionSave:
			ec.handleSave()
		case ws.ActionSignal:
			ec.handleSignal(data)
		case ws.ActionSubmit:
			ec.handleSubmit()
		case ws.ActionPing:
			ec.conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		default:
			ec.log.Warn().Str("action", string(envelope.Action)).Msg("Unknown action")
			ec.conn.WriteError("unknown action: " + string(envelope.Action))
		}
	}
}

func (ec *examConn) handleAnswer(data []byte) {
	var msg ws.AnswerRequest
	if err := json.Unmarshal(data, &msg); err != nil || msg.QID == "" {
		ec.conn.WriteError("q_id is required")
		return
	}
	if questionbank.ByID(msg.QID) == nil {
		ec.conn.WriteError("unknown q_id")
		return
	}
	ec.controller.SetAnswer(msg.QID, msg.Answer)
}

func (ec *examConn) handleSave() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ec.controller.SaveNow(ctx); err != nil && !errors.Is(err, session.ErrAlreadySubmitted) {
		ec.log.Warn().Err(err).Msg("Manual save failed")
	}
}

func (ec *examConn) handleSignal(data []byte) {
	var msg ws.SignalRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		ec.conn.WriteError("malformed signal")
		return
	}
	verdict := ec.detector.Handle(msg.Signal)
	ec.conn.WriteTyped(ws.SignalAck{Event: ws.EventSignalAck, Block: verdict.Block})
}

func (ec *examConn) handleSubmit() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	_, err := ec.controller.Submit(ctx, false)
	switch {
	case err == nil:
		metrics.SubmissionsTotal.WithLabelValues("voluntary").Inc()
	case errors.Is(err, session.ErrAlreadySubmitted), errors.Is(err, session.ErrSubmitInFlight):
		// The forced path won; the SubmittedEvent already went out.
	default:
		ec.log.Error().Err(err).Msg("Submit failed")
		ec.conn.WriteError("submit failed, please retry")
	}
}

func (ec *examConn) close() {
	ec.detector.Close()
	ec.monitor.Close()
	ec.surface.Close()
	ec.controller.Close()
}
