package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/examguard/examguard-backend/internal/model"
	"github.com/examguard/examguard-backend/internal/questionbank"
)

// Controller errors.
var (
	ErrAlreadySubmitted = errors.New("exam session is already submitted")
	ErrNotInitialized   = errors.New("controller is not initialized")
	ErrSubmitInFlight   = errors.New("a submission is already in progress")
)

// Store is the persistence contract the controller depends on. Updates to
// answers, violation facts, and submission columns touch disjoint field
// sets so interleaved writes never clobber each other; implementations
// must preserve that property.
type Store interface {
	// LatestByUser returns the most recent session for the user, or nil
	// when none exists.
	LatestByUser(ctx context.Context, userID uuid.UUID) (*model.ExamSession, error)
	Create(ctx context.Context, userID uuid.UUID) (*model.ExamSession, error)
	// UpdateAnswers replaces the full answers map.
	UpdateAnswers(ctx context.Context, id uuid.UUID, answers map[string]string) error
	// UpdateViolations sets the violation count and appends one warning.
	UpdateViolations(ctx context.Context, id uuid.UUID, tabSwitches int, warning string) error
	// MarkSubmitted atomically persists the final answers snapshot
	// together with the score and the terminal submission flag.
	MarkSubmitted(ctx context.Context, id uuid.UUID, answers map[string]string, score, totalPoints int, submittedAt time.Time) error
}

// ActivityLogger records best-effort audit events. Implementations must
// never block the exam path; failures are swallowed by the caller.
type ActivityLogger interface {
	Log(ctx context.Context, userID, sessionID uuid.UUID, action, details string)
}

// Scorer grades a full answers snapshot. Satisfied by questionbank.Score.
type Scorer func(answers map[string]string) questionbank.Result

// SaveStatus is the persistence state surfaced to the student UI.
type SaveStatus string

const (
	SaveIdle   SaveStatus = "idle"
	SaveSaving SaveStatus = "saving"
	SaveSaved  SaveStatus = "saved"
	SaveError  SaveStatus = "error"
)

// Config tunes one controller instance.
type Config struct {
	ExamDuration     time.Duration
	AutosaveInterval time.Duration
}

// Controller owns the authoritative in-memory copy of one student's
// answers and session metadata. It orchestrates initialization
// (resume-or-create), periodic autosave, manual save, violation
// recording, and submission — normal or forced.
//
// All persistence failures are caught here; nothing escapes to the
// transport except the narrow, actionable errors (save failed, submit
// failed). Activity log failures are invisible by design.
type Controller struct {
	cfg      Config
	store    Store
	activity ActivityLogger
	score    Scorer
	log      zerolog.Logger
	userID   uuid.UUID

	mu      sync.Mutex
	sess    *model.ExamSession
	answers map[string]string
	status  SaveStatus

	// saveInFlight serializes autosave and manual save: overlapping
	// requests are skipped, not queued.
	saveInFlight atomic.Bool
	// submitInFlight makes Submit at-most-once against concurrent
	// forced triggers (timer expiry racing max-violations).
	submitInFlight atomic.Bool
	submitted      atomic.Bool

	countdown    *Countdown
	autosaveStop chan struct{}

	// OnSaveStatus is invoked on every save status transition.
	OnSaveStatus func(SaveStatus)
	// OnSubmitted is invoked once after a successful submission, forced
	// or voluntary.
	OnSubmitted func(forced bool, result questionbank.Result)
}

// NewController creates a Controller for one student.
func NewController(cfg Config, store Store, activity ActivityLogger, score Scorer, userID uuid.UUID, log zerolog.Logger) *Controller {
	if cfg.AutosaveInterval <= 0 {
		cfg.AutosaveInterval = 30 * time.Second
	}
	return &Controller{
		cfg:      cfg,
		store:    store,
		activity: activity,
		score:    score,
		log:      log.With().Str("component", "session_controller").Str("user_id", userID.String()).Logger(),
		userID:   userID,
		answers:  make(map[string]string),
		status:   SaveIdle,
	}
}

// Initialize fetches the most recent session for the user and either
// resumes it or creates a fresh one. A submitted session is terminal:
// Initialize refuses to resume it and the caller redirects to results.
func (c *Controller) Initialize(ctx context.Context) (*model.ExamSession, error) {
	existing, err := c.store.LatestByUser(ctx, c.userID)
	if err != nil {
		return nil, fmt.Errorf("fetch latest session: %w", err)
	}

	if existing != nil && existing.IsSubmitted {
		return existing, ErrAlreadySubmitted
	}

	if existing != nil {
		// Resume: adopt the persisted answers and violation count as
		// the in-memory starting state.
		c.mu.Lock()
		c.sess = existing
		c.answers = make(map[string]string, len(existing.Answers))
		for k, v := range existing.Answers {
			c.answers[k] = v
		}
		c.mu.Unlock()
		c.log.Info().Str("session_id", existing.ID.String()).Int("answers", len(existing.Answers)).Msg("Resumed session")
		return existing, nil
	}

	created, err := c.store.Create(ctx, c.userID)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	c.mu.Lock()
	c.sess = created
	c.answers = make(map[string]string)
	c.mu.Unlock()

	c.activity.Log(ctx, c.userID, created.ID, model.ActionExamStarted,
		"Exam started at "+created.StartedAt.UTC().Format(time.RFC3339))
	c.log.Info().Str("session_id", created.ID.String()).Msg("Created session")
	return created, nil
}

// Start launches the autosave loop and the countdown. onTimeUp is wired
// to a forced submission before being forwarded.
func (c *Controller) Start(onTimeUp func()) error {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return ErrNotInitialized
	}

	c.countdown = NewCountdown(sess.StartedAt, c.cfg.ExamDuration, func() {
		c.HandleTimeUp()
		if onTimeUp != nil {
			onTimeUp()
		}
	})
	c.countdown.Start()

	c.autosaveStop = make(chan struct{})
	go c.autosaveLoop(c.autosaveStop)
	return nil
}

// Session returns a snapshot of the session metadata.
func (c *Controller) Session() *model.ExamSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return nil
	}
	snap := *c.sess
	snap.Answers = c.copyAnswersLocked()
	return &snap
}

// SetAnswer records a single answer in memory. Persistence happens on the
// next save tick.
func (c *Controller) SetAnswer(questionID, answer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitted.Load() {
		return
	}
	c.answers[questionID] = answer
}

// Answers returns a copy of the in-memory answers map.
func (c *Controller) Answers() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyAnswersLocked()
}

// SaveStatus returns the current persistence state.
func (c *Controller) SaveStatus() SaveStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// RemainingSeconds returns the countdown value, or zero when not started.
func (c *Controller) RemainingSeconds() int {
	if c.countdown == nil {
		return 0
	}
	return c.countdown.RemainingSeconds()
}

// SaveNow persists the current answers immediately. Shares the in-flight
// guard with autosave: a request while a save is outstanding is a no-op.
func (c *Controller) SaveNow(ctx context.Context) error {
	return c.saveAnswers(ctx)
}

// RecordViolation is the host side of the accumulator's OnViolation
// callback: it appends a timestamped description to the warnings log and
// updates the stored count. The in-memory state advances synchronously;
// the store write runs on its own goroutine with a bounded deadline so a
// hung database can never stall the connection's read loop. Best-effort
// — a failed write is logged and swallowed.
func (c *Controller) RecordViolation(ctx context.Context, violationType string, count int) {
	c.mu.Lock()
	sess := c.sess
	if sess == nil {
		c.mu.Unlock()
		return
	}
	warning := violationType + " at " + time.Now().UTC().Format(time.RFC3339)
	sess.TabSwitches = count
	sess.Warnings = append(sess.Warnings, warning)
	id := sess.ID
	c.mu.Unlock()

	go func() {
		opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()

		if err := c.store.UpdateViolations(opCtx, id, count, warning); err != nil {
			c.log.Warn().Err(err).Int("count", count).Msg("Violation write failed, continuing")
		}

		c.activity.Log(opCtx, c.userID, id, model.ActionViolation,
			fmt.Sprintf("%s - Violation #%d", violationType, count))
	}()
}

// Submit grades the in-memory answers and atomically persists the final
// state. At most one submission runs at a time; re-entrant calls while
// one is in flight are ignored. The final write carries the full answers
// snapshot, so any answers typed since the last autosave are included.
// On persistence failure the session stays unsubmitted (fail-open) and
// the student may retry.
func (c *Controller) Submit(ctx context.Context, forced bool) (questionbank.Result, error) {
	if c.submitted.Load() {
		return questionbank.Result{}, ErrAlreadySubmitted
	}
	if !c.submitInFlight.CompareAndSwap(false, true) {
		return questionbank.Result{}, ErrSubmitInFlight
	}
	defer c.submitInFlight.Store(false)

	// Re-check under the guard: a racing trigger may have completed
	// between the fast check above and winning the swap.
	if c.submitted.Load() {
		return questionbank.Result{}, ErrAlreadySubmitted
	}

	c.mu.Lock()
	sess := c.sess
	if sess == nil {
		c.mu.Unlock()
		return questionbank.Result{}, ErrNotInitialized
	}
	id := sess.ID
	answers := c.copyAnswersLocked()
	c.mu.Unlock()

	result := c.score(answers)
	submittedAt := time.Now().UTC()

	if err := c.store.MarkSubmitted(ctx, id, answers, result.Score, result.TotalPoints, submittedAt); err != nil {
		// Fail open: the student keeps answering and may retry.
		c.setStatus(SaveError)
		c.log.Error().Err(err).Bool("forced", forced).Msg("Submission write failed")
		return questionbank.Result{}, fmt.Errorf("persist submission: %w", err)
	}

	c.submitted.Store(true)
	c.stopBackground()

	c.mu.Lock()
	sess.IsSubmitted = true
	sess.Score = &result.Score
	sess.TotalPoints = &result.TotalPoints
	sess.SubmittedAt = &submittedAt
	c.mu.Unlock()

	action := model.ActionExamSubmitted
	if forced {
		action = model.ActionExamAutoSubmitted
	}
	pct := 0
	if result.TotalPoints > 0 {
		pct = result.Score * 100 / result.TotalPoints
	}
	c.activity.Log(ctx, c.userID, id, action,
		fmt.Sprintf("Score: %d/%d (%d%%)", result.Score, result.TotalPoints, pct))

	c.log.Info().
		Bool("forced", forced).
		Int("score", result.Score).
		Int("total", result.TotalPoints).
		Msg("Exam submitted")

	if c.OnSubmitted != nil {
		c.OnSubmitted(forced, result)
	}
	return result, nil
}

// HandleTimeUp forces a submission when the countdown expires.
func (c *Controller) HandleTimeUp() {
	c.forceSubmit("time up")
}

// HandleMaxViolations forces a submission when the violation threshold is
// reached. Idempotent against HandleTimeUp through Submit's guard.
func (c *Controller) HandleMaxViolations() {
	c.forceSubmit("max violations")
}

// Close tears down the autosave loop and countdown. Pending timers must
// not fire against a torn-down session.
func (c *Controller) Close() {
	c.stopBackground()
}

func (c *Controller) forceSubmit(reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if _, err := c.Submit(ctx, true); err != nil &&
		!errors.Is(err, ErrAlreadySubmitted) && !errors.Is(err, ErrSubmitInFlight) {
		c.log.Error().Err(err).Str("reason", reason).Msg("Forced submission failed")
	}
}

func (c *Controller) autosaveLoop(stop chan struct{}) {
	ticker := time.NewTicker(c.cfg.AutosaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if c.submitted.Load() {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := c.saveAnswers(ctx); err != nil {
				c.log.Warn().Err(err).Msg("Autosave failed, next tick retries")
			}
			cancel()
		}
	}
}

// saveAnswers is the single persistence path for autosave and manual
// save. The in-flight guard skips overlapping requests instead of
// queueing them, so there are never two outstanding answer writes.
func (c *Controller) saveAnswers(ctx context.Context) error {
	if c.submitted.Load() {
		return ErrAlreadySubmitted
	}
	if !c.saveInFlight.CompareAndSwap(false, true) {
		return nil // a save is already outstanding; skip, don't queue
	}
	defer c.saveInFlight.Store(false)

	c.mu.Lock()
	sess := c.sess
	if sess == nil {
		c.mu.Unlock()
		return ErrNotInitialized
	}
	id := sess.ID
	answers := c.copyAnswersLocked()
	c.mu.Unlock()

	c.setStatus(SaveSaving)

	if err := c.store.UpdateAnswers(ctx, id, answers); err != nil {
		c.setStatus(SaveError)
		return fmt.Errorf("save answers: %w", err)
	}

	c.setStatus(SaveSaved)
	return nil
}

func (c *Controller) stopBackground() {
	c.mu.Lock()
	stop := c.autosaveStop
	c.autosaveStop = nil
	c.mu.Unlock()
	if stop != nil {
		close(stop)
	}
	if c.countdown != nil {
		c.countdown.Stop()
	}
}

func (c *Controller) setStatus(s SaveStatus) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
	if c.OnSaveStatus != nil {
		c.OnSaveStatus(s)
	}
}

func (c *Controller) copyAnswersLocked() map[string]string {
	out := make(map[string]string, len(c.answers))
	for k, v := range c.answers {
		out[k] = v
	}
	return out
}
