// Package session runs interviews: it starts sessions, processes answered
// turns and finalizes completed sessions into competency profiles.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/abhisek/skillprobe/internal/analysis"
	"github.com/abhisek/skillprobe/internal/interview"
	"github.com/abhisek/skillprobe/internal/questiongen"
	"github.com/abhisek/skillprobe/internal/scoring"
	"github.com/abhisek/skillprobe/internal/store"
)

// Store persists sessions. Save is the commit point of a turn.
type Store interface {
	Load(ctx context.Context, id string) (*interview.Session, error)
	Save(ctx context.Context, s *interview.Session) error
	ActiveForUser(ctx context.Context, userID int64) ([]*interview.Session, error)
	StaleInProgress(ctx context.Context, before time.Time) ([]string, error)
	scoring.ScoreSource
}

// Analyzer judges one answer. It never fails; problems come back as a
// degraded result.
type Analyzer interface {
	Analyze(ctx context.Context, in analysis.Input) interview.AnalysisResult
}

// QuestionSource produces the question for a turn.
type QuestionSource interface {
	Next(ctx context.Context, in questiongen.Input) (string, error)
}

// Started is returned by StartSession.
type Started struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
	Turn      int    `json:"turn"`
	Total     int    `json:"total"`
}

// AnswerRequest submits the answer to the current question.
type AnswerRequest struct {
	SessionID string
	// Turn is the 1-based turn being answered. Zero means the current turn.
	Turn int
	Text string
}

// TurnResult is the outcome of one processed turn. Exactly one of
// NextQuestion and Profile is set.
type TurnResult struct {
	SessionID string                   `json:"session_id"`
	Turn      int                      `json:"turn"`
	Analysis  interview.AnalysisResult `json:"analysis"`

	NextQuestion string `json:"next_question,omitempty"`
	NextTurn     int    `json:"next_turn,omitempty"`

	Completed bool             `json:"completed"`
	Profile   *scoring.Profile `json:"profile,omitempty"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRecorder registers a Recorder for lifecycle events.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine is the only mutator of sessions. At most one turn per session is
// processed at a time; callers can check Busy before submitting.
type Engine struct {
	store     Store
	analyzer  Analyzer
	generator QuestionSource
	bench     *scoring.Benchmarker
	cfg       Config
	logger    *slog.Logger
	recorder  Recorder
	now       func() time.Time

	inflight sync.Map
	profiles *lru.Cache[string, *scoring.Profile]
}

// New creates an Engine.
func New(st Store, analyzer Analyzer, generator QuestionSource, cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session config: %w", err)
	}
	profiles, err := lru.New[string, *scoring.Profile](cfg.ProfileCacheSize)
	if err != nil {
		return nil, fmt.Errorf("profile cache: %w", err)
	}
	e := &Engine{
		store:     st,
		analyzer:  analyzer,
		generator: generator,
		bench:     scoring.NewBenchmarker(st),
		cfg:       cfg,
		logger:    slog.Default(),
		recorder:  noopRecorder{},
		now:       time.Now,
		profiles:  profiles,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Busy reports whether a turn or transition is being processed for the
// session.
func (e *Engine) Busy(sessionID string) bool {
	_, ok := e.inflight.Load(sessionID)
	return ok
}

func (e *Engine) acquire(sessionID string) bool {
	_, loaded := e.inflight.LoadOrStore(sessionID, struct{}{})
	return !loaded
}

func (e *Engine) release(sessionID string) {
	e.inflight.Delete(sessionID)
}

// StartSession creates a session for the user and returns its first
// question. Any session the user still has in progress is abandoned.
func (e *Engine) StartSession(ctx context.Context, userID int64, role interview.Role, exp interview.Experience) (*Started, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", interview.ErrInvalidRole, role)
	}
	if !exp.Valid() {
		return nil, fmt.Errorf("%w: %q", interview.ErrInvalidExperience, exp)
	}

	now := e.now()
	s := &interview.Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		Role:       role,
		Experience: exp,
		Status:     interview.StatusInProgress,
		StartedAt:  now,
		UpdatedAt:  now,
	}

	q, err := e.generate(ctx, questiongen.Input{
		SessionID:  s.ID,
		Role:       role,
		Experience: exp,
		Turn:       1,
		Total:      e.cfg.TotalQuestions,
	})
	if err != nil {
		e.recorder.GenerationFailed(role)
		return nil, err
	}

	active, err := e.store.ActiveForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load active sessions for user %d: %w", userID, err)
	}
	for _, old := range active {
		if !e.acquire(old.ID) {
			e.logger.WarnContext(ctx, "previous session busy, leaving it in progress",
				"session_id", old.ID,
				"user_id", userID,
			)
			continue
		}
		abandoned, err := e.abandonIfInProgress(ctx, old.ID)
		e.release(old.ID)
		if err != nil {
			return nil, err
		}
		if abandoned {
			e.logger.InfoContext(ctx, "abandoned previous session",
				"session_id", old.ID,
				"user_id", userID,
			)
		}
	}

	s.CurrentQuestion = q

	if err := e.store.Save(ctx, s); err != nil {
		return nil, &interview.PersistenceError{SessionID: s.ID, Err: err}
	}

	e.recorder.SessionStarted(role)
	e.logger.InfoContext(ctx, "session started",
		"session_id", s.ID,
		"user_id", userID,
		"role", string(role),
		"experience", string(exp),
	)
	return &Started{SessionID: s.ID, Question: q, Turn: 1, Total: e.cfg.TotalQuestions}, nil
}

type questionResult struct {
	question string
	err      error
}

// SubmitAnswer processes the answer to the current question. The analyzer
// and the next-question generator run concurrently; the analysis is
// appended before the generated question is accepted, and the session is
// saved once. When the final turn is answered the session is completed and
// its profile returned.
func (e *Engine) SubmitAnswer(ctx context.Context, req AnswerRequest) (*TurnResult, error) {
	if !e.acquire(req.SessionID) {
		return nil, &interview.InvalidStateError{
			SessionID: req.SessionID,
			Status:    interview.StatusInProgress,
			Err:       interview.ErrTurnInFlight,
		}
	}
	defer e.release(req.SessionID)

	s, err := e.load(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if s.Status != interview.StatusInProgress {
		return nil, &interview.InvalidStateError{SessionID: s.ID, Status: s.Status, Err: interview.ErrNotInProgress}
	}

	index := s.NextTurnIndex()
	if req.Turn != 0 && req.Turn != index {
		return nil, &interview.InvalidStateError{
			SessionID: s.ID,
			Status:    s.Status,
			Err:       fmt.Errorf("%w: got %d, expected %d", interview.ErrTurnOutOfOrder, req.Turn, index),
		}
	}

	text := strings.TrimSpace(req.Text)
	if n := utf8.RuneCountInString(text); n < e.cfg.MinAnswerLength {
		return nil, fmt.Errorf("%w: %d characters, need at least %d", interview.ErrAnswerTooShort, n, e.cfg.MinAnswerLength)
	}

	start := e.now()
	turn := interview.Turn{Index: index, Question: s.CurrentQuestion, Answer: text, SubmittedAt: start}
	turns := append(slices.Clone(s.Turns), turn)
	last := index >= e.cfg.TotalQuestions

	analysisCh := make(chan interview.AnalysisResult, 1)
	analysisIn := analysis.Input{
		SessionID:  s.ID,
		Turn:       index,
		Role:       s.Role,
		Experience: s.Experience,
		Question:   turn.Question,
		Answer:     turn.Answer,
	}
	go func() {
		analysisCh <- e.analyzer.Analyze(ctx, analysisIn)
	}()

	var questionCh chan questionResult
	if !last {
		questionCh = make(chan questionResult, 1)
		genIn := questiongen.Input{
			SessionID:  s.ID,
			Role:       s.Role,
			Experience: s.Experience,
			Turn:       index + 1,
			Total:      e.cfg.TotalQuestions,
			History:    turns,
			// The analysis of this turn is not available yet.
			Analyses: slices.Clone(s.Analyses),
		}
		go func() {
			q, err := e.generate(ctx, genIn)
			questionCh <- questionResult{question: q, err: err}
		}()
	}

	// Analysis first: turn i's analysis is in place before question i+1
	// is accepted.
	result := <-analysisCh
	s.Turns = turns
	s.Analyses = append(s.Analyses, result)

	res := &TurnResult{SessionID: s.ID, Turn: index, Analysis: result}

	now := e.now()
	if last {
		score := scoring.ScoreSession(s.Role, s.Analyses)
		s.TotalScore = &score
		s.Status = interview.StatusCompleted
		s.CompletedAt = &now
		s.CurrentQuestion = ""
	} else {
		qr := <-questionCh
		if qr.err != nil {
			e.recorder.GenerationFailed(s.Role)
			e.logger.ErrorContext(ctx, "turn not committed",
				"session_id", s.ID,
				"turn", index,
				"error", qr.err,
			)
			return nil, qr.err
		}
		s.CurrentQuestion = qr.question
		res.NextQuestion = qr.question
		res.NextTurn = index + 1
	}
	s.UpdatedAt = now

	if err := e.store.Save(ctx, s); err != nil {
		return nil, &interview.PersistenceError{SessionID: s.ID, Err: err}
	}
	e.recorder.TurnProcessed(s.Role, result.Provenance, now.Sub(start))

	e.logger.InfoContext(ctx, "turn processed",
		"session_id", s.ID,
		"turn", index,
		"provenance", string(result.Provenance),
		"elapsed", now.Sub(start),
	)

	if last {
		e.recorder.SessionEnded(s.Role, interview.StatusCompleted)
		res.Completed = true
		res.Profile = e.profile(ctx, s)
		e.logger.InfoContext(ctx, "session completed",
			"session_id", s.ID,
			"total_score", *s.TotalScore,
		)
	}
	return res, nil
}

// generate asks for a question, retrying with backoff up to
// GenerationAttempts times.
func (e *Engine) generate(ctx context.Context, in questiongen.Input) (string, error) {
	backoff := e.cfg.GenerationBackoff
	var lastErr error
	for attempt := 1; attempt <= e.cfg.GenerationAttempts; attempt++ {
		q, err := e.generator.Next(ctx, in)
		if err == nil {
			return q, nil
		}
		lastErr = err
		e.logger.WarnContext(ctx, "question generation failed",
			"session_id", in.SessionID,
			"turn", in.Turn,
			"attempt", attempt,
			"error", err,
		)
		if attempt == e.cfg.GenerationAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", &questiongen.GenerationError{Turn: in.Turn, Err: ctx.Err()}
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	var genErr *questiongen.GenerationError
	if errors.As(lastErr, &genErr) {
		return "", lastErr
	}
	return "", &questiongen.GenerationError{Turn: in.Turn, Err: lastErr}
}

// Get returns the stored session.
func (e *Engine) Get(ctx context.Context, id string) (*interview.Session, error) {
	return e.load(ctx, id)
}

// GetProfile returns the competency profile of a completed session. The
// derived scores are cached; the benchmark is recomputed on every call and
// each caller gets its own copy.
func (e *Engine) GetProfile(ctx context.Context, id string) (*scoring.Profile, error) {
	if base, ok := e.profiles.Get(id); ok {
		return e.withBenchmark(ctx, base), nil
	}
	s, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status != interview.StatusCompleted {
		return nil, &interview.InvalidStateError{SessionID: s.ID, Status: s.Status, Err: interview.ErrNotCompleted}
	}
	return e.profile(ctx, s), nil
}

// profile builds and caches the benchmark-free profile of a completed
// session.
func (e *Engine) profile(ctx context.Context, s *interview.Session) *scoring.Profile {
	base := scoring.BuildProfile(s)
	e.profiles.Add(s.ID, base)
	return e.withBenchmark(ctx, base)
}

// withBenchmark returns a copy of base with a fresh, best-effort benchmark.
func (e *Engine) withBenchmark(ctx context.Context, base *scoring.Profile) *scoring.Profile {
	p := base.Clone()
	bench, err := e.bench.Benchmark(ctx, p.Role, p.SessionID, p.TotalScore)
	if err != nil {
		e.logger.WarnContext(ctx, "benchmark unavailable", "session_id", p.SessionID, "error", err)
		return p
	}
	p.Benchmark = bench
	return p
}

// Abandon moves an in-progress session to abandoned. No score is computed.
func (e *Engine) Abandon(ctx context.Context, id string) error {
	if !e.acquire(id) {
		return &interview.InvalidStateError{SessionID: id, Status: interview.StatusInProgress, Err: interview.ErrTurnInFlight}
	}
	defer e.release(id)

	s, err := e.load(ctx, id)
	if err != nil {
		return err
	}
	if s.Status != interview.StatusInProgress {
		return &interview.InvalidStateError{SessionID: s.ID, Status: s.Status, Err: interview.ErrNotInProgress}
	}
	if err := e.abandon(ctx, s); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "session abandoned", "session_id", id, "turns", len(s.Turns))
	return nil
}

// abandonIfInProgress reloads the session and abandons it only if it is
// still in progress. The caller must hold the session guard; a turn may
// have been committed since the session was last read.
func (e *Engine) abandonIfInProgress(ctx context.Context, id string) (bool, error) {
	s, err := e.load(ctx, id)
	if errors.Is(err, interview.ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if s.Status != interview.StatusInProgress {
		return false, nil
	}
	return true, e.abandon(ctx, s)
}

func (e *Engine) abandon(ctx context.Context, s *interview.Session) error {
	s.Status = interview.StatusAbandoned
	s.CurrentQuestion = ""
	s.UpdatedAt = e.now()
	if err := e.store.Save(ctx, s); err != nil {
		return &interview.PersistenceError{SessionID: s.ID, Err: err}
	}
	e.recorder.SessionEnded(s.Role, interview.StatusAbandoned)
	return nil
}

func (e *Engine) load(ctx context.Context, id string) (*interview.Session, error) {
	s, err := e.store.Load(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", interview.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return s, nil
}
