// Package questiongen produces the next interview question, pitched to the
// candidate's running score.
package questiongen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abhisek/skillprobe/internal/interview"
	"github.com/abhisek/skillprobe/internal/llm"
)

// Purpose labels generation calls in the LLM event log.
const Purpose = "question-gen"

// Config holds configuration for question generation.
type Config struct {
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// DefaultConfig returns the generator defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   500,
		Temperature: 0.8,
		Timeout:     30 * time.Second,
	}
}

// Completer sends a single prompt and returns raw model text.
type Completer interface {
	Complete(ctx context.Context, c llm.Completion) (string, error)
}

// Input describes the question to generate.
type Input struct {
	SessionID  string
	Role       interview.Role
	Experience interview.Experience

	// Turn is the 1-based number of the question being generated.
	Turn  int
	Total int

	History  []interview.Turn
	Analyses []interview.AnalysisResult
}

// GenerationError means no usable question was produced.
type GenerationError struct {
	Turn int
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate question %d: %v", e.Turn, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

var errEmptyQuestion = errors.New("model returned an empty question")

// Generator produces adaptive interview questions.
type Generator struct {
	gateway Completer
	cfg     Config
	logger  *slog.Logger
}

// New creates a Generator.
func New(gateway Completer, cfg Config, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{gateway: gateway, cfg: cfg, logger: logger}
}

// Next returns the question for in.Turn. Turn 1 is the role's fixed
// opening question; later turns are generated at the tier selected from
// the analyses so far.
func (g *Generator) Next(ctx context.Context, in Input) (string, error) {
	if in.Turn <= 1 {
		return OpeningQuestion(in.Role), nil
	}

	tier := SelectTier(in.Analyses)
	raw, err := g.gateway.Complete(ctx, llm.Completion{
		Purpose:     Purpose,
		System:      systemPrompt,
		Prompt:      buildUserMessage(in, tier),
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
		Timeout:     g.cfg.Timeout,
	})
	// A question cut off at the token limit is never shown; the session
	// engine retries generation instead.
	if err != nil {
		return "", &GenerationError{Turn: in.Turn, Err: err}
	}

	q := cleanQuestion(raw)
	if q == "" {
		return "", &GenerationError{Turn: in.Turn, Err: errEmptyQuestion}
	}

	g.logger.DebugContext(ctx, "generated question",
		"session_id", in.SessionID,
		"turn", in.Turn,
		"tier", string(tier),
	)
	return q, nil
}

// cleanQuestion strips surrounding whitespace and wrapping quotes.
func cleanQuestion(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "“”«»")
	return strings.TrimSpace(s)
}
