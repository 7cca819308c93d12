// Package analysis turns one interview answer into a per-metric
// AnalysisResult. It never fails: any gateway, extraction or shape problem
// yields the default analysis tagged fallback_default. A reply cut off at
// the token limit is scored from the partial text when it can be repaired.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/abhisek/skillprobe/internal/extract"
	"github.com/abhisek/skillprobe/internal/interview"
	"github.com/abhisek/skillprobe/internal/llm"
	"github.com/abhisek/skillprobe/internal/store"
)

// Purpose labels analysis calls in the LLM event log.
const Purpose = "answer-analysis"

// Config holds configuration for the analyzer.
type Config struct {
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// DefaultConfig returns the analyzer defaults. Temperature is kept low so
// repeated scoring of the same answer stays stable.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   1000,
		Temperature: 0.3,
		Timeout:     30 * time.Second,
	}
}

// Completer sends a single prompt and returns raw model text.
// *llm.Gateway implements it.
type Completer interface {
	Complete(ctx context.Context, c llm.Completion) (string, error)
}

// AuditSink records the raw text and outcome of every analysis.
type AuditSink interface {
	AppendAnalysisAudit(ctx context.Context, data store.AnalysisAuditData) error
}

// Input identifies the answer to analyze.
type Input struct {
	SessionID  string
	Turn       int
	Role       interview.Role
	Experience interview.Experience
	Question   string
	Answer     string
}

// Analyzer scores answers through the LLM gateway.
type Analyzer struct {
	gateway Completer
	audit   AuditSink
	cfg     Config
	logger  *slog.Logger
}

// New creates an Analyzer. audit may be nil.
func New(gateway Completer, audit AuditSink, cfg Config, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{gateway: gateway, audit: audit, cfg: cfg, logger: logger}
}

// DefaultAnalysis is the substitute result used whenever the model output
// cannot be used: every metric at the midpoint, no patterns.
func DefaultAnalysis(set interview.MetricSet) interview.AnalysisResult {
	scores := make(map[string]float64)
	for _, m := range set.Metrics() {
		scores[m] = interview.MidpointScore
	}
	return interview.AnalysisResult{
		Scores:     scores,
		Patterns:   []string{},
		Provenance: interview.ProvenanceFallback,
	}
}

// Analyze scores one answer. The returned result always has every metric
// of the role's metric set.
func (a *Analyzer) Analyze(ctx context.Context, in Input) interview.AnalysisResult {
	set := interview.MetricSetFor(in.Role)

	result, raw, err := a.analyze(ctx, in, set)
	if err != nil {
		result = DefaultAnalysis(set)
		result.RawText = raw
		a.logger.WarnContext(ctx, "answer analysis degraded",
			"session_id", in.SessionID,
			"turn", in.Turn,
			"error", err,
			"raw", extract.Snippet(raw),
		)
	} else if result.Truncated {
		a.logger.WarnContext(ctx, "answer analysis scored from truncated reply",
			"session_id", in.SessionID,
			"turn", in.Turn,
			"max_tokens", a.cfg.MaxTokens,
		)
	}
	if err == nil && len(result.Coerced) > 0 {
		a.logger.InfoContext(ctx, "answer analysis coerced metrics",
			"session_id", in.SessionID,
			"turn", in.Turn,
			"coerced", len(result.Coerced),
		)
	}

	a.record(ctx, in, result, err)
	return result
}

func (a *Analyzer) analyze(ctx context.Context, in Input, set interview.MetricSet) (interview.AnalysisResult, string, error) {
	prompt, err := buildAnalysisMessage(in, set)
	if err != nil {
		return interview.AnalysisResult{}, "", fmt.Errorf("build analysis prompt: %w", err)
	}

	raw, err := a.gateway.Complete(ctx, llm.Completion{
		Purpose:     Purpose,
		System:      analysisSystemPrompt,
		Prompt:      prompt,
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
		Timeout:     a.cfg.Timeout,
	})
	// A reply cut off at the token limit goes through extraction like any
	// other; every other gateway error ends the analysis.
	var truncated *llm.ErrMaxTokensExceeded
	if err != nil && !errors.As(err, &truncated) {
		return interview.AnalysisResult{}, raw, fmt.Errorf("LLM analysis failed: %w", err)
	}

	rec, provenance, err := extract.Extract(raw)
	if err != nil {
		if truncated != nil {
			err = fmt.Errorf("%w: %w", truncated, err)
		}
		return interview.AnalysisResult{}, raw, err
	}
	if truncated != nil {
		provenance = interview.ProvenanceRecovered
	}

	if err := llm.ValidateJSON(AnalysisSchema, map[string]any(rec)); err != nil {
		return interview.AnalysisResult{}, raw, err
	}

	scores, _ := rec["scores"].(map[string]any)
	result := interview.AnalysisResult{
		Scores:     make(map[string]float64),
		Patterns:   stringList(rec["patterns"]),
		Provenance: provenance,
		RawText:    raw,
		Insights:   stringList(rec["key_insights"]),
		Gaps:       stringList(rec["gaps"]),
		Truncated:  truncated != nil,
	}
	if h, ok := rec["hypothesis"].(string); ok {
		result.Hypothesis = h
	}

	for _, metric := range set.Metrics() {
		v, present := scores[metric]
		score, reason := coerceScore(v, present)
		result.Scores[metric] = score
		if reason != "" {
			result.Coerced = append(result.Coerced, interview.Coercion{
				Metric: metric,
				Raw:    rawValue(v, present),
				Reason: reason,
			})
		}
	}
	return result, raw, nil
}

func (a *Analyzer) record(ctx context.Context, in Input, result interview.AnalysisResult, cause error) {
	if a.audit == nil {
		return
	}
	data := store.AnalysisAuditData{
		SessionID:  in.SessionID,
		Turn:       in.Turn,
		Provenance: result.Provenance,
		Coerced:    result.Coerced,
		RawText:    result.RawText,
	}
	switch {
	case cause != nil:
		data.ErrorMessage = cause.Error()
	case result.Truncated:
		data.ErrorMessage = "reply truncated at max tokens; scored from partial text"
	}
	if err := a.audit.AppendAnalysisAudit(ctx, data); err != nil {
		a.logger.WarnContext(ctx, "failed to record analysis audit",
			"session_id", in.SessionID, "turn", in.Turn, "error", err)
	}
}

// coerceScore maps a decoded JSON value onto the 0-10 scale. A non-empty
// reason means the value was replaced by the midpoint.
func coerceScore(v any, present bool) (float64, string) {
	if !present {
		return interview.MidpointScore, "missing"
	}

	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return interview.MidpointScore, "non-numeric"
		}
		f = parsed
	default:
		return interview.MidpointScore, "non-numeric"
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return interview.MidpointScore, "non-numeric"
	}
	if f < interview.MinScore || f > interview.MaxScore {
		return interview.MidpointScore, "out of range"
	}
	return f, ""
}

func rawValue(v any, present bool) string {
	if !present {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		if s, ok := v.(string); ok && s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
