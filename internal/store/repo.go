package store

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/skillprobe/internal/interview"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit     int       // max results (0 = unlimited)
	After     int64     // sequence > After
	From      time.Time // timestamp >= From
	Purpose   string    // LLM events only
	SessionID string    // analysis audits only
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM request event.
type LLMRequestEvent struct {
	ID        int64
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// AnalysisAuditData records the outcome of one answer analysis, whether the
// model output was used as-is, recovered, or replaced by the default.
type AnalysisAuditData struct {
	SessionID    string
	Turn         int
	Provenance   interview.Provenance
	Coerced      []interview.Coercion
	RawText      string
	ErrorMessage string
}

// AnalysisAudit is a stored analysis audit record.
type AnalysisAudit struct {
	ID        int64
	Sequence  int64
	Timestamp time.Time
	AnalysisAuditData
}

// PurposeUsage aggregates LLM usage for one purpose label.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// AppendAnalysisAudit records how an answer analysis was produced.
	AppendAnalysisAudit(ctx context.Context, data AnalysisAuditData) error
}
