package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/skillprobe/internal/interview"
)

const auditTable = "analysis_audits"

var auditColumns = []string{
	"id", "sequence", "timestamp", "session_id", "turn",
	"provenance", "coerced", "raw_text", "error_message",
}

func (r *EventStore) AppendAnalysisAudit(ctx context.Context, data AnalysisAuditData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	coerced := data.Coerced
	if coerced == nil {
		coerced = []interview.Coercion{}
	}
	coercedJSON, err := json.Marshal(coerced)
	if err != nil {
		return fmt.Errorf("marshal coercions: %w", err)
	}

	query, args := builder().Insert(auditTable).
		Columns(auditColumns[1:]...).
		Values(
			seqNum,
			time.Now().UnixMilli(),
			data.SessionID,
			data.Turn,
			string(data.Provenance),
			string(coercedJSON),
			data.RawText,
			data.ErrorMessage,
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save analysis audit: %w", err)
	}
	return nil
}

// QueryAnalysisAudits returns audit records in sequence order, optionally
// filtered to one session.
func (r *EventStore) QueryAnalysisAudits(ctx context.Context, opts QueryOpts) ([]AnalysisAudit, error) {
	b := builder()
	sel := b.Select(auditColumns...).
		From(b.Table(auditTable)).
		OrderBy("sequence")
	if opts.SessionID != "" {
		sel.Where(entsql.EQ("session_id", opts.SessionID))
	}
	if opts.After > 0 {
		sel.Where(entsql.GT("sequence", opts.After))
	}
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE("timestamp", opts.From.UnixMilli()))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query analysis audits: %w", err)
	}
	defer rows.Close()

	var out []AnalysisAudit
	for rows.Next() {
		var (
			a          AnalysisAudit
			ts         int64
			provenance string
			coerced    string
		)
		if err := rows.Scan(&a.ID, &a.Sequence, &ts, &a.SessionID, &a.Turn,
			&provenance, &coerced, &a.RawText, &a.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan analysis audit: %w", err)
		}
		a.Timestamp = time.UnixMilli(ts).UTC()
		a.Provenance = interview.Provenance(provenance)
		if err := json.Unmarshal([]byte(coerced), &a.Coerced); err != nil {
			return nil, fmt.Errorf("decode coercions for audit %d: %w", a.ID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
