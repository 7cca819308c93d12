package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/skillprobe/internal/interview"
)

const sessionsTable = "sessions"

var sessionColumns = []string{
	"id", "user_id", "role", "experience", "status", "turns", "analyses",
	"total_score", "current_question", "started_at", "updated_at", "completed_at",
}

// SessionRepo persists interview sessions, one row per session with turns
// and analyses held as JSON columns.
type SessionRepo struct {
	db *sql.DB
}

// Save inserts or replaces the session row. The whole session is written in
// one statement, so a turn and its analysis become visible together.
func (r *SessionRepo) Save(ctx context.Context, s *interview.Session) error {
	turns := s.Turns
	if turns == nil {
		turns = []interview.Turn{}
	}
	analyses := s.Analyses
	if analyses == nil {
		analyses = []interview.AnalysisResult{}
	}
	turnsJSON, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("marshal turns: %w", err)
	}
	analysesJSON, err := json.Marshal(analyses)
	if err != nil {
		return fmt.Errorf("marshal analyses: %w", err)
	}

	var totalScore, completedAt any
	if s.TotalScore != nil {
		totalScore = *s.TotalScore
	}
	if s.CompletedAt != nil {
		completedAt = s.CompletedAt.UnixNano()
	}

	query, args := builder().Insert(sessionsTable).
		Columns(sessionColumns...).
		Values(
			s.ID,
			s.UserID,
			string(s.Role),
			string(s.Experience),
			string(s.Status),
			string(turnsJSON),
			string(analysesJSON),
			totalScore,
			s.CurrentQuestion,
			s.StartedAt.UnixNano(),
			s.UpdatedAt.UnixNano(),
			completedAt,
		).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}

// Load returns the session with the given ID, or ErrNotFound.
func (r *SessionRepo) Load(ctx context.Context, id string) (*interview.Session, error) {
	b := builder()
	query, args := b.Select(sessionColumns...).
		From(b.Table(sessionsTable)).
		Where(entsql.EQ("id", id)).
		Query()

	s, err := scanSession(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return s, err
}

// ActiveForUser returns the user's in-progress sessions, newest first.
func (r *SessionRepo) ActiveForUser(ctx context.Context, userID int64) ([]*interview.Session, error) {
	b := builder()
	query, args := b.Select(sessionColumns...).
		From(b.Table(sessionsTable)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("status", string(interview.StatusInProgress)),
		)).
		OrderBy(entsql.Desc("started_at")).
		Query()
	return r.querySessions(ctx, query, args)
}

// StaleInProgress returns IDs of in-progress sessions last updated before
// the cutoff.
func (r *SessionRepo) StaleInProgress(ctx context.Context, before time.Time) ([]string, error) {
	b := builder()
	query, args := b.Select("id").
		From(b.Table(sessionsTable)).
		Where(entsql.And(
			entsql.EQ("status", string(interview.StatusInProgress)),
			entsql.LT("updated_at", before.UnixNano()),
		)).
		OrderBy("updated_at").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stale sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CompletedScoresByRole returns the total scores of completed sessions for
// a role, skipping excludeID.
func (r *SessionRepo) CompletedScoresByRole(ctx context.Context, role interview.Role, excludeID string) ([]int, error) {
	b := builder()
	query, args := b.Select("total_score").
		From(b.Table(sessionsTable)).
		Where(entsql.And(
			entsql.EQ("role", string(role)),
			entsql.EQ("status", string(interview.StatusCompleted)),
			entsql.NEQ("id", excludeID),
			entsql.NotNull("total_score"),
		)).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query completed scores: %w", err)
	}
	defer rows.Close()

	var scores []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		scores = append(scores, v)
	}
	return scores, rows.Err()
}

// CountByStatus returns the number of sessions per role and status.
func (r *SessionRepo) CountByStatus(ctx context.Context) (map[interview.Role]map[interview.Status]int, error) {
	b := builder()
	query, args := b.Select("role", "status", entsql.Count("*")).
		From(b.Table(sessionsTable)).
		GroupBy("role", "status").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	defer rows.Close()

	out := make(map[interview.Role]map[interview.Status]int)
	for rows.Next() {
		var role, status string
		var n int
		if err := rows.Scan(&role, &status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		byStatus, ok := out[interview.Role(role)]
		if !ok {
			byStatus = make(map[interview.Status]int)
			out[interview.Role(role)] = byStatus
		}
		byStatus[interview.Status(status)] = n
	}
	return out, rows.Err()
}

func (r *SessionRepo) querySessions(ctx context.Context, query string, args []any) ([]*interview.Session, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []*interview.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSession(row rowScanner) (*interview.Session, error) {
	var (
		s                        interview.Session
		role, experience, status string
		turnsJSON, analysesJSON  string
		totalScore, completedAt  sql.NullInt64
		startedAt, updatedAt     int64
	)
	err := row.Scan(
		&s.ID, &s.UserID, &role, &experience, &status, &turnsJSON, &analysesJSON,
		&totalScore, &s.CurrentQuestion, &startedAt, &updatedAt, &completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	s.Role = interview.Role(role)
	s.Experience = interview.Experience(experience)
	s.Status = interview.Status(status)
	s.StartedAt = time.Unix(0, startedAt).UTC()
	s.UpdatedAt = time.Unix(0, updatedAt).UTC()
	if totalScore.Valid {
		v := int(totalScore.Int64)
		s.TotalScore = &v
	}
	if completedAt.Valid {
		t := time.Unix(0, completedAt.Int64).UTC()
		s.CompletedAt = &t
	}
	if err := json.Unmarshal([]byte(turnsJSON), &s.Turns); err != nil {
		return nil, fmt.Errorf("decode turns of session %s: %w", s.ID, err)
	}
	if err := json.Unmarshal([]byte(analysesJSON), &s.Analyses); err != nil {
		return nil, fmt.Errorf("decode analyses of session %s: %w", s.ID, err)
	}
	return &s, nil
}
