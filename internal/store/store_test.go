package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/abhisek/skillprobe/internal/interview"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)

	for _, table := range []string{"sessions", "llm_request_events", "analysis_audits", "global_sequence"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("table %s: %v", table, err)
		}
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var seqs []int64
	for i := 0; i < 5; i++ {
		seq, err := s.seq.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		seqs = append(seqs, seq)
	}

	for i, seq := range seqs {
		expected := int64(i + 1)
		if seq != expected {
			t.Errorf("seq[%d] = %d, want %d", i, seq, expected)
		}
	}
}

func sampleSession(id string, userID int64, role interview.Role) *interview.Session {
	now := time.Now().UTC()
	return &interview.Session{
		ID:              id,
		UserID:          userID,
		Role:            role,
		Experience:      interview.ExperienceSenior,
		Status:          interview.StatusInProgress,
		CurrentQuestion: "Tell me about a recent project.",
		StartedAt:       now,
		UpdatedAt:       now,
	}
}

func completeSession(s *interview.Session, score int) {
	now := time.Now().UTC()
	s.Status = interview.StatusCompleted
	s.TotalScore = &score
	s.CompletedAt = &now
	s.CurrentQuestion = ""
}

func TestSessionSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.Sessions()
	ctx := context.Background()

	sess := sampleSession("s-1", 42, interview.RoleDesigner)
	sess.Turns = []interview.Turn{{
		Index:       1,
		Question:    "What did you ship?",
		Answer:      "A redesigned onboarding flow for the mobile app.",
		SubmittedAt: sess.StartedAt,
	}}
	sess.Analyses = []interview.AnalysisResult{{
		Scores:     map[string]float64{"expertise": 7, "depth": 5},
		Patterns:   []string{"user-centric"},
		Provenance: interview.ProvenanceRecovered,
		Coerced:    []interview.Coercion{{Metric: "depth", Raw: `"deep"`, Reason: "non-numeric"}},
		RawText:    "```json\n{\"scores\":{}}\n```",
		Insights:   []string{"talks about metrics"},
		Hypothesis: "strong executor",
	}}

	if err := repo.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.Load(ctx, "s-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.UserID != 42 || got.Role != interview.RoleDesigner || got.Experience != interview.ExperienceSenior {
		t.Fatalf("unexpected identity fields: %+v", got)
	}
	if got.CurrentQuestion != sess.CurrentQuestion {
		t.Errorf("current question = %q, want %q", got.CurrentQuestion, sess.CurrentQuestion)
	}
	if !got.StartedAt.Equal(sess.StartedAt) {
		t.Errorf("started_at = %v, want %v", got.StartedAt, sess.StartedAt)
	}
	if len(got.Turns) != 1 || got.Turns[0].Answer != sess.Turns[0].Answer {
		t.Fatalf("turns not round-tripped: %+v", got.Turns)
	}
	a := got.Analyses[0]
	if a.Provenance != interview.ProvenanceRecovered {
		t.Errorf("provenance = %q, want %q", a.Provenance, interview.ProvenanceRecovered)
	}
	if len(a.Coerced) != 1 || a.Coerced[0].Raw != `"deep"` {
		t.Errorf("coercions not round-tripped: %+v", a.Coerced)
	}
	if a.RawText != sess.Analyses[0].RawText {
		t.Errorf("raw text = %q", a.RawText)
	}
	if a.Scores["expertise"] != 7 {
		t.Errorf("expertise = %v, want 7", a.Scores["expertise"])
	}
	if got.TotalScore != nil || got.CompletedAt != nil {
		t.Error("in-progress session should have no score or completion time")
	}
}

func TestSessionTimestampsKeepNanoseconds(t *testing.T) {
	s := openTestStore(t)
	repo := s.Sessions()
	ctx := context.Background()

	started := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)
	sess := sampleSession("s-ns", 1, interview.RoleProduct)
	sess.StartedAt = started
	sess.UpdatedAt = started.Add(1500 * time.Nanosecond)
	completeSession(sess, 64)
	completed := started.Add(time.Minute + 7*time.Nanosecond)
	sess.CompletedAt = &completed

	if err := repo.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.Load(ctx, "s-ns")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.StartedAt.Equal(sess.StartedAt) {
		t.Errorf("started_at = %v, want %v", got.StartedAt, sess.StartedAt)
	}
	if !got.UpdatedAt.Equal(sess.UpdatedAt) {
		t.Errorf("updated_at = %v, want %v", got.UpdatedAt, sess.UpdatedAt)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(completed) {
		t.Errorf("completed_at = %v, want %v", got.CompletedAt, completed)
	}
}

func TestSessionSaveOverwrites(t *testing.T) {
	s := openTestStore(t)
	repo := s.Sessions()
	ctx := context.Background()

	sess := sampleSession("s-1", 1, interview.RoleProduct)
	if err := repo.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	completeSession(sess, 73)
	if err := repo.Save(ctx, sess); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err := repo.Load(ctx, "s-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Status != interview.StatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.TotalScore == nil || *got.TotalScore != 73 {
		t.Errorf("total score = %v, want 73", got.TotalScore)
	}
	if err := got.Validate(interview.DefaultTotalQuestions); err != nil {
		t.Errorf("loaded session invalid: %v", err)
	}
}

func TestSessionLoadNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Sessions().Load(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestActiveForUser(t *testing.T) {
	s := openTestStore(t)
	repo := s.Sessions()
	ctx := context.Background()

	active := sampleSession("a", 7, interview.RoleDesigner)
	done := sampleSession("b", 7, interview.RoleDesigner)
	completeSession(done, 50)
	other := sampleSession("c", 8, interview.RoleDesigner)

	for _, sess := range []*interview.Session{active, done, other} {
		if err := repo.Save(ctx, sess); err != nil {
			t.Fatalf("save %s: %v", sess.ID, err)
		}
	}

	got, err := repo.ActiveForUser(ctx, 7)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected only session a, got %+v", got)
	}
}

func TestStaleInProgress(t *testing.T) {
	s := openTestStore(t)
	repo := s.Sessions()
	ctx := context.Background()

	old := sampleSession("old", 1, interview.RoleDesigner)
	old.UpdatedAt = time.Now().Add(-2 * time.Hour)
	fresh := sampleSession("fresh", 2, interview.RoleDesigner)
	oldDone := sampleSession("old-done", 3, interview.RoleDesigner)
	oldDone.UpdatedAt = time.Now().Add(-2 * time.Hour)
	completeSession(oldDone, 60)

	for _, sess := range []*interview.Session{old, fresh, oldDone} {
		if err := repo.Save(ctx, sess); err != nil {
			t.Fatalf("save %s: %v", sess.ID, err)
		}
	}

	ids, err := repo.StaleInProgress(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("stale: %v", err)
	}
	if len(ids) != 1 || ids[0] != "old" {
		t.Fatalf("expected [old], got %v", ids)
	}
}

func TestCompletedScoresByRole(t *testing.T) {
	s := openTestStore(t)
	repo := s.Sessions()
	ctx := context.Background()

	fixtures := []struct {
		id    string
		role  interview.Role
		score int
		done  bool
	}{
		{"d1", interview.RoleDesigner, 40, true},
		{"d2", interview.RoleDesigner, 80, true},
		{"d3", interview.RoleDesigner, 0, false},
		{"p1", interview.RoleProduct, 90, true},
		{"self", interview.RoleDesigner, 65, true},
	}
	for _, f := range fixtures {
		sess := sampleSession(f.id, 1, f.role)
		if f.done {
			completeSession(sess, f.score)
		}
		if err := repo.Save(ctx, sess); err != nil {
			t.Fatalf("save %s: %v", f.id, err)
		}
	}

	scores, err := repo.CompletedScoresByRole(ctx, interview.RoleDesigner, "self")
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("expected 2 scores, got %v", scores)
	}
	sum := scores[0] + scores[1]
	if sum != 120 {
		t.Errorf("expected scores 40 and 80, got %v", scores)
	}

	counts, err := repo.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[interview.RoleDesigner][interview.StatusCompleted] != 3 {
		t.Errorf("designer completed = %d, want 3", counts[interview.RoleDesigner][interview.StatusCompleted])
	}
	if counts[interview.RoleDesigner][interview.StatusInProgress] != 1 {
		t.Errorf("designer in progress = %d, want 1", counts[interview.RoleDesigner][interview.StatusInProgress])
	}
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "mock", Model: "gpt-4o-mini", Purpose: "answer-analysis", InputTokens: 100, OutputTokens: 50, LatencyMs: 200, Success: true, RequestBody: "req", ResponseBody: "resp"},
		{Provider: "mock", Model: "gpt-4o-mini", Purpose: "question-gen", InputTokens: 80, OutputTokens: 20, LatencyMs: 100, Success: true},
		{Provider: "mock", Model: "gpt-4o-mini", Purpose: "answer-analysis", InputTokens: 120, OutputTokens: 0, LatencyMs: 400, Success: false, ErrorMessage: "timeout"},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}
	if all[0].Sequence <= all[1].Sequence {
		t.Error("expected newest first")
	}
	if all[0].Success || all[0].ErrorMessage != "timeout" {
		t.Errorf("unexpected newest event: %+v", all[0])
	}

	analysis, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "answer-analysis", Limit: 1})
	if err != nil {
		t.Fatalf("query purpose: %v", err)
	}
	if len(analysis) != 1 || analysis[0].Purpose != "answer-analysis" {
		t.Fatalf("unexpected filtered events: %+v", analysis)
	}

	first := all[2]
	got, err := repo.GetLLMEvent(ctx, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.RequestBody != "req" || got.ResponseBody != "resp" {
		t.Fatalf("unexpected event: %+v", got)
	}

	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil || missing != nil {
		t.Fatalf("expected nil, nil for missing event, got %+v, %v", missing, err)
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("expected 2 purposes, got %+v", byPurpose)
	}
	if byPurpose[0].Purpose != "answer-analysis" || byPurpose[0].Calls != 2 || byPurpose[0].InputTokens != 220 {
		t.Errorf("unexpected analysis usage: %+v", byPurpose[0])
	}
	if byPurpose[0].AvgLatencyMs != 300 {
		t.Errorf("avg latency = %d, want 300", byPurpose[0].AvgLatencyMs)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 1 || byModel[0].Calls != 3 || byModel[0].OutputTokens != 70 {
		t.Errorf("unexpected model usage: %+v", byModel)
	}
}

func TestAnalysisAudits(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	records := []AnalysisAuditData{
		{SessionID: "s-1", Turn: 1, Provenance: interview.ProvenanceClean, RawText: `{"scores":{}}`},
		{SessionID: "s-1", Turn: 2, Provenance: interview.ProvenanceFallback, RawText: "I cannot help", ErrorMessage: "no JSON object found"},
		{SessionID: "s-2", Turn: 1, Provenance: interview.ProvenanceRecovered,
			Coerced: []interview.Coercion{{Metric: "honesty", Raw: "12", Reason: "out of range"}}},
	}
	for _, r := range records {
		if err := repo.AppendAnalysisAudit(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := repo.QueryAnalysisAudits(ctx, QueryOpts{SessionID: "s-1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 audits, got %d", len(got))
	}
	if got[0].Turn != 1 || got[1].Provenance != interview.ProvenanceFallback {
		t.Errorf("unexpected order or content: %+v", got)
	}
	if got[1].ErrorMessage == "" {
		t.Error("expected error message to be stored")
	}

	other, err := repo.QueryAnalysisAudits(ctx, QueryOpts{SessionID: "s-2"})
	if err != nil {
		t.Fatalf("query s-2: %v", err)
	}
	if len(other) != 1 || len(other[0].Coerced) != 1 || other[0].Coerced[0].Metric != "honesty" {
		t.Fatalf("unexpected coercions: %+v", other)
	}
}
