package questiongen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/skillprobe/internal/interview"
	"github.com/abhisek/skillprobe/internal/llm"
)

func analysesWithMeans(means ...float64) []interview.AnalysisResult {
	out := make([]interview.AnalysisResult, len(means))
	for i, m := range means {
		out[i] = interview.AnalysisResult{
			Scores:     map[string]float64{"depth": m, "honesty": m},
			Provenance: interview.ProvenanceClean,
		}
	}
	return out
}

func TestTierForMeans(t *testing.T) {
	tests := []struct {
		name  string
		means []float64
		want  Tier
	}{
		{"strong answers", []float64{9, 8, 8.5}, TierChallenging},
		{"typical answers", []float64{6, 6, 7}, TierStandard},
		{"weak answers", []float64{3, 4, 5}, TierSupportive},
		{"no history", nil, TierStandard},
		{"exactly eight", []float64{8}, TierChallenging},
		{"exactly six", []float64{6}, TierStandard},
		{"just below six", []float64{5.99}, TierSupportive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TierForMeans(tt.means); got != tt.want {
				t.Errorf("TierForMeans(%v) = %q, want %q", tt.means, got, tt.want)
			}
		})
	}
}

func TestSelectTier_UsesLastThree(t *testing.T) {
	// Early weak answers no longer count once three strong ones follow.
	analyses := analysesWithMeans(2, 2, 9, 8, 8.5)
	if got := SelectTier(analyses); got != TierChallenging {
		t.Errorf("SelectTier = %q, want challenging", got)
	}

	analyses = analysesWithMeans(3, 4, 5)
	if got := SelectTier(analyses); got != TierSupportive {
		t.Errorf("SelectTier = %q, want supportive", got)
	}

	if got := SelectTier(nil); got != TierStandard {
		t.Errorf("SelectTier(nil) = %q, want standard", got)
	}
}

func TestSelectTier_SkipsDegraded(t *testing.T) {
	analyses := analysesWithMeans(9, 9)
	analyses = append(analyses, interview.AnalysisResult{
		Scores:     map[string]float64{"depth": 5, "honesty": 5},
		Provenance: interview.ProvenanceFallback,
	})
	if got := SelectTier(analyses); got != TierChallenging {
		t.Errorf("SelectTier = %q, want challenging (fallback ignored)", got)
	}

	onlyDegraded := []interview.AnalysisResult{{
		Scores:     map[string]float64{"depth": 5},
		Provenance: interview.ProvenanceFallback,
	}}
	if got := SelectTier(onlyDegraded); got != TierStandard {
		t.Errorf("SelectTier = %q, want standard", got)
	}
}

func TestSelectTier_WindowReachesPastFallback(t *testing.T) {
	fallback := interview.AnalysisResult{
		Scores:     map[string]float64{"depth": 5, "honesty": 5},
		Provenance: interview.ProvenanceFallback,
	}
	// Scored means 3, 3, 9 followed by two fallbacks. Averaging the last
	// three entries as-is would give 6.33 (standard); the scored window is
	// 3, 3, 9 with mean 5.
	analyses := append(analysesWithMeans(3, 3, 9), fallback, fallback)
	if got := SelectTier(analyses); got != TierSupportive {
		t.Errorf("SelectTier = %q, want supportive", got)
	}
}

func TestNext_FirstTurnUsesOpeningQuestion(t *testing.T) {
	mock := llm.NewMockProvider()
	g := New(llm.NewGateway(mock), DefaultConfig(), nil)

	q, err := g.Next(context.Background(), Input{Role: interview.RoleDesigner, Turn: 1, Total: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q != OpeningQuestion(interview.RoleDesigner) {
		t.Errorf("question = %q, want opening question", q)
	}
	if mock.CallCount() != 0 {
		t.Errorf("expected no LLM call for turn 1, got %d", mock.CallCount())
	}
}

func TestNext_GeneratesWithTierInstruction(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Text: `  "Describe a launch that failed. What would you change?"  `,
	})
	g := New(llm.NewGateway(mock), DefaultConfig(), nil)

	in := Input{
		SessionID:  "s-1",
		Role:       interview.RoleProduct,
		Experience: interview.ExperienceSenior,
		Turn:       4,
		Total:      10,
		History: []interview.Turn{
			{Index: 1, Question: "Q one", Answer: "A one"},
			{Index: 2, Question: "Q two", Answer: "A two"},
			{Index: 3, Question: "Q three", Answer: "A three"},
		},
		Analyses: analysesWithMeans(9, 8, 8.5),
	}

	q, err := g.Next(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q != "Describe a launch that failed. What would you change?" {
		t.Errorf("question not cleaned: %q", q)
	}

	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	call := mock.Calls[0]
	if call.Temperature != 0.8 {
		t.Errorf("temperature = %v, want 0.8", call.Temperature)
	}
	if call.MaxTokens != 500 {
		t.Errorf("max tokens = %d, want 500", call.MaxTokens)
	}
	prompt := call.Messages[0].Content
	for _, want := range []string{"Difficulty: challenging", "concrete failure", "Q3: Q three", "A3: A three", "Question number: 4 of 10"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestNext_GatewayFailure(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}})
	g := New(llm.NewGateway(mock), DefaultConfig(), nil)

	_, err := g.Next(context.Background(), Input{Role: interview.RoleDesigner, Turn: 2, Total: 10})
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %T (%v)", err, err)
	}
	if genErr.Turn != 2 {
		t.Errorf("turn = %d, want 2", genErr.Turn)
	}
	var unavail *llm.ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Errorf("expected wrapped ErrProviderUnavailable")
	}
}

func TestNext_TruncatedQuestionIsRejected(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Text:       "Walk me through how you would prioritise the backlog when",
		StopReason: llm.StopMaxTokens,
	})
	g := New(llm.NewGateway(mock), DefaultConfig(), nil)

	q, err := g.Next(context.Background(), Input{Role: interview.RoleProduct, Turn: 4, Total: 10})
	if q != "" {
		t.Errorf("cut-off question returned: %q", q)
	}
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %T (%v)", err, err)
	}
	var truncated *llm.ErrMaxTokensExceeded
	if !errors.As(err, &truncated) {
		t.Fatalf("expected wrapped ErrMaxTokensExceeded, got %v", err)
	}
}

func TestNext_EmptyOutputIsError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: `  ""  `})
	g := New(llm.NewGateway(mock), DefaultConfig(), nil)

	_, err := g.Next(context.Background(), Input{Role: interview.RoleDesigner, Turn: 3, Total: 10})
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
}

func TestCleanQuestion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"Why?"`, "Why?"},
		{`'Why?'`, "Why?"},
		{"  “Why?”  ", "Why?"},
		{"\nWhat changed?\n", "What changed?"},
		{`""`, ""},
	}
	for _, tt := range tests {
		if got := cleanQuestion(tt.in); got != tt.want {
			t.Errorf("cleanQuestion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOpeningQuestionPerRole(t *testing.T) {
	seen := make(map[string]bool)
	for _, r := range interview.AllRoles() {
		q := OpeningQuestion(r)
		if q == "" {
			t.Fatalf("empty opening question for %s", r)
		}
		if seen[q] {
			t.Errorf("duplicate opening question for %s", r)
		}
		seen[q] = true
	}
}
