package interview

import (
	"errors"
	"testing"
	"time"
)

func TestParseRole(t *testing.T) {
	for _, r := range AllRoles() {
		got, err := ParseRole(string(r))
		if err != nil || got != r {
			t.Errorf("ParseRole(%q) = %q, %v", r, got, err)
		}
	}
	if _, err := ParseRole("engineer"); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("expected ErrInvalidRole, got %v", err)
	}
}

func TestExperienceRank(t *testing.T) {
	tests := []struct {
		exp  Experience
		want int
	}{
		{ExperienceJunior, 0},
		{ExperienceMiddle, 1},
		{ExperienceSenior, 2},
		{ExperienceLead, 3},
		{"principal", -1},
	}
	for _, tt := range tests {
		if got := tt.exp.Rank(); got != tt.want {
			t.Errorf("%q.Rank() = %d, want %d", tt.exp, got, tt.want)
		}
	}
	if _, err := ParseExperience("principal"); !errors.Is(err, ErrInvalidExperience) {
		t.Errorf("expected ErrInvalidExperience, got %v", err)
	}
}

func TestMetricSets(t *testing.T) {
	for _, r := range AllRoles() {
		set := MetricSetFor(r)
		seen := make(map[string]bool)
		for _, m := range set.Metrics() {
			if seen[m] {
				t.Errorf("%s: duplicate metric %q", r, m)
			}
			seen[m] = true
			if _, ok := MetricDescriptions[m]; !ok {
				t.Errorf("%s: metric %q has no description", r, m)
			}
			if _, ok := set.CategoryOf(m); !ok {
				t.Errorf("%s: metric %q has no category", r, m)
			}
		}
		if len(seen) != 12 {
			t.Errorf("%s: %d metrics, want 12", r, len(seen))
		}
	}

	pm := MetricSetFor(RoleProjectManager)
	if c, _ := pm.CategoryOf("prioritization"); c != CategoryThinking {
		t.Errorf("prioritization in %q, want thinking", c)
	}
	if _, ok := MetricSetFor(RoleDesigner).CategoryOf("prioritization"); ok {
		t.Error("designer set should not score prioritization")
	}
}

func TestCategoryWeightsSumTo100(t *testing.T) {
	sum := 0
	for _, c := range Categories() {
		sum += CategoryWeights[c]
	}
	if sum != 100 {
		t.Errorf("weights sum to %d", sum)
	}
}

func TestMeanScore(t *testing.T) {
	a := AnalysisResult{Scores: map[string]float64{"a": 4, "b": 8}}
	if got := a.MeanScore(); got != 6 {
		t.Errorf("MeanScore = %v, want 6", got)
	}
	if got := (AnalysisResult{}).MeanScore(); got != 0 {
		t.Errorf("empty MeanScore = %v, want 0", got)
	}
	if !(AnalysisResult{Provenance: ProvenanceFallback}).Degraded() {
		t.Error("fallback should be degraded")
	}
	if (AnalysisResult{Provenance: ProvenanceRecovered}).Degraded() {
		t.Error("recovered should not be degraded")
	}
}

func TestSessionValidate(t *testing.T) {
	now := time.Now()
	score := 70
	valid := func() *Session {
		return &Session{
			ID:       "s",
			Status:   StatusInProgress,
			Turns:    []Turn{{Index: 1}, {Index: 2}},
			Analyses: []AnalysisResult{{}, {}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Session)
		wantErr bool
	}{
		{"valid in progress", func(*Session) {}, false},
		{"more analyses than turns", func(s *Session) { s.Analyses = append(s.Analyses, AnalysisResult{}) }, true},
		{"too many turns", func(s *Session) { s.Turns = append(s.Turns, Turn{Index: 3}, Turn{Index: 4}) }, true},
		{"index gap", func(s *Session) { s.Turns[1].Index = 3 }, true},
		{"score while in progress", func(s *Session) { s.TotalScore = &score }, true},
		{"completed without score", func(s *Session) { s.Status = StatusCompleted; s.CompletedAt = &now }, true},
		{"completed without time", func(s *Session) { s.Status = StatusCompleted; s.TotalScore = &score }, true},
		{"completed", func(s *Session) {
			s.Status = StatusCompleted
			s.TotalScore = &score
			s.CompletedAt = &now
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := s.Validate(3)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
