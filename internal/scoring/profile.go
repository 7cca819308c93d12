package scoring

import (
	"slices"
	"sort"
	"time"

	"github.com/abhisek/skillprobe/internal/interview"
)

// highlightCount is how many metrics are listed as strengths and weaknesses.
const highlightCount = 3

// MetricScore is one metric's average with its calibration label.
type MetricScore struct {
	Metric   string             `json:"metric"`
	Category interview.Category `json:"category"`
	Average  float64            `json:"average"`
	Label    Label              `json:"label"`
}

// Profile is the competency profile of a completed session. It is derived
// from the analyses and never mutated; recompute it if inputs change.
type Profile struct {
	SessionID  string               `json:"session_id"`
	Role       interview.Role       `json:"role"`
	Experience interview.Experience `json:"experience"`
	TotalScore int                  `json:"total_score"`

	Categories []CategoryScore `json:"categories"`
	Metrics    []MetricScore   `json:"metrics"`
	Strengths  []MetricScore   `json:"strengths"`
	Weaknesses []MetricScore   `json:"weaknesses"`

	Patterns      []string `json:"patterns"`
	DegradedTurns int      `json:"degraded_turns"`

	EstimatedLevel string `json:"estimated_level"`
	LevelMatch     Label  `json:"level_match"`

	// Benchmark is filled in best-effort after completion.
	Benchmark *Benchmark `json:"benchmark,omitempty"`

	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// BuildProfile computes the profile of a session from its analyses.
func BuildProfile(s *interview.Session) *Profile {
	set := interview.MetricSetFor(s.Role)
	averages := Aggregate(s.Analyses)
	categories := Categorize(set, averages)
	total := TotalScore(categories)

	metrics := make([]MetricScore, 0, len(averages))
	for _, m := range set.Metrics() {
		avg, ok := averages[m]
		if !ok {
			continue
		}
		cat, _ := set.CategoryOf(m)
		metrics = append(metrics, MetricScore{
			Metric:   m,
			Category: cat,
			Average:  avg,
			Label:    LabelFor(avg, s.Experience),
		})
	}

	degraded := 0
	for _, a := range s.Analyses {
		if a.Degraded() {
			degraded++
		}
	}

	return &Profile{
		SessionID:      s.ID,
		Role:           s.Role,
		Experience:     s.Experience,
		TotalScore:     total,
		Categories:     categories,
		Metrics:        metrics,
		Strengths:      topMetrics(metrics, highlightCount),
		Weaknesses:     bottomMetrics(metrics, highlightCount),
		Patterns:       patternUnion(s.Analyses),
		DegradedTurns:  degraded,
		EstimatedLevel: EstimateLevel(total),
		LevelMatch:     LevelMatch(total, s.Experience),
		CompletedAt:    s.CompletedAt,
	}
}

// Clone returns a deep copy of p.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Categories = slices.Clone(p.Categories)
	c.Metrics = slices.Clone(p.Metrics)
	c.Strengths = slices.Clone(p.Strengths)
	c.Weaknesses = slices.Clone(p.Weaknesses)
	c.Patterns = slices.Clone(p.Patterns)
	if p.Benchmark != nil {
		b := *p.Benchmark
		c.Benchmark = &b
	}
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// topMetrics returns the n highest averages, ties broken by name.
func topMetrics(metrics []MetricScore, n int) []MetricScore {
	sorted := append([]MetricScore(nil), metrics...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Average != sorted[j].Average {
			return sorted[i].Average > sorted[j].Average
		}
		return sorted[i].Metric < sorted[j].Metric
	})
	return head(sorted, n)
}

// bottomMetrics returns the n lowest averages, ties broken by name.
func bottomMetrics(metrics []MetricScore, n int) []MetricScore {
	sorted := append([]MetricScore(nil), metrics...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Average != sorted[j].Average {
			return sorted[i].Average < sorted[j].Average
		}
		return sorted[i].Metric < sorted[j].Metric
	})
	return head(sorted, n)
}

func head(ms []MetricScore, n int) []MetricScore {
	if len(ms) > n {
		return ms[:n]
	}
	return ms
}

func patternUnion(analyses []interview.AnalysisResult) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, a := range analyses {
		for _, p := range a.Patterns {
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
