// Package scoring turns a session's analyses into category totals, a 0-100
// score, calibration labels and a role benchmark.
package scoring

import (
	"math"
	"sort"

	"github.com/abhisek/skillprobe/internal/interview"
)

// CategoryScore is the aggregate of one metric category.
type CategoryScore struct {
	Category interview.Category `json:"category"`
	// Mean is the average of the category's metric averages, 0-10.
	Mean   float64 `json:"mean"`
	Weight int     `json:"weight"`
	// Points is Mean scaled to the category weight.
	Points int `json:"points"`
}

// Aggregate averages every metric across the turns that reported it.
// A metric missing from some turns does not affect the others.
func Aggregate(analyses []interview.AnalysisResult) map[string]float64 {
	values := make(map[string][]float64)
	for _, a := range analyses {
		for k, v := range a.Scores {
			values[k] = append(values[k], v)
		}
	}

	out := make(map[string]float64, len(values))
	for k, vs := range values {
		// Summation order is fixed so the result does not depend on turn order.
		sort.Float64s(vs)
		var sum float64
		for _, v := range vs {
			sum += v
		}
		out[k] = sum / float64(len(vs))
	}
	return out
}

// Categorize groups metric averages by the role's category table. A
// category with no reported metrics counts at the midpoint.
func Categorize(set interview.MetricSet, averages map[string]float64) []CategoryScore {
	out := make([]CategoryScore, 0, len(interview.Categories()))
	for _, c := range interview.Categories() {
		var sum float64
		var n int
		for _, m := range set.Groups[c] {
			if v, ok := averages[m]; ok {
				sum += v
				n++
			}
		}
		mean := interview.MidpointScore
		if n > 0 {
			mean = sum / float64(n)
		}
		weight := interview.CategoryWeights[c]
		out = append(out, CategoryScore{
			Category: c,
			Mean:     mean,
			Weight:   weight,
			Points:   int(math.Round(mean / interview.MaxScore * float64(weight))),
		})
	}
	return out
}

// TotalScore is the weighted sum of category means on a 0-100 scale.
func TotalScore(categories []CategoryScore) int {
	var total float64
	for _, c := range categories {
		total += float64(c.Weight) * c.Mean / interview.MaxScore
	}
	return int(clamp(math.Round(total), 0, 100))
}

// ScoreSession computes the total score for a session's analyses.
func ScoreSession(role interview.Role, analyses []interview.AnalysisResult) int {
	return TotalScore(Categorize(interview.MetricSetFor(role), Aggregate(analyses)))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
