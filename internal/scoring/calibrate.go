package scoring

import "github.com/abhisek/skillprobe/internal/interview"

// Label compares a score to what is expected at the declared experience.
type Label string

const (
	LabelExceeds Label = "exceeds"
	LabelMeets   Label = "meets"
	LabelBelow   Label = "below"
)

// exceedsMargin is how far above baseline a metric must be to exceed.
const exceedsMargin = 2.0

var baselines = map[interview.Experience]float64{
	interview.ExperienceJunior: 4,
	interview.ExperienceMiddle: 5,
	interview.ExperienceSenior: 6,
	interview.ExperienceLead:   7,
}

// Baseline returns the expected metric average for an experience tier.
// Unknown tiers use the middle baseline.
func Baseline(exp interview.Experience) float64 {
	if b, ok := baselines[exp]; ok {
		return b
	}
	return baselines[interview.ExperienceMiddle]
}

// LabelFor labels one metric average against the tier baseline.
func LabelFor(avg float64, exp interview.Experience) Label {
	b := Baseline(exp)
	switch {
	case avg >= b+exceedsMargin:
		return LabelExceeds
	case avg >= b:
		return LabelMeets
	default:
		return LabelBelow
	}
}

// Calibrate labels every metric average. The labels are descriptive and
// never feed back into the total score.
func Calibrate(averages map[string]float64, exp interview.Experience) map[string]Label {
	out := make(map[string]Label, len(averages))
	for m, avg := range averages {
		out[m] = LabelFor(avg, exp)
	}
	return out
}

// levelBand is the total score range expected at an experience tier.
type levelBand struct {
	Min, Expected, Max int
}

var levelBands = map[interview.Experience]levelBand{
	interview.ExperienceJunior: {Min: 20, Expected: 35, Max: 50},
	interview.ExperienceMiddle: {Min: 40, Expected: 55, Max: 70},
	interview.ExperienceSenior: {Min: 55, Expected: 70, Max: 85},
	interview.ExperienceLead:   {Min: 65, Expected: 80, Max: 95},
}

// LevelMatch compares a total score to the band of the declared tier.
func LevelMatch(total int, exp interview.Experience) Label {
	band, ok := levelBands[exp]
	if !ok {
		band = levelBands[interview.ExperienceMiddle]
	}
	switch {
	case total >= band.Max:
		return LabelExceeds
	case total >= band.Min:
		return LabelMeets
	default:
		return LabelBelow
	}
}

// EstimateLevel maps a total score to a seniority estimate.
func EstimateLevel(total int) string {
	switch {
	case total >= 90:
		return "Lead"
	case total >= 75:
		return "Senior"
	case total >= 60:
		return "Middle+"
	case total >= 45:
		return "Middle"
	case total >= 25:
		return "Junior+"
	default:
		return "Junior"
	}
}
