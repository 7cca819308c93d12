package questiongen

import "github.com/abhisek/skillprobe/internal/interview"

// Tier is the difficulty level of the next question.
type Tier string

const (
	TierChallenging Tier = "challenging"
	TierStandard    Tier = "standard"
	TierSupportive  Tier = "supportive"
)

// tierWindow is how many recent analyses drive the tier.
const tierWindow = 3

// Tier thresholds on the 0-10 scale.
const (
	challengingThreshold = 8.0
	standardThreshold    = 6.0
)

// SelectTier picks the tier from the last three non-degraded analyses.
// Fallback analyses carry no signal about the candidate and are skipped, so
// when one falls among the last three turns the window reaches further back
// to the most recent three scored turns instead of averaging in the
// midpoint default.
func SelectTier(analyses []interview.AnalysisResult) Tier {
	var means []float64
	for i := len(analyses) - 1; i >= 0 && len(means) < tierWindow; i-- {
		if analyses[i].Degraded() || len(analyses[i].Scores) == 0 {
			continue
		}
		means = append(means, analyses[i].MeanScore())
	}
	return TierForMeans(means)
}

// TierForMeans maps per-turn mean scores to a tier. No scores means
// standard.
func TierForMeans(means []float64) Tier {
	if len(means) == 0 {
		return TierStandard
	}
	var sum float64
	for _, m := range means {
		sum += m
	}
	avg := sum / float64(len(means))
	switch {
	case avg >= challengingThreshold:
		return TierChallenging
	case avg >= standardThreshold:
		return TierStandard
	default:
		return TierSupportive
	}
}

// instruction is the prompt block telling the model how to pitch the
// question.
func (t Tier) instruction() string {
	switch t {
	case TierChallenging:
		return `The candidate is answering strongly. Raise the bar:
- ask them to describe a concrete failure and what they would do differently
- surface any contradiction with their earlier answers
- force a hard tradeoff with no obviously right option`
	case TierSupportive:
		return `The candidate is struggling. Lower the pressure:
- ask about something familiar from their day-to-day work
- keep the question short and concrete
- invite them to walk through their reasoning step by step`
	default:
		return `The candidate is answering at a typical level:
- ask for a specific example from their experience
- probe deeper into a theme they have already raised`
	}
}
