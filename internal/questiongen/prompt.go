package questiongen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/abhisek/skillprobe/internal/interview"
)

const systemPrompt = `You are an experienced interviewer running a structured competency interview.

Rules:
- Ask exactly one open question. No preamble, numbering, or commentary.
- Build on what the candidate has already said; do not repeat an earlier question.
- Ask about real experience, not hypotheticals the candidate can answer from a textbook.
- Keep the question under 60 words.
- Follow the difficulty instruction exactly.`

// openingQuestions are asked verbatim on turn 1.
var openingQuestions = map[interview.Role]string{
	interview.RoleDesigner:       "Tell me about a recent design project you are proud of. What problem were you solving, and what was your role in it?",
	interview.RoleProduct:        "Tell me about a product decision you made recently. What was at stake, and how did you decide?",
	interview.RoleProjectManager: "Tell me about a recent project you ran from start to finish. How did you plan it, and what went differently from the plan?",
}

// OpeningQuestion returns the fixed first question for a role.
func OpeningQuestion(r interview.Role) string {
	if q, ok := openingQuestions[r]; ok {
		return q
	}
	return openingQuestions[interview.RoleProduct]
}

func buildUserMessage(in Input, tier Tier) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Role: %s\n", in.Role.DisplayName())
	fmt.Fprintf(&b, "Declared experience: %s\n", in.Experience)
	fmt.Fprintf(&b, "Question number: %d of %d\n", in.Turn, in.Total)

	fmt.Fprintf(&b, "\nDifficulty: %s\n", tier)
	b.WriteString(tier.instruction())
	b.WriteString("\n")

	b.WriteString("\nConversation so far:\n")
	b.WriteString(buildHistory(in.History))

	b.WriteString("\n\nAssessment so far:\n")
	b.WriteString(buildAssessment(in.Analyses))

	return b.String()
}

func buildHistory(turns []interview.Turn) string {
	if len(turns) == 0 {
		return "None"
	}
	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n", t.Index, t.Question, t.Index, t.Answer)
	}
	return strings.TrimRight(b.String(), "\n")
}

func buildAssessment(analyses []interview.AnalysisResult) string {
	if len(analyses) == 0 {
		return "None"
	}
	var b strings.Builder
	for i, a := range analyses {
		if a.Degraded() {
			fmt.Fprintf(&b, "Answer %d: not assessed\n", i+1)
			continue
		}
		fmt.Fprintf(&b, "Answer %d: mean %.1f", i+1, a.MeanScore())
		if weak := weakestMetrics(a.Scores, 2); len(weak) > 0 {
			fmt.Fprintf(&b, "; weakest %s", strings.Join(weak, ", "))
		}
		if len(a.Patterns) > 0 {
			fmt.Fprintf(&b, "; patterns %s", strings.Join(a.Patterns, ", "))
		}
		if len(a.Gaps) > 0 {
			fmt.Fprintf(&b, "; gaps %s", strings.Join(a.Gaps, ", "))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func weakestMetrics(scores map[string]float64, n int) []string {
	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if scores[keys[i]] != scores[keys[j]] {
			return scores[keys[i]] < scores[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
