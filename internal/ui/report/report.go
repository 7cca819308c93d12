// Package report renders interview screens and competency profiles for the
// terminal.
package report

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/skillprobe/internal/interview"
	"github.com/abhisek/skillprobe/internal/scoring"
	"github.com/abhisek/skillprobe/internal/ui/components"
	"github.com/abhisek/skillprobe/internal/ui/theme"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 72

// Question renders the question card for a turn.
func Question(turn, total int, text string, width int) string {
	width = normalizeWidth(width)
	header := theme.Subtitle.Render(fmt.Sprintf("Question %d of %d", turn, total))
	progress := components.ProgressBar{
		Percent: float64(turn-1) / float64(total),
		Suffix:  fmt.Sprintf("%d/%d", turn-1, total),
		Width:   width - 6,
	}
	body := theme.Body.Width(width - 6).Render(text)
	return theme.Card.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, progress.View(), "", body),
	)
}

// Analysis renders a one-line acknowledgement of a processed answer.
func Analysis(a interview.AnalysisResult) string {
	if a.Degraded() {
		return theme.Warning.Render("Answer recorded. Automatic scoring was unavailable for this turn.")
	}
	line := fmt.Sprintf("Answer recorded (turn mean %.1f/10).", a.MeanScore())
	if len(a.Patterns) > 0 {
		line += " Noted: " + strings.Join(a.Patterns, ", ")
	}
	return theme.Hint.Render(line)
}

// Profile renders a completed session's competency profile.
func Profile(p *scoring.Profile, width int) string {
	width = normalizeWidth(width)
	inner := width - 6

	var sections []string
	sections = append(sections,
		theme.Title.Render(fmt.Sprintf("%s profile", p.Role.DisplayName())),
		theme.Subtitle.Render(fmt.Sprintf("Declared experience: %s", p.Experience)),
		"",
		components.ProgressBar{
			Label:   "Total",
			Percent: float64(p.TotalScore) / 100,
			Suffix:  fmt.Sprintf("%d/100", p.TotalScore),
			Width:   inner,
		}.View(),
		fmt.Sprintf("Estimated level: %s (%s)", p.EstimatedLevel, labelStyle(p.LevelMatch).Render(string(p.LevelMatch))),
	)
	if p.Benchmark != nil {
		sections = append(sections, benchmarkLine(p.Benchmark))
	}

	sections = append(sections, "", theme.Title.Render("Categories"))
	for _, c := range p.Categories {
		sections = append(sections, components.ProgressBar{
			Label:   fmt.Sprintf("%-12s", categoryName(c.Category)),
			Percent: float64(c.Points) / float64(c.Weight),
			Suffix:  fmt.Sprintf("%d/%d", c.Points, c.Weight),
			Width:   inner,
		}.View())
	}

	sections = append(sections, "", theme.Title.Render("Strengths"))
	sections = append(sections, metricLines(p.Strengths)...)
	sections = append(sections, "", theme.Title.Render("Growth areas"))
	sections = append(sections, metricLines(p.Weaknesses)...)

	if len(p.Patterns) > 0 {
		sections = append(sections, "", theme.Title.Render("Observed patterns"),
			theme.Body.Width(inner).Render(strings.Join(p.Patterns, ", ")))
	}
	if p.DegradedTurns > 0 {
		sections = append(sections, "", theme.Warning.Render(
			fmt.Sprintf("%d answer(s) could not be scored and count as neutral.", p.DegradedTurns)))
	}

	return theme.Card.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func benchmarkLine(b *scoring.Benchmark) string {
	if !b.Sufficient {
		return theme.Hint.Render(fmt.Sprintf(
			"Benchmark: not enough %s interviews yet (%d of %d).", b.Role, b.SampleSize, scoring.MinBenchmarkSamples))
	}
	return fmt.Sprintf("Benchmark: ahead of %d%% of %d %s candidates", b.Percentile, b.SampleSize, b.Role)
}

func metricLines(ms []scoring.MetricScore) []string {
	if len(ms) == 0 {
		return []string{theme.Hint.Render("none")}
	}
	lines := make([]string, 0, len(ms))
	for _, m := range ms {
		lines = append(lines, fmt.Sprintf("  %-22s %4.1f  %s",
			MetricName(m.Metric), m.Average, labelStyle(m.Label).Render(string(m.Label))))
	}
	return lines
}

func labelStyle(l scoring.Label) lipgloss.Style {
	switch l {
	case scoring.LabelExceeds:
		return theme.Exceeds
	case scoring.LabelBelow:
		return theme.Below
	default:
		return theme.Meets
	}
}

func categoryName(c interview.Category) string {
	return MetricName(string(c))
}

// MetricName turns a snake_case key into words.
func MetricName(key string) string {
	s := strings.ReplaceAll(key, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func normalizeWidth(w int) int {
	if w <= 0 {
		return DefaultWidth
	}
	if w < 40 {
		return 40
	}
	return w
}
