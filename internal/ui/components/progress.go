package components

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/skillprobe/internal/ui/theme"
)

// ProgressBar displays a horizontal progress bar. Percent is clamped to
// [0, 1] when rendered.
type ProgressBar struct {
	Label   string
	Percent float64
	Suffix  string
	Width   int
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var result string

	if p.Label != "" {
		result += theme.Body.Render(p.Label) + "  "
	}

	labelWidth := lipgloss.Width(result)
	suffixWidth := 0
	if p.Suffix != "" {
		suffixWidth = len(p.Suffix) + 2
	}

	barWidth := p.Width - labelWidth - suffixWidth
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth) * p.Percent)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	empty := barWidth - filled

	result += theme.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", empty))

	if p.Suffix != "" {
		result += theme.Subtitle.Render("  " + p.Suffix)
	}

	return result
}
