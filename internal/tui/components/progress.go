package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cashbox/internal/tui/theme"
)

// ShareBar renders a labeled bar showing what fraction of a whole one part holds,
// e.g. how much of the grand total sits in the weekly bucket.
func ShareBar(label string, part, whole int64, labelW, barWidth int) string {
	t := theme.Active

	pct := 0.0
	if whole > 0 {
		pct = float64(part) / float64(whole)
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	if barWidth < 5 {
		barWidth = 5
	}

	bar := progress.New(
		progress.WithSolidFill(string(t.Accent)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Width(labelW)
	pctStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)

	return labelStyle.Render(label) + " " + bar.ViewAs(pct) + " " + pctStyle.Render(fmt.Sprintf("%3.0f%%", pct*100))
}
