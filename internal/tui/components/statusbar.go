package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cashbox/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar: key hints on the left and
// the latest message on the right, in warning color when warn is set.
func RenderStatusBar(width int, hints, message string, warn bool) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Width(width)

	msgStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	if warn {
		msgStyle = msgStyle.Foreground(t.Orange).Bold(true)
	}

	left := " " + hints
	right := ""
	if message != "" {
		right = msgStyle.Render(message) + " "
	}

	// Pad middle
	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return style.Render(left + strings.Repeat(" ", padding) + right)
}

// RenderBucketTabs renders the bucket switcher with the active bucket highlighted.
func RenderBucketTabs(names []string, active int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true)

	inactiveStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted)

	dimStyle := lipgloss.NewStyle().
		Foreground(t.TextDim)

	parts := make([]string, 0, len(names))
	for i, name := range names {
		if i == active {
			parts = append(parts, dimStyle.Render("[")+activeStyle.Render(name)+dimStyle.Render("]"))
			continue
		}
		parts = append(parts, inactiveStyle.Render(" "+name+" "))
	}
	return " " + strings.Join(parts, " ")
}
