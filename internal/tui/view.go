package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cashbox/internal/cli"
	"github.com/theirongolddev/cashbox/internal/ledger"
	"github.com/theirongolddev/cashbox/internal/tui/components"
	"github.com/theirongolddev/cashbox/internal/tui/theme"
)

// historyRows caps the transfers shown in the history card.
const historyRows = 8

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if a.needSetup && a.setupForm != nil {
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, a.setupForm.View())
	}

	if a.locked {
		return a.viewLock()
	}

	if a.dialog != nil {
		return a.viewDialog()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  cashbox needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewDialog() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 2)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
		cardStyle.Render(a.dialog.View()))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Bold(true)

	sectionStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Cyan).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted)

	dimStyle := lipgloss.NewStyle().
		Foreground(t.TextDim)

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"← → tab", "Switch bucket"},
			{"j k", "Move between bills"},
			{"g G", "First / last bill"},
		}},
		{"Editing", []struct{ key, desc string }{
			{"Enter", "Type a quantity"},
			{"+ -", "Add / remove one bill"},
			{"0", "Clear the row"},
			{"t", "Transfer weekly to general"},
			{"X", "Reset quantities"},
		}},
		{"View", []struct{ key, desc string }{
			{"p", "Hide / show amounts"},
			{"h", "Toggle transfer history"},
			{"?", "Toggle help"},
			{"q", "Save and quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-8s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: title + bucket switcher
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	names := make([]string, 0, len(ledger.Buckets))
	for _, b := range ledger.Buckets {
		names = append(names, cli.Capitalize(string(b)))
	}
	header := " " + titleStyle.Render("◈ cashbox") + "  " + components.RenderBucketTabs(names, a.bucket)

	// 2. Status bar
	hints := "[?]help  [t]ransfer  [p]rivacy  [q]uit"
	if a.editing {
		hints = "[enter]save  [esc]cancel"
	}
	statusBar := components.RenderStatusBar(w, hints, a.status, a.statusWarn)

	// 3. Content zone height
	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	// 4. Bucket cards, side by side when there is room
	var cards string
	if cw >= stackedWidth {
		widths := components.LayoutRow(cw, len(ledger.Buckets))
		rendered := make([]string, 0, len(ledger.Buckets))
		for i, b := range ledger.Buckets {
			rendered = append(rendered, a.renderBucketCard(b, i == a.bucket, widths[i]))
		}
		cards = components.CardRow(rendered)
	} else {
		rendered := make([]string, 0, len(ledger.Buckets))
		for i, b := range ledger.Buckets {
			rendered = append(rendered, a.renderBucketCard(b, i == a.bucket, cw))
		}
		cards = lipgloss.JoinVertical(lipgloss.Left, rendered...)
	}

	// 5. Totals
	general := a.ledger.BucketTotal(ledger.General)
	weekly := a.ledger.BucketTotal(ledger.Weekly)
	grand := a.ledger.GrandTotal()
	lastNote := "no transfers yet"
	if hist := a.ledger.History(); len(hist) > 0 {
		lastNote = "last transfer " + cli.FormatDate(hist[0].Timestamp)
	}
	totals := components.MetricCardRow([]components.Metric{
		{Label: "General", Value: a.money.FormatOrMask(general, a.hidden)},
		{Label: "Weekly", Value: a.money.FormatOrMask(weekly, a.hidden)},
		{Label: "Grand total", Value: a.money.FormatOrMask(grand, a.hidden), Note: lastNote},
	}, cw)

	parts := []string{cards, totals}
	if !a.hidden && grand > 0 {
		parts = append(parts, " "+components.ShareBar("Weekly", weekly, grand, 8, cw-20))
	}
	if a.history {
		parts = append(parts, a.renderHistoryCard(cw))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)
	content = padHeight(truncateHeight(content, contentH), contentH)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

func (a App) renderBucketCard(name ledger.BucketName, focused bool, outerWidth int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(outerWidth)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	qtyStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Bold(true)
	subStyle := lipgloss.NewStyle().Foreground(t.Green)
	cursorStyle := lipgloss.NewStyle().Background(t.SurfaceHover)
	totalStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)

	denomW := 0
	for _, d := range a.ledger.Denominations() {
		if n := lipgloss.Width(a.money.Format(int64(d))); n > denomW {
			denomW = n
		}
	}

	var b strings.Builder
	for i, d := range a.ledger.Denominations() {
		denom := fmt.Sprintf("%*s", denomW, a.money.Format(int64(d)))

		qty := strconv.FormatInt(a.ledger.Quantity(name, d), 10)
		if focused && i == a.cursor && a.editing {
			qty = a.editInput.View()
		}
		sub := a.money.FormatOrMask(a.ledger.Subtotal(name, d), a.hidden)

		left := labelStyle.Render(denom) + "  ×  " + qtyStyle.Render(qty)
		gap := innerW - lipgloss.Width(left) - lipgloss.Width(sub)
		if gap < 1 {
			gap = 1
		}
		row := left + strings.Repeat(" ", gap) + subStyle.Render(sub)
		if focused && i == a.cursor {
			row = cursorStyle.Width(innerW).Render(row)
		}
		b.WriteString(row)
		b.WriteString("\n")
	}

	total := a.money.FormatOrMask(a.ledger.BucketTotal(name), a.hidden)
	gap := innerW - len("Total") - lipgloss.Width(total)
	if gap < 1 {
		gap = 1
	}
	b.WriteString(labelStyle.Render("Total") + strings.Repeat(" ", gap) + totalStyle.Render(total))

	return components.ContentCard(cli.Capitalize(string(name)), b.String(), outerWidth, focused)
}

func (a App) renderHistoryCard(outerWidth int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(outerWidth)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	amountStyle := lipgloss.NewStyle().Foreground(t.Green)

	hist := a.ledger.History()
	if len(hist) == 0 {
		return components.ContentCard("Transfers", dimStyle.Render("No transfers yet."), outerWidth, false)
	}

	var b strings.Builder
	for i, e := range hist {
		if i > 0 {
			b.WriteString("\n")
		}
		if i == historyRows {
			b.WriteString(dimStyle.Render(fmt.Sprintf("… %d more (cashbox history)", len(hist)-historyRows)))
			break
		}
		date := cli.FormatDate(e.Timestamp)
		amount := a.money.FormatOrMask(e.Amount, a.hidden)
		gap := innerW - lipgloss.Width(date) - lipgloss.Width(amount)
		if gap < 1 {
			gap = 1
		}
		b.WriteString(dimStyle.Render(date) + strings.Repeat(" ", gap) + amountStyle.Render(amount))
	}
	return components.ContentCard("Transfers", b.String(), outerWidth, false)
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	padding := strings.Repeat("\n", h-len(lines))
	return s + padding
}
