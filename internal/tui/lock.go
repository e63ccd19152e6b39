package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cashbox/internal/ledger"
	"github.com/theirongolddev/cashbox/internal/tui/theme"
)

// lockState is the PIN screen shown before the dashboard.
type lockState struct {
	input    textinput.Model
	creating bool // no PIN stored yet; the first valid entry becomes the PIN
	message  string
}

func newLockState(hasPIN bool) lockState {
	ti := textinput.New()
	ti.Placeholder = "••••••"
	ti.CharLimit = ledger.PINLength
	ti.Width = ledger.PINLength + 1
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.Prompt = ""
	ti.Focus()

	return lockState{input: ti, creating: !hasPIN}
}

func (a App) updateLock(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() != "enter" {
		var cmd tea.Cmd
		a.lock.input, cmd = a.lock.input.Update(msg)
		return a, cmd
	}

	created, err := a.ledger.Unlock(strings.TrimSpace(a.lock.input.Value()))
	switch {
	case errors.Is(err, ledger.ErrPINFormat):
		// Keep what was typed so it can be corrected.
		a.lock.message = "PIN must be exactly 6 digits"
		return a, nil
	case errors.Is(err, ledger.ErrPINMismatch):
		a.lock.message = "Incorrect PIN"
		a.lock.input.Reset()
		return a, nil
	case err != nil:
		a.lock.message = err.Error()
		return a, nil
	}

	a.locked = false
	a.lock = lockState{}
	if created {
		a.setInfo("PIN created")
		a.saveWarning()
	}
	return a, nil
}

func (a App) viewLock() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 4)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Bold(true)

	hintStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted)

	errStyle := lipgloss.NewStyle().
		Foreground(t.Red).
		Bold(true)

	title := "Enter your PIN"
	hint := "6 digits · enter to unlock"
	if a.lock.creating {
		title = "Create a PIN"
		hint = "Choose 6 digits · enter to save"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ cashbox"))
	b.WriteString("\n\n")
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")
	b.WriteString(a.lock.input.View())
	b.WriteString("\n\n")
	if a.lock.message != "" {
		b.WriteString(errStyle.Render(a.lock.message))
	} else {
		b.WriteString(hintStyle.Render(hint))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()))
}
