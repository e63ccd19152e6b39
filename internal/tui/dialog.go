package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/cashbox/internal/ledger"
	"github.com/theirongolddev/cashbox/internal/tui/theme"
)

type dialogKind int

const (
	dialogNone dialogKind = iota
	dialogTransfer
	dialogReset
)

func (a App) openDialog(kind dialogKind) (tea.Model, tea.Cmd) {
	*a.confirm = false

	var confirm *huh.Confirm
	switch kind {
	case dialogTransfer:
		confirm = huh.NewConfirm().
			Title("Transfer weekly to general?").
			Description(fmt.Sprintf("Moves %s and records it in the history.",
				a.money.FormatOrMask(a.ledger.BucketTotal(ledger.Weekly), a.hidden))).
			Affirmative("Transfer").
			Negative("Cancel")
	case dialogReset:
		desc := "Sets every quantity in both buckets to zero."
		policy := a.cfg.ResetPolicy()
		if policy.ClearHistory {
			desc += " The transfer history is cleared too."
		}
		if policy.ClearPIN {
			desc += " The PIN is removed."
		}
		confirm = huh.NewConfirm().
			Title("Reset all quantities?").
			Description(desc).
			Affirmative("Reset").
			Negative("Cancel")
	default:
		return a, nil
	}

	a.dialog = huh.NewForm(huh.NewGroup(confirm.Value(a.confirm))).
		WithTheme(theme.Huh()).
		WithShowHelp(false).
		WithWidth(a.formWidth())
	a.dialogKind = kind
	return a, a.dialog.Init()
}

func (a App) updateDialog(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.dialog.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.dialog = f
	}

	switch a.dialog.State {
	case huh.StateCompleted:
		if *a.confirm {
			a.applyDialog(a.dialogKind)
		}
		a.closeDialog()
		return a, nil
	case huh.StateAborted:
		a.closeDialog()
		return a, nil
	}
	return a, cmd
}

// applyDialog performs the confirmed action.
func (a *App) applyDialog(kind dialogKind) {
	switch kind {
	case dialogTransfer:
		amount, ok := a.ledger.TransferWeeklyToGeneral()
		if !ok {
			a.setInfo("nothing to transfer")
			return
		}
		a.setInfo("transferred " + a.money.FormatOrMask(amount, a.hidden))
	case dialogReset:
		a.ledger.Reset(a.cfg.ResetPolicy())
		a.setInfo("quantities reset")
	}
	// Explicit actions bypass the debounce so failures show up right away.
	if err := a.ledger.Save(); err != nil {
		a.saveWarning()
	}
}

func (a *App) closeDialog() {
	a.dialog = nil
	a.dialogKind = dialogNone
	*a.confirm = false
}
