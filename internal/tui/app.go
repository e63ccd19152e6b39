// Package tui provides the interactive Bubble Tea dashboard for cashbox.
package tui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/cashbox/internal/cli"
	"github.com/theirongolddev/cashbox/internal/config"
	"github.com/theirongolddev/cashbox/internal/ledger"
	"github.com/theirongolddev/cashbox/internal/tui/theme"
)

// Options configures the dashboard.
type Options struct {
	Ledger *ledger.Ledger
	Config config.Config

	// FirstRun shows the setup form before anything else.
	FirstRun bool

	// SaveConfig persists setup results. Defaults to config.Save.
	SaveConfig func(config.Config) error
}

// App is the root Bubble Tea model.
type App struct {
	ledger     *ledger.Ledger
	cfg        config.Config
	money      cli.Money
	saveConfig func(config.Config) error

	// UI state
	width    int
	height   int
	bucket   int // index into ledger.Buckets
	cursor   int // row index into the denominations
	hidden   bool
	history  bool
	showHelp bool

	// Quantity editing
	editing   bool
	editInput textinput.Model

	// PIN gate
	locked bool
	lock   lockState

	// Confirmation dialog (huh form)
	dialog     *huh.Form
	dialogKind dialogKind
	confirm    *bool

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *SetupValues
	needSetup bool

	// Status bar message
	status     string
	statusWarn bool
}

const (
	minTerminalWidth = 44
	stackedWidth     = 76
	maxContentWidth  = 120
	minContentHeight = 5

	tickInterval = 500 * time.Millisecond
)

// tickMsg drives the periodic save-error check.
type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	cfg := opts.Config
	if opts.SaveConfig == nil {
		opts.SaveConfig = config.Save
	}
	theme.SetActive(cfg.Appearance.Theme)

	a := App{
		ledger:     opts.Ledger,
		cfg:        cfg,
		money:      cli.NewMoney(cfg.Appearance.Locale, cfg.Appearance.CurrencySymbol),
		saveConfig: opts.SaveConfig,
		hidden:     cfg.Appearance.Privacy,
		locked:     cfg.Security.RequirePIN,
		needSetup:  opts.FirstRun,
		confirm:    new(bool),
	}
	if a.locked {
		a.lock = newLockState(a.ledger.HasPIN())
	}
	if a.needSetup {
		a.setupVals = NewSetupValues(cfg)
		a.setupForm = NewSetupForm(a.setupVals)
	}
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd()}
	if a.setupForm != nil {
		cmds = append(cmds, a.setupForm.Init())
	} else if a.locked {
		cmds = append(cmds, textinput.Blink)
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Forward to embedded forms if active
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(a.formWidth())
		}
		if a.dialog != nil {
			a.dialog = a.dialog.WithWidth(a.formWidth())
		}
		return a, nil

	case tickMsg:
		if err := a.ledger.LastSaveErr(); err != nil {
			a.setWarning("not saved: " + err.Error())
		} else if a.statusWarn {
			a.status, a.statusWarn = "", false
		}
		return a, tickCmd()

	case tea.KeyMsg:
		key := msg.String()

		// Global: quit
		if key == "ctrl+c" {
			return a.quit()
		}

		// First-run setup intercepts all keys
		if a.needSetup && a.setupForm != nil {
			return a.updateSetupForm(msg)
		}

		if a.locked {
			return a.updateLock(msg)
		}

		if a.dialog != nil {
			if key == "esc" {
				a.closeDialog()
				return a, nil
			}
			return a.updateDialog(msg)
		}

		if a.editing {
			return a.updateEdit(msg)
		}

		// Help toggle
		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}

		// Dismiss help
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		return a.handleKey(key)
	}

	// Forward unhandled messages (cursor blinks, etc.)
	switch {
	case a.needSetup && a.setupForm != nil:
		return a.updateSetupForm(msg)
	case a.dialog != nil:
		return a.updateDialog(msg)
	case a.locked:
		var cmd tea.Cmd
		a.lock.input, cmd = a.lock.input.Update(msg)
		return a, cmd
	case a.editing:
		var cmd tea.Cmd
		a.editInput, cmd = a.editInput.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) handleKey(key string) (tea.Model, tea.Cmd) {
	denoms := a.ledger.Denominations()

	switch key {
	case "q":
		return a.quit()
	case "left", "shift+tab":
		a.bucket = (a.bucket - 1 + len(ledger.Buckets)) % len(ledger.Buckets)
	case "right", "tab":
		a.bucket = (a.bucket + 1) % len(ledger.Buckets)
	case "j", "down":
		if a.cursor < len(denoms)-1 {
			a.cursor++
		}
	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}
	case "g":
		a.cursor = 0
	case "G":
		a.cursor = len(denoms) - 1
	case "enter", "e":
		return a.startEdit()
	case "+", "=":
		a.ledger.Adjust(a.activeBucket(), a.activeDenomination(), 1)
	case "-", "_":
		a.ledger.Adjust(a.activeBucket(), a.activeDenomination(), -1)
	case "0":
		a.ledger.SetQuantity(a.activeBucket(), a.activeDenomination(), "0")
	case "t":
		if a.ledger.BucketTotal(ledger.Weekly) == 0 && a.cfg.Ledger.SkipEmptyTransfers {
			a.setInfo("nothing to transfer")
			return a, nil
		}
		return a.openDialog(dialogTransfer)
	case "X":
		return a.openDialog(dialogReset)
	case "p":
		a.hidden = !a.hidden
	case "h":
		a.history = !a.history
	}
	return a, nil
}

func (a App) activeBucket() ledger.BucketName {
	return ledger.Buckets[a.bucket]
}

func (a App) activeDenomination() ledger.Denomination {
	denoms := a.ledger.Denominations()
	if len(denoms) == 0 {
		return 0
	}
	if a.cursor >= len(denoms) {
		return denoms[len(denoms)-1]
	}
	return denoms[a.cursor]
}

// quit flushes any debounced write before leaving. A flush error is left on
// the ledger for the caller to report once the terminal is restored.
func (a App) quit() (tea.Model, tea.Cmd) {
	_ = a.ledger.Flush()
	return a, tea.Quit
}

func (a App) startEdit() (tea.Model, tea.Cmd) {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 9
	ti.Width = 10
	ti.Placeholder = "0"
	if q := a.ledger.Quantity(a.activeBucket(), a.activeDenomination()); q != 0 {
		ti.SetValue(strconv.FormatInt(q, 10))
		ti.CursorEnd()
	}
	cmd := ti.Focus()

	a.editInput = ti
	a.editing = true
	return a, cmd
}

func (a App) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.ledger.SetQuantity(a.activeBucket(), a.activeDenomination(), a.editInput.Value())
		a.editing = false
		return a, nil
	case "esc":
		a.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.editInput, cmd = a.editInput.Update(msg)
	return a, cmd
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.cfg = a.setupVals.Apply(a.cfg)
		if err := a.saveConfig(a.cfg); err != nil {
			a.setWarning(fmt.Sprintf("config not saved: %v", err))
		} else {
			a.setInfo("saved " + config.ConfigPath())
		}
		a.applyAppearance()
		a.finishSetup()
		return a, nil
	case huh.StateAborted:
		a.finishSetup()
		return a, nil
	}
	return a, cmd
}

func (a *App) finishSetup() {
	a.needSetup = false
	a.setupForm = nil
	a.locked = a.cfg.Security.RequirePIN
	if a.locked {
		a.lock = newLockState(a.ledger.HasPIN())
	}
}

func (a *App) applyAppearance() {
	theme.SetActive(a.cfg.Appearance.Theme)
	a.money = cli.NewMoney(a.cfg.Appearance.Locale, a.cfg.Appearance.CurrencySymbol)
	a.hidden = a.cfg.Appearance.Privacy
}

func (a *App) setInfo(msg string) {
	a.status, a.statusWarn = msg, false
}

func (a *App) setWarning(msg string) {
	a.status, a.statusWarn = msg, true
}

// saveWarning reports an immediate persistence failure after an explicit action.
func (a *App) saveWarning() bool {
	if err := a.ledger.LastSaveErr(); err != nil {
		a.setWarning("not saved: " + err.Error())
		return true
	}
	return false
}

func (a App) formWidth() int {
	w := a.width - 8
	if w > 60 {
		w = 60
	}
	if w < 30 {
		w = 30
	}
	return w
}
