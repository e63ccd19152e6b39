package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashbox/internal/cli"
	"github.com/theirongolddev/cashbox/internal/config"
	"github.com/theirongolddev/cashbox/internal/log"
	"github.com/theirongolddev/cashbox/internal/tui"
	"github.com/theirongolddev/cashbox/internal/tui/theme"
)

var flagTUILogFile string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&flagTUILogFile, "log-file", "", "Write logs here while the dashboard owns the screen")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	firstRun := !config.Exists()

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	// The alternate screen owns stderr, so logs go to a file or nowhere.
	s.log = log.Discard()
	if flagTUILogFile != "" {
		level, _ := log.ParseLevel(flagLogLevel)
		//nolint:gosec // log path is chosen by the local user
		f, err := os.OpenFile(flagTUILogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer func() { _ = f.Close() }()
		s.log = log.New(log.Config{Level: level, Component: "tui", Writer: f})
	}

	theme.SetActive(s.cfg.Appearance.Theme)

	// Force TrueColor so background styling always produces ANSI codes.
	lipgloss.SetColorProfile(termenv.TrueColor)

	l := s.ledger(s.cfg.SaveDebounce())
	app := tui.NewApp(tui.Options{
		Ledger:     l,
		Config:     s.cfg,
		FirstRun:   firstRun,
		SaveConfig: config.Save,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	_, runErr := p.Run()

	// Quit flushes; this covers ctrl+c paths and program errors too.
	_ = l.Flush()
	if err := l.LastSaveErr(); err != nil {
		fmt.Fprintln(os.Stderr, cli.RenderWarning("Warning: last save failed: "+err.Error()))
	}

	if runErr != nil {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return nil
}
