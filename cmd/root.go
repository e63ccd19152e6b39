package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashbox/internal/cli"
	"github.com/theirongolddev/cashbox/internal/config"
	"github.com/theirongolddev/cashbox/internal/ledger"
	"github.com/theirongolddev/cashbox/internal/log"
	"github.com/theirongolddev/cashbox/internal/store"
)

var (
	flagDB        string
	flagEphemeral bool
	flagLogLevel  string
	flagQuiet     bool
	flagPrivacy   bool
)

var rootCmd = &cobra.Command{
	Use:          "cashbox",
	Short:        "Count the bills in your general and weekly buckets",
	Long:         "Track how many bills of each denomination you hold in a general and a weekly bucket, and move the weekly money into general when the week ends.",
	RunE:         runShow,
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Database path (default $XDG_DATA_HOME/cashbox/cashbox.db)")
	rootCmd.PersistentFlags().BoolVar(&flagEphemeral, "ephemeral", false, "Keep state in memory only; nothing is saved")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only print what was asked for")
	rootCmd.Flags().BoolVar(&flagPrivacy, "privacy", false, "Mask amounts")
}

// session is what every ledger command opens: config, logger and store.
type session struct {
	cfg   config.Config
	log   *log.Logger
	store ledger.Store
	kv    *store.KV // nil with --ephemeral
}

func openSession() (*session, error) {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, err
	}
	logger := log.New(log.Config{Level: level, Component: "cashbox", Writer: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagDB != "" {
		cfg.General.DBPath = flagDB
	}

	s := &session{cfg: cfg, log: logger}
	if flagEphemeral {
		logger.Info("ephemeral mode, nothing will be saved")
		s.store = store.NewMemory()
		return s, nil
	}

	kv, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", cfg.DBPath(), err)
	}
	s.kv = kv
	s.store = kv
	logger.Debug("store opened", "path", cfg.DBPath())
	return s, nil
}

// ledger opens the ledger. One-shot commands pass debounce 0 so every
// mutation is written before the process exits.
func (s *session) ledger(debounce time.Duration) *ledger.Ledger {
	opts := s.cfg.LedgerOptions()
	opts.Debounce = debounce
	opts.Logger = s.log
	return ledger.Open(s.store, opts)
}

func (s *session) money() cli.Money {
	return cli.NewMoney(s.cfg.Appearance.Locale, s.cfg.Appearance.CurrencySymbol)
}

func (s *session) Close() {
	if s.kv != nil {
		_ = s.kv.Close()
	}
}

// requireDurable rejects commands that make no sense without a database.
func (s *session) requireDurable(what string) error {
	if s.kv == nil {
		return errors.New(what + " needs the database; drop --ephemeral")
	}
	return nil
}

// saved turns a write failure into a command error. The in-memory change dies
// with the process, so unlike the dashboard a CLI run cannot just warn.
func saved(l *ledger.Ledger) error {
	if err := l.LastSaveErr(); err != nil {
		return fmt.Errorf("saving ledger: %w", err)
	}
	return nil
}

func hiddenAmounts(cmd *cobra.Command, cfg config.Config) bool {
	if f := cmd.Flags().Lookup("privacy"); f != nil && f.Changed {
		return flagPrivacy
	}
	return cfg.Appearance.Privacy
}

func printf(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Printf(format, args...)
}
