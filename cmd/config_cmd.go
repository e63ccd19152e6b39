// Package cmd implements the cashbox CLI commands.
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashbox/internal/cli"
	"github.com/theirongolddev/cashbox/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flagDB != "" {
		cfg.General.DBPath = flagDB
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Printf("  Env file:    %s\n", config.EnvPath())
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Database:    %s\n", cfg.DBPath())
	fmt.Printf("    Storage key: %s\n", cfg.General.StorageKey)
	fmt.Println()

	money := cli.NewMoney(cfg.Appearance.Locale, cfg.Appearance.CurrencySymbol)
	denoms := make([]string, 0, len(cfg.Ledger.Denominations))
	for _, d := range cfg.Ledger.Denominations {
		denoms = append(denoms, money.Format(d))
	}

	fmt.Println("  [Ledger]")
	fmt.Printf("    Bills:                %s\n", strings.Join(denoms, ", "))
	fmt.Printf("    Skip empty transfers: %v\n", cfg.Ledger.SkipEmptyTransfers)
	fmt.Printf("    Save debounce:        %s\n", cfg.SaveDebounce())
	fmt.Println()

	fmt.Println("  [Reset]")
	fmt.Printf("    Clear history: %v\n", cfg.Reset.ClearHistory)
	fmt.Printf("    Clear PIN:     %v\n", cfg.Reset.ClearPIN)
	fmt.Println()

	fmt.Println("  [Security]")
	fmt.Printf("    Require PIN: %v\n", cfg.Security.RequirePIN)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme:    %s\n", cfg.Appearance.Theme)
	fmt.Printf("    Locale:   %s\n", cfg.Appearance.Locale)
	fmt.Printf("    Symbol:   %s\n", cfg.Appearance.CurrencySymbol)
	fmt.Printf("    Privacy:  %v\n", cfg.Appearance.Privacy)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %s\n", cfg.DaemonInterval())
	if cfg.Daemon.AutoTransfer != "" {
		fmt.Printf("    Auto transfer: %s\n", cfg.Daemon.AutoTransfer)
	} else {
		fmt.Println("    Auto transfer: off")
	}
	fmt.Println()

	fmt.Println("  Run `cashbox setup` to reconfigure.")
	return nil
}
