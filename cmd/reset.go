package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashbox/internal/config"
	"github.com/theirongolddev/cashbox/internal/ledger"
)

var (
	flagResetHistory bool
	flagResetPIN     bool
	flagResetAll     bool
	flagResetYes     bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Set every quantity in both buckets to zero",
	Long: `Set every quantity in both buckets to zero.

The transfer history and the PIN are kept unless [reset] in the config or
the flags below say otherwise. --all removes the stored entry entirely.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&flagResetHistory, "history", false, "Also clear the transfer history")
	resetCmd.Flags().BoolVar(&flagResetPIN, "pin", false, "Also remove the PIN")
	resetCmd.Flags().BoolVar(&flagResetAll, "all", false, "Delete everything, including history and PIN")
	resetCmd.Flags().BoolVarP(&flagResetYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

func runReset(_ *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	l := s.ledger(0)
	policy := resetPolicy(s.cfg)

	if !flagResetYes {
		desc := []string{"Sets every quantity in both buckets to zero."}
		if policy.ClearHistory {
			desc = append(desc, "The transfer history is cleared.")
		}
		if policy.ClearPIN {
			desc = append(desc, "The PIN is removed.")
		}
		ok, err := confirm("Reset cashbox?", strings.Join(desc, " "), "Reset")
		if err != nil {
			return err
		}
		if !ok {
			printf("  Cancelled.\n")
			return nil
		}
	}

	if flagResetAll {
		if err := l.Wipe(); err != nil {
			return fmt.Errorf("deleting ledger: %w", err)
		}
		printf("  Everything deleted.\n")
		return nil
	}

	l.Reset(policy)
	if err := saved(l); err != nil {
		return err
	}
	printf("  Quantities reset.\n")
	return nil
}

// resetPolicy starts from [reset] in the config; flags can only widen it.
func resetPolicy(cfg config.Config) ledger.ResetPolicy {
	policy := cfg.ResetPolicy()
	if flagResetHistory || flagResetAll {
		policy.ClearHistory = true
	}
	if flagResetPIN || flagResetAll {
		policy.ClearPIN = true
	}
	return policy
}
