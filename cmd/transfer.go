package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashbox/internal/ledger"
)

var flagTransferYes bool

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Move every weekly bill into the general bucket",
	Long: `Move every weekly bill into the general bucket and record the moved
amount in the transfer history. The weekly bucket ends up empty.`,
	Args: cobra.NoArgs,
	RunE: runTransfer,
}

func init() {
	transferCmd.Flags().BoolVarP(&flagTransferYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(transferCmd)
}

func runTransfer(_ *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	l := s.ledger(0)
	money := s.money()
	weekly := l.BucketTotal(ledger.Weekly)

	if weekly == 0 && s.cfg.Ledger.SkipEmptyTransfers {
		printf("  Nothing to transfer: the weekly bucket is empty.\n")
		return nil
	}

	if !flagTransferYes {
		ok, err := confirm(
			"Transfer weekly to general?",
			fmt.Sprintf("Moves %s and records it in the history.", money.Format(weekly)),
			"Transfer")
		if err != nil {
			return err
		}
		if !ok {
			printf("  Cancelled.\n")
			return nil
		}
	}

	amount, ok := l.TransferWeeklyToGeneral()
	if !ok {
		printf("  Nothing to transfer: the weekly bucket is empty.\n")
		return nil
	}
	if err := saved(l); err != nil {
		return err
	}

	printf("  Transferred %s to general.\n", money.Format(amount))
	printf("  General total: %s\n", money.Format(l.BucketTotal(ledger.General)))
	return nil
}

// confirm asks a yes/no question on the terminal.
func confirm(title, description, affirmative string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative(affirmative).
		Negative("Cancel").
		Value(&ok).
		Run()
	if err != nil {
		return false, fmt.Errorf("confirmation: %w", err)
	}
	return ok, nil
}
