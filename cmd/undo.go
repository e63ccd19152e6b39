package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashbox/internal/cli"
	"github.com/theirongolddev/cashbox/internal/ledger"
	"github.com/theirongolddev/cashbox/internal/store"
)

var flagUndoList bool

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Restore the ledger as it was before the last save",
	Long: `Restore the ledger as it was before the last save.

Every save keeps the value it replaced, so repeated undo steps further back.
Use --list to see what is retained.`,
	Args: cobra.NoArgs,
	RunE: runUndo,
}

func init() {
	undoCmd.Flags().BoolVar(&flagUndoList, "list", false, "List retained revisions instead of restoring")
	undoCmd.Flags().BoolVar(&flagPrivacy, "privacy", false, "Mask amounts")
	rootCmd.AddCommand(undoCmd)
}

func runUndo(cmd *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.requireDurable("undo"); err != nil {
		return err
	}

	key := s.cfg.General.StorageKey
	money := s.money()
	hidden := hiddenAmounts(cmd, s.cfg)

	if flagUndoList {
		revs, err := s.kv.Revisions(key)
		if err != nil {
			return fmt.Errorf("listing revisions: %w", err)
		}
		if len(revs) == 0 {
			fmt.Println("  No earlier revisions.")
			return nil
		}
		rows := make([][]string, 0, len(revs))
		for _, r := range revs {
			rows = append(rows, []string{
				cli.FormatDate(r.ReplacedAt),
				money.FormatOrMask(s.decode(r.Value).GrandTotal(), hidden),
			})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Revisions (newest first)",
			Headers: []string{"Replaced", "Grand total"},
			Rows:    rows,
		}))
		return nil
	}

	rev, err := s.kv.Undo(key)
	if errors.Is(err, store.ErrNoRevision) {
		fmt.Println("  Nothing to undo.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("undo: %w", err)
	}

	printf("  Restored the ledger saved before %s (grand total %s).\n",
		cli.FormatDate(rev.ReplacedAt), money.FormatOrMask(s.decode(rev.Value).GrandTotal(), hidden))
	return nil
}

// decode loads a stored value into a throwaway ledger so its totals can be read.
func (s *session) decode(value string) *ledger.Ledger {
	mem := store.NewMemory()
	opts := s.cfg.LedgerOptions()
	opts.Logger = s.log
	_ = mem.Set(opts.Key, value)
	return ledger.Open(mem, opts)
}
