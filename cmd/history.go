package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashbox/internal/cli"
	"github.com/theirongolddev/cashbox/internal/ledger"
)

var (
	flagHistoryCSV   bool
	flagHistoryLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List weekly-to-general transfers, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&flagHistoryCSV, "csv", false, "Write id,timestamp,amount as CSV")
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 0, "Show at most n entries (0 = all)")
	historyCmd.Flags().BoolVar(&flagPrivacy, "privacy", false, "Mask amounts")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	entries := s.ledger(0).History()
	if flagHistoryLimit > 0 && len(entries) > flagHistoryLimit {
		entries = entries[:flagHistoryLimit]
	}

	if flagHistoryCSV {
		return writeHistoryCSV(os.Stdout, entries)
	}

	money := s.money()
	hidden := hiddenAmounts(cmd, s.cfg)

	fmt.Println()
	fmt.Print(cli.RenderHistory(entries, money, hidden))
	if len(entries) > 0 && !flagQuiet {
		var sum int64
		for _, e := range entries {
			sum += e.Amount
		}
		fmt.Printf("  %d transfers, %s in total\n", len(entries), money.FormatOrMask(sum, hidden))
	}
	fmt.Println()
	return nil
}

func writeHistoryCSV(out io.Writer, entries []ledger.HistoryEntry) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"id", "timestamp", "amount"}); err != nil {
		return err
	}
	for _, e := range entries {
		ts := ""
		if !e.Timestamp.IsZero() {
			ts = e.Timestamp.UTC().Format(time.RFC3339)
		}
		if err := w.Write([]string{e.ID, ts, strconv.FormatInt(e.Amount, 10)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
