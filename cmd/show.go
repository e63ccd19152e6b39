package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashbox/internal/cli"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show both buckets with subtotals and totals",
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&flagPrivacy, "privacy", false, "Mask amounts")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	l := s.ledger(0)
	money := s.money()
	hidden := hiddenAmounts(cmd, s.cfg)

	fmt.Println()
	fmt.Println(cli.RenderTitle("CASHBOX"))
	fmt.Println()
	fmt.Print(cli.RenderLedger(l, money, hidden))
	fmt.Println()
	fmt.Println(cli.RenderGrandTotal(l, money, hidden))

	if hist := l.History(); len(hist) > 0 && !flagQuiet {
		fmt.Printf("  Last transfer: %s on %s\n",
			money.FormatOrMask(hist[0].Amount, hidden), cli.FormatDate(hist[0].Timestamp))
	}
	fmt.Println()
	return nil
}
