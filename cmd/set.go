package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashbox/internal/cli"
	"github.com/theirongolddev/cashbox/internal/ledger"
)

var setCmd = &cobra.Command{
	Use:   "set <bucket> <denomination> <quantity>",
	Short: "Set how many bills of one denomination a bucket holds",
	Long: `Set how many bills of one denomination a bucket holds.

Bucket is general (g) or weekly (w). The denomination may be written with
separators, e.g. 20000, 20.000 or $20,000. Quantities that are negative or
not a number are stored as 0; decimals are truncated.`,
	Example: "  cashbox set weekly 20000 3\n  cashbox set g 50.000 0",
	Args:    cobra.ExactArgs(3),
	RunE:    runSet,
}

func init() {
	rootCmd.AddCommand(setCmd)
}

func runSet(_ *cobra.Command, args []string) error {
	bucket, err := ledger.ParseBucket(args[0])
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	l := s.ledger(0)
	d, err := l.ParseDenomination(args[1])
	if err != nil {
		return err
	}

	l.SetQuantity(bucket, d, args[2])
	if err := saved(l); err != nil {
		return err
	}

	money := s.money()
	q := l.Quantity(bucket, d)
	printf("  %s  %s × %s = %s\n",
		cli.Capitalize(string(bucket)),
		money.Format(int64(d)),
		strconv.FormatInt(q, 10),
		money.Format(l.Subtotal(bucket, d)))
	printf("  %s total: %s\n", cli.Capitalize(string(bucket)), money.Format(l.BucketTotal(bucket)))
	return nil
}
