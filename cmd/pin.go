package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/cashbox/internal/ledger"
)

var (
	flagPINClear  bool
	flagPINChange bool
)

var pinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Create, check, change or remove the dashboard PIN",
	Long: `Create, check, change or remove the 6-digit PIN that locks the dashboard.

With no PIN stored, the first PIN entered becomes the PIN. The PIN only
gates the screen; the ledger itself is stored unencrypted.`,
	Args: cobra.NoArgs,
	RunE: runPIN,
}

func init() {
	pinCmd.Flags().BoolVar(&flagPINClear, "clear", false, "Remove the PIN after checking it")
	pinCmd.Flags().BoolVar(&flagPINChange, "change", false, "Replace the PIN after checking it")
	pinCmd.MarkFlagsMutuallyExclusive("clear", "change")
	rootCmd.AddCommand(pinCmd)
}

func runPIN(_ *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	l := s.ledger(0)

	if !l.HasPIN() {
		if flagPINClear {
			printf("  No PIN is set.\n")
			return nil
		}
		return createPIN(l, "Create a 6-digit PIN")
	}

	entered, err := askPIN("Enter your PIN")
	if err != nil {
		return err
	}
	if _, err := l.Unlock(entered); err != nil {
		return err
	}

	switch {
	case flagPINClear:
		l.ClearPIN()
		if err := saved(l); err != nil {
			return err
		}
		printf("  PIN removed.\n")
	case flagPINChange:
		l.ClearPIN()
		return createPIN(l, "Choose a new 6-digit PIN")
	default:
		printf("  PIN OK.\n")
	}
	return nil
}

func createPIN(l *ledger.Ledger, title string) error {
	pin, err := askPIN(title)
	if err != nil {
		return err
	}
	again, err := askPIN("Repeat the PIN")
	if err != nil {
		return err
	}
	if pin != again {
		return errors.New("the two PINs differ; nothing changed")
	}

	if _, err := l.Unlock(pin); err != nil {
		return err
	}
	if err := saved(l); err != nil {
		return err
	}
	printf("  PIN saved.\n")
	return nil
}

func askPIN(title string) (string, error) {
	var pin string
	err := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		CharLimit(ledger.PINLength).
		Validate(ledger.ValidatePIN).
		Value(&pin).
		Run()
	if err != nil {
		return "", fmt.Errorf("reading PIN: %w", err)
	}
	return pin, nil
}
