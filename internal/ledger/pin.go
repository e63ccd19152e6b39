package ledger

import (
	"crypto/subtle"
	"errors"
)

// PINLength is the number of digits a PIN must have.
const PINLength = 6

var (
	// ErrPINFormat rejects input that is not exactly six digits. No state changes.
	ErrPINFormat = errors.New("PIN must be exactly 6 digits")
	// ErrPINMismatch means the input did not match the stored PIN.
	ErrPINMismatch = errors.New("incorrect PIN")
)

// ValidatePIN checks the format only.
func ValidatePIN(s string) error {
	if len(s) != PINLength {
		return ErrPINFormat
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return ErrPINFormat
		}
	}
	return nil
}

// HasPIN reports whether a PIN has been created.
func (l *Ledger) HasPIN() bool {
	return l.state.PIN != ""
}

// Unlock checks entered against the stored PIN. With no PIN stored yet, entered
// becomes the PIN and the call reports created=true.
//
// The PIN only gates the dashboard. The ledger blob itself is stored unencrypted.
func (l *Ledger) Unlock(entered string) (created bool, err error) {
	if err := ValidatePIN(entered); err != nil {
		return false, err
	}

	if l.state.PIN == "" {
		l.state.PIN = entered
		l.persist()
		l.log.Info("pin created")
		return true, nil
	}

	if subtle.ConstantTimeCompare([]byte(entered), []byte(l.state.PIN)) != 1 {
		return false, ErrPINMismatch
	}
	return false, nil
}

// ClearPIN removes the stored PIN; the next Unlock creates a new one.
func (l *Ledger) ClearPIN() {
	if l.state.PIN == "" {
		return
	}
	l.state.PIN = ""
	l.persist()
}
