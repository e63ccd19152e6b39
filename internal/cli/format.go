// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MaskedAmount replaces amounts while privacy mode is on.
const MaskedAmount = "••••••"

// Money formats whole currency amounts for one locale.
type Money struct {
	Symbol  string
	printer *message.Printer
}

// NewMoney returns a formatter for locale (a BCP 47 tag such as "es-CO").
// Unknown tags fall back to plain comma grouping.
func NewMoney(locale, symbol string) Money {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return Money{Symbol: symbol, printer: message.NewPrinter(tag)}
}

// Format renders amount with locale grouping, e.g. "$ 1.250.000" for es-CO.
func (m Money) Format(amount int64) string {
	var digits string
	if m.printer != nil {
		digits = m.printer.Sprintf("%d", amount)
	} else {
		digits = FormatNumber(amount)
	}
	if m.Symbol == "" {
		return digits
	}
	if strings.HasPrefix(digits, "-") {
		return "-" + m.Symbol + " " + digits[1:]
	}
	return m.Symbol + " " + digits
}

// FormatOrMask formats amount, or returns MaskedAmount when hidden.
func (m Money) FormatOrMask(amount int64, hidden bool) string {
	if hidden {
		return MaskedAmount
	}
	return m.Format(amount)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatDate renders a history timestamp in local time. Zero times (legacy
// entries with an unreadable date) render as "unknown".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// Capitalize upper-cases the first ASCII letter, for bucket headings.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
