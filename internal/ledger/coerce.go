package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrUnknownBucket is returned by ParseBucket for names other than general/weekly.
	ErrUnknownBucket = errors.New("unknown bucket")
	// ErrUnknownDenomination is returned by ParseDenomination for values outside the set.
	ErrUnknownDenomination = errors.New("unknown denomination")
)

// CoerceQuantity turns user input into a bill count. It never fails:
// "3" -> 3, " 7 " -> 7, "4.9" -> 4, "-5" -> 0, "abc" -> 0, "" -> 0.
func CoerceQuantity(raw string) int64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return clampQuantity(n)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f >= float64(MaxQuantity) {
		return MaxQuantity
	}
	return clampQuantity(int64(f))
}

func clampQuantity(n int64) int64 {
	switch {
	case n < 0:
		return 0
	case n > MaxQuantity:
		return MaxQuantity
	}
	return n
}

// coerceStored reads a persisted count, which may be a JSON number, a numeric
// string, or anything else (treated as 0).
func coerceStored(raw json.RawMessage) int64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}

	var s string
	switch raw[0] {
	case '"':
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		s = string(raw)
	default:
		return 0
	}

	s = strings.TrimSpace(s)
	var n int64
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		n = v
	} else if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		if f >= float64(maxStoredQuantity) {
			return maxStoredQuantity
		}
		n = int64(f)
	}

	switch {
	case n < 0:
		return 0
	case n > maxStoredQuantity:
		return maxStoredQuantity
	}
	return n
}

// ParseBucket maps a command-line bucket name to a BucketName.
func ParseBucket(s string) (BucketName, error) {
	switch BucketName(strings.ToLower(strings.TrimSpace(s))) {
	case General, "g":
		return General, nil
	case Weekly, "w":
		return Weekly, nil
	}
	return "", fmt.Errorf("%w: %q (want general or weekly)", ErrUnknownBucket, s)
}

// ParseDenomination parses s and checks it against the ledger's bill set.
// Thousands separators ("20.000", "20,000", "20_000") are accepted.
func (l *Ledger) ParseDenomination(s string) (Denomination, error) {
	cleaned := strings.NewReplacer(".", "", ",", "", "_", "", "$", "", " ", "").Replace(s)
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil || !l.Has(Denomination(n)) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDenomination, s)
	}
	return Denomination(n), nil
}
