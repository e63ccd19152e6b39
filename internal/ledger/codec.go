package ledger

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// schemaVersion is written into every blob. Blobs without a version predate it
// and are read as version 1.
const schemaVersion = 1

// legacyDateLayout is the es-CO short date used by entries written before timestamps were stored.
const legacyDateLayout = "2/1/2006"

type blob struct {
	Version int                        `json:"version"`
	General map[string]json.RawMessage `json:"general"`
	Weekly  map[string]json.RawMessage `json:"weekly"`
	History []blobEntry                `json:"history"`
	PIN     json.RawMessage            `json:"pin,omitempty"`
}

type blobEntry struct {
	ID        string          `json:"id,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	Date      string          `json:"date,omitempty"`
	Amount    json.RawMessage `json:"amount"`
}

func encodeState(st State, denoms []Denomination) (string, error) {
	b := blob{
		Version: schemaVersion,
		General: encodeBucket(st.General, denoms),
		Weekly:  encodeBucket(st.Weekly, denoms),
		History: make([]blobEntry, 0, len(st.History)),
	}
	for _, e := range st.History {
		b.History = append(b.History, blobEntry{
			ID:        e.ID,
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
			Amount:    json.RawMessage(strconv.FormatInt(e.Amount, 10)),
		})
	}
	if st.PIN != "" {
		pin, err := json.Marshal(st.PIN)
		if err != nil {
			return "", fmt.Errorf("encoding pin: %w", err)
		}
		b.PIN = pin
	}

	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("encoding ledger: %w", err)
	}
	return string(data), nil
}

func encodeBucket(bk Bucket, denoms []Denomination) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(denoms))
	for _, d := range denoms {
		out[strconv.FormatInt(int64(d), 10)] = json.RawMessage(strconv.FormatInt(bk[d], 10))
	}
	return out
}

// decodeState parses a stored blob leniently. Only a blob that is not a JSON
// object, or one written by a newer schema, is rejected.
func decodeState(raw string, denoms []Denomination, newID func() string) (State, error) {
	var b blob
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return State{}, fmt.Errorf("parsing ledger: %w", err)
	}
	if b.Version > schemaVersion {
		return State{}, fmt.Errorf("ledger schema version %d is newer than supported %d", b.Version, schemaVersion)
	}

	st := State{
		General: decodeBucket(b.General, denoms),
		Weekly:  decodeBucket(b.Weekly, denoms),
		History: make([]HistoryEntry, 0, len(b.History)),
	}
	for _, e := range b.History {
		entry := HistoryEntry{
			ID:        e.ID,
			Timestamp: parseEntryTime(e),
			Amount:    coerceStored(e.Amount),
		}
		if entry.ID == "" {
			entry.ID = newID()
		}
		st.History = append(st.History, entry)
	}
	var pin string
	if len(b.PIN) > 0 && json.Unmarshal(b.PIN, &pin) == nil && ValidatePIN(pin) == nil {
		st.PIN = pin
	}
	return st, nil
}

func decodeBucket(in map[string]json.RawMessage, denoms []Denomination) Bucket {
	out := make(Bucket, len(denoms))
	for _, d := range denoms {
		out[d] = coerceStored(in[strconv.FormatInt(int64(d), 10)])
	}
	return out
}

func parseEntryTime(e blobEntry) time.Time {
	if e.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339, e.Timestamp); err == nil {
			return t
		}
	}
	if e.Date != "" {
		if t, err := time.ParseInLocation(legacyDateLayout, strings.TrimSpace(e.Date), time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
