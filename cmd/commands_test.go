package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/cashbox/internal/config"
	"github.com/theirongolddev/cashbox/internal/ledger"
	"github.com/theirongolddev/cashbox/internal/log"
	"github.com/theirongolddev/cashbox/internal/store"
)

func setResetFlags(t *testing.T, history, pin, all bool) {
	t.Helper()
	flagResetHistory, flagResetPIN, flagResetAll = history, pin, all
	t.Cleanup(func() {
		flagResetHistory, flagResetPIN, flagResetAll = false, false, false
	})
}

func TestResetPolicyFromConfig(t *testing.T) {
	setResetFlags(t, false, false, false)
	cfg := config.DefaultConfig()

	if p := resetPolicy(cfg); p.ClearHistory || p.ClearPIN {
		t.Fatalf("default policy = %+v, want quantities only", p)
	}

	cfg.Reset.ClearHistory = true
	if p := resetPolicy(cfg); !p.ClearHistory || p.ClearPIN {
		t.Fatalf("policy = %+v, want history cleared from config", p)
	}
}

func TestResetPolicyFlagsWiden(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Reset.ClearHistory = true

	setResetFlags(t, false, true, false)
	if p := resetPolicy(cfg); !p.ClearHistory || !p.ClearPIN {
		t.Fatalf("--pin policy = %+v, want config history plus PIN", p)
	}

	setResetFlags(t, false, false, true)
	cfg = config.DefaultConfig()
	if p := resetPolicy(cfg); !p.ClearHistory || !p.ClearPIN {
		t.Fatalf("--all policy = %+v, want everything cleared", p)
	}
}

func TestWriteHistoryCSV(t *testing.T) {
	entries := []ledger.HistoryEntry{
		{ID: "b", Timestamp: time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC), Amount: 40000},
		{ID: "a", Amount: 15000},
	}

	var buf bytes.Buffer
	if err := writeHistoryCSV(&buf, entries); err != nil {
		t.Fatalf("writeHistoryCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		"id,timestamp,amount",
		"b,2026-10-18T20:00:00Z,40000",
		"a,,15000",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestSessionDecode(t *testing.T) {
	s := &session{cfg: config.DefaultConfig(), log: log.Discard()}

	mem := store.NewMemory()
	l := ledger.Open(mem, s.cfg.LedgerOptions())
	l.SetQuantity(ledger.General, 2000, "3")
	l.SetQuantity(ledger.Weekly, 5000, "2")
	raw, _, _ := mem.Get(s.cfg.General.StorageKey)

	if got := s.decode(raw).GrandTotal(); got != 16_000 {
		t.Fatalf("decoded grand total = %d, want 16000", got)
	}
	if got := s.decode("not json").GrandTotal(); got != 0 {
		t.Fatalf("garbage revision grand total = %d, want 0", got)
	}
}

type readOnlyStore struct{ *store.Memory }

func (readOnlyStore) Set(string, string) error { return errors.New("read-only") }

func TestSavedReportsWriteFailure(t *testing.T) {
	l := ledger.Open(store.NewMemory(), ledger.DefaultOptions())
	l.SetQuantity(ledger.General, 2000, "1")
	if err := saved(l); err != nil {
		t.Fatalf("saved = %v, want nil", err)
	}

	ro := ledger.Open(readOnlyStore{store.NewMemory()}, ledger.DefaultOptions())
	ro.SetQuantity(ledger.General, 2000, "1")
	err := saved(ro)
	if err == nil || !strings.Contains(err.Error(), "read-only") {
		t.Fatalf("saved = %v, want the write error", err)
	}
}
