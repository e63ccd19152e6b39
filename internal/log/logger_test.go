package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestComponentTagging(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: "cashbox", Writer: &buf})

	l.Debug("hidden")
	l.WithComponent("daemon").Info("poll", "grand", 26000)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatal("debug record written at info level")
	}
	for _, want := range []string{"component=cashbox", "sub=daemon", "grand=26000"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log line missing %q: %s", want, out)
		}
	}
	if got := l.WithComponent("daemon").Component(); got != "daemon" {
		t.Fatalf("Component() = %q, want daemon", got)
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("dropped")
	if l.Component() != "discard" {
		t.Fatalf("Component() = %q", l.Component())
	}
}
