package cmd

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/cashbox/internal/config"
)

func TestDaemonSettingsFlagsOverrideConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Daemon.AutoTransfer = "0 20 * * 0"

	addr, interval, schedule := daemonSettings(cfg)
	if addr != "127.0.0.1:8788" || interval != 15*time.Second || schedule != "0 20 * * 0" {
		t.Fatalf("defaults = %s %s %q", addr, interval, schedule)
	}

	flagDaemonAddr, flagDaemonInterval, flagDaemonAutoTransfer = "127.0.0.1:9999", 3*time.Second, "off"
	t.Cleanup(func() {
		flagDaemonAddr, flagDaemonInterval, flagDaemonAutoTransfer = "", 0, ""
	})

	addr, interval, schedule = daemonSettings(cfg)
	if addr != "127.0.0.1:9999" || interval != 3*time.Second {
		t.Fatalf("overrides = %s %s", addr, interval)
	}
	if schedule != "" {
		t.Fatalf("schedule = %q, want off", schedule)
	}
}

func TestFilterDetachArg(t *testing.T) {
	got := filterDetachArg([]string{"daemon", "--detach", "--addr", "x", "--detach=true"})
	if len(got) != 3 || got[0] != "daemon" || got[1] != "--addr" || got[2] != "x" {
		t.Fatalf("filterDetachArg = %v", got)
	}
}

func TestPIDAndStateFiles(t *testing.T) {
	dir := t.TempDir()
	pidFile := filepath.Join(dir, "cashboxd.pid")

	if err := writePID(pidFile, 4242); err != nil {
		t.Fatalf("writePID: %v", err)
	}
	pid, err := readPID(pidFile)
	if err != nil || pid != 4242 {
		t.Fatalf("readPID = %d, %v", pid, err)
	}

	st := daemonRuntimeState{PID: pid, Addr: "127.0.0.1:8788", DBPath: "/tmp/cashbox.db"}
	if err := writeState(statePath(pidFile), st); err != nil {
		t.Fatalf("writeState: %v", err)
	}
	back, err := readState(statePath(pidFile))
	if err != nil {
		t.Fatalf("readState: %v", err)
	}
	if back.Addr != st.Addr || back.DBPath != st.DBPath {
		t.Fatalf("state = %+v", back)
	}
}

func TestEnsureDaemonNotRunningClearsMissingPID(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "none.pid")
	if err := ensureDaemonNotRunning(pidFile); err != nil {
		t.Fatalf("missing pid file should be fine: %v", err)
	}
}
