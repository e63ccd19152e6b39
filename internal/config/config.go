// Package config loads and saves cashbox settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/theirongolddev/cashbox/internal/ledger"
)

// maxDenomination bounds configured face values so stored totals cannot overflow.
const maxDenomination = 1_000_000

// Config holds all cashbox configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Ledger     LedgerConfig     `toml:"ledger"`
	Reset      ResetConfig      `toml:"reset"`
	Security   SecurityConfig   `toml:"security"`
	Appearance AppearanceConfig `toml:"appearance"`
	Daemon     DaemonConfig     `toml:"daemon"`
}

// GeneralConfig holds storage location settings.
type GeneralConfig struct {
	DBPath     string `toml:"db_path,omitempty"`
	StorageKey string `toml:"storage_key"`
}

// LedgerConfig holds the bill set and transfer/save behavior.
type LedgerConfig struct {
	Denominations      []int64 `toml:"denominations"`
	SkipEmptyTransfers bool    `toml:"skip_empty_transfers"`
	SaveDebounceMS     int     `toml:"save_debounce_ms"`
}

// ResetConfig is the default reset policy.
type ResetConfig struct {
	ClearHistory bool `toml:"clear_history"`
	ClearPIN     bool `toml:"clear_pin"`
}

// SecurityConfig controls the dashboard PIN gate.
type SecurityConfig struct {
	RequirePIN bool `toml:"require_pin"`
}

// AppearanceConfig holds display settings.
type AppearanceConfig struct {
	Theme          string `toml:"theme"`
	Locale         string `toml:"locale"`
	CurrencySymbol string `toml:"currency_symbol"`
	Privacy        bool   `toml:"privacy"`
}

// DaemonConfig holds the local API settings.
type DaemonConfig struct {
	Addr         string `toml:"addr"`
	IntervalSec  int    `toml:"interval_sec"`
	AutoTransfer string `toml:"auto_transfer,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	denoms := make([]int64, 0, len(ledger.DefaultDenominations))
	for _, d := range ledger.DefaultDenominations {
		denoms = append(denoms, int64(d))
	}

	return Config{
		General: GeneralConfig{
			StorageKey: ledger.DefaultKey,
		},
		Ledger: LedgerConfig{
			Denominations:      denoms,
			SkipEmptyTransfers: true,
			SaveDebounceMS:     250,
		},
		Security: SecurityConfig{
			RequirePIN: true,
		},
		Appearance: AppearanceConfig{
			Theme:          "flexoki-dark",
			Locale:         "es-CO",
			CurrencySymbol: "$",
		},
		Daemon: DaemonConfig{
			Addr:        "127.0.0.1:8788",
			IntervalSec: 15,
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cashbox")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cashbox")
}

// DataDir returns the XDG-compliant data directory holding the database.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "cashbox")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "cashbox")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// EnvPath returns the optional dotenv file consulted for overrides.
func EnvPath() string {
	return filepath.Join(ConfigDir(), "cashbox.env")
}

// Load reads the config file, returning defaults if it doesn't exist, then
// applies overrides from cashbox.env and the process environment.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return DefaultConfig(), fmt.Errorf("parsing config: %w", err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	env, err := godotenv.Read(EnvPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("reading %s: %w", EnvPath(), err)
	}
	applyEnv(&cfg, env, os.Getenv)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

var envKeys = []string{
	"CASHBOX_DB",
	"CASHBOX_STORAGE_KEY",
	"CASHBOX_THEME",
	"CASHBOX_LOCALE",
	"CASHBOX_DAEMON_ADDR",
}

// applyEnv applies overrides; process environment values win over the dotenv file.
func applyEnv(cfg *Config, dotenv map[string]string, getenv func(string) string) {
	for _, key := range envKeys {
		val := dotenv[key]
		if v := getenv(key); v != "" {
			val = v
		}
		if val == "" {
			continue
		}

		switch key {
		case "CASHBOX_DB":
			cfg.General.DBPath = val
		case "CASHBOX_STORAGE_KEY":
			cfg.General.StorageKey = val
		case "CASHBOX_THEME":
			cfg.Appearance.Theme = val
		case "CASHBOX_LOCALE":
			cfg.Appearance.Locale = val
		case "CASHBOX_DAEMON_ADDR":
			cfg.Daemon.Addr = val
		}
	}
}

// Validate checks the bill set and normalizes it to ascending order.
func (c *Config) Validate() error {
	if len(c.Ledger.Denominations) == 0 {
		return errors.New("ledger.denominations must not be empty")
	}

	seen := make(map[int64]bool, len(c.Ledger.Denominations))
	for _, d := range c.Ledger.Denominations {
		if d <= 0 || d > maxDenomination {
			return fmt.Errorf("ledger.denominations: %d out of range 1..%d", d, maxDenomination)
		}
		if seen[d] {
			return fmt.Errorf("ledger.denominations: %d listed twice", d)
		}
		seen[d] = true
	}
	slices.Sort(c.Ledger.Denominations)

	if c.Ledger.SaveDebounceMS < 0 {
		c.Ledger.SaveDebounceMS = 0
	}
	if c.General.StorageKey == "" {
		c.General.StorageKey = ledger.DefaultKey
	}
	return nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// DBPath returns the configured database path or the default under DataDir.
func (c Config) DBPath() string {
	if c.General.DBPath != "" {
		return c.General.DBPath
	}
	return filepath.Join(DataDir(), "cashbox.db")
}

// DaemonInterval returns the poll interval, never below two seconds.
func (c Config) DaemonInterval() time.Duration {
	d := time.Duration(c.Daemon.IntervalSec) * time.Second
	if d < 2*time.Second {
		return 15 * time.Second
	}
	return d
}

// LedgerOptions maps the config onto ledger options. Debounce is left to the
// caller: only long-lived front ends want it.
func (c Config) LedgerOptions() ledger.Options {
	opts := ledger.DefaultOptions()
	opts.Key = c.General.StorageKey
	opts.SkipEmptyTransfers = c.Ledger.SkipEmptyTransfers
	opts.Denominations = make([]ledger.Denomination, 0, len(c.Ledger.Denominations))
	for _, d := range c.Ledger.Denominations {
		opts.Denominations = append(opts.Denominations, ledger.Denomination(d))
	}
	return opts
}

// SaveDebounce returns the configured debounce delay for interactive front ends.
func (c Config) SaveDebounce() time.Duration {
	return time.Duration(c.Ledger.SaveDebounceMS) * time.Millisecond
}

// ResetPolicy returns the configured default reset policy.
func (c Config) ResetPolicy() ledger.ResetPolicy {
	return ledger.ResetPolicy{
		ClearHistory: c.Reset.ClearHistory,
		ClearPIN:     c.Reset.ClearPIN,
	}
}
