package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/cashbox/internal/config"
	"github.com/theirongolddev/cashbox/internal/tui/theme"
)

// SetupValues holds what the setup form edits. The form writes through
// pointers into it, so it must outlive the form.
type SetupValues struct {
	Theme              string
	Locale             string
	CurrencySymbol     string
	RequirePIN         bool
	SkipEmptyTransfers bool
	Privacy            bool
}

var localeOptions = []struct {
	label string
	tag   string
}{
	{"Colombia (1.250.000)", "es-CO"},
	{"Spain (1.250.000)", "es-ES"},
	{"Mexico (1,250,000)", "es-MX"},
	{"United States (1,250,000)", "en-US"},
	{"Brazil (1.250.000)", "pt-BR"},
}

// NewSetupValues seeds the form from cfg.
func NewSetupValues(cfg config.Config) *SetupValues {
	return &SetupValues{
		Theme:              cfg.Appearance.Theme,
		Locale:             cfg.Appearance.Locale,
		CurrencySymbol:     cfg.Appearance.CurrencySymbol,
		RequirePIN:         cfg.Security.RequirePIN,
		SkipEmptyTransfers: cfg.Ledger.SkipEmptyTransfers,
		Privacy:            cfg.Appearance.Privacy,
	}
}

// Apply returns cfg with the form's choices applied.
func (v *SetupValues) Apply(cfg config.Config) config.Config {
	cfg.Appearance.Theme = v.Theme
	cfg.Appearance.Locale = v.Locale
	cfg.Appearance.CurrencySymbol = strings.TrimSpace(v.CurrencySymbol)
	cfg.Appearance.Privacy = v.Privacy
	cfg.Security.RequirePIN = v.RequirePIN
	cfg.Ledger.SkipEmptyTransfers = v.SkipEmptyTransfers
	return cfg
}

// NewSetupForm builds the first-run form. It is embedded in the dashboard on
// first launch and run standalone by `cashbox setup`.
func NewSetupForm(v *SetupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	localeOpts := make([]huh.Option[string], 0, len(localeOptions)+1)
	known := false
	for _, o := range localeOptions {
		localeOpts = append(localeOpts, huh.NewOption(o.label, o.tag))
		known = known || o.tag == v.Locale
	}
	if !known && v.Locale != "" {
		localeOpts = append(localeOpts, huh.NewOption(v.Locale, v.Locale))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to cashbox").
				Description("Track the bills in your general and weekly buckets.\nThese settings live in "+config.ConfigPath()+"."),
			huh.NewSelect[string]().
				Title("Amount format").
				Options(localeOpts...).
				Value(&v.Locale),
			huh.NewInput().
				Title("Currency symbol").
				CharLimit(4).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("symbol must not be empty")
					}
					return nil
				}).
				Value(&v.CurrencySymbol),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Lock the dashboard with a 6-digit PIN?").
				Description("The PIN only gates the screen. The data file is not encrypted.").
				Value(&v.RequirePIN),
			huh.NewConfirm().
				Title("Skip transfers when the weekly bucket is empty?").
				Value(&v.SkipEmptyTransfers),
			huh.NewConfirm().
				Title("Start with amounts hidden?").
				Value(&v.Privacy),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&v.Theme),
		),
	).WithTheme(theme.Huh())
}
