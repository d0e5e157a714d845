package internal

import (
	"github.com/bulldra/hatena-sync/internal/atompub"
	"github.com/bulldra/hatena-sync/internal/output"
)

// Option is a functional option for configuring the application.
type Option func(*App)

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *App) {
		a.cfg = cfg
	}
}

// WithRepository overrides the remote blog client. Tests run sync commands
// against a fake remote through this.
func WithRepository(repo atompub.Repository) Option {
	return func(a *App) {
		a.repo = repo
	}
}

// WithPrinter overrides the terminal printer.
func WithPrinter(p *output.Printer) Option {
	return func(a *App) {
		a.printer = p
	}
}
