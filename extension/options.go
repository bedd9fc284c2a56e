package extension

import (
	"time"

	"github.com/xraph/splitledger"
	"github.com/xraph/splitledger/plugin"
	"github.com/xraph/splitledger/store"
)

// Option configures the splitledger Forge extension.
type Option func(*Extension)

// WithStore sets the store for the engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithLedgerOption passes a splitledger.Option through to the underlying engine.
func WithLedgerOption(opt splitledger.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers an engine plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, splitledger.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithRounding sets the rounding policy by name.
func WithRounding(name string) Option {
	return func(e *Extension) { e.config.Rounding = name }
}

// WithResidualPolicy sets the residual policy by name.
func WithResidualPolicy(name string) Option {
	return func(e *Extension) { e.config.ResidualPolicy = name }
}

// WithInviteCodeLength sets the invite code length.
func WithInviteCodeLength(n int) Option {
	return func(e *Extension) { e.config.InviteCodeLength = n }
}

// WithDefaultCurrency sets the default currency code.
func WithDefaultCurrency(code string) Option {
	return func(e *Extension) { e.config.DefaultCurrency = code }
}

// WithHookTimeout sets the per-hook plugin timeout.
func WithHookTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.HookTimeout = d }
}
