// Package extension provides the Forge extension adapter for splitledger.
//
// It implements the forge.Extension interface to integrate the engine
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.splitledger" or
// "splitledger" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/splitledger"
	"github.com/xraph/splitledger/balance"
	"github.com/xraph/splitledger/settlement"
	"github.com/xraph/splitledger/store"
	"github.com/xraph/splitledger/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "splitledger"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Shared-expense ledger and settlement engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts splitledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *splitledger.Ledger
	store      store.Store
	ledgerOpts []splitledger.Option
}

// New creates a new splitledger Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *splitledger.Ledger { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		e.store = memory.New()
	}

	opts, err := e.buildLedgerOpts()
	if err != nil {
		return err
	}

	e.engine = splitledger.New(e.store, opts...)

	return vessel.Provide(fapp.Container(), func() (*splitledger.Ledger, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("splitledger: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("splitledger: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildLedgerOpts constructs splitledger.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() ([]splitledger.Option, error) {
	return optionsFromConfig(e.config, e.ledgerOpts)
}

// optionsFromConfig converts cfg into engine options. Pass-through options
// come last so they win over config.
func optionsFromConfig(cfg Config, passthrough []splitledger.Option) ([]splitledger.Option, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rounding, err := balance.ParseRounding(cfg.Rounding)
	if err != nil {
		return nil, err
	}
	policy, err := settlement.ParseResidualPolicy(cfg.ResidualPolicy)
	if err != nil {
		return nil, err
	}

	opts := make([]splitledger.Option, 0, len(passthrough)+6)
	opts = append(opts,
		splitledger.WithRounding(rounding),
		splitledger.WithResidualPolicy(policy),
		splitledger.WithInviteCodeLength(cfg.InviteCodeLength),
		splitledger.WithDefaultCurrency(cfg.DefaultCurrency),
		splitledger.WithHookTimeout(cfg.HookTimeout),
	)
	if cfg.DisableMigrate {
		opts = append(opts, splitledger.WithoutMigrate())
	}

	return append(opts, passthrough...), nil
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("splitledger: configuration is required but not found in config files; " +
				"ensure 'extensions.splitledger' or 'splitledger' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("splitledger: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("rounding", e.config.Rounding),
		forge.F("residual_policy", e.config.ResidualPolicy),
		forge.F("invite_code_length", e.config.InviteCodeLength),
		forge.F("default_currency", e.config.DefaultCurrency),
		forge.F("hook_timeout", e.config.HookTimeout),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.splitledger", "splitledger"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("splitledger: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("splitledger: failed to bind config",
			forge.F("key", key),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Rounding == "" {
		cfg.Rounding = defaults.Rounding
	}
	if cfg.ResidualPolicy == "" {
		cfg.ResidualPolicy = defaults.ResidualPolicy
	}
	if cfg.InviteCodeLength == 0 {
		cfg.InviteCodeLength = defaults.InviteCodeLength
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = defaults.DefaultCurrency
	}
	if cfg.HookTimeout == 0 {
		cfg.HookTimeout = defaults.HookTimeout
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	if yamlConfig.Rounding == "" {
		yamlConfig.Rounding = programmaticConfig.Rounding
	}
	if yamlConfig.ResidualPolicy == "" {
		yamlConfig.ResidualPolicy = programmaticConfig.ResidualPolicy
	}
	if yamlConfig.DefaultCurrency == "" {
		yamlConfig.DefaultCurrency = programmaticConfig.DefaultCurrency
	}
	if yamlConfig.InviteCodeLength == 0 {
		yamlConfig.InviteCodeLength = programmaticConfig.InviteCodeLength
	}
	if yamlConfig.HookTimeout == 0 {
		yamlConfig.HookTimeout = programmaticConfig.HookTimeout
	}

	return mergeWithDefaults(yamlConfig)
}
