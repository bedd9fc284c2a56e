// Package config loads CLI settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/xraph/splitledger/balance"
	"github.com/xraph/splitledger/settlement"
)

// Config holds the splitledger CLI settings. Flags override these.
type Config struct {
	Rounding        string `env:"SPLITLEDGER_ROUNDING"         envDefault:"truncate"`
	ResidualPolicy  string `env:"SPLITLEDGER_RESIDUAL_POLICY"  envDefault:"report"`
	DefaultCurrency string `env:"SPLITLEDGER_DEFAULT_CURRENCY" envDefault:"rub"`
	Locale          string `env:"SPLITLEDGER_LOCALE"           envDefault:"en"`
	HistoryLimit    int    `env:"SPLITLEDGER_HISTORY_LIMIT"    envDefault:"0"`
	Metrics         bool   `env:"SPLITLEDGER_METRICS"          envDefault:"false"`
	Audit           bool   `env:"SPLITLEDGER_AUDIT"            envDefault:"false"`
	LogLevel        string `env:"LOG_LEVEL"                    envDefault:"info"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks settings that have no parser of their own.
func (c Config) Validate() error {
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history limit must not be negative, got %d", c.HistoryLimit)
	}
	return nil
}

// Policies resolves the rounding and residual policy names.
func (c Config) Policies() (balance.Rounding, settlement.ResidualPolicy, error) {
	r, err := balance.ParseRounding(c.Rounding)
	if err != nil {
		return 0, 0, err
	}
	p, err := settlement.ParseResidualPolicy(c.ResidualPolicy)
	if err != nil {
		return 0, 0, err
	}
	return r, p, nil
}
