package extension

import (
	"fmt"
	"time"

	"github.com/xraph/splitledger/balance"
	"github.com/xraph/splitledger/group"
	"github.com/xraph/splitledger/plugin"
	"github.com/xraph/splitledger/settlement"
	"github.com/xraph/splitledger/types"
)

// Config holds the splitledger extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.splitledger" or "splitledger" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Rounding is "truncate" (default) or "largest_remainder".
	Rounding string `json:"rounding" mapstructure:"rounding" yaml:"rounding"`

	// ResidualPolicy is "report" (default) or "reject".
	ResidualPolicy string `json:"residual_policy" mapstructure:"residual_policy" yaml:"residual_policy"`

	// InviteCodeLength is the length of generated group invite codes (default: 8).
	InviteCodeLength int `json:"invite_code_length" mapstructure:"invite_code_length" yaml:"invite_code_length"`

	// DefaultCurrency applies to groups created without one (default: "rub").
	DefaultCurrency string `json:"default_currency" mapstructure:"default_currency" yaml:"default_currency"`

	// HookTimeout bounds each plugin hook call (default: 5s).
	HookTimeout time.Duration `json:"hook_timeout" mapstructure:"hook_timeout" yaml:"hook_timeout"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Rounding:         balance.Truncate.String(),
		ResidualPolicy:   settlement.ResidualReport.String(),
		InviteCodeLength: group.DefaultInviteCodeLength,
		DefaultCurrency:  types.DefaultCurrency,
		HookTimeout:      plugin.DefaultHookTimeout,
	}
}

// Validate checks that the policy names parse.
func (c Config) Validate() error {
	if _, err := balance.ParseRounding(c.Rounding); err != nil {
		return fmt.Errorf("splitledger: config: %w", err)
	}
	if _, err := settlement.ParseResidualPolicy(c.ResidualPolicy); err != nil {
		return fmt.Errorf("splitledger: config: %w", err)
	}
	if c.InviteCodeLength < 0 {
		return fmt.Errorf("splitledger: config: invite_code_length must not be negative, got %d", c.InviteCodeLength)
	}
	return nil
}
