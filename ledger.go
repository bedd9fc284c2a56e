package splitledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/splitledger/balance"
	"github.com/xraph/splitledger/group"
	"github.com/xraph/splitledger/plugin"
	"github.com/xraph/splitledger/settlement"
	"github.com/xraph/splitledger/store"
	"github.com/xraph/splitledger/types"
)

// defaultInviteAttempts bounds invite code generation when codes collide.
const defaultInviteAttempts = 16

// Ledger is the shared-expense engine. It records transactions, derives
// balances from them and computes settlement plans. It holds no state of its
// own beyond configuration: everything is read from the store on demand.
type Ledger struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	// Configuration
	rounding         balance.Rounding
	residualPolicy   settlement.ResidualPolicy
	inviteCodeLength int
	inviteAttempts   int
	defaultCurrency  string
	migrateOnStart   bool
}

// New creates a new Ledger instance.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:            s,
		plugins:          plugin.NewRegistry(),
		logger:           slog.Default(),
		rounding:         balance.Truncate,
		residualPolicy:   settlement.ResidualReport,
		inviteCodeLength: group.DefaultInviteCodeLength,
		inviteAttempts:   defaultInviteAttempts,
		defaultCurrency:  types.DefaultCurrency,
		migrateOnStart:   true,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithHookTimeout bounds each plugin hook call.
func WithHookTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		l.plugins.WithTimeout(d)
	}
}

// WithRounding selects how indivisible remainders are attributed.
func WithRounding(r balance.Rounding) Option {
	return func(l *Ledger) {
		l.rounding = r
	}
}

// WithResidualPolicy selects what MinimizeTransfers does when balances do not
// sum to zero.
func WithResidualPolicy(p settlement.ResidualPolicy) Option {
	return func(l *Ledger) {
		l.residualPolicy = p
	}
}

// WithInviteCodeLength sets the length of generated invite codes.
func WithInviteCodeLength(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.inviteCodeLength = n
		}
	}
}

// WithDefaultCurrency sets the currency for groups and transactions that do
// not name one.
func WithDefaultCurrency(code string) Option {
	return func(l *Ledger) {
		if code != "" {
			l.defaultCurrency = types.New(0, code).Currency
		}
	}
}

// WithoutMigrate stops Start from migrating the store.
func WithoutMigrate() Option {
	return func(l *Ledger) {
		l.migrateOnStart = false
	}
}

// Store returns the underlying store.
func (l *Ledger) Store() store.Store { return l.store }

// Plugins returns the plugin registry.
func (l *Ledger) Plugins() *plugin.Registry { return l.plugins }

// Rounding returns the configured rounding policy.
func (l *Ledger) Rounding() balance.Rounding { return l.rounding }

// ResidualPolicy returns the configured residual policy.
func (l *Ledger) ResidualPolicy() settlement.ResidualPolicy { return l.residualPolicy }

// Start migrates the store and initializes plugins.
func (l *Ledger) Start(ctx context.Context) error {
	if l.migrateOnStart {
		if err := l.store.Migrate(ctx); err != nil {
			return err
		}
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("splitledger started",
		"rounding", l.rounding.String(),
		"residual_policy", l.residualPolicy.String(),
		"default_currency", l.defaultCurrency,
	)

	return nil
}

// Stop notifies plugins and closes the store.
func (l *Ledger) Stop() error {
	l.plugins.EmitShutdown(context.Background())

	return l.store.Close()
}
