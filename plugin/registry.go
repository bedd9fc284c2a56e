package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/splitledger/group"
	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/participant"
	"github.com/xraph/splitledger/settlement"
	"github.com/xraph/splitledger/transaction"
)

// DefaultHookTimeout bounds a single hook call.
const DefaultHookTimeout = 5 * time.Second

// Registry manages registered plugins. Hook implementations are cached per
// interface at registration so dispatch never type-asserts.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit                  []OnInit
	onShutdown              []OnShutdown
	onParticipantRegistered []OnParticipantRegistered
	onGroupCreated          []OnGroupCreated
	onMemberJoined          []OnMemberJoined
	onMemberLeft            []OnMemberLeft
	onTransactionRecorded   []OnTransactionRecorded
	onSettlementComputed    []OnSettlementComputed
	onResidualDetected      []OnResidualDetected
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultHookTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout overrides the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its hooks.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	var hooks []string
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
		hooks = append(hooks, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
		hooks = append(hooks, "OnShutdown")
	}
	if v, ok := p.(OnParticipantRegistered); ok {
		r.onParticipantRegistered = append(r.onParticipantRegistered, v)
		hooks = append(hooks, "OnParticipantRegistered")
	}
	if v, ok := p.(OnGroupCreated); ok {
		r.onGroupCreated = append(r.onGroupCreated, v)
		hooks = append(hooks, "OnGroupCreated")
	}
	if v, ok := p.(OnMemberJoined); ok {
		r.onMemberJoined = append(r.onMemberJoined, v)
		hooks = append(hooks, "OnMemberJoined")
	}
	if v, ok := p.(OnMemberLeft); ok {
		r.onMemberLeft = append(r.onMemberLeft, v)
		hooks = append(hooks, "OnMemberLeft")
	}
	if v, ok := p.(OnTransactionRecorded); ok {
		r.onTransactionRecorded = append(r.onTransactionRecorded, v)
		hooks = append(hooks, "OnTransactionRecorded")
	}
	if v, ok := p.(OnSettlementComputed); ok {
		r.onSettlementComputed = append(r.onSettlementComputed, v)
		hooks = append(hooks, "OnSettlementComputed")
	}
	if v, ok := p.(OnResidualDetected); ok {
		r.onResidualDetected = append(r.onResidualDetected, v)
		hooks = append(hooks, "OnResidualDetected")
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", hooks,
	)

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// Each plugin receives its own copy of the event payload. A hook that
// outlives its timeout keeps running, so it must not share memory with
// the value returned to the caller.

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, ledger any) {
	emit(ctx, r, "OnInit", snapshot(r, &r.onInit), func(p OnInit) error {
		return p.OnInit(ctx, ledger)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	emit(ctx, r, "OnShutdown", snapshot(r, &r.onShutdown), func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

// EmitParticipantRegistered emits a participant registered event.
func (r *Registry) EmitParticipantRegistered(ctx context.Context, pt *participant.Participant) {
	emit(ctx, r, "OnParticipantRegistered", snapshot(r, &r.onParticipantRegistered), func(p OnParticipantRegistered) error {
		cp := *pt
		return p.OnParticipantRegistered(ctx, &cp)
	})
}

// EmitGroupCreated emits a group created event.
func (r *Registry) EmitGroupCreated(ctx context.Context, g *group.Group) {
	emit(ctx, r, "OnGroupCreated", snapshot(r, &r.onGroupCreated), func(p OnGroupCreated) error {
		cp := *g
		return p.OnGroupCreated(ctx, &cp)
	})
}

// EmitMemberJoined emits a member joined event.
func (r *Registry) EmitMemberJoined(ctx context.Context, groupID id.GroupID, participantID id.ParticipantID) {
	emit(ctx, r, "OnMemberJoined", snapshot(r, &r.onMemberJoined), func(p OnMemberJoined) error {
		return p.OnMemberJoined(ctx, groupID, participantID)
	})
}

// EmitMemberLeft emits a member left event.
func (r *Registry) EmitMemberLeft(ctx context.Context, groupID id.GroupID, participantID id.ParticipantID) {
	emit(ctx, r, "OnMemberLeft", snapshot(r, &r.onMemberLeft), func(p OnMemberLeft) error {
		return p.OnMemberLeft(ctx, groupID, participantID)
	})
}

// EmitTransactionRecorded emits a transaction recorded event.
func (r *Registry) EmitTransactionRecorded(ctx context.Context, t *transaction.Transaction) {
	emit(ctx, r, "OnTransactionRecorded", snapshot(r, &r.onTransactionRecorded), func(p OnTransactionRecorded) error {
		return p.OnTransactionRecorded(ctx, t.Clone())
	})
}

// EmitSettlementComputed emits a settlement computed event.
func (r *Registry) EmitSettlementComputed(ctx context.Context, groupID id.GroupID, plan *settlement.Plan) {
	emit(ctx, r, "OnSettlementComputed", snapshot(r, &r.onSettlementComputed), func(p OnSettlementComputed) error {
		return p.OnSettlementComputed(ctx, groupID, plan.Clone())
	})
}

// EmitResidualDetected emits a residual detected event.
func (r *Registry) EmitResidualDetected(ctx context.Context, groupID id.GroupID, residuals []settlement.Residual, imbalance int64) {
	emit(ctx, r, "OnResidualDetected", snapshot(r, &r.onResidualDetected), func(p OnResidualDetected) error {
		return p.OnResidualDetected(ctx, groupID, append([]settlement.Residual(nil), residuals...), imbalance)
	})
}

func snapshot[T any](r *Registry, list *[]T) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return *list
}

// emit calls fn for every plugin in order. Failures are logged, never
// returned: a broken plugin must not fail a ledger operation.
func emit[T Plugin](ctx context.Context, r *Registry, hook string, plugins []T, fn func(T) error) {
	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return fn(p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
