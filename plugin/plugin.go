// Package plugin lets callers observe the engine. Plugins implement Plugin
// plus any of the hook interfaces below; the Registry discovers the hooks at
// registration time.
package plugin

import (
	"context"

	"github.com/xraph/splitledger/group"
	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/participant"
	"github.com/xraph/splitledger/settlement"
	"github.com/xraph/splitledger/transaction"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts. l is the *splitledger.Ledger.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l any) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Participant and group hooks
// ──────────────────────────────────────────────────

// OnParticipantRegistered is called after a new participant is stored.
type OnParticipantRegistered interface {
	Plugin
	OnParticipantRegistered(ctx context.Context, p *participant.Participant) error
}

// OnGroupCreated is called after a group is created, before its creator joins.
type OnGroupCreated interface {
	Plugin
	OnGroupCreated(ctx context.Context, g *group.Group) error
}

// OnMemberJoined is called after a participant joins a group.
type OnMemberJoined interface {
	Plugin
	OnMemberJoined(ctx context.Context, groupID id.GroupID, participantID id.ParticipantID) error
}

// OnMemberLeft is called after a participant leaves a group.
type OnMemberLeft interface {
	Plugin
	OnMemberLeft(ctx context.Context, groupID id.GroupID, participantID id.ParticipantID) error
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnTransactionRecorded is called after a transaction and its shares are
// stored.
type OnTransactionRecorded interface {
	Plugin
	OnTransactionRecorded(ctx context.Context, t *transaction.Transaction) error
}

// OnSettlementComputed is called every time a settlement plan is built.
type OnSettlementComputed interface {
	Plugin
	OnSettlementComputed(ctx context.Context, groupID id.GroupID, plan *settlement.Plan) error
}

// OnResidualDetected is called when a group's balances do not sum to zero.
type OnResidualDetected interface {
	Plugin
	OnResidualDetected(ctx context.Context, groupID id.GroupID, residuals []settlement.Residual, imbalance int64) error
}
