// Package audithook bridges splitledger events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import an
// audit library directly. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/splitledger/group"
	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/participant"
	"github.com/xraph/splitledger/plugin"
	"github.com/xraph/splitledger/settlement"
	"github.com/xraph/splitledger/transaction"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                  = (*Extension)(nil)
	_ plugin.OnParticipantRegistered = (*Extension)(nil)
	_ plugin.OnGroupCreated          = (*Extension)(nil)
	_ plugin.OnMemberJoined          = (*Extension)(nil)
	_ plugin.OnMemberLeft            = (*Extension)(nil)
	_ plugin.OnTransactionRecorded   = (*Extension)(nil)
	_ plugin.OnSettlementComputed    = (*Extension)(nil)
	_ plugin.OnResidualDetected      = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges splitledger events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Participant and group hooks
// ──────────────────────────────────────────────────

// OnParticipantRegistered implements plugin.OnParticipantRegistered.
func (e *Extension) OnParticipantRegistered(ctx context.Context, p *participant.Participant) error {
	return e.record(ctx, ActionParticipantRegistered, SeverityInfo, OutcomeSuccess,
		ResourceParticipant, p.ID.String(), CategoryIdentity, nil,
		"external_id", p.ExternalID,
		"display_name", p.DisplayName(),
	)
}

// OnGroupCreated implements plugin.OnGroupCreated.
func (e *Extension) OnGroupCreated(ctx context.Context, g *group.Group) error {
	return e.record(ctx, ActionGroupCreated, SeverityInfo, OutcomeSuccess,
		ResourceGroup, g.ID.String(), CategoryMembership, nil,
		"name", g.Name,
		"currency", g.Currency,
	)
}

// OnMemberJoined implements plugin.OnMemberJoined.
func (e *Extension) OnMemberJoined(ctx context.Context, groupID id.GroupID, participantID id.ParticipantID) error {
	return e.record(ctx, ActionMemberJoined, SeverityInfo, OutcomeSuccess,
		ResourceGroup, groupID.String(), CategoryMembership, nil,
		"participant_id", participantID.String(),
	)
}

// OnMemberLeft implements plugin.OnMemberLeft.
func (e *Extension) OnMemberLeft(ctx context.Context, groupID id.GroupID, participantID id.ParticipantID) error {
	return e.record(ctx, ActionMemberLeft, SeverityInfo, OutcomeSuccess,
		ResourceGroup, groupID.String(), CategoryMembership, nil,
		"participant_id", participantID.String(),
	)
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnTransactionRecorded implements plugin.OnTransactionRecorded.
func (e *Extension) OnTransactionRecorded(ctx context.Context, t *transaction.Transaction) error {
	return e.record(ctx, ActionTransactionRecorded, SeverityInfo, OutcomeSuccess,
		ResourceTransaction, t.ID.String(), CategoryLedger, nil,
		"group_id", t.GroupID.String(),
		"kind", string(t.Kind()),
		"amount", t.Amount,
		"currency", t.Currency,
		"shares", len(t.Shares),
	)
}

// OnSettlementComputed implements plugin.OnSettlementComputed.
func (e *Extension) OnSettlementComputed(ctx context.Context, groupID id.GroupID, plan *settlement.Plan) error {
	outcome := OutcomeSuccess
	if !plan.Balanced() {
		outcome = OutcomePartial
	}
	return e.record(ctx, ActionSettlementComputed, SeverityInfo, outcome,
		ResourceSettlement, groupID.String(), CategorySettlement, nil,
		"transfers", len(plan.Transfers),
		"total", plan.Total(),
	)
}

// OnResidualDetected implements plugin.OnResidualDetected.
func (e *Extension) OnResidualDetected(ctx context.Context, groupID id.GroupID, residuals []settlement.Residual, imbalance int64) error {
	return e.record(ctx, ActionResidualDetected, SeverityWarning, OutcomePartial,
		ResourceSettlement, groupID.String(), CategorySettlement, nil,
		"residuals", len(residuals),
		"imbalance", imbalance,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
