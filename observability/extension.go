// Package observability provides a metrics extension for splitledger that
// records event counts through a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/splitledger/group"
	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/participant"
	"github.com/xraph/splitledger/plugin"
	"github.com/xraph/splitledger/settlement"
	"github.com/xraph/splitledger/transaction"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                  = (*MetricsExtension)(nil)
	_ plugin.OnParticipantRegistered = (*MetricsExtension)(nil)
	_ plugin.OnGroupCreated          = (*MetricsExtension)(nil)
	_ plugin.OnMemberJoined          = (*MetricsExtension)(nil)
	_ plugin.OnMemberLeft            = (*MetricsExtension)(nil)
	_ plugin.OnTransactionRecorded   = (*MetricsExtension)(nil)
	_ plugin.OnSettlementComputed    = (*MetricsExtension)(nil)
	_ plugin.OnResidualDetected      = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records engine metrics. Register it as a plugin.
type MetricsExtension struct {
	factory MetricFactory

	// Participant and group metrics
	ParticipantsRegistered Counter
	GroupsCreated          Counter
	MembersJoined          Counter
	MembersLeft            Counter

	// Transaction metrics
	ExpensesRecorded  Counter
	IncomeRecorded    Counter
	TransactionAmount Histogram
	TransactionShares Histogram

	// Settlement metrics
	SettlementsComputed Counter
	SettlementTransfers Histogram
	ResidualsDetected   Counter
	ResidualImbalance   Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		ParticipantsRegistered: factory.Counter("splitledger.participant.registered"),
		GroupsCreated:          factory.Counter("splitledger.group.created"),
		MembersJoined:          factory.Counter("splitledger.member.joined"),
		MembersLeft:            factory.Counter("splitledger.member.left"),

		ExpensesRecorded:  factory.Counter("splitledger.transaction.expense"),
		IncomeRecorded:    factory.Counter("splitledger.transaction.income"),
		TransactionAmount: factory.Histogram("splitledger.transaction.amount"),
		TransactionShares: factory.Histogram("splitledger.transaction.shares"),

		SettlementsComputed: factory.Counter("splitledger.settlement.computed"),
		SettlementTransfers: factory.Histogram("splitledger.settlement.transfers"),
		ResidualsDetected:   factory.Counter("splitledger.settlement.residual"),
		ResidualImbalance:   factory.Histogram("splitledger.settlement.imbalance"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ──────────────────────────────────────────────────
// Participant and group hooks
// ──────────────────────────────────────────────────

// OnParticipantRegistered implements plugin.OnParticipantRegistered.
func (m *MetricsExtension) OnParticipantRegistered(_ context.Context, _ *participant.Participant) error {
	m.ParticipantsRegistered.Inc()
	return nil
}

// OnGroupCreated implements plugin.OnGroupCreated.
func (m *MetricsExtension) OnGroupCreated(_ context.Context, _ *group.Group) error {
	m.GroupsCreated.Inc()
	return nil
}

// OnMemberJoined implements plugin.OnMemberJoined.
func (m *MetricsExtension) OnMemberJoined(_ context.Context, _ id.GroupID, _ id.ParticipantID) error {
	m.MembersJoined.Inc()
	return nil
}

// OnMemberLeft implements plugin.OnMemberLeft.
func (m *MetricsExtension) OnMemberLeft(_ context.Context, _ id.GroupID, _ id.ParticipantID) error {
	m.MembersLeft.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnTransactionRecorded implements plugin.OnTransactionRecorded.
func (m *MetricsExtension) OnTransactionRecorded(_ context.Context, t *transaction.Transaction) error {
	if t.IsIncome {
		m.IncomeRecorded.Inc()
	} else {
		m.ExpensesRecorded.Inc()
	}
	m.TransactionAmount.Observe(float64(t.Amount))
	m.TransactionShares.Observe(float64(len(t.Shares)))
	return nil
}

// OnSettlementComputed implements plugin.OnSettlementComputed.
func (m *MetricsExtension) OnSettlementComputed(_ context.Context, _ id.GroupID, plan *settlement.Plan) error {
	m.SettlementsComputed.Inc()
	m.SettlementTransfers.Observe(float64(len(plan.Transfers)))
	return nil
}

// OnResidualDetected implements plugin.OnResidualDetected.
func (m *MetricsExtension) OnResidualDetected(_ context.Context, _ id.GroupID, _ []settlement.Residual, imbalance int64) error {
	m.ResidualsDetected.Inc()
	if imbalance < 0 {
		imbalance = -imbalance
	}
	m.ResidualImbalance.Observe(float64(imbalance))
	return nil
}
