package splitledger

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/transaction"
	"github.com/xraph/splitledger/types"
)

// RecordInput describes a transaction to record.
type RecordInput struct {
	GroupID id.GroupID
	Name    string

	// Amount is in minor units and must not be negative.
	Amount int64

	// Currency defaults to the group's currency.
	Currency string

	// ParticipantIDs lists who shares the transaction, each at most once.
	ParticipantIDs []id.ParticipantID

	// Weights parallels ParticipantIDs. Nil means an equal split.
	Weights []float64

	IsIncome bool

	// CreatorID is optional.
	CreatorID id.ParticipantID
}

// validate checks the input without touching the store.
func (in *RecordInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "must not be empty")
	}
	if in.Amount < 0 {
		return invalid("amount", "must not be negative, got %d", in.Amount)
	}
	if len(in.ParticipantIDs) == 0 {
		return invalid("participant_ids", "at least one participant is required")
	}
	if in.Weights != nil && len(in.Weights) != len(in.ParticipantIDs) {
		return invalid("weights", "got %d weights for %d participants", len(in.Weights), len(in.ParticipantIDs))
	}
	for i, w := range in.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
			return invalid("weights", "weight %d must be a positive finite number, got %v", i, w)
		}
	}

	seen := make(map[id.ParticipantID]struct{}, len(in.ParticipantIDs))
	for _, p := range in.ParticipantIDs {
		if p.IsNil() {
			return invalid("participant_ids", "participant id must not be empty")
		}
		if _, dup := seen[p]; dup {
			return invalid("participant_ids", "participant %s listed twice", p)
		}
		seen[p] = struct{}{}
	}
	return nil
}

// shares pairs participants with their weights, defaulting to 1.
func (in *RecordInput) shares() []transaction.Share {
	out := make([]transaction.Share, len(in.ParticipantIDs))
	for i, p := range in.ParticipantIDs {
		w := 1.0
		if in.Weights != nil {
			w = in.Weights[i]
		}
		out[i] = transaction.Share{ParticipantID: p, Weight: w}
	}
	return out
}

// RecordTransaction validates and stores a transaction together with its
// shares. Either both are stored or neither is. Every participant must be a
// member of the group; the creator only needs to exist.
func (l *Ledger) RecordTransaction(ctx context.Context, in RecordInput) (id.TransactionID, error) {
	if err := in.validate(); err != nil {
		return id.Nil, err
	}

	g, err := l.store.GetGroup(ctx, in.GroupID)
	if err != nil {
		return id.Nil, err
	}
	if !in.CreatorID.IsNil() {
		if _, err := l.store.GetParticipant(ctx, in.CreatorID); err != nil {
			return id.Nil, fmt.Errorf("creator: %w", err)
		}
	}
	for _, p := range in.ParticipantIDs {
		if _, err := l.store.GetParticipant(ctx, p); err != nil {
			return id.Nil, err
		}
		if _, err := l.store.GetMembership(ctx, in.GroupID, p); err != nil {
			return id.Nil, err
		}
	}

	currency := in.Currency
	if currency == "" {
		currency = g.Currency
	}
	if currency == "" {
		currency = l.defaultCurrency
	}

	t := &transaction.Transaction{
		Entity:    types.NewEntity(),
		ID:        id.NewTransactionID(),
		GroupID:   in.GroupID,
		Name:      strings.TrimSpace(in.Name),
		Amount:    in.Amount,
		Currency:  types.New(in.Amount, currency).Currency,
		IsIncome:  in.IsIncome,
		CreatorID: in.CreatorID,
		Shares:    in.shares(),
	}
	if err := l.store.CreateTransaction(ctx, t); err != nil {
		return id.Nil, fmt.Errorf("record transaction: %w", err)
	}

	l.logger.Debug("transaction recorded",
		"transaction_id", t.ID.String(),
		"group_id", t.GroupID.String(),
		"kind", string(t.Kind()),
		"amount", t.Amount,
		"shares", len(t.Shares),
	)
	l.plugins.EmitTransactionRecorded(ctx, t)
	return t.ID, nil
}

// GetTransaction retrieves a transaction by ID.
func (l *Ledger) GetTransaction(ctx context.Context, txID id.TransactionID) (*transaction.Transaction, error) {
	return l.store.GetTransaction(ctx, txID)
}

// ListTransactions lists a group's transactions, newest first.
func (l *Ledger) ListTransactions(ctx context.Context, groupID id.GroupID, opts transaction.ListOpts) ([]*transaction.Transaction, error) {
	if _, err := l.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return l.store.ListTransactions(ctx, groupID, opts)
}

// allTransactions loads every transaction of the given kind in a group.
func (l *Ledger) allTransactions(ctx context.Context, groupID id.GroupID, kind transaction.Kind) ([]*transaction.Transaction, error) {
	return l.store.ListTransactions(ctx, groupID, transaction.ListOpts{Kind: kind})
}
