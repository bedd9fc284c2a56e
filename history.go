package splitledger

import (
	"context"

	"github.com/xraph/splitledger/history"
	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/transaction"
)

// ListOperations returns the group's transactions as display-ready
// operations, newest first.
func (l *Ledger) ListOperations(ctx context.Context, groupID id.GroupID, opts history.ListOpts) ([]history.Operation, error) {
	txs, err := l.ListTransactions(ctx, groupID, transaction.ListOpts{
		Kind:   opts.Kind,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
	if err != nil {
		return nil, err
	}

	names := make(map[id.ParticipantID]string)
	for _, t := range txs {
		if err := l.resolveName(ctx, names, t.CreatorID); err != nil {
			return nil, err
		}
		for _, s := range t.Shares {
			if err := l.resolveName(ctx, names, s.ParticipantID); err != nil {
				return nil, err
			}
		}
	}

	return history.Project(txs, names), nil
}

// resolveName caches the display name of p. Participants that no longer
// exist are skipped.
func (l *Ledger) resolveName(ctx context.Context, names map[id.ParticipantID]string, p id.ParticipantID) error {
	if p.IsNil() {
		return nil
	}
	if _, ok := names[p]; ok {
		return nil
	}

	pt, err := l.store.GetParticipant(ctx, p)
	if IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	names[p] = pt.DisplayName()
	return nil
}
