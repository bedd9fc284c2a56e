package splitledger

import (
	"context"

	"github.com/xraph/splitledger/balance"
	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/transaction"
)

// AttributedAmount returns the participant's share of the group's expenses
// (isIncome false) or incomes (isIncome true), rounded per transaction under
// the configured policy.
func (l *Ledger) AttributedAmount(ctx context.Context, groupID id.GroupID, participantID id.ParticipantID, isIncome bool) (int64, error) {
	if err := l.checkGroupAndParticipant(ctx, groupID, participantID); err != nil {
		return 0, err
	}

	txs, err := l.allTransactions(ctx, groupID, transaction.KindOf(isIncome))
	if err != nil {
		return 0, err
	}
	return balance.Attributed(txs, participantID, isIncome, l.rounding), nil
}

// GetBalance returns the participant's expenses, income and net balance in
// the group. It never writes and returns the same result until the next
// transaction is recorded.
func (l *Ledger) GetBalance(ctx context.Context, groupID id.GroupID, participantID id.ParticipantID) (*balance.Balance, error) {
	if err := l.checkGroupAndParticipant(ctx, groupID, participantID); err != nil {
		return nil, err
	}

	txs, err := l.allTransactions(ctx, groupID, transaction.KindAny)
	if err != nil {
		return nil, err
	}
	b := balance.For(txs, participantID, l.rounding)
	return &b, nil
}

// GroupBalances returns the balance of every current member, ordered by
// participant ID.
func (l *Ledger) GroupBalances(ctx context.Context, groupID id.GroupID) ([]balance.Balance, error) {
	members, err := l.memberIDs(ctx, groupID)
	if err != nil {
		return nil, err
	}

	txs, err := l.allTransactions(ctx, groupID, transaction.KindAny)
	if err != nil {
		return nil, err
	}
	return balance.Compute(txs, members, l.rounding), nil
}

// GroupSummary totals the group's expenses and incomes.
func (l *Ledger) GroupSummary(ctx context.Context, groupID id.GroupID) (*balance.Summary, error) {
	if _, err := l.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}

	txs, err := l.allTransactions(ctx, groupID, transaction.KindAny)
	if err != nil {
		return nil, err
	}
	s := balance.Summarize(txs)
	return &s, nil
}

func (l *Ledger) checkGroupAndParticipant(ctx context.Context, groupID id.GroupID, participantID id.ParticipantID) error {
	if _, err := l.store.GetGroup(ctx, groupID); err != nil {
		return err
	}
	if _, err := l.store.GetParticipant(ctx, participantID); err != nil {
		return err
	}
	return nil
}
