// Package balance derives per-participant totals from a group's recorded
// transactions. Nothing here is cached: every figure is recomputed from the
// stored shares on each call.
package balance

import (
	"sort"

	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/transaction"
)

// Balance is a participant's position in one group. A positive Balance means
// the group owes the participant; a negative one means they owe the group.
type Balance struct {
	ParticipantID id.ParticipantID `json:"participant_id"`
	Expenses      int64            `json:"expenses"`
	Income        int64            `json:"income"`
	Balance       int64            `json:"balance"`
}

// Settled reports whether the participant neither owes nor is owed.
func (b Balance) Settled() bool { return b.Balance == 0 }

// Attributed sums the portions of every transaction of the requested kind
// that the participant holds a share in. Each transaction is rounded on its
// own.
func Attributed(txs []*transaction.Transaction, participantID id.ParticipantID, isIncome bool, r Rounding) int64 {
	var sum int64
	for _, t := range txs {
		if t.IsIncome != isIncome {
			continue
		}
		if _, ok := t.ShareOf(participantID); !ok {
			continue
		}
		sum += PortionOf(t, participantID, r)
	}
	return sum
}

// For computes a single participant's balance.
func For(txs []*transaction.Transaction, participantID id.ParticipantID, r Rounding) Balance {
	b := Balance{
		ParticipantID: participantID,
		Expenses:      Attributed(txs, participantID, false, r),
		Income:        Attributed(txs, participantID, true, r),
	}
	b.Balance = b.Income - b.Expenses
	return b
}

// Compute returns one balance per participant, ordered by participant ID.
// Participants without shares get a zero balance.
func Compute(txs []*transaction.Transaction, participants []id.ParticipantID, r Rounding) []Balance {
	totals := make(map[id.ParticipantID]*Balance, len(participants))
	out := make([]Balance, 0, len(participants))
	for _, p := range participants {
		if _, dup := totals[p]; dup {
			continue
		}
		totals[p] = &Balance{ParticipantID: p}
	}

	for _, t := range txs {
		for _, portion := range Allocate(t, r) {
			b, ok := totals[portion.ParticipantID]
			if !ok {
				continue
			}
			if t.IsIncome {
				b.Income += portion.Amount
			} else {
				b.Expenses += portion.Amount
			}
		}
	}

	for _, b := range totals {
		b.Balance = b.Income - b.Expenses
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		return id.Compare(out[i].ParticipantID, out[j].ParticipantID) < 0
	})
	return out
}

// Map indexes balances by participant.
func Map(balances []Balance) map[id.ParticipantID]int64 {
	m := make(map[id.ParticipantID]int64, len(balances))
	for _, b := range balances {
		m[b.ParticipantID] = b.Balance
	}
	return m
}

// Summary aggregates a group's transactions.
type Summary struct {
	TotalExpenses    int64 `json:"total_expenses"`
	TotalIncome      int64 `json:"total_income"`
	Net              int64 `json:"net"`
	TransactionCount int   `json:"transaction_count"`
}

// Summarize totals transaction amounts by kind. Amounts are taken whole, not
// per share.
func Summarize(txs []*transaction.Transaction) Summary {
	var s Summary
	for _, t := range txs {
		if t.IsIncome {
			s.TotalIncome += t.Amount
		} else {
			s.TotalExpenses += t.Amount
		}
		s.TransactionCount++
	}
	s.Net = s.TotalIncome - s.TotalExpenses
	return s
}
