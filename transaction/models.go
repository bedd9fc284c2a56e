// Package transaction defines recorded expenses and incomes together with the
// consumption shares that say who is responsible for them.
package transaction

import (
	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/types"
)

// Transaction is one expense or income in a group. Amount is in minor units
// and never negative: the IsIncome flag carries the direction. Transactions
// are immutable once stored.
type Transaction struct {
	types.Entity
	ID        id.TransactionID `json:"id"`
	GroupID   id.GroupID       `json:"group_id"`
	Name      string           `json:"name"`
	Amount    int64            `json:"amount"`
	Currency  string           `json:"currency"`
	IsIncome  bool             `json:"is_income"`
	CreatorID id.ParticipantID `json:"creator_id,omitempty"`
	Shares    []Share          `json:"shares"`
}

// Clone returns a copy of the transaction that shares no memory with it.
func (t *Transaction) Clone() *Transaction {
	cp := *t
	cp.Shares = append([]Share(nil), t.Shares...)
	return &cp
}

// Share is a participant's relative responsibility for a transaction.
// Weights are normalised against the transaction's weight sum when read.
type Share struct {
	ParticipantID id.ParticipantID `json:"participant_id"`
	Weight        float64          `json:"weight"`
}

// Kind filters transactions by direction.
type Kind string

const (
	KindAny     Kind = ""
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

// KindOf returns the kind matching an income flag.
func KindOf(isIncome bool) Kind {
	if isIncome {
		return KindIncome
	}
	return KindExpense
}

// Kind returns the transaction's direction.
func (t *Transaction) Kind() Kind { return KindOf(t.IsIncome) }

// Matches reports whether the transaction passes the kind filter.
func (k Kind) Matches(t *Transaction) bool {
	return k == KindAny || k == t.Kind()
}

// Money returns the amount as a Money value.
func (t *Transaction) Money() types.Money {
	return types.New(t.Amount, t.Currency)
}

// ShareOf returns the share held by participantID, if any.
func (t *Transaction) ShareOf(participantID id.ParticipantID) (Share, bool) {
	for _, s := range t.Shares {
		if s.ParticipantID == participantID {
			return s, true
		}
	}
	return Share{}, false
}

// TotalWeight returns the sum of all share weights.
func (t *Transaction) TotalWeight() float64 {
	var sum float64
	for _, s := range t.Shares {
		sum += s.Weight
	}
	return sum
}
