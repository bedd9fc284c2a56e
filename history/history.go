// Package history projects stored transactions into a read model for
// display: one Operation per transaction with participant names resolved.
package history

import (
	"sort"
	"time"

	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/transaction"
)

// Operation is a transaction as shown in a group's history.
type Operation struct {
	TransactionID id.TransactionID `json:"transaction_id"`
	Name          string           `json:"name"`
	Amount        int64            `json:"amount"`
	Currency      string           `json:"currency"`
	IsIncome      bool             `json:"is_income"`
	CreatedAt     time.Time        `json:"created_at"`
	CreatorID     id.ParticipantID `json:"creator_id,omitempty"`
	CreatorName   string           `json:"creator_name,omitempty"`
	Participants  []Participant    `json:"participants"`
}

// Participant is one share of an Operation.
type Participant struct {
	ParticipantID id.ParticipantID `json:"participant_id"`
	Name          string           `json:"name"`
	Weight        float64          `json:"weight"`
}

// ListOpts filters and pages a group's history.
type ListOpts struct {
	Kind   transaction.Kind
	Limit  int
	Offset int
}

// Project builds operations from transactions, newest first. names maps
// participant IDs to display names; a missing creator leaves CreatorName
// empty and a missing participant shows the raw ID.
func Project(txs []*transaction.Transaction, names map[id.ParticipantID]string) []Operation {
	ops := make([]Operation, 0, len(txs))
	for _, t := range txs {
		op := Operation{
			TransactionID: t.ID,
			Name:          t.Name,
			Amount:        t.Amount,
			Currency:      t.Currency,
			IsIncome:      t.IsIncome,
			CreatedAt:     t.CreatedAt,
			CreatorID:     t.CreatorID,
			Participants:  make([]Participant, 0, len(t.Shares)),
		}
		if !t.CreatorID.IsNil() {
			op.CreatorName = names[t.CreatorID]
		}
		for _, s := range t.Shares {
			name, ok := names[s.ParticipantID]
			if !ok {
				name = s.ParticipantID.String()
			}
			op.Participants = append(op.Participants, Participant{
				ParticipantID: s.ParticipantID,
				Name:          name,
				Weight:        s.Weight,
			})
		}
		ops = append(ops, op)
	}

	Sort(ops)
	return ops
}

// Sort orders operations newest first, breaking ties by transaction ID
// descending.
func Sort(ops []Operation) {
	sort.SliceStable(ops, func(i, j int) bool {
		if !ops[i].CreatedAt.Equal(ops[j].CreatedAt) {
			return ops[i].CreatedAt.After(ops[j].CreatedAt)
		}
		return id.Compare(ops[i].TransactionID, ops[j].TransactionID) > 0
	})
}

// Page applies offset and limit to an already ordered slice.
func Page(ops []Operation, offset, limit int) []Operation {
	if offset >= len(ops) {
		return []Operation{}
	}
	if offset > 0 {
		ops = ops[offset:]
	}
	if limit > 0 && limit < len(ops) {
		ops = ops[:limit]
	}
	return ops
}
