// Package settlement turns net balances into a short list of transfers that
// settles a group.
//
// The algorithm is greedy: the largest creditor is matched against the largest
// debtor, the smaller side is closed, and matching continues from there. It
// yields at most creditors+debtors-1 transfers. That is not always the
// minimum count, but it is deterministic and never routes money through a
// participant who is already settled.
package settlement

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xraph/splitledger/id"
)

// Transfer moves Amount minor units from a debtor to a creditor.
type Transfer struct {
	From   id.ParticipantID `json:"from"`
	To     id.ParticipantID `json:"to"`
	Amount int64            `json:"amount"`
}

// Residual is a balance the plan could not match. It only appears when the
// input balances do not sum to zero.
type Residual struct {
	ParticipantID id.ParticipantID `json:"participant_id"`
	Amount        int64            `json:"amount"`
}

// Plan is the result of Minimize.
type Plan struct {
	Transfers []Transfer `json:"transfers"`
	Residuals []Residual `json:"residuals,omitempty"`

	// Imbalance is the sum of all input balances. Zero for a closed group.
	Imbalance int64 `json:"imbalance"`
}

// Balanced reports whether every balance was matched.
func (p *Plan) Balanced() bool {
	return len(p.Residuals) == 0
}

// Clone returns a deep copy of the plan.
func (p *Plan) Clone() *Plan {
	cp := *p
	cp.Transfers = append([]Transfer(nil), p.Transfers...)
	if p.Residuals != nil {
		cp.Residuals = append([]Residual(nil), p.Residuals...)
	}
	return &cp
}

// Total returns the sum of all transfer amounts.
func (p *Plan) Total() int64 {
	var sum int64
	for _, t := range p.Transfers {
		sum += t.Amount
	}
	return sum
}

// ResidualPolicy decides how callers treat a plan with residuals.
type ResidualPolicy int

const (
	// ResidualReport returns the plan with its residuals listed.
	ResidualReport ResidualPolicy = iota

	// ResidualReject fails the request instead.
	ResidualReject
)

// String returns the configuration name of the policy.
func (p ResidualPolicy) String() string {
	switch p {
	case ResidualReport:
		return "report"
	case ResidualReject:
		return "reject"
	default:
		return fmt.Sprintf("residual_policy(%d)", int(p))
	}
}

// ParseResidualPolicy parses a policy name. An empty string selects
// ResidualReport.
func ParseResidualPolicy(s string) (ResidualPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "report":
		return ResidualReport, nil
	case "reject":
		return ResidualReject, nil
	default:
		return ResidualReport, fmt.Errorf("settlement: unknown residual policy %q", s)
	}
}

type position struct {
	id     id.ParticipantID
	amount int64 // always positive
}

// Minimize computes the transfers that settle the given balances. Positive
// balances are owed money, negative balances owe it, zero balances are
// ignored. Ties are broken by participant ID so the same input always gives
// the same plan.
func Minimize(balances map[id.ParticipantID]int64) Plan {
	var creditors, debtors []position
	plan := Plan{Transfers: []Transfer{}}

	for p, b := range balances {
		plan.Imbalance += b
		switch {
		case b > 0:
			creditors = append(creditors, position{id: p, amount: b})
		case b < 0:
			debtors = append(debtors, position{id: p, amount: -b})
		}
	}
	sortPositions(creditors)
	sortPositions(debtors)

	i, j := 0, 0
	for i < len(creditors) && j < len(debtors) {
		c, d := &creditors[i], &debtors[j]
		amount := min(c.amount, d.amount)
		if amount > 0 {
			plan.Transfers = append(plan.Transfers, Transfer{From: d.id, To: c.id, Amount: amount})
		}
		c.amount -= amount
		d.amount -= amount
		if c.amount == 0 {
			i++
		}
		if d.amount == 0 {
			j++
		}
	}

	for ; i < len(creditors); i++ {
		if creditors[i].amount > 0 {
			plan.Residuals = append(plan.Residuals, Residual{ParticipantID: creditors[i].id, Amount: creditors[i].amount})
		}
	}
	for ; j < len(debtors); j++ {
		if debtors[j].amount > 0 {
			plan.Residuals = append(plan.Residuals, Residual{ParticipantID: debtors[j].id, Amount: -debtors[j].amount})
		}
	}

	return plan
}

func sortPositions(ps []position) {
	sort.Slice(ps, func(a, b int) bool {
		if ps[a].amount != ps[b].amount {
			return ps[a].amount > ps[b].amount
		}
		return id.Compare(ps[a].id, ps[b].id) < 0
	})
}
