package balance

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/transaction"
)

// Rounding decides what happens to the minor units left over when a
// transaction amount does not divide evenly between its shares.
type Rounding int

const (
	// Truncate floors every participant's portion independently. Up to n-1
	// minor units of a transaction with n shares are attributed to nobody.
	Truncate Rounding = iota

	// LargestRemainder floors first and then hands the leftover units out one
	// at a time to the largest fractional parts, so portions always sum to
	// the amount. Equal fractions go to the lower participant ID first.
	LargestRemainder
)

// String returns the configuration name of the policy.
func (r Rounding) String() string {
	switch r {
	case Truncate:
		return "truncate"
	case LargestRemainder:
		return "largest_remainder"
	default:
		return fmt.Sprintf("rounding(%d)", int(r))
	}
}

// ParseRounding parses a policy name. An empty string selects Truncate.
func ParseRounding(s string) (Rounding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "truncate", "floor":
		return Truncate, nil
	case "largest_remainder", "largest-remainder":
		return LargestRemainder, nil
	default:
		return Truncate, fmt.Errorf("balance: unknown rounding policy %q", s)
	}
}

// Portion is the part of a transaction amount attributed to one participant.
type Portion struct {
	ParticipantID id.ParticipantID
	Amount        int64
}

// Allocate splits the transaction amount between its shares in proportion to
// their weights. Portions come back in share order.
//
// Weights are stored as float64 but the division is done on their exact
// rational values, so 0.1 and 0.2 split 300 into exactly 100 and 200.
func Allocate(t *transaction.Transaction, r Rounding) []Portion {
	out := make([]Portion, len(t.Shares))
	if len(t.Shares) == 0 {
		return out
	}

	weights := make([]*big.Rat, len(t.Shares))
	total := new(big.Rat)
	for i, s := range t.Shares {
		out[i].ParticipantID = s.ParticipantID
		w := new(big.Rat)
		if s.Weight > 0 {
			w.SetFloat64(s.Weight)
		}
		weights[i] = w
		total.Add(total, w)
	}
	if total.Sign() == 0 {
		return out
	}

	amount := new(big.Rat).SetInt64(t.Amount)
	fractions := make([]*big.Rat, len(t.Shares))
	var assigned int64
	for i, w := range weights {
		exact := new(big.Rat).Mul(amount, w)
		exact.Quo(exact, total)

		// amount and weights are non-negative, so truncation is the floor.
		q, m := new(big.Int).QuoRem(exact.Num(), exact.Denom(), new(big.Int))
		out[i].Amount = q.Int64()
		fractions[i] = new(big.Rat).SetFrac(m, exact.Denom())
		assigned += out[i].Amount
	}

	if r != LargestRemainder {
		return out
	}

	leftover := t.Amount - assigned
	if leftover <= 0 {
		return out
	}

	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		fa, fb := fractions[order[a]], fractions[order[b]]
		if c := fa.Cmp(fb); c != 0 {
			return c > 0
		}
		return id.Compare(out[order[a]].ParticipantID, out[order[b]].ParticipantID) < 0
	})

	for _, idx := range order {
		if leftover == 0 {
			break
		}
		out[idx].Amount++
		leftover--
	}

	return out
}

// PortionOf returns the amount of t attributed to participantID, or zero when
// the participant holds no share.
func PortionOf(t *transaction.Transaction, participantID id.ParticipantID, r Rounding) int64 {
	var sum int64
	for _, p := range Allocate(t, r) {
		if p.ParticipantID == participantID {
			sum += p.Amount
		}
	}
	return sum
}
