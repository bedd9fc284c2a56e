package splitledger

import (
	"context"
	"fmt"

	"github.com/xraph/splitledger/balance"
	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/settlement"
)

// MinimizeTransfers computes the transfers that settle a group, using the
// balances of its current members. Groups with fewer than two members get an
// empty plan.
//
// When the balances do not sum to zero (possible under truncating rounding)
// the leftover is listed in Plan.Residuals. With ResidualReject configured
// the call fails with ErrUnbalanced instead.
func (l *Ledger) MinimizeTransfers(ctx context.Context, groupID id.GroupID) (*settlement.Plan, error) {
	balances, err := l.GroupBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if len(balances) < 2 {
		plan := settlement.Plan{Transfers: []settlement.Transfer{}}
		l.plugins.EmitSettlementComputed(ctx, groupID, &plan)
		return &plan, nil
	}

	plan := settlement.Minimize(balance.Map(balances))

	if !plan.Balanced() {
		l.logger.Warn("settlement residual",
			"group_id", groupID.String(),
			"imbalance", plan.Imbalance,
			"residuals", len(plan.Residuals),
		)
		l.plugins.EmitResidualDetected(ctx, groupID, plan.Residuals, plan.Imbalance)

		if l.residualPolicy == settlement.ResidualReject {
			return nil, fmt.Errorf("%w: imbalance %d", ErrUnbalanced, plan.Imbalance)
		}
	}

	l.plugins.EmitSettlementComputed(ctx, groupID, &plan)
	return &plan, nil
}
