// Package splitledger is a shared-expense ledger and settlement engine.
//
// Participants form groups. Any member can record an expense or an income
// together with the members who share it and their relative weights. From
// those records the engine derives each member's balance and a short list of
// transfers that settles the group.
//
// splitledger is a library. Pick a store, build a Ledger and call it:
//
//	import (
//	    "github.com/xraph/splitledger"
//	    "github.com/xraph/splitledger/store/memory"
//	)
//
//	l := splitledger.New(memory.New())
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Recording
//
// A transaction is stored atomically together with its shares:
//
//	txID, err := l.RecordTransaction(ctx, splitledger.RecordInput{
//	    GroupID:        g.ID,
//	    Name:           "dinner",
//	    Amount:         30000, // minor units
//	    ParticipantIDs: []id.ParticipantID{alice.ID, bob.ID, carol.ID},
//	})
//
// Weights default to an equal split. Amounts are integers in minor units and
// every derived figure is integer too.
//
// # Balances
//
// A member's balance is the income attributed to them minus the expenses
// attributed to them. Each transaction is divided in proportion to the share
// weights using exact rational arithmetic and rounded on its own, either
// truncating (the default) or by largest remainder:
//
//	l := splitledger.New(s, splitledger.WithRounding(balance.LargestRemainder))
//
// Balances are recomputed from the stored shares on every call.
//
// # Settlement
//
// MinimizeTransfers greedily matches the largest creditor with the largest
// debtor. It produces at most n-1 transfers for n members with a non-zero
// balance, and ties are broken by participant ID so the plan is
// deterministic. Balances that cannot be matched are reported as residuals
// rather than dropped.
//
// # TypeID
//
// All entities use TypeID identifiers:
//
//	ptc_01h2xcejqtf2nbrexx3vqjhp41  // participant
//	grp_01h2xcejqtf2nbrexx3vqjhp41  // group
//	txn_01h455vb4pex5vsknk084sn02q  // transaction
package splitledger
