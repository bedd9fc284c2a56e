// Package storetest holds behavior checks shared by every store.Store
// backend. A backend test calls Run with a constructor for a fresh, empty
// store.
package storetest

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/xraph/splitledger"
	"github.com/xraph/splitledger/group"
	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/participant"
	"github.com/xraph/splitledger/store"
	"github.com/xraph/splitledger/transaction"
	"github.com/xraph/splitledger/types"
)

// Run checks ordering, paging and uniqueness rules against stores built by
// newStore. Each subtest gets its own migrated store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()

	open := func(t *testing.T) store.Store {
		t.Helper()
		s := newStore(t)
		if err := s.Migrate(context.Background()); err != nil {
			t.Fatalf("migrate: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	}

	t.Run("transaction order", func(t *testing.T) { transactionOrder(t, open(t)) })
	t.Run("transaction paging", func(t *testing.T) { transactionPaging(t, open(t)) })
	t.Run("already member", func(t *testing.T) { alreadyMember(t, open(t)) })
	t.Run("external ids", func(t *testing.T) { externalIDs(t, open(t)) })
}

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func seed(ctx context.Context, t *testing.T, s store.Store, gid id.GroupID, at ...time.Time) []*transaction.Transaction {
	t.Helper()
	pid := id.NewParticipantID()
	out := make([]*transaction.Transaction, len(at))
	for i, ts := range at {
		tx := &transaction.Transaction{
			Entity:   types.Entity{CreatedAt: ts, UpdatedAt: ts},
			ID:       id.NewTransactionID(),
			GroupID:  gid,
			Name:     "item",
			Amount:   int64(i + 1),
			Currency: "rub",
			IsIncome: i%2 == 1,
			Shares:   []transaction.Share{{ParticipantID: pid, Weight: 1}},
		}
		if err := s.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("create transaction %d: %v", i, err)
		}
		out[i] = tx
	}
	return out
}

// newestFirst orders by creation time, then ID, both descending.
func newestFirst(txs []*transaction.Transaction) []id.TransactionID {
	sorted := append([]*transaction.Transaction(nil), txs...)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return id.Compare(sorted[i].ID, sorted[j].ID) > 0
	})
	ids := make([]id.TransactionID, len(sorted))
	for i, tx := range sorted {
		ids[i] = tx.ID
	}
	return ids
}

func transactionOrder(t *testing.T, s store.Store) {
	ctx := context.Background()
	gid := id.NewGroupID()

	// Three transactions share a timestamp so the ID tie-break decides.
	txs := seed(ctx, t, s, gid,
		base,
		base.Add(time.Minute),
		base.Add(2*time.Minute),
		base.Add(2*time.Minute),
		base.Add(2*time.Minute),
	)
	seed(ctx, t, s, id.NewGroupID(), base.Add(time.Hour))

	got, err := s.ListTransactions(ctx, gid, transaction.ListOpts{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := newestFirst(txs)
	if len(got) != len(want) {
		t.Fatalf("got %d transactions, want %d", len(got), len(want))
	}
	for i, tx := range got {
		if tx.ID != want[i] {
			t.Errorf("position %d: got %s, want %s", i, tx.ID, want[i])
		}
		if len(tx.Shares) != 1 || tx.Shares[0].Weight != 1 {
			t.Errorf("position %d: shares not loaded: %+v", i, tx.Shares)
		}
	}
}

func transactionPaging(t *testing.T, s store.Store) {
	ctx := context.Background()
	gid := id.NewGroupID()

	txs := seed(ctx, t, s, gid,
		base, base.Add(time.Minute), base.Add(2*time.Minute), base.Add(3*time.Minute))
	all := newestFirst(txs)

	tests := []struct {
		name string
		opts transaction.ListOpts
		want []id.TransactionID
	}{
		{"limit", transaction.ListOpts{Limit: 2}, all[:2]},
		{"limit and offset", transaction.ListOpts{Limit: 2, Offset: 1}, all[1:3]},
		{"expenses", transaction.ListOpts{Kind: transaction.KindExpense}, []id.TransactionID{all[1], all[3]}},
		{"negative offset", transaction.ListOpts{Offset: -1}, all},
		{"negative limit", transaction.ListOpts{Limit: -1}, all},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListTransactions(ctx, gid, tt.opts)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d transactions, want %d", len(got), len(tt.want))
			}
			for i, tx := range got {
				if tx.ID != tt.want[i] {
					t.Errorf("position %d: got %s, want %s", i, tx.ID, tt.want[i])
				}
			}
		})
	}
}

func alreadyMember(t *testing.T, s store.Store) {
	ctx := context.Background()
	g := &group.Group{Entity: types.NewEntity(), ID: id.NewGroupID(), Name: "Club", InviteCode: "club-code", Currency: "rub"}
	if err := s.CreateGroup(ctx, g); err != nil {
		t.Fatalf("create group: %v", err)
	}

	m := &group.Membership{GroupID: g.ID, ParticipantID: id.NewParticipantID(), JoinedAt: base}
	if err := s.AddMember(ctx, m); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := s.AddMember(ctx, m); !errors.Is(err, splitledger.ErrAlreadyMember) {
		t.Errorf("second add: got %v, want %v", err, splitledger.ErrAlreadyMember)
	}

	members, err := s.ListMembers(ctx, g.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 1 {
		t.Errorf("got %d members, want 1", len(members))
	}
}

func externalIDs(t *testing.T, s store.Store) {
	ctx := context.Background()

	for _, name := range []string{"Anna", "Boris"} {
		p := &participant.Participant{Entity: types.NewEntity(), ID: id.NewParticipantID(), FirstName: name}
		if err := s.CreateParticipant(ctx, p); err != nil {
			t.Fatalf("create %s without external id: %v", name, err)
		}
	}
	if _, err := s.GetParticipantByExternalID(ctx, 0); !errors.Is(err, splitledger.ErrParticipantNotFound) {
		t.Errorf("lookup by zero: got %v", err)
	}

	p := &participant.Participant{Entity: types.NewEntity(), ID: id.NewParticipantID(), ExternalID: 42}
	if err := s.CreateParticipant(ctx, p); err != nil {
		t.Fatalf("create with external id: %v", err)
	}
	dup := &participant.Participant{Entity: types.NewEntity(), ID: id.NewParticipantID(), ExternalID: 42}
	if err := s.CreateParticipant(ctx, dup); !errors.Is(err, splitledger.ErrAlreadyExists) {
		t.Errorf("duplicate external id: got %v, want %v", err, splitledger.ErrAlreadyExists)
	}

	got, err := s.GetParticipantByExternalID(ctx, 42)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("got %s, want %s", got.ID, p.ID)
	}
}
