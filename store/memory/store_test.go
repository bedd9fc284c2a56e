package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/splitledger"
	"github.com/xraph/splitledger/group"
	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/participant"
	"github.com/xraph/splitledger/store"
	"github.com/xraph/splitledger/store/memory"
	"github.com/xraph/splitledger/store/storetest"
	"github.com/xraph/splitledger/transaction"
	"github.com/xraph/splitledger/types"
)

func TestStoreBehavior(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.Store { return memory.New() })
}

func TestParticipants(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	p := &participant.Participant{Entity: types.NewEntity(), ID: id.NewParticipantID(), ExternalID: 42, FirstName: "Ann"}
	if err := s.CreateParticipant(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	dup := &participant.Participant{ID: id.NewParticipantID(), ExternalID: 42}
	if err := s.CreateParticipant(ctx, dup); !errors.Is(err, splitledger.ErrAlreadyExists) {
		t.Errorf("duplicate external id: got %v", err)
	}

	got, err := s.GetParticipantByExternalID(ctx, 42)
	if err != nil {
		t.Fatalf("get by external id: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("got %s, want %s", got.ID, p.ID)
	}

	got.FirstName = "mutated"
	again, _ := s.GetParticipant(ctx, p.ID)
	if again.FirstName != "Ann" {
		t.Error("store returned a shared pointer")
	}

	if _, err := s.GetParticipant(ctx, id.NewParticipantID()); !errors.Is(err, splitledger.ErrParticipantNotFound) {
		t.Errorf("missing participant: got %v", err)
	}

	p.Timezone = "Europe/Moscow"
	if err := s.UpdateParticipant(ctx, p); err != nil {
		t.Fatalf("update: %v", err)
	}
	again, _ = s.GetParticipant(ctx, p.ID)
	if again.Timezone != "Europe/Moscow" {
		t.Errorf("timezone not updated: %q", again.Timezone)
	}
}

func TestParticipantsWithoutExternalID(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	names := []string{"Ann", "Bob"}
	for _, name := range names {
		p := &participant.Participant{Entity: types.NewEntity(), ID: id.NewParticipantID(), FirstName: name}
		if err := s.CreateParticipant(ctx, p); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	if _, err := s.GetParticipantByExternalID(ctx, 0); !errors.Is(err, splitledger.ErrParticipantNotFound) {
		t.Errorf("lookup by zero external id: got %v", err)
	}

	// Clearing an external ID releases it for another participant.
	p := &participant.Participant{Entity: types.NewEntity(), ID: id.NewParticipantID(), ExternalID: 7}
	if err := s.CreateParticipant(ctx, p); err != nil {
		t.Fatalf("create with external id: %v", err)
	}
	p.ExternalID = 0
	if err := s.UpdateParticipant(ctx, p); err != nil {
		t.Fatalf("clear external id: %v", err)
	}
	if err := s.CreateParticipant(ctx, &participant.Participant{ID: id.NewParticipantID(), ExternalID: 7}); err != nil {
		t.Errorf("reuse released external id: %v", err)
	}
}

func TestGroupsAndMemberships(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	g := &group.Group{Entity: types.NewEntity(), ID: id.NewGroupID(), Name: "trip", InviteCode: "ABCD1234"}
	if err := s.CreateGroup(ctx, g); err != nil {
		t.Fatalf("create group: %v", err)
	}
	clash := &group.Group{ID: id.NewGroupID(), Name: "other", InviteCode: "ABCD1234"}
	if err := s.CreateGroup(ctx, clash); !errors.Is(err, splitledger.ErrAlreadyExists) {
		t.Errorf("invite code clash: got %v", err)
	}

	if got, err := s.GetGroupByInviteCode(ctx, "ABCD1234"); err != nil || got.ID != g.ID {
		t.Fatalf("by invite code: %v %v", got, err)
	}
	if _, err := s.GetGroupByInviteCode(ctx, "NOPE"); !errors.Is(err, splitledger.ErrGroupNotFound) {
		t.Errorf("unknown code: got %v", err)
	}

	pid := id.NewParticipantID()
	m := &group.Membership{GroupID: g.ID, ParticipantID: pid, JoinedAt: time.Now()}
	if err := s.AddMember(ctx, m); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := s.AddMember(ctx, m); !errors.Is(err, splitledger.ErrAlreadyMember) {
		t.Errorf("second add: got %v", err)
	}

	m.AgreeToClose = true
	if err := s.UpdateMembership(ctx, m); err != nil {
		t.Fatalf("update membership: %v", err)
	}
	got, err := s.GetMembership(ctx, g.ID, pid)
	if err != nil || !got.AgreeToClose {
		t.Fatalf("membership: %+v %v", got, err)
	}

	groups, _ := s.ListGroupsForParticipant(ctx, pid)
	if len(groups) != 1 || groups[0].ID != g.ID {
		t.Errorf("groups for participant: %+v", groups)
	}

	if err := s.RemoveMember(ctx, g.ID, pid); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.RemoveMember(ctx, g.ID, pid); !errors.Is(err, splitledger.ErrNotMember) {
		t.Errorf("second remove: got %v", err)
	}
	members, _ := s.ListMembers(ctx, g.ID)
	if len(members) != 0 {
		t.Errorf("expected no members, got %d", len(members))
	}
}

func TestListTransactions(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	gid := id.NewGroupID()
	pid := id.NewParticipantID()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		ts := base.Add(time.Duration(i) * time.Hour)
		tx := &transaction.Transaction{
			Entity:   types.Entity{CreatedAt: ts, UpdatedAt: ts},
			ID:       id.NewTransactionID(),
			GroupID:  gid,
			Name:     "t",
			Amount:   int64(i),
			IsIncome: i%2 == 1,
			Shares:   []transaction.Share{{ParticipantID: pid, Weight: 1}},
		}
		if err := s.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	// Another group's transaction must not leak in.
	_ = s.CreateTransaction(ctx, &transaction.Transaction{ID: id.NewTransactionID(), GroupID: id.NewGroupID(), Amount: 99})

	tests := []struct {
		name string
		opts transaction.ListOpts
		want []int64
	}{
		{"all newest first", transaction.ListOpts{}, []int64{4, 3, 2, 1, 0}},
		{"expenses", transaction.ListOpts{Kind: transaction.KindExpense}, []int64{4, 2, 0}},
		{"incomes", transaction.ListOpts{Kind: transaction.KindIncome}, []int64{3, 1}},
		{"paged", transaction.ListOpts{Limit: 2, Offset: 1}, []int64{3, 2}},
		{"offset past end", transaction.ListOpts{Offset: 10}, []int64{}},
		{"negative offset", transaction.ListOpts{Offset: -1}, []int64{4, 3, 2, 1, 0}},
		{"negative limit", transaction.ListOpts{Limit: -1}, []int64{4, 3, 2, 1, 0}},
		{"negative offset with limit", transaction.ListOpts{Offset: -3, Limit: 2}, []int64{4, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListTransactions(ctx, gid, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d transactions, want %d", len(got), len(tt.want))
			}
			for i, tx := range got {
				if tx.Amount != tt.want[i] {
					t.Errorf("position %d: amount %d, want %d", i, tx.Amount, tt.want[i])
				}
				if len(tx.Shares) != 1 {
					t.Errorf("position %d: %d shares", i, len(tx.Shares))
				}
			}
		})
	}

	if _, err := s.GetTransaction(ctx, id.NewTransactionID()); !errors.Is(err, splitledger.ErrTransactionNotFound) {
		t.Errorf("missing transaction: got %v", err)
	}
}

func TestClose(t *testing.T) {
	s := memory.New()
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	_ = s.Close()
	if err := s.Ping(context.Background()); !errors.Is(err, splitledger.ErrStoreClosed) {
		t.Errorf("ping after close: got %v", err)
	}
}
