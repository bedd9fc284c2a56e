package history_test

import (
	"testing"
	"time"

	"github.com/xraph/splitledger/history"
	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/transaction"
	"github.com/xraph/splitledger/types"
)

var (
	alice = id.MustParse("ptc_01h2xcejqtf2nbrexx3vqjhp41")
	bob   = id.MustParse("ptc_01h2xcejqtf2nbrexx3vqjhp42")

	txA = id.MustParse("txn_01h2xcejqtf2nbrexx3vqjhp41")
	txB = id.MustParse("txn_01h2xcejqtf2nbrexx3vqjhp42")
	txC = id.MustParse("txn_01h2xcejqtf2nbrexx3vqjhp43")
)

func at(txID id.ID, ts time.Time, creator id.ID) *transaction.Transaction {
	return &transaction.Transaction{
		Entity:    types.Entity{CreatedAt: ts, UpdatedAt: ts},
		ID:        txID,
		Name:      "pizza",
		Amount:    900,
		Currency:  "rub",
		CreatorID: creator,
		Shares: []transaction.Share{
			{ParticipantID: alice, Weight: 2},
			{ParticipantID: bob, Weight: 1},
		},
	}
}

func TestProjectOrder(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ops := history.Project([]*transaction.Transaction{
		at(txA, base, alice),
		at(txB, base.Add(time.Minute), alice),
		at(txC, base, alice),
	}, nil)

	want := []id.ID{txB, txC, txA}
	for i, op := range ops {
		if op.TransactionID != want[i] {
			t.Errorf("position %d: got %s, want %s", i, op.TransactionID, want[i])
		}
	}
}

func TestProjectNames(t *testing.T) {
	names := map[id.ID]string{alice: "Alice"}
	stranger := id.NewParticipantID()

	tests := []struct {
		name        string
		creator     id.ID
		wantCreator string
	}{
		{"known creator", alice, "Alice"},
		{"unknown creator", stranger, ""},
		{"no creator", id.Nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := history.Project([]*transaction.Transaction{at(txA, time.Now(), tt.creator)}, names)
			if len(ops) != 1 {
				t.Fatalf("got %d operations", len(ops))
			}
			op := ops[0]
			if op.CreatorName != tt.wantCreator {
				t.Errorf("creator name: got %q, want %q", op.CreatorName, tt.wantCreator)
			}
			if len(op.Participants) != 2 {
				t.Fatalf("got %d participants, want 2", len(op.Participants))
			}
			if op.Participants[0].Name != "Alice" || op.Participants[0].Weight != 2 {
				t.Errorf("first participant: %+v", op.Participants[0])
			}
			if op.Participants[1].Name != bob.String() {
				t.Errorf("unnamed participant should fall back to id, got %q", op.Participants[1].Name)
			}
		})
	}
}

func TestPage(t *testing.T) {
	ops := make([]history.Operation, 5)
	for i := range ops {
		ops[i].Amount = int64(i)
	}

	tests := []struct {
		name          string
		offset, limit int
		want          []int64
	}{
		{"all", 0, 0, []int64{0, 1, 2, 3, 4}},
		{"limit", 0, 2, []int64{0, 1}},
		{"offset", 3, 0, []int64{3, 4}},
		{"offset and limit", 1, 2, []int64{1, 2}},
		{"offset past end", 9, 2, []int64{}},
		{"negative offset", -2, 0, []int64{0, 1, 2, 3, 4}},
		{"negative limit", 1, -1, []int64{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := history.Page(ops, tt.offset, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d, want %d", len(got), len(tt.want))
			}
			for i, op := range got {
				if op.Amount != tt.want[i] {
					t.Errorf("position %d: got %d, want %d", i, op.Amount, tt.want[i])
				}
			}
		})
	}
}
