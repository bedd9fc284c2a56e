package scenario

import (
	"context"
	"strings"
	"testing"

	"github.com/xraph/splitledger"
	"github.com/xraph/splitledger/store/memory"
)

const dinner = `
participants:
  - {key: anna, external_id: 1, first_name: Anna}
  - {key: boris, external_id: 2, username: boris}
  - {key: clara, external_id: 3, first_name: Clara, payment_link: "https://pay.example/clara"}
groups:
  - key: club
    name: Dinner club
    creator: anna
    members: [anna, boris, clara]
    transactions:
      - {name: Groceries, amount: 300, income: true, creator: anna, participants: [anna]}
      - {name: Dinner, amount: 300, creator: anna, participants: [anna, boris, clara]}
`

func TestParseAndReplay(t *testing.T) {
	ctx := context.Background()

	sc, err := Parse(strings.NewReader(dinner))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	l := splitledger.New(memory.New())
	res, err := Replay(ctx, l, sc)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	if len(res.Groups) != 1 || len(res.Groups[0].Transactions) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}

	tests := []struct {
		key  string
		want int64
	}{
		{"anna", 200},
		{"boris", -100},
		{"clara", -100},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			b, err := l.GetBalance(ctx, res.Groups[0].ID, res.Participants[tt.key])
			if err != nil {
				t.Fatal(err)
			}
			if b.Balance != tt.want {
				t.Errorf("balance: got %d, want %d", b.Balance, tt.want)
			}
		})
	}

	clara, err := l.GetParticipant(ctx, res.Participants["clara"])
	if err != nil {
		t.Fatal(err)
	}
	if clara.PaymentLink != "https://pay.example/clara" {
		t.Errorf("payment link: got %q", clara.PaymentLink)
	}
}

func TestReplayWithoutExternalIDs(t *testing.T) {
	ctx := context.Background()
	doc := `
participants:
  - {key: a, first_name: A, payment_link: "https://pay.example/a"}
  - {key: b, first_name: B}
groups:
  - key: g
    name: G
    creator: a
    members: [b]
    transactions:
      - {name: Taxi, amount: 100, creator: a, participants: [a, b]}
`
	sc, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	l := splitledger.New(memory.New())
	res, err := Replay(ctx, l, sc)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if res.Participants["a"] == res.Participants["b"] {
		t.Fatal("participants without external ids were merged")
	}

	a, err := l.GetParticipant(ctx, res.Participants["a"])
	if err != nil {
		t.Fatal(err)
	}
	if a.PaymentLink != "https://pay.example/a" || a.ExternalID != 0 {
		t.Errorf("got %+v", a)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", "", "empty document"},
		{"unknown field", "participants:\n  - {key: a, external_id: 1, nickname: x}\n", "nickname"},
		{"duplicate key", "participants:\n  - {key: a, external_id: 1}\n  - {key: a, external_id: 2}\n", "declared twice"},
		{"shared external id", "participants:\n  - {key: a, external_id: 1}\n  - {key: b, external_id: 1}\n", "share external_id"},
		{"unknown creator", "participants:\n  - {key: a, external_id: 1}\ngroups:\n  - {key: g, name: G, creator: zed}\n", `unknown participant "zed"`},
		{"unknown share", "participants:\n  - {key: a, external_id: 1}\ngroups:\n  - key: g\n    name: G\n    creator: a\n    transactions:\n      - {name: X, amount: 1, participants: [a, b]}\n", `unknown participant "b"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestReplayStopsOnEngineError(t *testing.T) {
	doc := `
participants:
  - {key: a, external_id: 1, first_name: A}
  - {key: b, external_id: 2, first_name: B}
groups:
  - key: g
    name: G
    creator: a
    transactions:
      - {name: Lunch, amount: 100, participants: [a, b]}
`
	sc, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}

	_, err = Replay(context.Background(), splitledger.New(memory.New()), sc)
	if !splitledger.IsNotFound(err) {
		t.Errorf("expected not-member error, got %v", err)
	}
}
