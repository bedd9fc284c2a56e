package audithook_test

import (
	"context"
	"errors"
	"testing"

	audithook "github.com/xraph/splitledger/audit_hook"
	"github.com/xraph/splitledger/group"
	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/settlement"
	"github.com/xraph/splitledger/transaction"
)

type captured struct {
	events []*audithook.AuditEvent
}

func (c *captured) recorder() audithook.Recorder {
	return audithook.RecorderFunc(func(_ context.Context, evt *audithook.AuditEvent) error {
		c.events = append(c.events, evt)
		return nil
	})
}

func TestTransactionRecordedEvent(t *testing.T) {
	var c captured
	ext := audithook.New(c.recorder())

	tx := &transaction.Transaction{
		ID:       id.NewTransactionID(),
		GroupID:  id.NewGroupID(),
		Name:     "Dinner",
		Amount:   300,
		Currency: "rub",
		Shares:   []transaction.Share{{ParticipantID: id.NewParticipantID(), Weight: 1}},
	}
	if err := ext.OnTransactionRecorded(context.Background(), tx); err != nil {
		t.Fatal(err)
	}

	if len(c.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(c.events))
	}
	evt := c.events[0]
	if evt.Action != audithook.ActionTransactionRecorded {
		t.Errorf("action: got %s", evt.Action)
	}
	if evt.ResourceID != tx.ID.String() {
		t.Errorf("resource id: got %s, want %s", evt.ResourceID, tx.ID)
	}
	if evt.Metadata["amount"] != int64(300) {
		t.Errorf("amount: got %v", evt.Metadata["amount"])
	}
	if evt.Metadata["kind"] != "expense" {
		t.Errorf("kind: got %v", evt.Metadata["kind"])
	}
}

func TestSettlementOutcome(t *testing.T) {
	tests := []struct {
		name    string
		plan    *settlement.Plan
		outcome string
	}{
		{"balanced", &settlement.Plan{}, audithook.OutcomeSuccess},
		{"residual", &settlement.Plan{
			Residuals: []settlement.Residual{{ParticipantID: id.NewParticipantID(), Amount: 1}},
			Imbalance: 1,
		}, audithook.OutcomePartial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c captured
			ext := audithook.New(c.recorder())
			if err := ext.OnSettlementComputed(context.Background(), id.NewGroupID(), tt.plan); err != nil {
				t.Fatal(err)
			}
			if got := c.events[0].Outcome; got != tt.outcome {
				t.Errorf("outcome: got %s, want %s", got, tt.outcome)
			}
		})
	}
}

func TestActionFilters(t *testing.T) {
	ctx := context.Background()
	g := &group.Group{ID: id.NewGroupID(), Name: "Trip"}

	tests := []struct {
		name string
		opt  audithook.Option
		want int
	}{
		{"enabled only joins", audithook.WithEnabledActions(audithook.ActionMemberJoined), 1},
		{"disabled group created", audithook.WithDisabledActions(audithook.ActionGroupCreated), 1},
		{"disabled both", audithook.WithDisabledActions(audithook.ActionGroupCreated, audithook.ActionMemberJoined), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c captured
			ext := audithook.New(c.recorder(), tt.opt)
			_ = ext.OnGroupCreated(ctx, g)
			_ = ext.OnMemberJoined(ctx, g.ID, id.NewParticipantID())
			if len(c.events) != tt.want {
				t.Errorf("expected %d events, got %d", tt.want, len(c.events))
			}
		})
	}
}

func TestRecorderFailureIsSwallowed(t *testing.T) {
	ext := audithook.New(audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("backend down")
	}))
	err := ext.OnResidualDetected(context.Background(), id.NewGroupID(), nil, 3)
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}
