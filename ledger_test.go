package splitledger_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/xraph/splitledger"
	"github.com/xraph/splitledger/balance"
	"github.com/xraph/splitledger/group"
	"github.com/xraph/splitledger/history"
	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/participant"
	"github.com/xraph/splitledger/settlement"
	"github.com/xraph/splitledger/store/memory"
	"github.com/xraph/splitledger/transaction"
)

// recorder counts hook calls.
type recorder struct {
	mu         sync.Mutex
	recorded   []*transaction.Transaction
	joined     int
	left       int
	groups     int
	plans      int
	residuals  int
	registered int
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) OnTransactionRecorded(_ context.Context, t *transaction.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorded = append(r.recorded, t)
	return nil
}

func (r *recorder) OnParticipantRegistered(_ context.Context, _ *participant.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registered++
	return nil
}

func (r *recorder) OnGroupCreated(_ context.Context, _ *group.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups++
	return nil
}

func (r *recorder) OnMemberJoined(_ context.Context, _ id.GroupID, _ id.ParticipantID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joined++
	return nil
}

func (r *recorder) OnMemberLeft(_ context.Context, _ id.GroupID, _ id.ParticipantID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.left++
	return nil
}

func (r *recorder) OnSettlementComputed(_ context.Context, _ id.GroupID, _ *settlement.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans++
	return nil
}

func (r *recorder) OnResidualDetected(_ context.Context, _ id.GroupID, _ []settlement.Residual, _ int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.residuals++
	return nil
}

type fixture struct {
	l     *splitledger.Ledger
	rec   *recorder
	group *group.Group
	a     *participant.Participant
	b     *participant.Participant
	c     *participant.Participant
}

func setup(t *testing.T, opts ...splitledger.Option) (context.Context, *fixture) {
	t.Helper()
	ctx := context.Background()
	rec := &recorder{}

	opts = append([]splitledger.Option{
		splitledger.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		splitledger.WithPlugin(rec),
	}, opts...)
	l := splitledger.New(memory.New(), opts...)
	if err := l.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = l.Stop() })

	f := &fixture{l: l, rec: rec}
	for i, name := range []string{"Anna", "Boris", "Clara"} {
		p, err := l.GetOrCreateParticipant(ctx, int64(100+i), participant.Profile{FirstName: name})
		if err != nil {
			t.Fatalf("participant %s: %v", name, err)
		}
		switch i {
		case 0:
			f.a = p
		case 1:
			f.b = p
		case 2:
			f.c = p
		}
	}

	g, err := l.CreateGroup(ctx, "Dinner club", f.a.ID)
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	f.group = g
	for _, p := range []*participant.Participant{f.b, f.c} {
		if err := l.JoinGroup(ctx, g.ID, p.ID); err != nil {
			t.Fatalf("join: %v", err)
		}
	}
	return ctx, f
}

func (f *fixture) record(ctx context.Context, t *testing.T, amount int64, income bool, weights []float64, ps ...*participant.Participant) id.TransactionID {
	t.Helper()
	ids := make([]id.ParticipantID, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}
	txID, err := f.l.RecordTransaction(ctx, splitledger.RecordInput{
		GroupID:        f.group.ID,
		Name:           "item",
		Amount:         amount,
		ParticipantIDs: ids,
		Weights:        weights,
		IsIncome:       income,
		CreatorID:      f.a.ID,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	return txID
}

// ordered returns the two participants sorted by ID.
func ordered(x, y *participant.Participant) (*participant.Participant, *participant.Participant) {
	if id.Compare(x.ID, y.ID) < 0 {
		return x, y
	}
	return y, x
}

func TestDinnerSplit(t *testing.T) {
	ctx, f := setup(t)
	f.record(ctx, t, 300, false, nil, f.a, f.b, f.c)

	for _, p := range []*participant.Participant{f.a, f.b, f.c} {
		b, err := f.l.GetBalance(ctx, f.group.ID, p.ID)
		if err != nil {
			t.Fatal(err)
		}
		if b.Expenses != 100 || b.Income != 0 || b.Balance != -100 {
			t.Errorf("%s: got %+v", p.FirstName, b)
		}
	}
}

func TestPaymentSettlement(t *testing.T) {
	ctx, f := setup(t)
	f.record(ctx, t, 300, true, nil, f.a)
	f.record(ctx, t, 300, false, nil, f.a, f.b, f.c)

	want := map[id.ID]int64{f.a.ID: 200, f.b.ID: -100, f.c.ID: -100}
	balances, err := f.l.GroupBalances(ctx, f.group.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range balances {
		if b.Balance != want[b.ParticipantID] {
			t.Errorf("%s: got %d, want %d", b.ParticipantID, b.Balance, want[b.ParticipantID])
		}
	}

	plan, err := f.l.MinimizeTransfers(ctx, f.group.ID)
	if err != nil {
		t.Fatal(err)
	}
	first, second := ordered(f.b, f.c)
	wantTransfers := []settlement.Transfer{
		{From: first.ID, To: f.a.ID, Amount: 100},
		{From: second.ID, To: f.a.ID, Amount: 100},
	}
	if len(plan.Transfers) != 2 {
		t.Fatalf("got %d transfers: %+v", len(plan.Transfers), plan.Transfers)
	}
	for i, tr := range plan.Transfers {
		if tr != wantTransfers[i] {
			t.Errorf("transfer %d: got %+v, want %+v", i, tr, wantTransfers[i])
		}
	}
	if f.rec.plans != 1 {
		t.Errorf("settlement hook: got %d calls", f.rec.plans)
	}
}

func TestWeightedSplit(t *testing.T) {
	ctx, f := setup(t)
	f.record(ctx, t, 300, false, []float64{2, 1}, f.a, f.b)

	tests := []struct {
		who  *participant.Participant
		want int64
	}{
		{f.a, 200},
		{f.b, 100},
		{f.c, 0},
	}
	for _, tt := range tests {
		got, err := f.l.AttributedAmount(ctx, f.group.ID, tt.who.ID, false)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.who.FirstName, got, tt.want)
		}
		income, _ := f.l.AttributedAmount(ctx, f.group.ID, tt.who.ID, true)
		if income != 0 {
			t.Errorf("%s: unexpected income %d", tt.who.FirstName, income)
		}
	}
}

func TestRoundingPolicies(t *testing.T) {
	tests := []struct {
		name     string
		rounding balance.Rounding
		wantSum  int64
	}{
		{"truncate", balance.Truncate, 99},
		{"largest remainder", balance.LargestRemainder, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, f := setup(t, splitledger.WithRounding(tt.rounding))
			f.record(ctx, t, 100, false, nil, f.a, f.b, f.c)

			var sum int64
			for _, p := range []*participant.Participant{f.a, f.b, f.c} {
				got, err := f.l.AttributedAmount(ctx, f.group.ID, p.ID, false)
				if err != nil {
					t.Fatal(err)
				}
				if got < 33 || got > 34 {
					t.Errorf("%s: got %d", p.FirstName, got)
				}
				sum += got
			}
			if sum != tt.wantSum {
				t.Errorf("sum: got %d, want %d", sum, tt.wantSum)
			}
		})
	}
}

func TestGetBalanceIsIdempotent(t *testing.T) {
	ctx, f := setup(t)
	f.record(ctx, t, 1234, false, []float64{0.3, 0.7}, f.a, f.b)

	first, err := f.l.GetBalance(ctx, f.group.ID, f.b.ID)
	if err != nil {
		t.Fatal(err)
	}
	for range 3 {
		again, err := f.l.GetBalance(ctx, f.group.ID, f.b.ID)
		if err != nil {
			t.Fatal(err)
		}
		if *again != *first {
			t.Fatalf("balance changed: %+v then %+v", first, again)
		}
	}
}

func TestRecordTransactionValidation(t *testing.T) {
	ctx, f := setup(t)
	stranger, err := f.l.GetOrCreateParticipant(ctx, 999, participant.Profile{Username: "stranger"})
	if err != nil {
		t.Fatal(err)
	}

	base := func() splitledger.RecordInput {
		return splitledger.RecordInput{
			GroupID:        f.group.ID,
			Name:           "lunch",
			Amount:         100,
			ParticipantIDs: []id.ParticipantID{f.a.ID, f.b.ID},
		}
	}

	tests := []struct {
		name       string
		mutate     func(*splitledger.RecordInput)
		validation bool
		notFound   bool
		target     error
	}{
		{"negative amount", func(in *splitledger.RecordInput) { in.Amount = -1 }, true, false, nil},
		{"empty name", func(in *splitledger.RecordInput) { in.Name = "  " }, true, false, nil},
		{"no participants", func(in *splitledger.RecordInput) { in.ParticipantIDs = nil }, true, false, nil},
		{"weights mismatch", func(in *splitledger.RecordInput) { in.Weights = []float64{1} }, true, false, nil},
		{"zero weight", func(in *splitledger.RecordInput) { in.Weights = []float64{1, 0} }, true, false, nil},
		{"negative weight", func(in *splitledger.RecordInput) { in.Weights = []float64{-1, 1} }, true, false, nil},
		{"duplicate participant", func(in *splitledger.RecordInput) {
			in.ParticipantIDs = []id.ParticipantID{f.a.ID, f.a.ID}
		}, true, false, nil},
		{"unknown group", func(in *splitledger.RecordInput) { in.GroupID = id.NewGroupID() }, false, true, splitledger.ErrGroupNotFound},
		{"unknown participant", func(in *splitledger.RecordInput) {
			in.ParticipantIDs = []id.ParticipantID{f.a.ID, id.NewParticipantID()}
		}, false, true, splitledger.ErrParticipantNotFound},
		{"unknown creator", func(in *splitledger.RecordInput) { in.CreatorID = id.NewParticipantID() }, false, true, splitledger.ErrParticipantNotFound},
		{"not a member", func(in *splitledger.RecordInput) {
			in.ParticipantIDs = []id.ParticipantID{f.a.ID, stranger.ID}
		}, false, true, splitledger.ErrNotMember},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base()
			tt.mutate(&in)
			_, err := f.l.RecordTransaction(ctx, in)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := splitledger.IsValidation(err); got != tt.validation {
				t.Errorf("IsValidation = %v, want %v (%v)", got, tt.validation, err)
			}
			if got := splitledger.IsNotFound(err); got != tt.notFound {
				t.Errorf("IsNotFound = %v, want %v (%v)", got, tt.notFound, err)
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}

	txs, err := f.l.ListTransactions(ctx, f.group.ID, transaction.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 0 {
		t.Errorf("rejected input left %d transactions behind", len(txs))
	}
	if len(f.rec.recorded) != 0 {
		t.Errorf("hook fired for rejected input")
	}
}

func TestRecordTransactionStoresShares(t *testing.T) {
	ctx, f := setup(t)
	txID := f.record(ctx, t, 500, false, nil, f.a, f.b, f.c)

	tx, err := f.l.GetTransaction(ctx, txID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tx.Shares) != 3 {
		t.Fatalf("got %d shares, want 3", len(tx.Shares))
	}
	for _, s := range tx.Shares {
		if s.Weight != 1 {
			t.Errorf("default weight: got %v", s.Weight)
		}
	}
	if tx.Currency != f.group.Currency {
		t.Errorf("currency: got %q, want group currency %q", tx.Currency, f.group.Currency)
	}
	if len(f.rec.recorded) != 1 || f.rec.recorded[0].ID != txID {
		t.Errorf("recorded hook: %+v", f.rec.recorded)
	}

	ops, err := f.l.ListOperations(ctx, f.group.ID, history.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 1 || len(ops[0].Participants) != 3 {
		t.Fatalf("operations: %+v", ops)
	}
}

func TestZeroAmountIsAccepted(t *testing.T) {
	ctx, f := setup(t)
	f.record(ctx, t, 0, false, nil, f.a, f.b)

	b, err := f.l.GetBalance(ctx, f.group.ID, f.a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if b.Balance != 0 {
		t.Errorf("balance: got %d", b.Balance)
	}
}

func TestMinimizeTransfersSingleMember(t *testing.T) {
	ctx := context.Background()
	l := splitledger.New(memory.New(), splitledger.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	p, _ := l.GetOrCreateParticipant(ctx, 1, participant.Profile{})
	g, err := l.CreateGroup(ctx, "solo", p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.RecordTransaction(ctx, splitledger.RecordInput{
		GroupID: g.ID, Name: "coffee", Amount: 250, ParticipantIDs: []id.ParticipantID{p.ID},
	}); err != nil {
		t.Fatal(err)
	}

	plan, err := l.MinimizeTransfers(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Transfers) != 0 || len(plan.Residuals) != 0 {
		t.Errorf("expected empty plan, got %+v", plan)
	}
}

func TestMinimizeTransfersResidual(t *testing.T) {
	tests := []struct {
		name    string
		policy  settlement.ResidualPolicy
		wantErr bool
	}{
		{"report", settlement.ResidualReport, false},
		{"reject", settlement.ResidualReject, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, f := setup(t, splitledger.WithResidualPolicy(tt.policy))
			// A is credited 100; the 100 expense truncates to 33 each.
			f.record(ctx, t, 100, true, nil, f.a)
			f.record(ctx, t, 100, false, nil, f.a, f.b, f.c)

			plan, err := f.l.MinimizeTransfers(ctx, f.group.ID)
			if f.rec.residuals != 1 {
				t.Errorf("residual hook: got %d calls", f.rec.residuals)
			}
			if tt.wantErr {
				if !errors.Is(err, splitledger.ErrUnbalanced) {
					t.Fatalf("expected ErrUnbalanced, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if plan.Imbalance != 1 {
				t.Errorf("imbalance: got %d, want 1", plan.Imbalance)
			}
			if len(plan.Residuals) != 1 || plan.Residuals[0].ParticipantID != f.a.ID || plan.Residuals[0].Amount != 1 {
				t.Errorf("residuals: %+v", plan.Residuals)
			}
			if plan.Total() != 66 {
				t.Errorf("transferred: got %d, want 66", plan.Total())
			}
		})
	}
}

func TestLargestRemainderKeepsGroupBalanced(t *testing.T) {
	ctx, f := setup(t, splitledger.WithRounding(balance.LargestRemainder), splitledger.WithResidualPolicy(settlement.ResidualReject))
	f.record(ctx, t, 100, true, nil, f.a)
	f.record(ctx, t, 100, false, nil, f.a, f.b, f.c)
	f.record(ctx, t, 1001, false, []float64{0.5, 1.25, 3}, f.a, f.b, f.c)
	f.record(ctx, t, 1001, true, []float64{1, 1}, f.b, f.c)

	plan, err := f.l.MinimizeTransfers(ctx, f.group.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !plan.Balanced() || plan.Imbalance != 0 {
		t.Errorf("expected balanced plan, got %+v", plan)
	}
	if len(plan.Transfers) > 2 {
		t.Errorf("got %d transfers for 3 members", len(plan.Transfers))
	}
}

func TestListOperations(t *testing.T) {
	ctx, f := setup(t)
	first := f.record(ctx, t, 100, false, nil, f.a, f.b)
	second := f.record(ctx, t, 50, true, nil, f.c)

	ops, err := f.l.ListOperations(ctx, f.group.ID, history.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 2 {
		t.Fatalf("got %d operations", len(ops))
	}
	seen := map[id.ID]history.Operation{}
	for _, op := range ops {
		seen[op.TransactionID] = op
		if op.CreatorName != "Anna" {
			t.Errorf("creator name: got %q", op.CreatorName)
		}
	}
	if got := seen[first].Participants; len(got) != 2 || got[1].Name != "Boris" {
		t.Errorf("first operation participants: %+v", got)
	}
	if !seen[second].IsIncome {
		t.Error("second operation should be an income")
	}
	if ops[0].CreatedAt.Before(ops[1].CreatedAt) {
		t.Error("operations not newest first")
	}

	incomes, err := f.l.ListOperations(ctx, f.group.ID, history.ListOpts{Kind: transaction.KindIncome})
	if err != nil {
		t.Fatal(err)
	}
	if len(incomes) != 1 || incomes[0].TransactionID != second {
		t.Errorf("income filter: %+v", incomes)
	}

	if _, err := f.l.ListOperations(ctx, id.NewGroupID(), history.ListOpts{}); !splitledger.IsNotFound(err) {
		t.Errorf("unknown group: got %v", err)
	}
}

func TestGroupLifecycle(t *testing.T) {
	ctx, f := setup(t)

	if len(f.group.InviteCode) != group.DefaultInviteCodeLength {
		t.Errorf("invite code %q", f.group.InviteCode)
	}
	if f.rec.groups != 1 || f.rec.joined != 3 || f.rec.registered != 3 {
		t.Errorf("hooks: groups=%d joined=%d registered=%d", f.rec.groups, f.rec.joined, f.rec.registered)
	}

	d, _ := f.l.GetOrCreateParticipant(ctx, 200, participant.Profile{Username: "dan"})
	g, err := f.l.JoinGroupByInviteCode(ctx, " "+strings.ToLower(f.group.InviteCode)+" ", d.ID)
	if err != nil {
		t.Fatalf("join by code: %v", err)
	}
	if g.ID != f.group.ID {
		t.Errorf("joined %s, want %s", g.ID, f.group.ID)
	}
	if err := f.l.JoinGroup(ctx, f.group.ID, d.ID); !errors.Is(err, splitledger.ErrAlreadyMember) {
		t.Errorf("second join: got %v", err)
	}
	if _, err := f.l.JoinGroupByInviteCode(ctx, "ZZZZZZZZ", d.ID); !splitledger.IsNotFound(err) {
		t.Errorf("bad code: got %v", err)
	}

	groups, err := f.l.ListGroups(ctx, d.ID)
	if err != nil || len(groups) != 1 {
		t.Fatalf("list groups: %v %v", groups, err)
	}

	// Outstanding balance blocks leaving.
	f.record(ctx, t, 100, false, nil, f.a, d)
	if err := f.l.LeaveGroup(ctx, f.group.ID, d.ID); !errors.Is(err, splitledger.ErrOutstandingBalance) {
		t.Fatalf("leave with balance: got %v", err)
	}
	f.record(ctx, t, 50, true, nil, d)
	if err := f.l.LeaveGroup(ctx, f.group.ID, d.ID); err != nil {
		t.Fatalf("leave when settled: %v", err)
	}
	if err := f.l.LeaveGroup(ctx, f.group.ID, d.ID); !errors.Is(err, splitledger.ErrNotMember) {
		t.Errorf("second leave: got %v", err)
	}
	if f.rec.left != 1 {
		t.Errorf("left hook: got %d", f.rec.left)
	}

	members, err := f.l.ListMembers(ctx, f.group.ID)
	if err != nil || len(members) != 3 {
		t.Fatalf("members: %d %v", len(members), err)
	}
}

func TestReadyToClose(t *testing.T) {
	ctx, f := setup(t)

	ready, err := f.l.ReadyToClose(ctx, f.group.ID)
	if err != nil || ready {
		t.Fatalf("fresh group ready=%v err=%v", ready, err)
	}
	for _, p := range []*participant.Participant{f.a, f.b, f.c} {
		if err := f.l.SetAgreeToClose(ctx, f.group.ID, p.ID, true); err != nil {
			t.Fatal(err)
		}
	}
	if ready, _ := f.l.ReadyToClose(ctx, f.group.ID); !ready {
		t.Error("expected group to be ready after everyone agreed")
	}
	_ = f.l.SetAgreeToClose(ctx, f.group.ID, f.b.ID, false)
	if ready, _ := f.l.ReadyToClose(ctx, f.group.ID); ready {
		t.Error("expected group not ready after a member withdrew")
	}
}

func TestGetOrCreateParticipantKeepsProfile(t *testing.T) {
	ctx, f := setup(t)

	again, err := f.l.GetOrCreateParticipant(ctx, 100, participant.Profile{FirstName: "Someone else"})
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != f.a.ID || again.FirstName != "Anna" {
		t.Errorf("got %+v", again)
	}
	if f.rec.registered != 3 {
		t.Errorf("registered hook fired again: %d", f.rec.registered)
	}
}

func TestParticipantsWithoutExternalID(t *testing.T) {
	ctx, f := setup(t)

	for _, name := range []string{"Dana", "Egor"} {
		p := &participant.Participant{FirstName: name}
		if err := f.l.RegisterParticipant(ctx, p); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
		if p.ID.IsNil() {
			t.Errorf("%s: id not filled in", name)
		}
	}

	if _, err := f.l.GetOrCreateParticipant(ctx, 0, participant.Profile{FirstName: "Zero"}); !errors.Is(err, splitledger.ErrInvalidInput) {
		t.Errorf("zero external id: got %v", err)
	}
}

func TestGroupSummary(t *testing.T) {
	ctx, f := setup(t)
	f.record(ctx, t, 300, false, nil, f.a, f.b, f.c)
	f.record(ctx, t, 120, true, nil, f.a)

	s, err := f.l.GroupSummary(ctx, f.group.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := balance.Summary{TotalExpenses: 300, TotalIncome: 120, Net: -180, TransactionCount: 2}
	if *s != want {
		t.Errorf("got %+v, want %+v", *s, want)
	}
}
