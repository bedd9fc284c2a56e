// Package report renders a group's balances, settlement plan and history
// as plain text.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/xraph/splitledger"
	"github.com/xraph/splitledger/history"
	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/types"
)

// Options control what Write prints.
type Options struct {
	// Locale selects digit grouping and decimal separators. Empty means English.
	Locale string

	// HistoryLimit caps the number of operations printed. Zero prints all.
	HistoryLimit int
}

// Formatter renders minor-unit amounts for one locale.
type Formatter struct {
	p *message.Printer
}

// NewFormatter builds a Formatter for a BCP 47 locale tag.
func NewFormatter(locale string) (*Formatter, error) {
	tag := language.English
	if locale != "" {
		var err error
		if tag, err = language.Parse(locale); err != nil {
			return nil, fmt.Errorf("report: locale %q: %w", locale, err)
		}
	}
	return &Formatter{p: message.NewPrinter(tag)}, nil
}

// Amount renders amount minor units of currency, e.g. "₽1,234.50".
func (f *Formatter) Amount(amount int64, currency string) string {
	m := types.New(amount, currency)
	decimals := m.Decimals()

	divisor := 1.0
	for range decimals {
		divisor *= 10
	}
	major := float64(amount) / divisor

	sign := ""
	if major < 0 {
		sign = "-"
		major = -major
	}
	return sign + m.Symbol() + f.p.Sprint(number.Decimal(major, number.Scale(decimals)))
}

// Write prints the report for one group.
func Write(ctx context.Context, w io.Writer, l *splitledger.Ledger, groupID id.GroupID, opts Options) error {
	f, err := NewFormatter(opts.Locale)
	if err != nil {
		return err
	}

	g, err := l.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	names, err := memberNames(ctx, l, groupID)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s (invite %s)\n\n", g.Name, g.InviteCode)

	balances, err := l.GroupBalances(ctx, groupID)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Balances")
	fmt.Fprintln(tw, "  member\texpenses\tincome\tbalance")
	for _, b := range balances {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n",
			nameOf(names, b.ParticipantID),
			f.Amount(b.Expenses, g.Currency),
			f.Amount(b.Income, g.Currency),
			f.Amount(b.Balance, g.Currency),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	plan, err := l.MinimizeTransfers(ctx, groupID)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\nSettlement")
	if len(plan.Transfers) == 0 {
		fmt.Fprintln(w, "  nothing to settle")
	}
	for _, t := range plan.Transfers {
		fmt.Fprintf(w, "  %s -> %s  %s\n",
			nameOf(names, t.From), nameOf(names, t.To), f.Amount(t.Amount, g.Currency))
	}
	for _, r := range plan.Residuals {
		fmt.Fprintf(w, "  unmatched %s  %s\n", nameOf(names, r.ParticipantID), f.Amount(r.Amount, g.Currency))
	}

	ops, err := l.ListOperations(ctx, groupID, history.ListOpts{Limit: opts.HistoryLimit})
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\nHistory")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, op := range ops {
		kind := "expense"
		if op.IsIncome {
			kind = "income"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\n",
			op.CreatedAt.Format(time.DateTime),
			op.Name,
			kind,
			f.Amount(op.Amount, op.Currency),
			creator(op.CreatorName),
			shares(op.Participants),
		)
	}
	return tw.Flush()
}

func memberNames(ctx context.Context, l *splitledger.Ledger, groupID id.GroupID) (map[id.ParticipantID]string, error) {
	members, err := l.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	names := make(map[id.ParticipantID]string, len(members))
	for _, m := range members {
		p, err := l.GetParticipant(ctx, m.ParticipantID)
		if err != nil {
			return nil, err
		}
		names[m.ParticipantID] = p.DisplayName()
	}
	return names, nil
}

func nameOf(names map[id.ParticipantID]string, pid id.ParticipantID) string {
	if n, ok := names[pid]; ok {
		return n
	}
	return pid.String()
}

func creator(name string) string {
	if name == "" {
		return "-"
	}
	return "by " + name
}

func shares(ps []history.Participant) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		if p.Weight == 1 {
			parts[i] = p.Name
			continue
		}
		parts[i] = fmt.Sprintf("%s x%g", p.Name, p.Weight)
	}
	return strings.Join(parts, ", ")
}
