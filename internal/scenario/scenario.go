// Package scenario loads YAML descriptions of groups and their transactions
// and replays them through a Ledger.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/xraph/splitledger"
	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/participant"
)

// Scenario is the top-level YAML document.
type Scenario struct {
	Participants []Participant `yaml:"participants"`
	Groups       []Group       `yaml:"groups"`
}

// Participant declares a person. Key is how the rest of the file refers to
// them. ExternalID is optional.
type Participant struct {
	Key         string `yaml:"key"`
	ExternalID  int64  `yaml:"external_id"`
	Username    string `yaml:"username"`
	FirstName   string `yaml:"first_name"`
	LastName    string `yaml:"last_name"`
	PaymentLink string `yaml:"payment_link"`
}

// Group declares a group, its members and its transactions in the order they
// are recorded. The creator joins automatically.
type Group struct {
	Key          string        `yaml:"key"`
	Name         string        `yaml:"name"`
	Creator      string        `yaml:"creator"`
	Members      []string      `yaml:"members"`
	Transactions []Transaction `yaml:"transactions"`
}

// Transaction declares one expense or income entry.
type Transaction struct {
	Name         string    `yaml:"name"`
	Amount       int64     `yaml:"amount"`
	Income       bool      `yaml:"income"`
	Creator      string    `yaml:"creator"`
	Participants []string  `yaml:"participants"`
	Weights      []float64 `yaml:"weights"`
}

// Parse decodes a scenario and checks its references. Unknown YAML fields are
// rejected.
func Parse(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("scenario: empty document")
		}
		return nil, fmt.Errorf("scenario: decode: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate reports every broken reference at once.
func (sc *Scenario) Validate() error {
	var errs splitledger.MultiError

	people := make(map[string]bool, len(sc.Participants))
	externalIDs := make(map[int64]string, len(sc.Participants))
	for i, p := range sc.Participants {
		switch {
		case p.Key == "":
			errs.Add(fmt.Errorf("scenario: participants[%d]: key is required", i))
			continue
		case people[p.Key]:
			errs.Add(fmt.Errorf("scenario: participant %q declared twice", p.Key))
		}
		people[p.Key] = true

		if p.ExternalID == 0 {
			continue
		}
		if other, ok := externalIDs[p.ExternalID]; ok {
			errs.Add(fmt.Errorf("scenario: participants %q and %q share external_id %d", other, p.Key, p.ExternalID))
		}
		externalIDs[p.ExternalID] = p.Key
	}

	ref := func(where, key string) {
		if !people[key] {
			errs.Add(fmt.Errorf("scenario: %s: unknown participant %q", where, key))
		}
	}

	groups := make(map[string]bool, len(sc.Groups))
	for i, g := range sc.Groups {
		where := fmt.Sprintf("groups[%d]", i)
		if g.Key == "" {
			errs.Add(fmt.Errorf("scenario: %s: key is required", where))
		} else if groups[g.Key] {
			errs.Add(fmt.Errorf("scenario: group %q declared twice", g.Key))
		}
		groups[g.Key] = true

		ref(where+".creator", g.Creator)
		for _, m := range g.Members {
			ref(where+".members", m)
		}
		for j, t := range g.Transactions {
			twhere := fmt.Sprintf("%s.transactions[%d]", where, j)
			if t.Creator != "" {
				ref(twhere+".creator", t.Creator)
			}
			for _, p := range t.Participants {
				ref(twhere+".participants", p)
			}
		}
	}

	return errs.Err()
}

// Result maps scenario keys to the IDs the engine assigned.
type Result struct {
	Participants map[string]id.ParticipantID
	Groups       []ReplayedGroup
}

// ReplayedGroup is a group created during Replay.
type ReplayedGroup struct {
	Key          string
	ID           id.GroupID
	Name         string
	InviteCode   string
	Transactions []id.TransactionID
}

// Replay registers participants, creates groups and records transactions in
// file order. It stops at the first engine error.
func Replay(ctx context.Context, l *splitledger.Ledger, sc *Scenario) (*Result, error) {
	res := &Result{Participants: make(map[string]id.ParticipantID, len(sc.Participants))}

	for _, sp := range sc.Participants {
		pid, err := replayParticipant(ctx, l, sp)
		if err != nil {
			return nil, fmt.Errorf("scenario: participant %q: %w", sp.Key, err)
		}
		res.Participants[sp.Key] = pid
	}

	for _, sg := range sc.Groups {
		g, err := l.CreateGroup(ctx, sg.Name, res.Participants[sg.Creator])
		if err != nil {
			return nil, fmt.Errorf("scenario: group %q: %w", sg.Key, err)
		}

		rg := ReplayedGroup{Key: sg.Key, ID: g.ID, Name: g.Name, InviteCode: g.InviteCode}

		for _, m := range sg.Members {
			err := l.JoinGroup(ctx, g.ID, res.Participants[m])
			if err != nil && !errors.Is(err, splitledger.ErrAlreadyMember) {
				return nil, fmt.Errorf("scenario: group %q: join %q: %w", sg.Key, m, err)
			}
		}

		for i, st := range sg.Transactions {
			in := splitledger.RecordInput{
				GroupID:  g.ID,
				Name:     st.Name,
				Amount:   st.Amount,
				IsIncome: st.Income,
				Weights:  st.Weights,
			}
			if st.Creator != "" {
				in.CreatorID = res.Participants[st.Creator]
			}
			for _, p := range st.Participants {
				in.ParticipantIDs = append(in.ParticipantIDs, res.Participants[p])
			}

			txID, err := l.RecordTransaction(ctx, in)
			if err != nil {
				return nil, fmt.Errorf("scenario: group %q: transaction %d (%s): %w", sg.Key, i, st.Name, err)
			}
			rg.Transactions = append(rg.Transactions, txID)
		}

		res.Groups = append(res.Groups, rg)
	}

	return res, nil
}

// replayParticipant registers sp. Participants without an external ID are
// always new; the others are looked up first.
func replayParticipant(ctx context.Context, l *splitledger.Ledger, sp Participant) (id.ParticipantID, error) {
	if sp.ExternalID == 0 {
		p := &participant.Participant{
			Username:    sp.Username,
			FirstName:   sp.FirstName,
			LastName:    sp.LastName,
			PaymentLink: sp.PaymentLink,
		}
		if err := l.RegisterParticipant(ctx, p); err != nil {
			return id.ParticipantID{}, err
		}
		return p.ID, nil
	}

	p, err := l.GetOrCreateParticipant(ctx, sp.ExternalID, participant.Profile{
		Username:  sp.Username,
		FirstName: sp.FirstName,
		LastName:  sp.LastName,
	})
	if err != nil {
		return id.ParticipantID{}, err
	}
	if sp.PaymentLink != "" {
		if _, err := l.UpdateParticipantProfile(ctx, p.ID, sp.PaymentLink, p.Timezone); err != nil {
			return id.ParticipantID{}, err
		}
	}
	return p.ID, nil
}
