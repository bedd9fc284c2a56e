package splitledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/splitledger/group"
	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/types"
)

// CreateGroup creates a group with a fresh invite code and makes the creator
// its first member.
func (l *Ledger) CreateGroup(ctx context.Context, name string, creatorID id.ParticipantID) (*group.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "must not be empty")
	}
	if _, err := l.store.GetParticipant(ctx, creatorID); err != nil {
		return nil, err
	}

	g := &group.Group{
		Entity:   types.NewEntity(),
		ID:       id.NewGroupID(),
		Name:     name,
		Currency: l.defaultCurrency,
	}
	if err := l.createWithInviteCode(ctx, g); err != nil {
		return nil, err
	}
	l.plugins.EmitGroupCreated(ctx, g)

	if err := l.addMember(ctx, g.ID, creatorID); err != nil {
		return nil, err
	}

	l.logger.Info("group created",
		"group_id", g.ID.String(),
		"creator_id", creatorID.String(),
	)
	return g, nil
}

// createWithInviteCode draws invite codes until one is free. A unique index
// on the code backs the lookup, so a lost race surfaces as ErrAlreadyExists
// and is retried the same way.
func (l *Ledger) createWithInviteCode(ctx context.Context, g *group.Group) error {
	for range l.inviteAttempts {
		code, err := group.NewInviteCode(l.inviteCodeLength)
		if err != nil {
			return err
		}

		_, err = l.store.GetGroupByInviteCode(ctx, code)
		switch {
		case err == nil:
			continue
		case !errors.Is(err, ErrGroupNotFound):
			return err
		}

		g.InviteCode = code
		err = l.store.CreateGroup(ctx, g)
		if errors.Is(err, ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return fmt.Errorf("create group: %w", err)
		}
		return nil
	}
	return ErrInviteCodeExhausted
}

// GetGroup retrieves a group by ID.
func (l *Ledger) GetGroup(ctx context.Context, groupID id.GroupID) (*group.Group, error) {
	return l.store.GetGroup(ctx, groupID)
}

// GetGroupByInviteCode retrieves a group by invite code. The code is matched
// case-insensitively.
func (l *Ledger) GetGroupByInviteCode(ctx context.Context, code string) (*group.Group, error) {
	return l.store.GetGroupByInviteCode(ctx, group.NormalizeInviteCode(code))
}

// JoinGroup adds a participant to a group.
func (l *Ledger) JoinGroup(ctx context.Context, groupID id.GroupID, participantID id.ParticipantID) error {
	if _, err := l.store.GetGroup(ctx, groupID); err != nil {
		return err
	}
	if _, err := l.store.GetParticipant(ctx, participantID); err != nil {
		return err
	}
	return l.addMember(ctx, groupID, participantID)
}

// JoinGroupByInviteCode adds a participant to the group the code belongs to.
func (l *Ledger) JoinGroupByInviteCode(ctx context.Context, code string, participantID id.ParticipantID) (*group.Group, error) {
	g, err := l.GetGroupByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := l.JoinGroup(ctx, g.ID, participantID); err != nil {
		return nil, err
	}
	return g, nil
}

func (l *Ledger) addMember(ctx context.Context, groupID id.GroupID, participantID id.ParticipantID) error {
	m := &group.Membership{
		GroupID:       groupID,
		ParticipantID: participantID,
		JoinedAt:      time.Now().UTC(),
	}
	if err := l.store.AddMember(ctx, m); err != nil {
		return err
	}

	l.plugins.EmitMemberJoined(ctx, groupID, participantID)
	return nil
}

// LeaveGroup removes a participant from a group. It is refused while the
// participant still owes or is owed money there, since their shares would
// otherwise drop out of the group's settlement.
func (l *Ledger) LeaveGroup(ctx context.Context, groupID id.GroupID, participantID id.ParticipantID) error {
	if _, err := l.store.GetMembership(ctx, groupID, participantID); err != nil {
		return err
	}

	b, err := l.GetBalance(ctx, groupID, participantID)
	if err != nil {
		return err
	}
	if !b.Settled() {
		return fmt.Errorf("%w: %d", ErrOutstandingBalance, b.Balance)
	}

	if err := l.store.RemoveMember(ctx, groupID, participantID); err != nil {
		return err
	}

	l.logger.Info("member left group",
		"group_id", groupID.String(),
		"participant_id", participantID.String(),
	)
	l.plugins.EmitMemberLeft(ctx, groupID, participantID)
	return nil
}

// ListGroups returns the groups a participant belongs to.
func (l *Ledger) ListGroups(ctx context.Context, participantID id.ParticipantID) ([]*group.Group, error) {
	return l.store.ListGroupsForParticipant(ctx, participantID)
}

// ListMembers returns a group's memberships.
func (l *Ledger) ListMembers(ctx context.Context, groupID id.GroupID) ([]*group.Membership, error) {
	if _, err := l.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return l.store.ListMembers(ctx, groupID)
}

// SetAgreeToClose records whether a member agrees to close the group.
func (l *Ledger) SetAgreeToClose(ctx context.Context, groupID id.GroupID, participantID id.ParticipantID, agree bool) error {
	m, err := l.store.GetMembership(ctx, groupID, participantID)
	if err != nil {
		return err
	}
	m.AgreeToClose = agree
	return l.store.UpdateMembership(ctx, m)
}

// ReadyToClose reports whether every member of the group agreed to close it.
// A group with no members is never ready.
func (l *Ledger) ReadyToClose(ctx context.Context, groupID id.GroupID) (bool, error) {
	members, err := l.ListMembers(ctx, groupID)
	if err != nil {
		return false, err
	}
	if len(members) == 0 {
		return false, nil
	}
	for _, m := range members {
		if !m.AgreeToClose {
			return false, nil
		}
	}
	return true, nil
}

// memberIDs returns the IDs of a group's current members.
func (l *Ledger) memberIDs(ctx context.Context, groupID id.GroupID) ([]id.ParticipantID, error) {
	members, err := l.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	ids := make([]id.ParticipantID, len(members))
	for i, m := range members {
		ids[i] = m.ParticipantID
	}
	return ids, nil
}
