package group

import (
	"context"

	"github.com/xraph/splitledger/id"
)

type Store interface {
	Create(ctx context.Context, g *Group) error
	Get(ctx context.Context, groupID id.GroupID) (*Group, error)
	GetByInviteCode(ctx context.Context, code string) (*Group, error)
	ListForParticipant(ctx context.Context, participantID id.ParticipantID) ([]*Group, error)
}

// MembershipStore manages group membership. AddMember must fail with an
// already-member error rather than overwrite an existing row.
type MembershipStore interface {
	AddMember(ctx context.Context, m *Membership) error
	RemoveMember(ctx context.Context, groupID id.GroupID, participantID id.ParticipantID) error
	GetMembership(ctx context.Context, groupID id.GroupID, participantID id.ParticipantID) (*Membership, error)
	ListMembers(ctx context.Context, groupID id.GroupID) ([]*Membership, error)
	UpdateMembership(ctx context.Context, m *Membership) error
}
