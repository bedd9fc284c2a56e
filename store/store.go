package store

import (
	"context"

	"github.com/xraph/splitledger/group"
	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/participant"
	"github.com/xraph/splitledger/transaction"
)

// Store is the unified storage interface for all splitledger entities.
// Methods are declared explicitly rather than by embedding the per-package
// interfaces, whose short names (Create, Get) would collide.
type Store interface {
	// Participant methods
	CreateParticipant(ctx context.Context, p *participant.Participant) error
	GetParticipant(ctx context.Context, participantID id.ParticipantID) (*participant.Participant, error)
	GetParticipantByExternalID(ctx context.Context, externalID int64) (*participant.Participant, error)
	UpdateParticipant(ctx context.Context, p *participant.Participant) error

	// Group methods
	CreateGroup(ctx context.Context, g *group.Group) error
	GetGroup(ctx context.Context, groupID id.GroupID) (*group.Group, error)
	GetGroupByInviteCode(ctx context.Context, code string) (*group.Group, error)
	ListGroupsForParticipant(ctx context.Context, participantID id.ParticipantID) ([]*group.Group, error)

	// Membership methods
	AddMember(ctx context.Context, m *group.Membership) error
	RemoveMember(ctx context.Context, groupID id.GroupID, participantID id.ParticipantID) error
	GetMembership(ctx context.Context, groupID id.GroupID, participantID id.ParticipantID) (*group.Membership, error)
	ListMembers(ctx context.Context, groupID id.GroupID) ([]*group.Membership, error)
	UpdateMembership(ctx context.Context, m *group.Membership) error

	// Transaction methods. CreateTransaction stores the transaction and its
	// shares in a single write.
	CreateTransaction(ctx context.Context, t *transaction.Transaction) error
	GetTransaction(ctx context.Context, txID id.TransactionID) (*transaction.Transaction, error)
	ListTransactions(ctx context.Context, groupID id.GroupID, opts transaction.ListOpts) ([]*transaction.Transaction, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
