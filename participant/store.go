package participant

import (
	"context"

	"github.com/xraph/splitledger/id"
)

type Store interface {
	Create(ctx context.Context, p *Participant) error
	Get(ctx context.Context, participantID id.ParticipantID) (*Participant, error)
	GetByExternalID(ctx context.Context, externalID int64) (*Participant, error)
	Update(ctx context.Context, p *Participant) error
}
