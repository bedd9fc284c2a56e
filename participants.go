package splitledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/participant"
	"github.com/xraph/splitledger/types"
)

// RegisterParticipant stores a new participant. A nil ID is filled in.
func (l *Ledger) RegisterParticipant(ctx context.Context, p *participant.Participant) error {
	if p.ID.IsNil() {
		p.ID = id.NewParticipantID()
	}
	p.Entity = types.NewEntity()

	if err := l.store.CreateParticipant(ctx, p); err != nil {
		return fmt.Errorf("register participant: %w", err)
	}

	l.logger.Debug("participant registered",
		"participant_id", p.ID.String(),
		"external_id", p.ExternalID,
	)
	l.plugins.EmitParticipantRegistered(ctx, p)
	return nil
}

// GetParticipant retrieves a participant by ID.
func (l *Ledger) GetParticipant(ctx context.Context, participantID id.ParticipantID) (*participant.Participant, error) {
	return l.store.GetParticipant(ctx, participantID)
}

// GetOrCreateParticipant returns the participant known by externalID,
// registering one with the given profile the first time it is seen. The
// profile of an existing participant is left untouched. Zero is not a valid
// external ID; register such participants with RegisterParticipant.
func (l *Ledger) GetOrCreateParticipant(ctx context.Context, externalID int64, profile participant.Profile) (*participant.Participant, error) {
	if externalID == 0 {
		return nil, invalid("external_id", "must not be zero")
	}
	p, err := l.store.GetParticipantByExternalID(ctx, externalID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrParticipantNotFound) {
		return nil, err
	}

	p = &participant.Participant{
		ExternalID: externalID,
		Username:   profile.Username,
		FirstName:  profile.FirstName,
		LastName:   profile.LastName,
	}
	if err := l.RegisterParticipant(ctx, p); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, ErrAlreadyExists) {
			return l.store.GetParticipantByExternalID(ctx, externalID)
		}
		return nil, err
	}
	return p, nil
}

// UpdateParticipantProfile changes the optional profile fields of a
// participant.
func (l *Ledger) UpdateParticipantProfile(ctx context.Context, participantID id.ParticipantID, paymentLink, timezone string) (*participant.Participant, error) {
	p, err := l.store.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	p.PaymentLink = paymentLink
	p.Timezone = timezone
	p.Touch()

	if err := l.store.UpdateParticipant(ctx, p); err != nil {
		return nil, fmt.Errorf("update participant: %w", err)
	}
	return p, nil
}
