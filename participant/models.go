// Package participant defines the people who share expenses.
package participant

import (
	"fmt"

	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/types"
)

// Participant is a person whose identity is stable across groups.
type Participant struct {
	types.Entity
	ID          id.ParticipantID `json:"id"`
	ExternalID  int64            `json:"external_id"` // chat platform user ID, zero when none
	Username    string           `json:"username,omitempty"`
	FirstName   string           `json:"first_name,omitempty"`
	LastName    string           `json:"last_name,omitempty"`
	PaymentLink string           `json:"payment_link,omitempty"`
	Timezone    string           `json:"timezone,omitempty"`
}

// DisplayName returns the name shown in operation history: first name,
// then username, then a placeholder built from the external ID, or from
// the ID when there is no external one.
func (p *Participant) DisplayName() string {
	switch {
	case p.FirstName != "":
		return p.FirstName
	case p.Username != "":
		return p.Username
	case p.ExternalID != 0:
		return fmt.Sprintf("User %d", p.ExternalID)
	default:
		return "User " + p.ID.String()
	}
}

// Profile holds the optional fields applied when a participant is first seen.
type Profile struct {
	Username  string
	FirstName string
	LastName  string
}
