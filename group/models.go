// Package group defines expense-sharing groups and their memberships.
package group

import (
	"time"

	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/types"
)

// Group is a set of participants sharing expenses. Chat front-ends call it a
// "table".
type Group struct {
	types.Entity
	ID         id.GroupID `json:"id"`
	Name       string     `json:"name"`
	InviteCode string     `json:"invite_code"`
	Currency   string     `json:"currency"`
}

// Membership links a participant to a group. Only members' shares count
// toward the group's balances.
type Membership struct {
	GroupID       id.GroupID       `json:"group_id"`
	ParticipantID id.ParticipantID `json:"participant_id"`
	AgreeToClose  bool             `json:"agree_to_close"`
	JoinedAt      time.Time        `json:"joined_at"`
}
