package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/splitledger/group"
	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/participant"
	"github.com/xraph/splitledger/transaction"
	"github.com/xraph/splitledger/types"
)

// ==================== Participant models ====================

type participantModel struct {
	grove.BaseModel `grove:"table:splitledger_participants"`

	ID          string    `grove:"id,pk"        bson:"_id"`
	ExternalID  int64     `grove:"external_id"  bson:"external_id,omitempty"` // omitted when zero so the partial unique index skips it
	Username    string    `grove:"username"     bson:"username,omitempty"`
	FirstName   string    `grove:"first_name"   bson:"first_name,omitempty"`
	LastName    string    `grove:"last_name"    bson:"last_name,omitempty"`
	PaymentLink string    `grove:"payment_link" bson:"payment_link,omitempty"`
	Timezone    string    `grove:"timezone"     bson:"timezone,omitempty"`
	CreatedAt   time.Time `grove:"created_at"   bson:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"   bson:"updated_at"`
}

func toParticipantModel(p *participant.Participant) *participantModel {
	return &participantModel{
		ID:          p.ID.String(),
		ExternalID:  p.ExternalID,
		Username:    p.Username,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		PaymentLink: p.PaymentLink,
		Timezone:    p.Timezone,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromParticipantModel(m *participantModel) (*participant.Participant, error) {
	pid, err := id.ParseParticipantID(m.ID)
	if err != nil {
		return nil, err
	}
	return &participant.Participant{
		Entity:      types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:          pid,
		ExternalID:  m.ExternalID,
		Username:    m.Username,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		PaymentLink: m.PaymentLink,
		Timezone:    m.Timezone,
	}, nil
}

// ==================== Group models ====================

type groupModel struct {
	grove.BaseModel `grove:"table:splitledger_groups"`

	ID         string    `grove:"id,pk"       bson:"_id"`
	Name       string    `grove:"name"        bson:"name"`
	InviteCode string    `grove:"invite_code" bson:"invite_code"`
	Currency   string    `grove:"currency"    bson:"currency"`
	CreatedAt  time.Time `grove:"created_at"  bson:"created_at"`
	UpdatedAt  time.Time `grove:"updated_at"  bson:"updated_at"`
}

func toGroupModel(g *group.Group) *groupModel {
	return &groupModel{
		ID:         g.ID.String(),
		Name:       g.Name,
		InviteCode: g.InviteCode,
		Currency:   g.Currency,
		CreatedAt:  g.CreatedAt,
		UpdatedAt:  g.UpdatedAt,
	}
}

func fromGroupModel(m *groupModel) (*group.Group, error) {
	gid, err := id.ParseGroupID(m.ID)
	if err != nil {
		return nil, err
	}
	return &group.Group{
		Entity:     types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:         gid,
		Name:       m.Name,
		InviteCode: m.InviteCode,
		Currency:   m.Currency,
	}, nil
}

// membershipModel uses "<group>:<participant>" as its _id so the primary
// key index rejects a second join.
type membershipModel struct {
	grove.BaseModel `grove:"table:splitledger_memberships"`

	ID            string    `grove:"id,pk"          bson:"_id"`
	GroupID       string    `grove:"group_id"       bson:"group_id"`
	ParticipantID string    `grove:"participant_id" bson:"participant_id"`
	AgreeToClose  bool      `grove:"agree_to_close" bson:"agree_to_close"`
	JoinedAt      time.Time `grove:"joined_at"      bson:"joined_at"`
}

func membershipKey(groupID id.GroupID, participantID id.ParticipantID) string {
	return groupID.String() + ":" + participantID.String()
}

func toMembershipModel(m *group.Membership) *membershipModel {
	return &membershipModel{
		ID:            membershipKey(m.GroupID, m.ParticipantID),
		GroupID:       m.GroupID.String(),
		ParticipantID: m.ParticipantID.String(),
		AgreeToClose:  m.AgreeToClose,
		JoinedAt:      m.JoinedAt,
	}
}

func fromMembershipModel(m *membershipModel) (*group.Membership, error) {
	gid, err := id.ParseGroupID(m.GroupID)
	if err != nil {
		return nil, err
	}
	pid, err := id.ParseParticipantID(m.ParticipantID)
	if err != nil {
		return nil, err
	}
	return &group.Membership{
		GroupID:       gid,
		ParticipantID: pid,
		AgreeToClose:  m.AgreeToClose,
		JoinedAt:      m.JoinedAt,
	}, nil
}

// ==================== Transaction models ====================

// transactionModel embeds the shares so one document write stores both.
type transactionModel struct {
	grove.BaseModel `grove:"table:splitledger_transactions"`

	ID        string       `grove:"id,pk"      bson:"_id"`
	GroupID   string       `grove:"group_id"   bson:"group_id"`
	Name      string       `grove:"name"       bson:"name"`
	Amount    int64        `grove:"amount"     bson:"amount"`
	Currency  string       `grove:"currency"   bson:"currency"`
	IsIncome  bool         `grove:"is_income"  bson:"is_income"`
	CreatorID string       `grove:"creator_id" bson:"creator_id,omitempty"`
	Shares    []shareModel `grove:"shares"     bson:"shares"`
	CreatedAt time.Time    `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time    `grove:"updated_at" bson:"updated_at"`
}

type shareModel struct {
	ParticipantID string  `bson:"participant_id"`
	Weight        float64 `bson:"weight"`
}

func toTransactionModel(t *transaction.Transaction) *transactionModel {
	shares := make([]shareModel, len(t.Shares))
	for i, s := range t.Shares {
		shares[i] = shareModel{ParticipantID: s.ParticipantID.String(), Weight: s.Weight}
	}
	return &transactionModel{
		ID:        t.ID.String(),
		GroupID:   t.GroupID.String(),
		Name:      t.Name,
		Amount:    t.Amount,
		Currency:  t.Currency,
		IsIncome:  t.IsIncome,
		CreatorID: t.CreatorID.String(),
		Shares:    shares,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func fromTransactionModel(m *transactionModel) (*transaction.Transaction, error) {
	txID, err := id.ParseTransactionID(m.ID)
	if err != nil {
		return nil, err
	}
	gid, err := id.ParseGroupID(m.GroupID)
	if err != nil {
		return nil, err
	}
	var creator id.ParticipantID
	if m.CreatorID != "" {
		if creator, err = id.ParseParticipantID(m.CreatorID); err != nil {
			return nil, err
		}
	}

	shares := make([]transaction.Share, len(m.Shares))
	for i, s := range m.Shares {
		pid, err := id.ParseParticipantID(s.ParticipantID)
		if err != nil {
			return nil, err
		}
		shares[i] = transaction.Share{ParticipantID: pid, Weight: s.Weight}
	}

	return &transaction.Transaction{
		Entity:    types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:        txID,
		GroupID:   gid,
		Name:      m.Name,
		Amount:    m.Amount,
		Currency:  m.Currency,
		IsIncome:  m.IsIncome,
		CreatorID: creator,
		Shares:    shares,
	}, nil
}
