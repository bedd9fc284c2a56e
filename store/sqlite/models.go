package sqlite

import (
	"encoding/json"
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

	ID          string    `grove:"id,pk"`
	ExternalID  int64     `grove:"external_id"`
	Username    string    `grove:"username"`
	FirstName   string    `grove:"first_name"`
	LastName    string    `grove:"last_name"`
	PaymentLink string    `grove:"payment_link"`
	Timezone    string    `grove:"timezone"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
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

	ID         string    `grove:"id,pk"`
	Name       string    `grove:"name"`
	InviteCode string    `grove:"invite_code"`
	Currency   string    `grove:"currency"`
	CreatedAt  time.Time `grove:"created_at"`
	UpdatedAt  time.Time `grove:"updated_at"`
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

type membershipModel struct {
	grove.BaseModel `grove:"table:splitledger_memberships"`

	GroupID       string    `grove:"group_id,pk"`
	ParticipantID string    `grove:"participant_id,pk"`
	AgreeToClose  bool      `grove:"agree_to_close"`
	JoinedAt      time.Time `grove:"joined_at"`
}

func toMembershipModel(m *group.Membership) *membershipModel {
	return &membershipModel{
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

// transactionModel keeps the shares as a JSON text column so a transaction and
// its shares are written by one INSERT.
type transactionModel struct {
	grove.BaseModel `grove:"table:splitledger_transactions"`

	ID        string    `grove:"id,pk"`
	GroupID   string    `grove:"group_id"`
	Name      string    `grove:"name"`
	Amount    int64     `grove:"amount"`
	Currency  string    `grove:"currency"`
	IsIncome  bool      `grove:"is_income"`
	CreatorID string    `grove:"creator_id"`
	Shares    string    `grove:"shares"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

type shareModel struct {
	ParticipantID string  `json:"participant_id"`
	Weight        float64 `json:"weight"`
}

func toTransactionModel(t *transaction.Transaction) (*transactionModel, error) {
	shares := make([]shareModel, len(t.Shares))
	for i, s := range t.Shares {
		shares[i] = shareModel{ParticipantID: s.ParticipantID.String(), Weight: s.Weight}
	}
	raw, err := json.Marshal(shares)
	if err != nil {
		return nil, err
	}

	return &transactionModel{
		ID:        t.ID.String(),
		GroupID:   t.GroupID.String(),
		Name:      t.Name,
		Amount:    t.Amount,
		Currency:  t.Currency,
		IsIncome:  t.IsIncome,
		CreatorID: t.CreatorID.String(),
		Shares:    string(raw),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}, nil
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

	var raw []shareModel
	if m.Shares != "" {
		if err := json.Unmarshal([]byte(m.Shares), &raw); err != nil {
			return nil, err
		}
	}
	shares := make([]transaction.Share, len(raw))
	for i, s := range raw {
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
