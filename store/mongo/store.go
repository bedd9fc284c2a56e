package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/splitledger"
	"github.com/xraph/splitledger/group"
	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/participant"
	ledgerstore "github.com/xraph/splitledger/store"
	"github.com/xraph/splitledger/transaction"
)

// Collection name constants.
const (
	colParticipants = "splitledger_participants"
	colGroups       = "splitledger_groups"
	colMemberships  = "splitledger_memberships"
	colTransactions = "splitledger_transactions"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all splitledger collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("splitledger/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Participant Store ====================

func (s *Store) CreateParticipant(ctx context.Context, p *participant.Participant) error {
	_, err := s.mdb.NewInsert(toParticipantModel(p)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return splitledger.ErrAlreadyExists
		}
		return fmt.Errorf("splitledger/mongo: create participant: %w", err)
	}
	return nil
}

func (s *Store) GetParticipant(ctx context.Context, participantID id.ParticipantID) (*participant.Participant, error) {
	var m participantModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": participantID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, splitledger.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("splitledger/mongo: get participant: %w", err)
	}
	return fromParticipantModel(&m)
}

func (s *Store) GetParticipantByExternalID(ctx context.Context, externalID int64) (*participant.Participant, error) {
	if externalID == 0 {
		return nil, splitledger.ErrParticipantNotFound
	}
	var m participantModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"external_id": externalID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, splitledger.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("splitledger/mongo: get participant by external id: %w", err)
	}
	return fromParticipantModel(&m)
}

func (s *Store) UpdateParticipant(ctx context.Context, p *participant.Participant) error {
	m := toParticipantModel(p)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("splitledger/mongo: update participant: %w", err)
	}
	if res.MatchedCount() == 0 {
		return splitledger.ErrParticipantNotFound
	}
	return nil
}

// ==================== Group Store ====================

func (s *Store) CreateGroup(ctx context.Context, g *group.Group) error {
	_, err := s.mdb.NewInsert(toGroupModel(g)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return splitledger.ErrAlreadyExists
		}
		return fmt.Errorf("splitledger/mongo: create group: %w", err)
	}
	return nil
}

func (s *Store) GetGroup(ctx context.Context, groupID id.GroupID) (*group.Group, error) {
	var m groupModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": groupID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, splitledger.ErrGroupNotFound
		}
		return nil, fmt.Errorf("splitledger/mongo: get group: %w", err)
	}
	return fromGroupModel(&m)
}

func (s *Store) GetGroupByInviteCode(ctx context.Context, code string) (*group.Group, error) {
	var m groupModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"invite_code": code}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, splitledger.ErrGroupNotFound
		}
		return nil, fmt.Errorf("splitledger/mongo: get group by invite code: %w", err)
	}
	return fromGroupModel(&m)
}

func (s *Store) ListGroupsForParticipant(ctx context.Context, participantID id.ParticipantID) ([]*group.Group, error) {
	var memberships []membershipModel
	err := s.mdb.NewFind(&memberships).
		Filter(bson.M{"participant_id": participantID.String()}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("splitledger/mongo: list memberships: %w", err)
	}
	if len(memberships) == 0 {
		return []*group.Group{}, nil
	}

	groupIDs := make([]string, len(memberships))
	for i, m := range memberships {
		groupIDs[i] = m.GroupID
	}

	var models []groupModel
	err = s.mdb.NewFind(&models).
		Filter(bson.M{"_id": bson.M{"$in": groupIDs}}).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("splitledger/mongo: list groups: %w", err)
	}

	result := make([]*group.Group, len(models))
	for i := range models {
		g, err := fromGroupModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = g
	}
	return result, nil
}

// ==================== Membership Store ====================

func (s *Store) AddMember(ctx context.Context, m *group.Membership) error {
	_, err := s.mdb.NewInsert(toMembershipModel(m)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return splitledger.ErrAlreadyMember
		}
		return fmt.Errorf("splitledger/mongo: add member: %w", err)
	}
	return nil
}

func (s *Store) RemoveMember(ctx context.Context, groupID id.GroupID, participantID id.ParticipantID) error {
	res, err := s.mdb.NewDelete((*membershipModel)(nil)).
		Filter(bson.M{"_id": membershipKey(groupID, participantID)}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("splitledger/mongo: remove member: %w", err)
	}
	if res.DeletedCount() == 0 {
		return splitledger.ErrNotMember
	}
	return nil
}

func (s *Store) GetMembership(ctx context.Context, groupID id.GroupID, participantID id.ParticipantID) (*group.Membership, error) {
	var m membershipModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": membershipKey(groupID, participantID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, splitledger.ErrNotMember
		}
		return nil, fmt.Errorf("splitledger/mongo: get membership: %w", err)
	}
	return fromMembershipModel(&m)
}

func (s *Store) ListMembers(ctx context.Context, groupID id.GroupID) ([]*group.Membership, error) {
	var models []membershipModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"group_id": groupID.String()}).
		Sort(bson.D{{Key: "participant_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("splitledger/mongo: list members: %w", err)
	}

	result := make([]*group.Membership, len(models))
	for i := range models {
		m, err := fromMembershipModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = m
	}
	return result, nil
}

func (s *Store) UpdateMembership(ctx context.Context, m *group.Membership) error {
	res, err := s.mdb.NewUpdate((*membershipModel)(nil)).
		Filter(bson.M{"_id": membershipKey(m.GroupID, m.ParticipantID)}).
		Set("agree_to_close", m.AgreeToClose).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("splitledger/mongo: update membership: %w", err)
	}
	if res.MatchedCount() == 0 {
		return splitledger.ErrNotMember
	}
	return nil
}

// ==================== Transaction Store ====================

func (s *Store) CreateTransaction(ctx context.Context, t *transaction.Transaction) error {
	_, err := s.mdb.NewInsert(toTransactionModel(t)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return splitledger.ErrAlreadyExists
		}
		return fmt.Errorf("splitledger/mongo: create transaction: %w", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, txID id.TransactionID) (*transaction.Transaction, error) {
	var m transactionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": txID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, splitledger.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("splitledger/mongo: get transaction: %w", err)
	}
	return fromTransactionModel(&m)
}

func (s *Store) ListTransactions(ctx context.Context, groupID id.GroupID, opts transaction.ListOpts) ([]*transaction.Transaction, error) {
	var models []transactionModel

	filter := bson.M{"group_id": groupID.String()}
	if opts.Kind != transaction.KindAny {
		filter["is_income"] = opts.Kind == transaction.KindIncome
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("splitledger/mongo: list transactions: %w", err)
	}

	result := make([]*transaction.Transaction, len(models))
	for i := range models {
		t, err := fromTransactionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = t
	}
	return result, nil
}

// ==================== Helpers ====================

func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all splitledger collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colParticipants: {
			{
				Keys: bson.D{{Key: "external_id", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"external_id": bson.M{"$exists": true}}),
			},
		},
		colGroups: {
			{
				Keys:    bson.D{{Key: "invite_code", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colMemberships: {
			{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "participant_id", Value: 1}}},
			{Keys: bson.D{{Key: "participant_id", Value: 1}}},
		},
		colTransactions: {
			{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "is_income", Value: 1}}},
		},
	}
}
