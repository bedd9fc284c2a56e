package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/splitledger"
	"github.com/xraph/splitledger/group"
	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/participant"
	ledgerstore "github.com/xraph/splitledger/store"
	"github.com/xraph/splitledger/transaction"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("splitledger/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("splitledger/sqlite: migration failed: %w", err)
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
	res, err := s.sdb.NewInsert(toParticipantModel(p)).
		OnConflict("DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("splitledger/sqlite: create participant: %w", err)
	}
	return insertedOrExists(res)
}

func (s *Store) GetParticipant(ctx context.Context, participantID id.ParticipantID) (*participant.Participant, error) {
	m := new(participantModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", participantID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, splitledger.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("splitledger/sqlite: get participant: %w", err)
	}
	return fromParticipantModel(m)
}

func (s *Store) GetParticipantByExternalID(ctx context.Context, externalID int64) (*participant.Participant, error) {
	if externalID == 0 {
		return nil, splitledger.ErrParticipantNotFound
	}
	m := new(participantModel)
	err := s.sdb.NewSelect(m).
		Where("external_id = ?", externalID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, splitledger.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("splitledger/sqlite: get participant by external id: %w", err)
	}
	return fromParticipantModel(m)
}

func (s *Store) UpdateParticipant(ctx context.Context, p *participant.Participant) error {
	m := toParticipantModel(p)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("splitledger/sqlite: update participant: %w", err)
	}
	return affectedOr(res, splitledger.ErrParticipantNotFound)
}

// ==================== Group Store ====================

func (s *Store) CreateGroup(ctx context.Context, g *group.Group) error {
	res, err := s.sdb.NewInsert(toGroupModel(g)).
		OnConflict("DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("splitledger/sqlite: create group: %w", err)
	}
	return insertedOrExists(res)
}

func (s *Store) GetGroup(ctx context.Context, groupID id.GroupID) (*group.Group, error) {
	m := new(groupModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", groupID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, splitledger.ErrGroupNotFound
		}
		return nil, fmt.Errorf("splitledger/sqlite: get group: %w", err)
	}
	return fromGroupModel(m)
}

func (s *Store) GetGroupByInviteCode(ctx context.Context, code string) (*group.Group, error) {
	m := new(groupModel)
	err := s.sdb.NewSelect(m).
		Where("invite_code = ?", code).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, splitledger.ErrGroupNotFound
		}
		return nil, fmt.Errorf("splitledger/sqlite: get group by invite code: %w", err)
	}
	return fromGroupModel(m)
}

func (s *Store) ListGroupsForParticipant(ctx context.Context, participantID id.ParticipantID) ([]*group.Group, error) {
	var models []groupModel
	err := s.sdb.NewSelect(&models).
		Where("id IN (SELECT group_id FROM splitledger_memberships WHERE participant_id = ?)", participantID.String()).
		OrderExpr("created_at ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("splitledger/sqlite: list groups: %w", err)
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
	res, err := s.sdb.NewInsert(toMembershipModel(m)).
		OnConflict("(group_id, participant_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("splitledger/sqlite: add member: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return splitledger.ErrAlreadyMember
	}
	return nil
}

func (s *Store) RemoveMember(ctx context.Context, groupID id.GroupID, participantID id.ParticipantID) error {
	res, err := s.sdb.NewDelete((*membershipModel)(nil)).
		Where("group_id = ?", groupID.String()).
		Where("participant_id = ?", participantID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("splitledger/sqlite: remove member: %w", err)
	}
	return affectedOr(res, splitledger.ErrNotMember)
}

func (s *Store) GetMembership(ctx context.Context, groupID id.GroupID, participantID id.ParticipantID) (*group.Membership, error) {
	m := new(membershipModel)
	err := s.sdb.NewSelect(m).
		Where("group_id = ?", groupID.String()).
		Where("participant_id = ?", participantID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, splitledger.ErrNotMember
		}
		return nil, fmt.Errorf("splitledger/sqlite: get membership: %w", err)
	}
	return fromMembershipModel(m)
}

func (s *Store) ListMembers(ctx context.Context, groupID id.GroupID) ([]*group.Membership, error) {
	var models []membershipModel
	err := s.sdb.NewSelect(&models).
		Where("group_id = ?", groupID.String()).
		OrderExpr("participant_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("splitledger/sqlite: list members: %w", err)
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
	res, err := s.sdb.NewUpdate((*membershipModel)(nil)).
		Set("agree_to_close = ?", m.AgreeToClose).
		Where("group_id = ?", m.GroupID.String()).
		Where("participant_id = ?", m.ParticipantID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("splitledger/sqlite: update membership: %w", err)
	}
	return affectedOr(res, splitledger.ErrNotMember)
}

// ==================== Transaction Store ====================

func (s *Store) CreateTransaction(ctx context.Context, t *transaction.Transaction) error {
	m, err := toTransactionModel(t)
	if err != nil {
		return fmt.Errorf("splitledger/sqlite: encode shares: %w", err)
	}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("splitledger/sqlite: create transaction: %w", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, txID id.TransactionID) (*transaction.Transaction, error) {
	m := new(transactionModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", txID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, splitledger.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("splitledger/sqlite: get transaction: %w", err)
	}
	return fromTransactionModel(m)
}

func (s *Store) ListTransactions(ctx context.Context, groupID id.GroupID, opts transaction.ListOpts) ([]*transaction.Transaction, error) {
	var models []transactionModel
	q := s.sdb.NewSelect(&models).Where("group_id = ?", groupID.String())

	if opts.Kind != transaction.KindAny {
		q = q.Where("is_income = ?", opts.Kind == transaction.KindIncome)
	}
	switch {
	case opts.Limit > 0:
		q = q.Limit(opts.Limit)
	case opts.Offset > 0:
		// SQLite only accepts OFFSET after a LIMIT.
		q = q.Limit(math.MaxInt)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at DESC, id DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("splitledger/sqlite: list transactions: %w", err)
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

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

// insertedOrExists maps an ON CONFLICT DO NOTHING insert that wrote nothing
// to ErrAlreadyExists.
func insertedOrExists(res rowsAffecter) error {
	return affectedOr(res, splitledger.ErrAlreadyExists)
}

func affectedOr(res rowsAffecter, notAffected error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notAffected
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
