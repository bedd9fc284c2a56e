// Package memory is an in-process store.Store kept in maps. It is meant for
// tests and the CLI; nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/splitledger"
	"github.com/xraph/splitledger/group"
	"github.com/xraph/splitledger/id"
	"github.com/xraph/splitledger/participant"
	"github.com/xraph/splitledger/store"
	"github.com/xraph/splitledger/transaction"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

type membershipKey struct {
	group       id.GroupID
	participant id.ParticipantID
}

type Store struct {
	mu sync.RWMutex

	participants map[id.ParticipantID]*participant.Participant
	byExternalID map[int64]id.ParticipantID

	groups       map[id.GroupID]*group.Group
	byInviteCode map[string]id.GroupID
	memberships  map[membershipKey]*group.Membership

	transactions map[id.TransactionID]*transaction.Transaction
	byGroup      map[id.GroupID][]id.TransactionID

	closed bool
}

func New() *Store {
	return &Store{
		participants: make(map[id.ParticipantID]*participant.Participant),
		byExternalID: make(map[int64]id.ParticipantID),
		groups:       make(map[id.GroupID]*group.Group),
		byInviteCode: make(map[string]id.GroupID),
		memberships:  make(map[membershipKey]*group.Membership),
		transactions: make(map[id.TransactionID]*transaction.Transaction),
		byGroup:      make(map[id.GroupID][]id.TransactionID),
	}
}

// ==================== Participant Store ====================

func (s *Store) CreateParticipant(_ context.Context, p *participant.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.participants[p.ID]; exists {
		return splitledger.ErrAlreadyExists
	}
	if p.ExternalID != 0 {
		if _, exists := s.byExternalID[p.ExternalID]; exists {
			return splitledger.ErrAlreadyExists
		}
	}
	cp := *p
	s.participants[p.ID] = &cp
	if p.ExternalID != 0 {
		s.byExternalID[p.ExternalID] = p.ID
	}
	return nil
}

func (s *Store) GetParticipant(_ context.Context, participantID id.ParticipantID) (*participant.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.participants[participantID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, splitledger.ErrParticipantNotFound
}

// GetParticipantByExternalID never matches zero, which is not indexed.
func (s *Store) GetParticipantByExternalID(ctx context.Context, externalID int64) (*participant.Participant, error) {
	s.mu.RLock()
	pid, ok := s.byExternalID[externalID]
	s.mu.RUnlock()

	if !ok {
		return nil, splitledger.ErrParticipantNotFound
	}
	return s.GetParticipant(ctx, pid)
}

func (s *Store) UpdateParticipant(_ context.Context, p *participant.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.participants[p.ID]
	if !ok {
		return splitledger.ErrParticipantNotFound
	}
	if existing.ExternalID != p.ExternalID {
		if p.ExternalID != 0 {
			if _, taken := s.byExternalID[p.ExternalID]; taken {
				return splitledger.ErrAlreadyExists
			}
			s.byExternalID[p.ExternalID] = p.ID
		}
		delete(s.byExternalID, existing.ExternalID)
	}
	cp := *p
	s.participants[p.ID] = &cp
	return nil
}

// ==================== Group Store ====================

func (s *Store) CreateGroup(_ context.Context, g *group.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.groups[g.ID]; exists {
		return splitledger.ErrAlreadyExists
	}
	if _, exists := s.byInviteCode[g.InviteCode]; exists {
		return splitledger.ErrAlreadyExists
	}
	cp := *g
	s.groups[g.ID] = &cp
	s.byInviteCode[g.InviteCode] = g.ID
	return nil
}

func (s *Store) GetGroup(_ context.Context, groupID id.GroupID) (*group.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if g, ok := s.groups[groupID]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, splitledger.ErrGroupNotFound
}

func (s *Store) GetGroupByInviteCode(ctx context.Context, code string) (*group.Group, error) {
	s.mu.RLock()
	gid, ok := s.byInviteCode[code]
	s.mu.RUnlock()

	if !ok {
		return nil, splitledger.ErrGroupNotFound
	}
	return s.GetGroup(ctx, gid)
}

func (s *Store) ListGroupsForParticipant(_ context.Context, participantID id.ParticipantID) ([]*group.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*group.Group, 0)
	for key := range s.memberships {
		if key.participant != participantID {
			continue
		}
		if g, ok := s.groups[key.group]; ok {
			cp := *g
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return id.Compare(result[i].ID, result[j].ID) < 0
	})
	return result, nil
}

// ==================== Membership Store ====================

func (s *Store) AddMember(_ context.Context, m *group.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := membershipKey{m.GroupID, m.ParticipantID}
	if _, exists := s.memberships[key]; exists {
		return splitledger.ErrAlreadyMember
	}
	cp := *m
	s.memberships[key] = &cp
	return nil
}

func (s *Store) RemoveMember(_ context.Context, groupID id.GroupID, participantID id.ParticipantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := membershipKey{groupID, participantID}
	if _, exists := s.memberships[key]; !exists {
		return splitledger.ErrNotMember
	}
	delete(s.memberships, key)
	return nil
}

func (s *Store) GetMembership(_ context.Context, groupID id.GroupID, participantID id.ParticipantID) (*group.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m, ok := s.memberships[membershipKey{groupID, participantID}]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, splitledger.ErrNotMember
}

func (s *Store) ListMembers(_ context.Context, groupID id.GroupID) ([]*group.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*group.Membership, 0)
	for key, m := range s.memberships {
		if key.group == groupID {
			cp := *m
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return id.Compare(result[i].ParticipantID, result[j].ParticipantID) < 0
	})
	return result, nil
}

func (s *Store) UpdateMembership(_ context.Context, m *group.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := membershipKey{m.GroupID, m.ParticipantID}
	if _, exists := s.memberships[key]; !exists {
		return splitledger.ErrNotMember
	}
	cp := *m
	s.memberships[key] = &cp
	return nil
}

// ==================== Transaction Store ====================

func (s *Store) CreateTransaction(_ context.Context, t *transaction.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transactions[t.ID]; exists {
		return splitledger.ErrAlreadyExists
	}
	s.transactions[t.ID] = cloneTransaction(t)
	s.byGroup[t.GroupID] = append(s.byGroup[t.GroupID], t.ID)
	return nil
}

func (s *Store) GetTransaction(_ context.Context, txID id.TransactionID) (*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.transactions[txID]; ok {
		return cloneTransaction(t), nil
	}
	return nil, splitledger.ErrTransactionNotFound
}

func (s *Store) ListTransactions(_ context.Context, groupID id.GroupID, opts transaction.ListOpts) ([]*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*transaction.Transaction, 0, len(s.byGroup[groupID]))
	for _, txID := range s.byGroup[groupID] {
		t := s.transactions[txID]
		if opts.Kind.Matches(t) {
			result = append(result, cloneTransaction(t))
		}
	}

	// Newest first
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return id.Compare(result[i].ID, result[j].ID) > 0
	})

	// Apply limit/offset. Non-positive values are ignored, as in the SQL stores.
	start := min(max(opts.Offset, 0), len(result))
	end := len(result)
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}

	return result[start:end], nil
}

func cloneTransaction(t *transaction.Transaction) *transaction.Transaction {
	cp := *t
	cp.Shares = append([]transaction.Share(nil), t.Shares...)
	return &cp
}

// ==================== Core ====================

func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return splitledger.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
