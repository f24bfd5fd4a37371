package memory

import (
	"bytes"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/models"
	"github.com/orionpulse/orionpulse/internal/store"
)

type membershipKey struct {
	workspaceID uuid.UUID
	userID      uuid.UUID
}

// MembershipStore implements store.MembershipStore using in-memory storage.
// This implementation is for testing and development only - data is lost on restart.
type MembershipStore struct {
	mu sync.RWMutex

	memberships map[membershipKey]*models.Membership
}

// NewMembershipStore creates a new in-memory membership store.
func NewMembershipStore() *MembershipStore {
	return &MembershipStore{
		memberships: make(map[membershipKey]*models.Membership),
	}
}

// Get retrieves the membership for a (workspace, user) pair.
func (s *MembershipStore) Get(ctx context.Context, workspaceID, userID uuid.UUID) (*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.memberships[membershipKey{workspaceID, userID}]
	if !exists {
		return nil, store.ErrMembershipNotFound
	}

	return cloneMembership(m), nil
}

// Upsert creates the membership or updates its role and territories.
func (s *MembershipStore) Upsert(ctx context.Context, m *models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := membershipKey{m.WorkspaceID, m.UserID}
	now := time.Now()

	if existing, exists := s.memberships[key]; exists {
		existing.Role = m.Role
		existing.Territories = slices.Clone(m.Territories)
		existing.UpdatedAt = now
		return nil
	}

	clone := cloneMembership(m)
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = now
	}
	clone.UpdatedAt = now
	s.memberships[key] = clone

	return nil
}

// ListByUser returns all memberships of a user, oldest first.
func (s *MembershipStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Membership
	for key, m := range s.memberships {
		if key.userID == userID {
			result = append(result, cloneMembership(m))
		}
	}

	// Same order as postgres: created_at, then workspace_id bytewise.
	slices.SortFunc(result, func(a, b *models.Membership) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(a.WorkspaceID[:], b.WorkspaceID[:])
	})

	return result, nil
}

// HasRole reports whether the user holds role on any workspace.
func (s *MembershipStore) HasRole(ctx context.Context, userID uuid.UUID, role string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for key, m := range s.memberships {
		if key.userID == userID && m.Role == role {
			return true, nil
		}
	}

	return false, nil
}

// Count returns the total number of memberships.
func (s *MembershipStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.memberships), nil
}

func cloneMembership(m *models.Membership) *models.Membership {
	clone := *m
	clone.Territories = slices.Clone(m.Territories)
	return &clone
}
