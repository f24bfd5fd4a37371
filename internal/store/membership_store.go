package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/models"
)

// ErrMembershipNotFound is returned when no membership exists for a (workspace, user) pair.
var ErrMembershipNotFound = errors.New("membership not found")

// MembershipStore defines the interface for membership storage operations.
type MembershipStore interface {
	// Get retrieves the membership for a (workspace, user) pair.
	// Returns ErrMembershipNotFound if there is none.
	Get(ctx context.Context, workspaceID, userID uuid.UUID) (*models.Membership, error)

	// Upsert creates the membership or updates its role and territories.
	Upsert(ctx context.Context, m *models.Membership) error

	// ListByUser returns all memberships of a user ordered by creation time, oldest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Membership, error)

	// HasRole reports whether the user holds role on any workspace.
	HasRole(ctx context.Context, userID uuid.UUID, role string) (bool, error)

	// Count returns the total number of memberships across all workspaces.
	Count(ctx context.Context) (int, error)
}
