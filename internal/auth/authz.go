package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/models"
	"github.com/orionpulse/orionpulse/internal/store"
	"github.com/rs/zerolog/log"
)

// Authorizer checks workspace memberships. It never creates or modifies them.
type Authorizer struct {
	workspaces  store.WorkspaceStore
	memberships store.MembershipStore
}

// NewAuthorizer creates a new membership authorizer.
func NewAuthorizer(workspaces store.WorkspaceStore, memberships store.MembershipStore) *Authorizer {
	return &Authorizer{
		workspaces:  workspaces,
		memberships: memberships,
	}
}

// Authorize returns the membership of principalID in workspaceID.
//
// When no membership exists the error matches ErrForbidden and also either
// store.ErrWorkspaceNotFound (no such workspace) or ErrNotMember.
// Storage failures are returned as-is.
func (a *Authorizer) Authorize(ctx context.Context, workspaceID, principalID uuid.UUID) (*models.Membership, error) {
	m, err := a.memberships.Get(ctx, workspaceID, principalID)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, store.ErrMembershipNotFound) {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	exists, err := a.workspaces.Exists(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to check workspace: %w", err)
	}

	log.Debug().
		Str("workspace_id", workspaceID.String()).
		Str("principal_id", principalID.String()).
		Bool("workspace_exists", exists).
		Msg("Workspace access denied")

	if !exists {
		return nil, fmt.Errorf("%w: %w", ErrForbidden, store.ErrWorkspaceNotFound)
	}
	return nil, fmt.Errorf("%w: %w", ErrForbidden, ErrNotMember)
}

// RequireRole checks that the membership role is one of roles.
func RequireRole(m *models.Membership, roles ...string) error {
	if m == nil {
		return fmt.Errorf("%w: %w: no membership", ErrForbidden, ErrRoleRequired)
	}
	if !m.HasRole(roles...) {
		return fmt.Errorf("%w: %w: %s requires one of %v", ErrForbidden, ErrRoleRequired, m.Role, roles)
	}
	return nil
}
