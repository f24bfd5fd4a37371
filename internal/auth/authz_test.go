package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/models"
	"github.com/orionpulse/orionpulse/internal/store"
	"github.com/orionpulse/orionpulse/internal/store/memory"
	"github.com/stretchr/testify/require"
)

// recordingMemberships counts writes so tests can assert the authorizer is read-only.
type recordingMemberships struct {
	*memory.MembershipStore
	upserts int
}

func (r *recordingMemberships) Upsert(ctx context.Context, m *models.Membership) error {
	r.upserts++
	return r.MembershipStore.Upsert(ctx, m)
}

type failingMemberships struct {
	store.MembershipStore
}

func (failingMemberships) Get(context.Context, uuid.UUID, uuid.UUID) (*models.Membership, error) {
	return nil, store.ErrStorageUnavailable
}

func setupAuthorizer(t *testing.T) (*Authorizer, *recordingMemberships, *models.Workspace) {
	t.Helper()
	ctx := context.Background()

	workspaces := memory.NewWorkspaceStore()
	memberships := &recordingMemberships{MembershipStore: memory.NewMembershipStore()}

	ws := &models.Workspace{ID: uuid.New(), Name: "HQ", Slug: "hq-1", CreatedAt: time.Now()}
	require.NoError(t, workspaces.Create(ctx, ws))

	return NewAuthorizer(workspaces, memberships), memberships, ws
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()

	t.Run("member is authorized", func(t *testing.T) {
		authz, memberships, ws := setupAuthorizer(t)
		userID := uuid.New()
		require.NoError(t, memberships.MembershipStore.Upsert(ctx, &models.Membership{WorkspaceID: ws.ID, UserID: userID, Role: models.RoleMember}))

		m, err := authz.Authorize(ctx, ws.ID, userID)
		require.NoError(t, err)
		require.Equal(t, models.RoleMember, m.Role)
	})

	t.Run("non member of existing workspace", func(t *testing.T) {
		authz, memberships, ws := setupAuthorizer(t)

		_, err := authz.Authorize(ctx, ws.ID, uuid.New())
		require.ErrorIs(t, err, ErrForbidden)
		require.ErrorIs(t, err, ErrNotMember)
		require.NotErrorIs(t, err, store.ErrWorkspaceNotFound)
		require.Zero(t, memberships.upserts)
	})

	t.Run("unknown workspace", func(t *testing.T) {
		authz, memberships, _ := setupAuthorizer(t)

		_, err := authz.Authorize(ctx, uuid.New(), uuid.New())
		require.ErrorIs(t, err, ErrForbidden)
		require.ErrorIs(t, err, store.ErrWorkspaceNotFound)
		require.NotErrorIs(t, err, ErrNotMember)
		require.Zero(t, memberships.upserts)
	})

	t.Run("storage failure is not forbidden", func(t *testing.T) {
		authz := NewAuthorizer(memory.NewWorkspaceStore(), failingMemberships{})

		_, err := authz.Authorize(ctx, uuid.New(), uuid.New())
		require.ErrorIs(t, err, store.ErrStorageUnavailable)
		require.False(t, errors.Is(err, ErrForbidden))
	})
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		roles   []string
		allowed bool
	}{
		{name: "admin allowed for admin", role: models.RoleAdmin, roles: []string{models.RoleAdmin}, allowed: true},
		{name: "operator allowed for operator or admin", role: models.RoleOperator, roles: []string{models.RoleOperator, models.RoleAdmin}, allowed: true},
		{name: "member denied for operator or admin", role: models.RoleMember, roles: []string{models.RoleOperator, models.RoleAdmin}, allowed: false},
		{name: "admin denied when only member listed", role: models.RoleAdmin, roles: []string{models.RoleMember}, allowed: false},
		{name: "no roles listed", role: models.RoleAdmin, roles: nil, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireRole(&models.Membership{Role: tt.role}, tt.roles...)
			if tt.allowed {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrForbidden)
			require.ErrorIs(t, err, ErrRoleRequired)
		})
	}

	t.Run("nil membership", func(t *testing.T) {
		require.ErrorIs(t, RequireRole(nil, models.RoleMember), ErrForbidden)
	})
}
