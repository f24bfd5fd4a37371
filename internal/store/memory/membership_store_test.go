package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/models"
	"github.com/orionpulse/orionpulse/internal/store"
	"github.com/stretchr/testify/require"
)

func TestMembershipStore_ListByUserOldestFirst(t *testing.T) {
	ctx := context.Background()
	st := NewMembershipStore()

	userID := uuid.New()
	first := uuid.New()
	second := uuid.New()
	now := time.Now()

	require.NoError(t, st.Upsert(ctx, &models.Membership{
		WorkspaceID: second, UserID: userID, Role: models.RoleMember, CreatedAt: now,
	}))
	require.NoError(t, st.Upsert(ctx, &models.Membership{
		WorkspaceID: first, UserID: userID, Role: models.RoleAdmin, CreatedAt: now.Add(-time.Minute),
	}))
	require.NoError(t, st.Upsert(ctx, &models.Membership{
		WorkspaceID: first, UserID: uuid.New(), Role: models.RoleMember, CreatedAt: now,
	}))

	list, err := st.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, first, list[0].WorkspaceID)
	require.Equal(t, second, list[1].WorkspaceID)

	count, err := st.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestMembershipStore_ListByUserTieBreaksOnWorkspaceID(t *testing.T) {
	ctx := context.Background()

	userID := uuid.New()
	low := uuid.MustParse("00000000-0000-4000-8000-000000000001")
	high := uuid.MustParse("ffffffff-0000-4000-8000-000000000001")
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	// Insert the higher id first so map iteration order cannot decide.
	for range 20 {
		st := NewMembershipStore()
		require.NoError(t, st.Upsert(ctx, &models.Membership{WorkspaceID: high, UserID: userID, Role: models.RoleMember, CreatedAt: now}))
		require.NoError(t, st.Upsert(ctx, &models.Membership{WorkspaceID: low, UserID: userID, Role: models.RoleMember, CreatedAt: now}))

		list, err := st.ListByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, low, list[0].WorkspaceID)
		require.Equal(t, high, list[1].WorkspaceID)
	}
}

func TestMembershipStore_UpsertUpdatesRole(t *testing.T) {
	ctx := context.Background()
	st := NewMembershipStore()

	m := &models.Membership{WorkspaceID: uuid.New(), UserID: uuid.New(), Role: models.RoleMember}
	require.NoError(t, st.Upsert(ctx, m))

	m.Role = models.RoleOperator
	m.Territories = []string{"GP"}
	require.NoError(t, st.Upsert(ctx, m))

	got, err := st.Get(ctx, m.WorkspaceID, m.UserID)
	require.NoError(t, err)
	require.Equal(t, models.RoleOperator, got.Role)
	require.Equal(t, []string{"GP"}, got.Territories)

	isOperator, err := st.HasRole(ctx, m.UserID, models.RoleOperator)
	require.NoError(t, err)
	require.True(t, isOperator)

	count, err := st.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	_, err = st.Get(ctx, uuid.New(), m.UserID)
	require.ErrorIs(t, err, store.ErrMembershipNotFound)
}
