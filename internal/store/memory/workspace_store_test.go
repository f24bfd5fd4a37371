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

func newWorkspace(name string, createdAt time.Time) *models.Workspace {
	return &models.Workspace{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        name,
		Slug:        name + "-" + uuid.NewString()[:8],
		Territories: []string{"MQ"},
		CreatedAt:   createdAt,
	}
}

func TestWorkspaceStore_Oldest(t *testing.T) {
	ctx := context.Background()
	st := NewWorkspaceStore()

	_, err := st.Oldest(ctx)
	require.ErrorIs(t, err, store.ErrWorkspaceNotFound)

	now := time.Now()
	newer := newWorkspace("newer", now)
	older := newWorkspace("older", now.Add(-time.Hour))

	require.NoError(t, st.Create(ctx, newer))
	require.NoError(t, st.Create(ctx, older))

	oldest, err := st.Oldest(ctx)
	require.NoError(t, err)
	require.Equal(t, older.ID, oldest.ID)
}

func TestWorkspaceStore_UniqueConstraints(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate slug", func(t *testing.T) {
		st := NewWorkspaceStore()
		ws := newWorkspace("hq", time.Now())
		require.NoError(t, st.Create(ctx, ws))

		dup := newWorkspace("other", time.Now())
		dup.Slug = ws.Slug
		require.ErrorIs(t, st.Create(ctx, dup), store.ErrWorkspaceAlreadyExists)
	})

	t.Run("duplicate bootstrap key", func(t *testing.T) {
		st := NewWorkspaceStore()
		key := "default"

		first := newWorkspace("first", time.Now())
		first.BootstrapKey = &key
		require.NoError(t, st.Create(ctx, first))

		second := newWorkspace("second", time.Now())
		second.BootstrapKey = &key
		require.ErrorIs(t, st.Create(ctx, second), store.ErrWorkspaceAlreadyExists)

		exists, err := st.Exists(ctx, second.ID)
		require.NoError(t, err)
		require.False(t, exists)
	})
}

func TestWorkspaceStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	st := NewWorkspaceStore()

	ws := newWorkspace("hq", time.Now())
	require.NoError(t, st.Create(ctx, ws))

	got, err := st.Get(ctx, ws.ID)
	require.NoError(t, err)
	got.Territories[0] = "XX"

	again, err := st.Get(ctx, ws.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"MQ"}, again.Territories)
}
