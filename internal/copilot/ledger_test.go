package copilot

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/models"
	"github.com/orionpulse/orionpulse/internal/store"
	"github.com/orionpulse/orionpulse/internal/store/memory"
	"github.com/stretchr/testify/require"
)

type unavailableCopilotStore struct{}

func (unavailableCopilotStore) AppendMessage(context.Context, store.SessionHeader, models.CopilotEvent) error {
	return store.ErrStorageUnavailable
}

func (unavailableCopilotStore) GetHeader(context.Context, uuid.UUID) (*store.SessionHeader, error) {
	return nil, store.ErrStorageUnavailable
}

func (unavailableCopilotStore) ListMessages(context.Context, uuid.UUID) ([]models.CopilotEvent, error) {
	return nil, store.ErrStorageUnavailable
}

func TestLedgerPersist(t *testing.T) {
	ctx := context.Background()

	t.Run("appends are persisted in order", func(t *testing.T) {
		mock := clock.NewMock()
		mock.Set(time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC))

		copilotStore := memory.NewCopilotStore()
		ledger := NewLedger(copilotStore).WithClock(mock)

		session := models.CopilotSession{ID: uuid.New(), WorkspaceID: uuid.New()}
		var err error
		for _, content := range []string{"un", "deux", "trois"} {
			session, err = ledger.Append(session, models.CopilotEvent{Role: models.EventRoleUser, Content: content})
			require.NoError(t, err)
			last, _ := Last(session)
			ledger.Persist(ctx, session, last)
			mock.Add(time.Second)
		}

		events, err := copilotStore.ListMessages(ctx, session.ID)
		require.NoError(t, err)
		require.Equal(t, session.Events, events)

		// re-reading is stable
		again, err := copilotStore.ListMessages(ctx, session.ID)
		require.NoError(t, err)
		require.Equal(t, events, again)
	})

	t.Run("binding mismatch is dropped", func(t *testing.T) {
		copilotStore := memory.NewCopilotStore()
		ledger := NewLedger(copilotStore)

		owner := models.CopilotSession{ID: uuid.New(), WorkspaceID: uuid.New()}
		event := models.CopilotEvent{Role: models.EventRoleUser, Content: "hello", CreatedAt: time.Now()}
		ledger.Persist(ctx, owner, event)

		intruder := owner
		intruder.WorkspaceID = uuid.New()
		ledger.Persist(ctx, intruder, event)

		events, err := copilotStore.ListMessages(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, events, 1)

		bound, ok, err := ledger.Binding(ctx, owner.ID)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, owner.WorkspaceID, bound)
	})

	t.Run("storage failures are swallowed", func(t *testing.T) {
		ledger := NewLedger(unavailableCopilotStore{})
		require.NotPanics(t, func() {
			ledger.Persist(ctx, models.CopilotSession{ID: uuid.New()}, models.CopilotEvent{Role: models.EventRoleUser, Content: "x"})
		})

		_, _, err := ledger.Binding(ctx, uuid.New())
		require.ErrorIs(t, err, store.ErrStorageUnavailable)
	})

	t.Run("no store", func(t *testing.T) {
		ledger := NewLedger(nil)
		ledger.Persist(ctx, models.CopilotSession{ID: uuid.New()}, models.CopilotEvent{Role: models.EventRoleUser, Content: "x"})

		_, ok, err := ledger.Binding(ctx, uuid.New())
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("unknown session has no binding", func(t *testing.T) {
		_, ok, err := NewLedger(memory.NewCopilotStore()).Binding(ctx, uuid.New())
		require.NoError(t, err)
		require.False(t, ok)
	})
}
