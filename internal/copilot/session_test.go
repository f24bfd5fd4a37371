package copilot

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/models"
	"github.com/stretchr/testify/require"
)

func TestAppendEvent(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("assigns timestamp and leaves input untouched", func(t *testing.T) {
		session := models.CopilotSession{
			ID:     uuid.New(),
			Events: make([]models.CopilotEvent, 1, 4),
		}
		session.Events[0] = models.CopilotEvent{Role: models.EventRoleUser, Content: "Bonjour", CreatedAt: now.Add(-time.Minute)}

		next, err := AppendEvent(session, models.CopilotEvent{Role: models.EventRoleAssistant, Content: "Salut"}, now)
		require.NoError(t, err)
		require.Len(t, next.Events, 2)
		require.Equal(t, now, next.Events[1].CreatedAt)

		// the spare capacity of the input must not be shared
		require.Len(t, session.Events, 1)
		other, err := AppendEvent(session, models.CopilotEvent{Role: models.EventRoleUser, Content: "Autre"}, now)
		require.NoError(t, err)
		require.Equal(t, "Salut", next.Events[1].Content)
		require.Equal(t, "Autre", other.Events[1].Content)
	})

	t.Run("never earlier than previous event", func(t *testing.T) {
		future := now.Add(time.Hour)
		session := models.CopilotSession{Events: []models.CopilotEvent{
			{Role: models.EventRoleUser, Content: "hello", CreatedAt: future},
		}}

		next, err := AppendEvent(session, models.CopilotEvent{Role: models.EventRoleAssistant, Content: "hi"}, now)
		require.NoError(t, err)
		require.Equal(t, future, next.Events[1].CreatedAt)
	})

	t.Run("keeps supplied timestamp", func(t *testing.T) {
		supplied := now.Add(-24 * time.Hour)
		next, err := AppendEvent(models.CopilotSession{}, models.CopilotEvent{Role: models.EventRoleSystem, Content: "ctx", CreatedAt: supplied}, now)
		require.NoError(t, err)
		require.Equal(t, supplied, next.Events[0].CreatedAt)
	})

	t.Run("repeated appends are ordered and non decreasing", func(t *testing.T) {
		session := models.CopilotSession{ID: uuid.New()}
		clockTimes := []time.Time{now, now.Add(time.Second), now.Add(-time.Minute), now.Add(2 * time.Second), now}

		var err error
		for i, at := range clockTimes {
			role := models.EventRoleUser
			if i%2 == 1 {
				role = models.EventRoleAssistant
			}
			session, err = AppendEvent(session, models.CopilotEvent{Role: role, Content: "turn"}, at)
			require.NoError(t, err)
		}

		require.Len(t, session.Events, len(clockTimes))
		for i := 1; i < len(session.Events); i++ {
			require.False(t, session.Events[i].CreatedAt.Before(session.Events[i-1].CreatedAt), "event %d went backwards", i)
		}
	})

	t.Run("rejects invalid role", func(t *testing.T) {
		session := models.CopilotSession{}
		_, err := AppendEvent(session, models.CopilotEvent{Role: "robot", Content: "x"}, now)
		require.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("rejects empty content", func(t *testing.T) {
		_, err := AppendEvent(models.CopilotSession{}, models.CopilotEvent{Role: models.EventRoleUser}, now)
		require.ErrorIs(t, err, ErrEmptyContent)
	})
}

func TestWindow(t *testing.T) {
	events := make([]models.CopilotEvent, 12)
	for i := range events {
		events[i] = models.CopilotEvent{Role: models.EventRoleUser, Content: string(rune('a' + i))}
	}

	turns := Window(events, AgentWindow)
	require.Len(t, turns, 10)
	require.Equal(t, "c", turns[0].Content)
	require.Equal(t, "l", turns[9].Content)

	require.Len(t, Window(events[:3], AgentWindow), 3)
	require.Empty(t, Window(nil, AgentWindow))
	require.Empty(t, Window(events, 0))
}

func TestLast(t *testing.T) {
	_, ok := Last(models.CopilotSession{})
	require.False(t, ok)

	e, ok := Last(models.CopilotSession{Events: []models.CopilotEvent{{Content: "a"}, {Content: "b"}}})
	require.True(t, ok)
	require.Equal(t, "b", e.Content)
}
