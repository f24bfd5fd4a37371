package copilot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/models"
	"github.com/orionpulse/orionpulse/internal/store"
	"github.com/orionpulse/orionpulse/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Ledger appends events to sessions and persists them.
// A ledger without a store keeps conversations in the response only.
type Ledger struct {
	store store.CopilotStore
	clock clock.Clock
}

// NewLedger creates a ledger. copilotStore may be nil.
func NewLedger(copilotStore store.CopilotStore) *Ledger {
	return &Ledger{
		store: copilotStore,
		clock: clock.New(),
	}
}

// WithClock replaces the clock used for event timestamps.
func (l *Ledger) WithClock(c clock.Clock) *Ledger {
	l.clock = c
	return l
}

// Now returns the current time in UTC.
func (l *Ledger) Now() time.Time {
	return l.clock.Now().UTC()
}

// Append appends event to session, timestamping it with the ledger clock.
func (l *Ledger) Append(session models.CopilotSession, event models.CopilotEvent) (models.CopilotSession, error) {
	return AppendEvent(session, event, l.Now())
}

// Persist records event for session. The session header is created on first
// write, binding it to session.WorkspaceID. Failures are logged and counted
// but never returned: a conversation turn is not lost because storage is.
func (l *Ledger) Persist(ctx context.Context, session models.CopilotSession, event models.CopilotEvent) {
	if l.store == nil {
		return
	}

	header := store.SessionHeader{
		ID:          session.ID,
		WorkspaceID: session.WorkspaceID,
		Territory:   session.Territory,
	}

	metrics := telemetry.GetMetrics()
	roleAttr := metric.WithAttributes(attribute.String("role", event.Role))

	if err := l.store.AppendMessage(ctx, header, event); err != nil {
		metrics.CopilotPersistFailures.Add(ctx, 1, roleAttr)
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("session_id", session.ID.String()).
			Str("workspace_id", session.WorkspaceID.String()).
			Str("role", event.Role).
			Msg("Failed to persist copilot event")
		return
	}

	metrics.CopilotEventsPersisted.Add(ctx, 1, roleAttr)
}

// Binding returns the workspace a persisted session is bound to. ok is false
// when the session was never persisted, or was persisted without a binding.
func (l *Ledger) Binding(ctx context.Context, sessionID uuid.UUID) (workspaceID uuid.UUID, ok bool, err error) {
	if l.store == nil {
		return uuid.Nil, false, nil
	}

	header, err := l.store.GetHeader(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("failed to read session binding: %w", err)
	}

	if header.WorkspaceID == uuid.Nil {
		return uuid.Nil, false, nil
	}
	return header.WorkspaceID, true, nil
}
