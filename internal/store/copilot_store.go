package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/models"
)

// Sentinel errors for copilot store operations
var (
	ErrSessionNotFound        = errors.New("copilot session not found")
	ErrSessionBindingMismatch = errors.New("copilot session is bound to another workspace")
)

// SessionHeader is the persisted header of a copilot session.
type SessionHeader struct {
	ID          uuid.UUID
	WorkspaceID uuid.UUID // uuid.Nil when persisted unbound
	Territory   string
}

// CopilotStore persists copilot sessions as an append-only message log.
type CopilotStore interface {
	// AppendMessage creates the session header if it does not exist yet (the
	// first writer sets the workspace binding permanently) and then appends
	// the event. Returns ErrSessionBindingMismatch without appending if the
	// existing header is bound to a different workspace.
	AppendMessage(ctx context.Context, header SessionHeader, event models.CopilotEvent) error

	// GetHeader retrieves the persisted session header.
	// Returns ErrSessionNotFound if the session was never persisted.
	GetHeader(ctx context.Context, sessionID uuid.UUID) (*SessionHeader, error)

	// ListMessages returns the persisted events of a session in append order.
	ListMessages(ctx context.Context, sessionID uuid.UUID) ([]models.CopilotEvent, error)
}
