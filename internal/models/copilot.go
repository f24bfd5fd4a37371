package models

import (
	"time"

	"github.com/google/uuid"
)

// Copilot event roles.
const (
	EventRoleUser      = "user"
	EventRoleAssistant = "assistant"
	EventRoleSystem    = "system"
	EventRoleTool      = "tool"
)

// CopilotEvent is a single immutable turn in a copilot conversation.
type CopilotEvent struct {
	Role      string
	Content   string
	CreatedAt time.Time // Zero until assigned by the ledger or supplied by the caller
}

// CopilotSession is an ordered, workspace-bound conversation.
// The session ID is supplied by the caller; the workspace binding is set once
// by the first persisted write and never changes afterwards.
type CopilotSession struct {
	ID          uuid.UUID
	WorkspaceID uuid.UUID // uuid.Nil while unbound
	Territory   string
	Events      []CopilotEvent
}

// Bound returns true if the session is bound to a workspace.
func (s *CopilotSession) Bound() bool {
	return s.WorkspaceID != uuid.Nil
}

// ValidEventRole reports whether role is a known copilot event role.
func ValidEventRole(role string) bool {
	switch role {
	case EventRoleUser, EventRoleAssistant, EventRoleSystem, EventRoleTool:
		return true
	}
	return false
}

// Turn is the role/content pair of an event as sent to the agent.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
