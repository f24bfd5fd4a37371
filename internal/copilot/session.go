// Package copilot maintains copilot conversations: appending turns to a
// session and persisting them against the session's workspace binding.
package copilot

import (
	"errors"
	"fmt"
	"time"

	"github.com/orionpulse/orionpulse/internal/models"
)

// AgentWindow is the number of trailing events sent to the agent.
const AgentWindow = 10

// Sentinel errors returned by AppendEvent.
var (
	ErrInvalidRole  = errors.New("invalid event role")
	ErrEmptyContent = errors.New("event content is empty")
)

// AppendEvent returns a copy of session with event appended. The input
// session and its events slice are left untouched.
//
// A zero CreatedAt is set to now, or to the previous event's timestamp when
// that is later, so server-assigned timestamps never go backwards.
func AppendEvent(session models.CopilotSession, event models.CopilotEvent, now time.Time) (models.CopilotSession, error) {
	if !models.ValidEventRole(event.Role) {
		return session, fmt.Errorf("%w: %q", ErrInvalidRole, event.Role)
	}
	if event.Content == "" {
		return session, ErrEmptyContent
	}

	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
		if n := len(session.Events); n > 0 && session.Events[n-1].CreatedAt.After(now) {
			event.CreatedAt = session.Events[n-1].CreatedAt
		}
	}

	events := make([]models.CopilotEvent, len(session.Events), len(session.Events)+1)
	copy(events, session.Events)
	session.Events = append(events, event)

	return session, nil
}

// Window returns the last n events as agent turns, oldest first.
func Window(events []models.CopilotEvent, n int) []models.Turn {
	if n < 0 {
		n = 0
	}
	start := max(len(events)-n, 0)

	turns := make([]models.Turn, 0, len(events)-start)
	for _, e := range events[start:] {
		turns = append(turns, models.Turn{Role: e.Role, Content: e.Content})
	}
	return turns
}

// Last returns the most recently appended event of session.
func Last(session models.CopilotSession) (models.CopilotEvent, bool) {
	if len(session.Events) == 0 {
		return models.CopilotEvent{}, false
	}
	return session.Events[len(session.Events)-1], true
}
