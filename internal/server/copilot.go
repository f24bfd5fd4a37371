package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/copilot"
	"github.com/orionpulse/orionpulse/internal/models"
	"github.com/orionpulse/orionpulse/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// timestampLayout is RFC 3339 with millisecond precision in UTC.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

type copilotRequest struct {
	Session *sessionPayload `json:"session" validate:"required"`
	Prompt  string          `json:"prompt" validate:"notblank"`
}

// normalize lowercases the session identifiers so UUIDs compare and persist
// in canonical form.
func (r *copilotRequest) normalize() {
	if r.Session == nil {
		return
	}
	r.Session.ID = strings.ToLower(strings.TrimSpace(r.Session.ID))
	r.Session.WorkspaceID = strings.ToLower(strings.TrimSpace(r.Session.WorkspaceID))
}

type sessionPayload struct {
	ID          string         `json:"id" validate:"required,uuid"`
	WorkspaceID string         `json:"workspaceId" validate:"omitempty,uuid"`
	Territory   string         `json:"territory"`
	Events      []eventPayload `json:"events" validate:"required,dive"`
}

type eventPayload struct {
	Role      string `json:"role" validate:"oneof=user assistant system tool"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

type eventResponse struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

type sessionResponse struct {
	ID          string          `json:"id"`
	WorkspaceID string          `json:"workspaceId"`
	Territory   string          `json:"territory,omitempty"`
	Events      []eventResponse `json:"events"`
}

type copilotResponse struct {
	Event   eventResponse   `json:"event"`
	Session sessionResponse `json:"session"`
}

// handleCopilot runs one conversation turn: the prompt is appended to the
// session, the agent answers from the recent window, and both events are
// persisted under the resolved workspace.
func (s *Server) handleCopilot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	res := s.resolve(w, r, msgCopilotFailure)
	if res == nil {
		return
	}

	var req copilotRequest
	if err := s.decode(w, r, &req); err != nil {
		writeDecodeError(w, r, err, msgCopilotFailure)
		return
	}

	// Validated above, so parsing cannot fail
	sessionID := uuid.MustParse(req.Session.ID)

	if req.Session.WorkspaceID != "" && uuid.MustParse(req.Session.WorkspaceID) != res.WorkspaceID {
		s.rejectBinding(ctx, w, sessionID, "payload")
		return
	}

	bound, ok, err := s.ledger.Binding(ctx, sessionID)
	if err != nil {
		logger.Warn().Err(err).Stringer("session_id", sessionID).Msg("Failed to read copilot session binding")
	} else if ok && bound != res.WorkspaceID {
		s.rejectBinding(ctx, w, sessionID, "persisted")
		return
	}

	session := models.CopilotSession{
		ID:          sessionID,
		WorkspaceID: res.WorkspaceID,
		Territory:   req.Session.Territory,
		Events:      s.events(req.Session.Events),
	}

	session, err = s.ledger.Append(session, models.CopilotEvent{Role: models.EventRoleUser, Content: req.Prompt})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to append user event")
		writeError(w, http.StatusInternalServerError, msgCopilotFailure)
		return
	}
	userEvent, _ := copilot.Last(session)
	s.ledger.Persist(ctx, session, userEvent)

	answer := s.agent.Invoke(ctx, copilot.Window(session.Events, copilot.AgentWindow), res.WorkspaceID)

	session, err = s.ledger.Append(session, models.CopilotEvent{Role: models.EventRoleAssistant, Content: answer})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to append assistant event")
		writeError(w, http.StatusInternalServerError, msgCopilotFailure)
		return
	}
	assistantEvent, _ := copilot.Last(session)
	s.ledger.Persist(ctx, session, assistantEvent)

	telemetry.GetMetrics().CopilotTurnsTotal.Add(ctx, 1)
	logger.Debug().
		Stringer("session_id", sessionID).
		Stringer("workspace_id", res.WorkspaceID).
		Int("events", len(session.Events)).
		Msg("Copilot turn completed")

	writeJSON(w, http.StatusOK, copilotResponse{
		Event:   toEventResponse(assistantEvent),
		Session: toSessionResponse(session),
	})
}

func (s *Server) rejectBinding(ctx context.Context, w http.ResponseWriter, sessionID uuid.UUID, reason string) {
	telemetry.GetMetrics().CopilotBindingRejections.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)))
	zerolog.Ctx(ctx).Warn().
		Stringer("session_id", sessionID).
		Str("reason", reason).
		Msg("Copilot session bound to another workspace")
	writeError(w, http.StatusForbidden, msgSessionForeign)
}

// events converts client supplied history. Events without a timestamp are
// stamped with the current time.
func (s *Server) events(payload []eventPayload) []models.CopilotEvent {
	now := s.ledger.Now()
	events := make([]models.CopilotEvent, 0, len(payload))
	for _, e := range payload {
		createdAt := now
		if e.CreatedAt != "" {
			if t, err := time.Parse(time.RFC3339, e.CreatedAt); err == nil {
				createdAt = t.UTC()
			}
		}
		events = append(events, models.CopilotEvent{Role: e.Role, Content: e.Content, CreatedAt: createdAt})
	}
	return events
}

func toEventResponse(e models.CopilotEvent) eventResponse {
	return eventResponse{Role: e.Role, Content: e.Content, CreatedAt: e.CreatedAt.UTC().Format(timestampLayout)}
}

func toSessionResponse(session models.CopilotSession) sessionResponse {
	events := make([]eventResponse, 0, len(session.Events))
	for _, e := range session.Events {
		events = append(events, toEventResponse(e))
	}
	return sessionResponse{
		ID:          session.ID.String(),
		WorkspaceID: session.WorkspaceID.String(),
		Territory:   session.Territory,
		Events:      events,
	}
}
