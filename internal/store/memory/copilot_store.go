package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/models"
	"github.com/orionpulse/orionpulse/internal/store"
)

// CopilotStore implements store.CopilotStore using in-memory storage.
// This implementation is for testing only - data is lost on restart.
type CopilotStore struct {
	mu sync.RWMutex

	headers  map[uuid.UUID]store.SessionHeader   // session_id -> header
	messages map[uuid.UUID][]models.CopilotEvent // session_id -> events in append order
}

// NewCopilotStore creates a new in-memory copilot store.
func NewCopilotStore() *CopilotStore {
	return &CopilotStore{
		headers:  make(map[uuid.UUID]store.SessionHeader),
		messages: make(map[uuid.UUID][]models.CopilotEvent),
	}
}

// AppendMessage creates the session header on first write and appends the event.
func (s *CopilotStore) AppendMessage(ctx context.Context, header store.SessionHeader, event models.CopilotEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.headers[header.ID]
	if !exists {
		s.headers[header.ID] = header
		existing = header
	}

	if existing.WorkspaceID != header.WorkspaceID {
		return store.ErrSessionBindingMismatch
	}

	s.messages[header.ID] = append(s.messages[header.ID], event)

	return nil
}

// GetHeader retrieves the persisted session header.
func (s *CopilotStore) GetHeader(ctx context.Context, sessionID uuid.UUID) (*store.SessionHeader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	header, exists := s.headers[sessionID]
	if !exists {
		return nil, store.ErrSessionNotFound
	}

	return &header, nil
}

// ListMessages returns the persisted events of a session in append order.
func (s *CopilotStore) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]models.CopilotEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.headers[sessionID]; !exists {
		return nil, store.ErrSessionNotFound
	}

	return slices.Clone(s.messages[sessionID]), nil
}
