package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/models"
	"github.com/orionpulse/orionpulse/internal/store"
)

// PrincipalStore implements store.PrincipalStore using in-memory storage.
// This implementation is for testing only - data is lost on restart.
type PrincipalStore struct {
	mu sync.RWMutex

	principals map[uuid.UUID]*models.Principal // id -> Principal
	emails     map[string]uuid.UUID            // email -> id
}

// NewPrincipalStore creates a new in-memory principal store.
func NewPrincipalStore() *PrincipalStore {
	return &PrincipalStore{
		principals: make(map[uuid.UUID]*models.Principal),
		emails:     make(map[string]uuid.UUID),
	}
}

// Create creates a new principal in memory.
func (s *PrincipalStore) Create(ctx context.Context, p *models.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.principals[p.ID]; exists {
		return store.ErrPrincipalAlreadyExists
	}
	if p.Email != "" {
		if _, exists := s.emails[p.Email]; exists {
			return store.ErrPrincipalAlreadyExists
		}
		s.emails[p.Email] = p.ID
	}

	clone := *p
	s.principals[p.ID] = &clone

	return nil
}

// Get retrieves a principal by ID.
func (s *PrincipalStore) Get(ctx context.Context, id uuid.UUID) (*models.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.principals[id]
	if !exists {
		return nil, store.ErrPrincipalNotFound
	}

	clone := *p
	return &clone, nil
}
