package memory

import (
	"bytes"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/models"
	"github.com/orionpulse/orionpulse/internal/store"
)

// WorkspaceStore implements store.WorkspaceStore using in-memory storage.
// This implementation is for testing and development only - data is lost on restart.
type WorkspaceStore struct {
	mu sync.RWMutex

	workspaces    map[uuid.UUID]*models.Workspace // id -> Workspace
	slugs         map[string]uuid.UUID            // slug -> id
	bootstrapKeys map[string]uuid.UUID            // bootstrap key -> id
}

// NewWorkspaceStore creates a new in-memory workspace store.
func NewWorkspaceStore() *WorkspaceStore {
	return &WorkspaceStore{
		workspaces:    make(map[uuid.UUID]*models.Workspace),
		slugs:         make(map[string]uuid.UUID),
		bootstrapKeys: make(map[string]uuid.UUID),
	}
}

// Create creates a new workspace in memory, enforcing the same unique
// constraints as the database schema.
func (s *WorkspaceStore) Create(ctx context.Context, ws *models.Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.workspaces[ws.ID]; exists {
		return store.ErrWorkspaceAlreadyExists
	}
	if _, exists := s.slugs[ws.Slug]; exists {
		return store.ErrWorkspaceAlreadyExists
	}
	if ws.BootstrapKey != nil {
		if _, exists := s.bootstrapKeys[*ws.BootstrapKey]; exists {
			return store.ErrWorkspaceAlreadyExists
		}
		s.bootstrapKeys[*ws.BootstrapKey] = ws.ID
	}

	s.workspaces[ws.ID] = cloneWorkspace(ws)
	s.slugs[ws.Slug] = ws.ID

	return nil
}

// Get retrieves a workspace by ID.
func (s *WorkspaceStore) Get(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ws, exists := s.workspaces[id]
	if !exists {
		return nil, store.ErrWorkspaceNotFound
	}

	return cloneWorkspace(ws), nil
}

// Exists reports whether a workspace exists.
func (s *WorkspaceStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.workspaces[id]
	return exists, nil
}

// Oldest returns the workspace with the earliest creation time.
func (s *WorkspaceStore) Oldest(ctx context.Context) (*models.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var oldest *models.Workspace
	for _, ws := range s.workspaces {
		if oldest == nil || olderThan(ws, oldest) {
			oldest = ws
		}
	}

	if oldest == nil {
		return nil, store.ErrWorkspaceNotFound
	}

	return cloneWorkspace(oldest), nil
}

// olderThan orders by creation time, then by ID for a deterministic tie-break.
func olderThan(a, b *models.Workspace) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

func cloneWorkspace(ws *models.Workspace) *models.Workspace {
	clone := *ws
	clone.Territories = slices.Clone(ws.Territories)
	if ws.BootstrapKey != nil {
		key := *ws.BootstrapKey
		clone.BootstrapKey = &key
	}
	return &clone
}
