package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/models"
)

type providerKey struct {
	workspaceID uuid.UUID
	provider    string
}

// ConnectionStore implements store.ConnectionStore using in-memory storage.
// This implementation is for testing only - data is lost on restart.
type ConnectionStore struct {
	mu sync.RWMutex

	connections map[providerKey]*models.Connection
	dataSources map[providerKey]*models.DataSource
}

// NewConnectionStore creates a new in-memory connection store.
func NewConnectionStore() *ConnectionStore {
	return &ConnectionStore{
		connections: make(map[providerKey]*models.Connection),
		dataSources: make(map[providerKey]*models.DataSource),
	}
}

// UpsertConnection creates or replaces the connection for (workspace, provider).
func (s *ConnectionStore) UpsertConnection(ctx context.Context, c *models.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := providerKey{c.WorkspaceID, c.Provider}
	now := time.Now()

	clone := *c
	clone.Metadata = maps.Clone(c.Metadata)
	clone.CreatedAt = now
	if existing, exists := s.connections[key]; exists {
		clone.CreatedAt = existing.CreatedAt
	}
	clone.UpdatedAt = now
	s.connections[key] = &clone

	return nil
}

// ListConnections returns the connections of a workspace filtered by status.
func (s *ConnectionStore) ListConnections(ctx context.Context, workspaceID uuid.UUID, statuses ...string) ([]*models.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Connection
	for key, c := range s.connections {
		if key.workspaceID != workspaceID {
			continue
		}
		if len(statuses) > 0 && !slices.Contains(statuses, c.Status) {
			continue
		}
		clone := *c
		clone.Metadata = maps.Clone(c.Metadata)
		result = append(result, &clone)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Provider < result[j].Provider
	})

	return result, nil
}

// UpsertDataSource creates or replaces the data source for (workspace, provider).
func (s *ConnectionStore) UpsertDataSource(ctx context.Context, ds *models.DataSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := providerKey{ds.WorkspaceID, ds.Provider}
	now := time.Now()

	clone := *ds
	clone.Settings = maps.Clone(ds.Settings)
	clone.CreatedAt = now
	if existing, exists := s.dataSources[key]; exists {
		clone.CreatedAt = existing.CreatedAt
	}
	clone.UpdatedAt = now
	s.dataSources[key] = &clone

	return nil
}

// DataSource returns the stored data source, used by tests to inspect upserts.
func (s *ConnectionStore) DataSource(workspaceID uuid.UUID, provider string) (*models.DataSource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, exists := s.dataSources[providerKey{workspaceID, provider}]
	if !exists {
		return nil, false
	}
	clone := *ds
	return &clone, true
}
