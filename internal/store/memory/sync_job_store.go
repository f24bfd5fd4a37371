package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/models"
)

// SyncJobStore implements store.SyncJobStore using in-memory storage.
// This implementation is for testing only - data is lost on restart.
type SyncJobStore struct {
	mu sync.RWMutex

	jobs []*models.SyncJob
}

// NewSyncJobStore creates a new in-memory sync job store.
func NewSyncJobStore() *SyncJobStore {
	return &SyncJobStore{}
}

// Enqueue stores a new sync job.
func (s *SyncJobStore) Enqueue(ctx context.Context, job *models.SyncJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *job
	s.jobs = append(s.jobs, &clone)

	return nil
}

// List returns the most recent jobs of a workspace, newest first.
func (s *SyncJobStore) List(ctx context.Context, workspaceID uuid.UUID, limit int) ([]*models.SyncJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.SyncJob
	for _, job := range s.jobs {
		if job.WorkspaceID == workspaceID {
			clone := *job
			result = append(result, &clone)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ScheduledFor.After(result[j].ScheduledFor)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}
