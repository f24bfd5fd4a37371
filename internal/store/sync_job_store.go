package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/models"
)

// SyncJobStore defines the interface for connector sync job storage.
type SyncJobStore interface {
	// Enqueue stores a new sync job.
	Enqueue(ctx context.Context, job *models.SyncJob) error

	// List returns the most recent jobs of a workspace, newest first.
	List(ctx context.Context, workspaceID uuid.UUID, limit int) ([]*models.SyncJob, error)
}
