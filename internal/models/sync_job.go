package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncJobQueued is the initial state of a sync job.
const SyncJobQueued = "queued"

// SyncJob is a request to synchronise a connector for a workspace.
type SyncJob struct {
	ID           uuid.UUID // UUIDv7
	WorkspaceID  uuid.UUID
	Provider     string
	Status       string
	RequestedBy  uuid.UUID
	ScheduledFor time.Time
	StartedAt    *time.Time
	FinishedAt   *time.Time
}
