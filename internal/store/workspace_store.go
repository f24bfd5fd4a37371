package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/models"
)

// Sentinel errors for workspace store operations
var (
	ErrWorkspaceNotFound      = errors.New("workspace not found")
	ErrWorkspaceAlreadyExists = errors.New("workspace already exists")
)

// WorkspaceStore defines the interface for workspace storage operations.
// Workspaces are never deleted through this interface.
type WorkspaceStore interface {
	// Create creates a new workspace.
	// Returns ErrWorkspaceAlreadyExists if the ID, slug or bootstrap key is taken.
	Create(ctx context.Context, ws *models.Workspace) error

	// Get retrieves a workspace by ID.
	// Returns ErrWorkspaceNotFound if the workspace doesn't exist.
	Get(ctx context.Context, id uuid.UUID) (*models.Workspace, error)

	// Exists reports whether a workspace with the given ID exists without
	// returning any of its data.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// Oldest returns the workspace with the earliest creation time.
	// Returns ErrWorkspaceNotFound if there are no workspaces.
	Oldest(ctx context.Context) (*models.Workspace, error)
}
