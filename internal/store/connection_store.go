package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/models"
)

// ConnectionStore defines the interface for workspace connector storage.
type ConnectionStore interface {
	// UpsertConnection creates or replaces the connection for (workspace, provider).
	UpsertConnection(ctx context.Context, c *models.Connection) error

	// ListConnections returns the connections of a workspace whose status is
	// one of statuses. An empty statuses list returns every connection.
	ListConnections(ctx context.Context, workspaceID uuid.UUID, statuses ...string) ([]*models.Connection, error)

	// UpsertDataSource creates or replaces the data source for (workspace, provider).
	UpsertDataSource(ctx context.Context, ds *models.DataSource) error
}
