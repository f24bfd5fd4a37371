package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orionpulse/orionpulse/internal/models"
	"github.com/rs/zerolog/log"
)

// psql builds PostgreSQL statements with $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ConnectionStore implements store.ConnectionStore using PostgreSQL.
type ConnectionStore struct {
	pool *pgxpool.Pool
}

// NewConnectionStore creates a new PostgreSQL-backed connection store.
func NewConnectionStore(pool *pgxpool.Pool) *ConnectionStore {
	return &ConnectionStore{
		pool: pool,
	}
}

// UpsertConnection creates or replaces the connection for (workspace, provider).
func (s *ConnectionStore) UpsertConnection(ctx context.Context, c *models.Connection) error {
	metadata := c.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	query, args, err := psql.Insert("mcp_connections").
		Columns("workspace_id", "provider", "server_url", "status", "last_health_check", "metadata", "created_at", "updated_at").
		Values(c.WorkspaceID, c.Provider, c.ServerURL, c.Status, c.LastHealthCheck, metadata, c.CreatedAt, c.UpdatedAt).
		Suffix(`ON CONFLICT (workspace_id, provider) DO UPDATE SET
			server_url = EXCLUDED.server_url,
			status = EXCLUDED.status,
			last_health_check = EXCLUDED.last_health_check,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build connection upsert: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert connection: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("workspace_id", c.WorkspaceID.String()).
		Str("provider", c.Provider).
		Str("status", c.Status).
		Msg("Upserted connection")

	return nil
}

// ListConnections returns the connections of a workspace filtered by status.
func (s *ConnectionStore) ListConnections(ctx context.Context, workspaceID uuid.UUID, statuses ...string) ([]*models.Connection, error) {
	builder := psql.Select("workspace_id", "provider", "server_url", "status", "last_health_check", "metadata", "created_at", "updated_at").
		From("mcp_connections").
		Where(sq.Eq{"workspace_id": workspaceID}).
		OrderBy("provider")

	if len(statuses) > 0 {
		builder = builder.Where(sq.Eq{"status": statuses})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build connection query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var connections []*models.Connection
	for rows.Next() {
		var c models.Connection
		if err := rows.Scan(
			&c.WorkspaceID,
			&c.Provider,
			&c.ServerURL,
			&c.Status,
			&c.LastHealthCheck,
			&c.Metadata,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		connections = append(connections, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate connections: %w", mapPostgresError(err))
	}

	return connections, nil
}

// UpsertDataSource creates or replaces the data source for (workspace, provider).
func (s *ConnectionStore) UpsertDataSource(ctx context.Context, ds *models.DataSource) error {
	settings := ds.Settings
	if settings == nil {
		settings = map[string]any{}
	}

	query, args, err := psql.Insert("data_sources").
		Columns("workspace_id", "provider", "status", "settings", "created_at", "updated_at").
		Values(ds.WorkspaceID, ds.Provider, ds.Status, settings, ds.CreatedAt, ds.UpdatedAt).
		Suffix(`ON CONFLICT (workspace_id, provider) DO UPDATE SET
			status = EXCLUDED.status,
			settings = EXCLUDED.settings,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build data source upsert: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert data source: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("workspace_id", ds.WorkspaceID.String()).
		Str("provider", ds.Provider).
		Str("status", ds.Status).
		Msg("Upserted data source")

	return nil
}
