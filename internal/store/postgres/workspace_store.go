package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orionpulse/orionpulse/internal/models"
	"github.com/orionpulse/orionpulse/internal/store"
	"github.com/rs/zerolog/log"
)

const workspaceColumns = `id, name, slug, territory, bootstrap_key, created_at`

// WorkspaceStore implements store.WorkspaceStore using PostgreSQL.
type WorkspaceStore struct {
	pool *pgxpool.Pool
}

// NewWorkspaceStore creates a new PostgreSQL-backed workspace store.
// It shares the connection pool with other stores.
func NewWorkspaceStore(pool *pgxpool.Pool) *WorkspaceStore {
	return &WorkspaceStore{
		pool: pool,
	}
}

// Create creates a new workspace in the database.
func (s *WorkspaceStore) Create(ctx context.Context, ws *models.Workspace) error {
	query := `
		INSERT INTO workspaces (` + workspaceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	territories := ws.Territories
	if territories == nil {
		territories = []string{}
	}

	_, err := s.pool.Exec(ctx, query,
		ws.ID,
		ws.Name,
		ws.Slug,
		territories,
		ws.BootstrapKey,
		ws.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %w", store.ErrWorkspaceAlreadyExists, err)
		}
		return fmt.Errorf("failed to create workspace: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("workspace_id", ws.ID.String()).
		Str("slug", ws.Slug).
		Msg("Created workspace")

	return nil
}

// Get retrieves a workspace by ID.
func (s *WorkspaceStore) Get(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	query := `SELECT ` + workspaceColumns + ` FROM workspaces WHERE id = $1`

	ws, err := scanWorkspace(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("failed to get workspace: %w", mapPostgresError(err))
	}

	return ws, nil
}

// Exists reports whether a workspace with the given ID exists.
func (s *WorkspaceStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM workspaces WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check workspace: %w", mapPostgresError(err))
	}
	return exists, nil
}

// Oldest returns the workspace with the earliest creation time.
func (s *WorkspaceStore) Oldest(ctx context.Context) (*models.Workspace, error) {
	query := `SELECT ` + workspaceColumns + ` FROM workspaces ORDER BY created_at, id LIMIT 1`

	ws, err := scanWorkspace(s.pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("failed to get oldest workspace: %w", mapPostgresError(err))
	}

	return ws, nil
}

func scanWorkspace(row pgx.Row) (*models.Workspace, error) {
	var ws models.Workspace
	if err := row.Scan(
		&ws.ID,
		&ws.Name,
		&ws.Slug,
		&ws.Territories,
		&ws.BootstrapKey,
		&ws.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &ws, nil
}
