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

const membershipColumns = `workspace_id, user_id, role, territories, created_at, updated_at`

// MembershipStore implements store.MembershipStore using PostgreSQL.
type MembershipStore struct {
	pool *pgxpool.Pool
}

// NewMembershipStore creates a new PostgreSQL-backed membership store.
func NewMembershipStore(pool *pgxpool.Pool) *MembershipStore {
	return &MembershipStore{
		pool: pool,
	}
}

// Get retrieves the membership for a (workspace, user) pair.
func (s *MembershipStore) Get(ctx context.Context, workspaceID, userID uuid.UUID) (*models.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE workspace_id = $1 AND user_id = $2`

	m, err := scanMembership(s.pool.QueryRow(ctx, query, workspaceID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", mapPostgresError(err))
	}

	return m, nil
}

// Upsert creates the membership or updates its role and territories.
func (s *MembershipStore) Upsert(ctx context.Context, m *models.Membership) error {
	query := `
		INSERT INTO memberships (` + membershipColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (workspace_id, user_id) DO UPDATE SET
			role = EXCLUDED.role,
			territories = EXCLUDED.territories,
			updated_at = EXCLUDED.updated_at
	`

	territories := m.Territories
	if territories == nil {
		territories = []string{}
	}

	_, err := s.pool.Exec(ctx, query,
		m.WorkspaceID,
		m.UserID,
		m.Role,
		territories,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert membership: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("workspace_id", m.WorkspaceID.String()).
		Str("user_id", m.UserID.String()).
		Str("role", m.Role).
		Msg("Upserted membership")

	return nil
}

// ListByUser returns all memberships of a user, oldest first.
func (s *MembershipStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE user_id = $1
		ORDER BY created_at, workspace_id
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var memberships []*models.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", mapPostgresError(err))
	}

	return memberships, nil
}

// HasRole reports whether the user holds role on any workspace.
func (s *MembershipStore) HasRole(ctx context.Context, userID uuid.UUID, role string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM memberships WHERE user_id = $1 AND role = $2)`,
		userID, role,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check role: %w", mapPostgresError(err))
	}
	return exists, nil
}

// Count returns the total number of memberships.
func (s *MembershipStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM memberships`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count memberships: %w", mapPostgresError(err))
	}
	return count, nil
}

func scanMembership(row pgx.Row) (*models.Membership, error) {
	var m models.Membership
	if err := row.Scan(
		&m.WorkspaceID,
		&m.UserID,
		&m.Role,
		&m.Territories,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}
