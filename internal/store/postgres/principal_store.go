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

// PrincipalStore implements store.PrincipalStore using PostgreSQL.
type PrincipalStore struct {
	pool *pgxpool.Pool
}

// NewPrincipalStore creates a new PostgreSQL-backed principal store.
// It shares the connection pool with other stores.
func NewPrincipalStore(pool *pgxpool.Pool) *PrincipalStore {
	return &PrincipalStore{
		pool: pool,
	}
}

// Create creates a new principal in the database.
func (s *PrincipalStore) Create(ctx context.Context, p *models.Principal) error {
	query := `
		INSERT INTO users (id, email, full_name, created_at)
		VALUES ($1, $2, $3, $4)
	`

	// Convert empty strings to NULL so the email unique constraint only applies to real addresses
	var email, fullName any
	if p.Email != "" {
		email = p.Email
	}
	if p.FullName != "" {
		fullName = p.FullName
	}

	_, err := s.pool.Exec(ctx, query, p.ID, email, fullName, p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrPrincipalAlreadyExists
		}
		return fmt.Errorf("failed to create principal: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("principal_id", p.ID.String()).
		Str("email", p.Email).
		Msg("Created principal")

	return nil
}

// Get retrieves a principal by ID.
func (s *PrincipalStore) Get(ctx context.Context, id uuid.UUID) (*models.Principal, error) {
	query := `SELECT id, email, full_name, created_at FROM users WHERE id = $1`

	var p models.Principal
	var email, fullName *string
	err := s.pool.QueryRow(ctx, query, id).Scan(&p.ID, &email, &fullName, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("failed to get principal: %w", mapPostgresError(err))
	}

	if email != nil {
		p.Email = *email
	}
	if fullName != nil {
		p.FullName = *fullName
	}

	return &p, nil
}
