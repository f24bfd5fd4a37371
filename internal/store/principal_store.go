package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/models"
)

// Sentinel errors for principal store operations
var (
	ErrPrincipalNotFound      = errors.New("principal not found")
	ErrPrincipalAlreadyExists = errors.New("principal already exists")
)

// PrincipalStore defines the interface for principal (user) storage operations.
type PrincipalStore interface {
	// Create creates a new principal.
	// Returns ErrPrincipalAlreadyExists if the ID or email is taken.
	Create(ctx context.Context, p *models.Principal) error

	// Get retrieves a principal by ID.
	// Returns ErrPrincipalNotFound if the principal doesn't exist.
	Get(ctx context.Context, id uuid.UUID) (*models.Principal, error)
}
