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

// CopilotStore implements store.CopilotStore using PostgreSQL.
// Sessions live in copilot_sessions, events in copilot_messages.
type CopilotStore struct {
	pool *pgxpool.Pool
}

// NewCopilotStore creates a new PostgreSQL-backed copilot store.
func NewCopilotStore(pool *pgxpool.Pool) *CopilotStore {
	return &CopilotStore{
		pool: pool,
	}
}

// AppendMessage creates the session header on first write and appends the event.
//
// The header insert uses ON CONFLICT DO NOTHING so concurrent first writers
// race on the primary key; whichever commits first sets the binding. The row
// is then locked and compared before the message is inserted.
func (s *CopilotStore) AppendMessage(ctx context.Context, header store.SessionHeader, event models.CopilotEvent) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapPostgresError(err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	_, err = tx.Exec(ctx, `
		INSERT INTO copilot_sessions (id, workspace_id, territory, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`, header.ID, nullableUUID(header.WorkspaceID), nullableString(header.Territory), event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", mapPostgresError(err))
	}

	var bound *uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT workspace_id FROM copilot_sessions WHERE id = $1 FOR UPDATE`,
		header.ID,
	).Scan(&bound)
	if err != nil {
		return fmt.Errorf("failed to read session binding: %w", mapPostgresError(err))
	}

	existing := uuid.Nil
	if bound != nil {
		existing = *bound
	}
	if existing != header.WorkspaceID {
		log.Warn().
			Str("session_id", header.ID.String()).
			Str("bound_workspace_id", existing.String()).
			Str("workspace_id", header.WorkspaceID.String()).
			Msg("Refusing append to session bound to another workspace")
		return store.ErrSessionBindingMismatch
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO copilot_messages (session_id, role, content, created_at)
		VALUES ($1, $2, $3, $4)
	`, header.ID, event.Role, event.Content, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", mapPostgresError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit message: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("session_id", header.ID.String()).
		Str("role", event.Role).
		Msg("Appended copilot message")

	return nil
}

// GetHeader retrieves the persisted session header.
func (s *CopilotStore) GetHeader(ctx context.Context, sessionID uuid.UUID) (*store.SessionHeader, error) {
	var workspaceID *uuid.UUID
	var territory *string
	err := s.pool.QueryRow(ctx,
		`SELECT workspace_id, territory FROM copilot_sessions WHERE id = $1`,
		sessionID,
	).Scan(&workspaceID, &territory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", mapPostgresError(err))
	}

	header := &store.SessionHeader{ID: sessionID}
	if workspaceID != nil {
		header.WorkspaceID = *workspaceID
	}
	if territory != nil {
		header.Territory = *territory
	}

	return header, nil
}

// ListMessages returns the persisted events of a session in append order.
func (s *CopilotStore) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]models.CopilotEvent, error) {
	if _, err := s.GetHeader(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT role, content, created_at
		FROM copilot_messages
		WHERE session_id = $1
		ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", mapPostgresError(err))
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.CopilotEvent, error) {
		var e models.CopilotEvent
		err := row.Scan(&e.Role, &e.Content, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan messages: %w", mapPostgresError(err))
	}

	return events, nil
}

func nullableUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
