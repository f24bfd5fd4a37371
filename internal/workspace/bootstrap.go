package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/config"
	"github.com/orionpulse/orionpulse/internal/models"
	"github.com/orionpulse/orionpulse/internal/store"
	"github.com/orionpulse/orionpulse/internal/telemetry"
	"github.com/rs/zerolog/log"
)

// DefaultBootstrapKey marks the workspace created by the bootstrapper.
// The store enforces that at most one workspace carries it.
const DefaultBootstrapKey = "default"

// Bootstrapper guarantees that at least one workspace exists.
type Bootstrapper struct {
	workspaces  store.WorkspaceStore
	name        string
	territories []string
	clock       clock.Clock
}

// NewBootstrapper creates a bootstrapper using the default name and
// territories from cfg.
func NewBootstrapper(workspaces store.WorkspaceStore, cfg config.Config) *Bootstrapper {
	cfg.ApplyDefaults()
	return &Bootstrapper{
		workspaces:  workspaces,
		name:        cfg.DefaultWorkspaceName,
		territories: cfg.DefaultTerritories,
		clock:       clock.New(),
	}
}

// WithClock replaces the clock used for creation timestamps.
func (b *Bootstrapper) WithClock(c clock.Clock) *Bootstrapper {
	b.clock = c
	return b
}

// EnsureDefault returns the oldest workspace, creating the default workspace
// first when none exists.
//
// Concurrent callers, in this process or others, all end up with the same
// workspace: losers of the insert race re-read the oldest workspace once and
// only report their insert error when that re-read finds nothing.
func (b *Bootstrapper) EnsureDefault(ctx context.Context) (uuid.UUID, error) {
	oldest, err := b.workspaces.Oldest(ctx)
	if err == nil {
		return oldest.ID, nil
	}
	if !errors.Is(err, store.ErrWorkspaceNotFound) {
		return uuid.Nil, fmt.Errorf("failed to read oldest workspace: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to generate workspace id: %w", err)
	}

	key := DefaultBootstrapKey
	ws := &models.Workspace{
		ID:           id,
		Name:         b.name,
		Slug:         NewSlug(b.name),
		Territories:  append([]string(nil), b.territories...),
		BootstrapKey: &key,
		CreatedAt:    b.clock.Now().UTC(),
	}

	createErr := b.workspaces.Create(ctx, ws)
	if createErr == nil {
		telemetry.GetMetrics().WorkspaceBootstrapsTotal.Add(ctx, 1)
		log.Info().
			Str("workspace_id", ws.ID.String()).
			Str("slug", ws.Slug).
			Strs("territories", ws.Territories).
			Msg("Created default workspace")
		return ws.ID, nil
	}

	log.Debug().Err(createErr).Msg("Default workspace insert failed, re-reading oldest workspace")

	oldest, err = b.workspaces.Oldest(ctx)
	if err == nil {
		return oldest.ID, nil
	}

	return uuid.Nil, fmt.Errorf("failed to bootstrap default workspace: %w", createErr)
}
