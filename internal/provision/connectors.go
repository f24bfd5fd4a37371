package provision

import (
	"context"
	"fmt"
	"os"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/config"
	"github.com/orionpulse/orionpulse/internal/models"
	"github.com/orionpulse/orionpulse/internal/store"
	"github.com/orionpulse/orionpulse/internal/workspace"
	"github.com/rs/zerolog/log"
)

// SyncResult reports the state a registry entry was synced to.
type SyncResult struct {
	Provider         string
	ServerURL        string
	Status           string
	DataSourceStatus string
}

// ConnectorSync aligns the connections of the default workspace with a registry.
type ConnectorSync struct {
	connections  store.ConnectionStore
	bootstrapper *workspace.Bootstrapper
	cfg          config.Config
	lookupEnv    func(string) (string, bool)
	clock        clock.Clock
}

// NewConnectorSync creates a connector sync targeting the configured default
// workspace, or the bootstrapped one when none is configured.
func NewConnectorSync(connections store.ConnectionStore, bootstrapper *workspace.Bootstrapper, cfg config.Config) *ConnectorSync {
	return &ConnectorSync{
		connections:  connections,
		bootstrapper: bootstrapper,
		cfg:          cfg,
		lookupEnv:    os.LookupEnv,
		clock:        clock.New(),
	}
}

// WithEnv replaces the environment lookup used for per-entry overrides.
func (c *ConnectorSync) WithEnv(lookup func(string) (string, bool)) *ConnectorSync {
	c.lookupEnv = lookup
	return c
}

// WithClock replaces the clock used for health check timestamps.
func (c *ConnectorSync) WithClock(clk clock.Clock) *ConnectorSync {
	c.clock = clk
	return c
}

// Sync upserts a connection and a data source per registry entry.
func (c *ConnectorSync) Sync(ctx context.Context, entries []RegistryEntry) (uuid.UUID, []SyncResult, error) {
	workspaceID, err := c.target(ctx)
	if err != nil {
		return uuid.Nil, nil, err
	}

	log.Info().Str("workspace_id", workspaceID.String()).Int("entries", len(entries)).Msg("Syncing connectors")

	results := make([]SyncResult, 0, len(entries))
	for _, entry := range entries {
		res, err := c.syncEntry(ctx, workspaceID, entry)
		if err != nil {
			return workspaceID, results, fmt.Errorf("failed to sync connector %s: %w", entry.Slug, err)
		}

		log.Info().
			Str("provider", res.Provider).
			Str("status", res.Status).
			Str("server_url", res.ServerURL).
			Str("data_source_status", res.DataSourceStatus).
			Msg("Connector synced")
		results = append(results, res)
	}

	return workspaceID, results, nil
}

func (c *ConnectorSync) target(ctx context.Context) (uuid.UUID, error) {
	id, ok, err := c.cfg.DefaultWorkspace()
	if err != nil {
		return uuid.Nil, err
	}
	if ok {
		return id, nil
	}

	id, err = c.bootstrapper.EnsureDefault(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to ensure default workspace: %w", err)
	}
	return id, nil
}

func (c *ConnectorSync) syncEntry(ctx context.Context, workspaceID uuid.UUID, entry RegistryEntry) (SyncResult, error) {
	serverURL := entry.DefaultServerURL
	var statusOverride string
	if entry.Env != nil {
		if v := c.env(entry.Env.ServerURL); v != "" {
			serverURL = v
		}
		statusOverride = c.env(entry.Env.Status)
	}

	status := statusOverride
	if status == "" {
		switch {
		case serverURL == "":
			status = models.ConnectionOffline
		case entry.DefaultStatus != "":
			status = entry.DefaultStatus
		default:
			status = models.ConnectionUnknown
		}
	}

	now := c.clock.Now().UTC()
	conn := &models.Connection{
		WorkspaceID: workspaceID,
		Provider:    entry.Slug,
		ServerURL:   serverURL,
		Status:      status,
		Metadata: map[string]any{
			"label":      entry.Label,
			"transports": entry.Transports,
			"docs":       nullable(entry.Docs),
			"env":        entry.Env,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if status == models.ConnectionOnline {
		conn.LastHealthCheck = &now
	}
	if err := c.connections.UpsertConnection(ctx, conn); err != nil {
		return SyncResult{}, err
	}

	dsStatus := models.DataSourcePending
	if serverURL != "" {
		dsStatus = models.DataSourceConfigured
		if status == models.ConnectionOnline {
			dsStatus = models.DataSourceActive
		}
	}

	authVariables := entry.AuthVariables
	if authVariables == nil {
		authVariables = []AuthVariable{}
	}
	notes := entry.Notes
	if notes == nil {
		notes = []string{}
	}

	ds := &models.DataSource{
		WorkspaceID: workspaceID,
		Provider:    entry.Slug,
		Status:      dsStatus,
		Settings: map[string]any{
			"label":         entry.Label,
			"transports":    entry.Transports,
			"docs":          nullable(entry.Docs),
			"env":           entry.Env,
			"authVariables": authVariables,
			"notes":         notes,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.connections.UpsertDataSource(ctx, ds); err != nil {
		return SyncResult{}, err
	}

	return SyncResult{Provider: entry.Slug, ServerURL: serverURL, Status: status, DataSourceStatus: dsStatus}, nil
}

func (c *ConnectorSync) env(name string) string {
	if name == "" {
		return ""
	}
	v, _ := c.lookupEnv(name)
	return v
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
