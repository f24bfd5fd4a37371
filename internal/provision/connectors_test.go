package provision

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/config"
	"github.com/orionpulse/orionpulse/internal/models"
	"github.com/orionpulse/orionpulse/internal/store/memory"
	"github.com/orionpulse/orionpulse/internal/workspace"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	}
}

func TestConnectorSync(t *testing.T) {
	ctx := context.Background()
	mock := clock.NewMock()
	mock.Set(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	entries := []RegistryEntry{
		{Slug: "google-ads", Label: "Google Ads", DefaultStatus: models.ConnectionOnline, Env: &EntryEnv{ServerURL: "GADS_URL", Status: "GADS_STATUS"}},
		{Slug: "meta-ads", Label: "Meta Ads", DefaultServerURL: "https://mcp.example.com/meta"},
		{Slug: "tiktok", Label: "TikTok", DefaultStatus: models.ConnectionOnline},
		{Slug: "dbt", Label: "dbt", DefaultServerURL: "https://dbt.example.com", Env: &EntryEnv{Status: "DBT_STATUS"}},
	}

	tests := []struct {
		provider   string
		env        map[string]string
		wantURL    string
		wantStatus string
		wantDS     string
		wantCheck  bool
	}{
		{provider: "google-ads", env: map[string]string{"GADS_URL": "https://mcp.example.com/gads"}, wantURL: "https://mcp.example.com/gads", wantStatus: models.ConnectionOnline, wantDS: models.DataSourceActive, wantCheck: true},
		{provider: "meta-ads", wantURL: "https://mcp.example.com/meta", wantStatus: models.ConnectionUnknown, wantDS: models.DataSourceConfigured},
		{provider: "tiktok", wantStatus: models.ConnectionOffline, wantDS: models.DataSourcePending},
		{provider: "dbt", env: map[string]string{"DBT_STATUS": models.ConnectionDegraded}, wantURL: "https://dbt.example.com", wantStatus: models.ConnectionDegraded, wantDS: models.DataSourceConfigured},
	}

	values := map[string]string{}
	for _, tt := range tests {
		for k, v := range tt.env {
			values[k] = v
		}
	}

	workspaces := memory.NewWorkspaceStore()
	connections := memory.NewConnectionStore()
	sync := NewConnectorSync(connections, workspace.NewBootstrapper(workspaces, config.Config{}), config.Config{}).
		WithEnv(env(values)).
		WithClock(mock)

	workspaceID, results, err := sync.Sync(ctx, entries)
	require.NoError(t, err)
	require.Len(t, results, len(entries))

	oldest, err := workspaces.Oldest(ctx)
	require.NoError(t, err)
	require.Equal(t, oldest.ID, workspaceID)

	conns, err := connections.ListConnections(ctx, workspaceID)
	require.NoError(t, err)
	byProvider := make(map[string]*models.Connection, len(conns))
	for _, c := range conns {
		byProvider[c.Provider] = c
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			c, ok := byProvider[tt.provider]
			require.True(t, ok)
			require.Equal(t, tt.wantURL, c.ServerURL)
			require.Equal(t, tt.wantStatus, c.Status)
			if tt.wantCheck {
				require.NotNil(t, c.LastHealthCheck)
				require.Equal(t, mock.Now().UTC(), *c.LastHealthCheck)
			} else {
				require.Nil(t, c.LastHealthCheck)
			}

			ds, ok := connections.DataSource(workspaceID, tt.provider)
			require.True(t, ok)
			require.Equal(t, tt.wantDS, ds.Status)
		})
	}
}

func TestConnectorSync_ConfiguredWorkspace(t *testing.T) {
	ctx := context.Background()
	target := uuid.New()
	workspaces := memory.NewWorkspaceStore()
	connections := memory.NewConnectionStore()
	cfg := config.Config{WorkspaceID: target.String()}

	sync := NewConnectorSync(connections, workspace.NewBootstrapper(workspaces, cfg), cfg).WithEnv(env(nil))
	workspaceID, _, err := sync.Sync(ctx, []RegistryEntry{{Slug: "dbt", Label: "dbt"}})
	require.NoError(t, err)
	require.Equal(t, target, workspaceID)

	// The configured workspace is used as is, nothing is bootstrapped
	_, err = workspaces.Oldest(ctx)
	require.Error(t, err)

	_, ok := connections.DataSource(target, "dbt")
	require.True(t, ok)
}

func TestConnectorSync_InvalidConfiguredWorkspace(t *testing.T) {
	cfg := config.Config{WorkspaceID: "not-a-uuid"}
	sync := NewConnectorSync(memory.NewConnectionStore(), workspace.NewBootstrapper(memory.NewWorkspaceStore(), cfg), cfg)

	_, _, err := sync.Sync(context.Background(), nil)
	require.Error(t, err)
}
