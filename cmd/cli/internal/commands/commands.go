package commands

import (
	"fmt"
	"strings"

	"github.com/orionpulse/orionpulse/internal/config"
	"github.com/orionpulse/orionpulse/internal/store/backend"
)

type Globals struct {
	Debug   bool
	Version string
}

// StoreFlags select the storage backend shared by the provisioning commands.
type StoreFlags struct {
	StoreType     string                `help:"store type (memory or postgres)" default:"postgres" env:"ORIONPULSE_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore backend.PostgresFlags `embed:"" prefix:"postgres-"`
}

// WorkspaceFlags carry the workspace defaults shared with the server.
type WorkspaceFlags struct {
	WorkspaceID          string `help:"default workspace hint" env:"ORIONPULSE_WORKSPACE_ID"`
	DefaultWorkspaceName string `help:"name of the default workspace" default:"${default_workspace_name}" env:"ORIONPULSE_DEFAULT_WORKSPACE_NAME"`
	DefaultTerritories   string `help:"comma separated default territories" default:"MQ,GP,GF" env:"ORIONPULSE_DEFAULT_TERRITORIES"`
}

func (w *WorkspaceFlags) Config() (config.Config, error) {
	cfg := config.Config{
		WorkspaceID:          strings.TrimSpace(w.WorkspaceID),
		DefaultWorkspaceName: w.DefaultWorkspaceName,
		DefaultTerritories:   config.ParseTerritories(w.DefaultTerritories),
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
