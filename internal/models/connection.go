package models

import (
	"time"

	"github.com/google/uuid"
)

// Connection health states.
const (
	ConnectionOnline   = "online"
	ConnectionDegraded = "degraded"
	ConnectionOffline  = "offline"
	ConnectionUnknown  = "unknown"
)

// Data source states.
const (
	DataSourceActive     = "active"
	DataSourceConfigured = "configured"
	DataSourcePending    = "pending"
)

// Connection is a workspace-scoped remote integration endpoint (an MCP server)
// that can be exposed to the copilot agent as a tool.
type Connection struct {
	WorkspaceID     uuid.UUID
	Provider        string // Registry slug, unique per workspace
	ServerURL       string
	Status          string // "online", "degraded", "offline", "unknown"
	LastHealthCheck *time.Time
	Metadata        map[string]any

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Usable returns true if the connection may be offered to the agent.
func (c *Connection) Usable() bool {
	return c.Status == ConnectionOnline || c.Status == ConnectionDegraded
}

// DataSource records the ingestion state of a provider for a workspace.
type DataSource struct {
	WorkspaceID uuid.UUID
	Provider    string
	Status      string // "active", "configured", "pending"
	Settings    map[string]any

	CreatedAt time.Time
	UpdatedAt time.Time
}
