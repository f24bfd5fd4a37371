package models

import (
	"time"

	"github.com/google/uuid"
)

// Workspace represents a tenant in the system.
// Memberships, copilot sessions and connectors are all scoped to a workspace.
type Workspace struct {
	ID          uuid.UUID // UUIDv7
	Name        string
	Slug        string   // Unique, derived from Name plus a random suffix
	Territories []string // e.g. ["MQ", "GP", "GF"]

	// BootstrapKey is only set on the workspace created by the default-tenant
	// bootstrapper. It carries a unique constraint so concurrent bootstraps
	// cannot both insert.
	BootstrapKey *string

	CreatedAt time.Time
}
