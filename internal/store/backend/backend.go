// Package backend opens the storage backend selected on the command line.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/orionpulse/orionpulse/internal/store"
	memorystore "github.com/orionpulse/orionpulse/internal/store/memory"
	postgresstore "github.com/orionpulse/orionpulse/internal/store/postgres"
	"github.com/rs/zerolog/log"
)

// PostgresFlags configures the PostgreSQL backend. The struct carries kong
// tags so commands can embed it with a "postgres-" prefix.
type PostgresFlags struct {
	// Connection Configuration
	ConnString      string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`
	ConnectAttempts uint   `help:"attempts to reach PostgreSQL on startup" default:"5" env:"ORIONPULSE_POSTGRES_CONNECT_ATTEMPTS"`

	// Connection Pool Configuration
	MaxConns        int32 `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"2"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"1800"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"ORIONPULSE_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresFlags) Validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

// Stores groups the storage backends shared by the server and CLI commands.
type Stores struct {
	Workspaces  store.WorkspaceStore
	Memberships store.MembershipStore
	Principals  store.PrincipalStore
	Copilot     store.CopilotStore
	Connections store.ConnectionStore
	SyncJobs    store.SyncJobStore

	close func()
}

// Close releases the resources held by the stores.
func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// Open creates the stores for storeType, "memory" or "postgres".
func Open(ctx context.Context, storeType string, flags PostgresFlags) (*Stores, error) {
	switch storeType {
	case "postgres":
		if err := flags.Validate(); err != nil {
			return nil, err
		}

		// Create shared connection pool for all PostgreSQL stores
		pool, err := postgresstore.NewPool(ctx, &postgresstore.PoolConfig{
			ConnString:      flags.ConnString,
			MaxConns:        flags.MaxConns,
			MinConns:        flags.MinConns,
			MaxConnLifetime: flags.MaxConnLifetime,
			MaxConnIdleTime: flags.MaxConnIdleTime,
			ConnectAttempts: flags.ConnectAttempts,
			AutoMigrate:     flags.AutoMigrate,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create connection pool: %w", err)
		}

		log.Info().Msg("Using PostgreSQL stores with shared connection pool")

		return &Stores{
			Workspaces:  postgresstore.NewWorkspaceStore(pool),
			Memberships: postgresstore.NewMembershipStore(pool),
			Principals:  postgresstore.NewPrincipalStore(pool),
			Copilot:     postgresstore.NewCopilotStore(pool),
			Connections: postgresstore.NewConnectionStore(pool),
			SyncJobs:    postgresstore.NewSyncJobStore(pool),
			close:       pool.Close,
		}, nil

	default:
		log.Info().Msg("Using in-memory stores")

		return &Stores{
			Workspaces:  memorystore.NewWorkspaceStore(),
			Memberships: memorystore.NewMembershipStore(),
			Principals:  memorystore.NewPrincipalStore(),
			Copilot:     memorystore.NewCopilotStore(),
			Connections: memorystore.NewConnectionStore(),
			SyncJobs:    memorystore.NewSyncJobStore(),
		}, nil
	}
}
