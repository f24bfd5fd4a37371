package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/orionpulse/orionpulse/internal/provision"
	"github.com/orionpulse/orionpulse/internal/store/backend"
	"github.com/orionpulse/orionpulse/internal/workspace"
)

type ConnectorsCmd struct {
	Registry string `help:"Connector registry file (YAML or JSON)" default:"configs/connectors.yaml" env:"ORIONPULSE_CONNECTOR_REGISTRY"`

	Workspace WorkspaceFlags `embed:""`
	Store     StoreFlags     `embed:""`
}

func (c *ConnectorsCmd) Run(ctx context.Context) error {
	cfg, err := c.Workspace.Config()
	if err != nil {
		return err
	}

	entries, err := provision.LoadRegistry(c.Registry)
	if err != nil {
		return err
	}

	stores, err := backend.Open(ctx, c.Store.StoreType, c.Store.PostgresStore)
	if err != nil {
		return err
	}
	defer stores.Close()

	sync := provision.NewConnectorSync(stores.Connections, workspace.NewBootstrapper(stores.Workspaces, cfg), cfg)
	return c.run(ctx, os.Stdout, sync, entries)
}

func (c *ConnectorsCmd) run(ctx context.Context, out io.Writer, sync *provision.ConnectorSync, entries []provision.RegistryEntry) error {
	workspaceID, results, err := sync.Sync(ctx, entries)
	if err != nil {
		return fmt.Errorf("connector sync failed: %w", err)
	}

	fmt.Fprintf(out, "Workspace: %s\n\n", workspaceID)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tSTATUS\tDATA SOURCE\tSERVER URL")
	for _, res := range results {
		url := res.ServerURL
		if url == "" {
			url = "(not configured)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", res.Provider, res.Status, res.DataSourceStatus, url)
	}
	return w.Flush()
}
