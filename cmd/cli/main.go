package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/orionpulse/orionpulse/cmd/cli/internal/commands"
	"github.com/orionpulse/orionpulse/internal/config"
	"github.com/orionpulse/orionpulse/internal/logger"
)

var (
	version = "dev"
	cli     struct {
		Onboard    commands.OnboardCmd    `cmd:"" help:"Provision a workspace and its first member"`
		Connectors commands.ConnectorsCmd `cmd:"" help:"Sync MCP connectors from the registry into the default workspace"`
		Token      commands.TokenCmd      `cmd:"" help:"Generate an access token"`
		Debug      bool                   `help:"Enable debug mode."`
		Version    kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("orionpulse"),
		kong.Vars{
			"version":                version,
			"default_workspace_name": config.DefaultWorkspaceName,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	logger.Setup(cli.Debug)
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
