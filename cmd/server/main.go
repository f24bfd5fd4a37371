package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/orionpulse/orionpulse/cmd/server/internal/commands"
	"github.com/orionpulse/orionpulse/internal/config"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool `help:"Enable debug mode."`
		Version kong.VersionFlag
		Serve   commands.ServerCmd `cmd:"" help:"Start the dashboard API server"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("orionpulse-server"),
		kong.Vars{
			"version":                     version,
			"default_workspace_name":      config.DefaultWorkspaceName,
			"default_openai_api_base":     config.DefaultOpenAIAPIBase,
			"default_semantic_connection": config.DefaultSemanticConnection,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
