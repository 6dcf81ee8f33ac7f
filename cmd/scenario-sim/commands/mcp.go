package commands

import (
	"context"
	"os/signal"
	"syscall"

	"scenario-sim/internal/mcp"

	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the simulation engine as an MCP tool over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP(cmd.Context())
	},
}

func runMCP(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	server, err := mcp.NewServer(p.assembler, cfg.EnableMermaidCharts, Version)
	if err != nil {
		return err
	}
	return server.Run(ctx)
}
