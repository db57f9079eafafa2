package commands

import (
	"crewopt/internal/mcp"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the planner as MCP tools on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		source, closeSource, err := openSource(cmd.Context())
		if err != nil {
			return err
		}
		defer closeSource()

		server := mcp.NewServer(plan, source, cfg.EnableMermaidCharts, Version)
		return server.Serve(cmd.Context())
	},
}
