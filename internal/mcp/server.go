// Package mcp exposes the planner as Model Context Protocol tools over stdio.
package mcp

import (
	"context"

	"crewopt/internal/dataset"
	"crewopt/internal/planner"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Server holds the state for the MCP server.
type Server struct {
	planner             *planner.Planner
	source              dataset.Source
	enableMermaidCharts bool
	version             string
}

// NewServer creates a new MCP server. The dataset is reloaded from source on
// every tool call so edits to the data directory are picked up.
func NewServer(p *planner.Planner, source dataset.Source, enableMermaidCharts bool, version string) *Server {
	return &Server{
		planner:             p,
		source:              source,
		enableMermaidCharts: enableMermaidCharts,
		version:             version,
	}
}

// MCP builds the protocol server with every tool registered.
func (s *Server) MCP() *sdk.Server {
	server := sdk.NewServer(&sdk.Implementation{Name: "crewopt", Version: s.version}, nil)
	s.registerTools(server)
	return server
}

// Serve runs the stdio loop until the client disconnects or ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	log.Info().Str("version", s.version).Msg("MCP server listening on stdio")
	return s.MCP().Run(ctx, &sdk.StdioTransport{})
}
