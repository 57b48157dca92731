package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing kronsteen tools",
	Long: `Start a Model Context Protocol (MCP) server that exposes the find, click,
wait, type, scroll, screenshot, and app-control operations as tools. AI
agents can call tools directly without shell overhead.

Supported transports:
  stdio             Standard I/O (default, for MCP clients)
  streamable-http   Streamable HTTP transport (for remote agents)

Examples:
  kronsteen serve
  kronsteen serve --transport streamable-http --port 8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "stdio", "Transport: stdio, streamable-http")
	serveCmd.Flags().Int("port", 8080, "HTTP port for streamable-http transport")
}

func runServe(cmd *cobra.Command, args []string) error {
	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")

	client, err := newClient(cmd)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	srv := newMCPServer(client)
	return srv.serve(MCPConfig{Transport: transport, Port: port})
}
