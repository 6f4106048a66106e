package app

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/purrwatch/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP stdio server backed by the daemon",
	Long: `Start a Model Context Protocol stdio server that answers from the running
daemon. The server exposes three tools:

  get_pet_status      The cat's health, happiness and mood
  get_stats_snapshot  Today's totals, top sites and current session
  get_history         One row per day for the last N days

Add to an MCP client configuration:
  {"mcpServers":{"purrwatch":{"command":"purrwatch","args":["mcp"]}}}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := mcp.NewServer(newClient(cmd), appVersion)
		return srv.Run(cmd.Context(), os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
