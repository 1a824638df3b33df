package cmd

import (
	"github.com/huangsam/slick/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Slick MCP server",
	Long:  `Launch an MCP server over stdio that lets AI agents build groups, aggregate stats, outline spills and list stored records.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Headers are suppressed by the tool handlers since stdio carries the protocol.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
