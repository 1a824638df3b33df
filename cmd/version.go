package cmd

import (
	"runtime"

	"github.com/huangsam/slick/core"
	"github.com/spf13/cobra"
)

// versionCmd shows the verbose version for diagnostic purposes.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of slick.",
	Long: `Display version information including build details.

Shows:
- Release version and Git commit hash
- Build timestamp
- Go runtime version
- Cache schema version (entries from other versions are rebuilt)`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("slick CLI\n")
		cmd.Printf("  Version: %s\n", version)
		cmd.Printf("  Commit:  %s\n", commit)
		cmd.Printf("  Built:   %s\n", date)
		cmd.Printf("  Runtime: %s\n", runtime.Version())
		cmd.Printf("  Cache:   v%d\n", core.CacheVersion())
	},
}
