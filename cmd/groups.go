package cmd

import (
	"github.com/huangsam/slick/core"
	"github.com/huangsam/slick/internal/contract"
	"github.com/spf13/cobra"
)

// runExecutor runs one pipeline executor with the shared config and cache.
func runExecutor(msg string, executeFunc core.ExecutorFunc) {
	if err := executeFunc(rootCtx, cfg, cacheManager); err != nil {
		contract.LogFatal(msg, err)
	}
}

// groupsCmd builds grouped level-of-detail output.
var groupsCmd = &cobra.Command{
	Use:   "groups [records-file]",
	Short: "Build grouped, level-of-detail points for every timestamp.",
	Long: `Normalize spill observations into weighted points, cluster them per density bucket
and group the result by timestamp.

Records come from the first source available:
- A JSON file given as the positional argument (a record, an array of records or an upload document)
- The record store entry selected with --id
- The record store page selected with the query flags

Detail levels cap the clusters kept per density bucket:
  single - 1 cluster
  low    - 16 clusters
  medium - 32 clusters (default)
  high   - 64 clusters

Built documents are cached by content, so repeated runs over the same records are fast.

Examples:
  # Build the default medium detail for a file
  slick groups spill.json

  # Build the low detail for one stored spill, with sun positions
  slick groups --id deepwater --detail low --sun

  # Plot every stored spill larger than 10 units
  slick groups --min-area 10 --output html --output-file groups.html`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runExecutor("Cannot build groups", core.ExecuteGroups)
	},
}

// statsCmd aggregates precomputed stats.
var statsCmd = &cobra.Command{
	Use:   "stats [records-file]",
	Short: "Aggregate per-spill stats into global summaries.",
	Long: `Compute per-spill stats (area, duration, frequency, points, density, perimeter,
compaction, dispersion and bearing) and aggregate them into min, max and average
summaries across all selected spills.

The top spills are ranked by --rank-by and limited by --limit.

Examples:
  # Summarize every stored spill
  slick stats

  # Rank a file of records by observed duration
  slick stats records.json --rank-by duration --limit 10

  # Export the ranked stats for analytics
  slick stats --output parquet --output-file stats.parquet`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runExecutor("Cannot aggregate stats", core.ExecuteStats)
	},
}

// outlineCmd computes convex-hull outlines.
var outlineCmd = &cobra.Command{
	Use:   "outline [records-file]",
	Short: "Compute convex-hull outlines of one spill's density buckets.",
	Long: `Wrap every density bucket of a single spill in its convex hull.

JSON output is a GeoJSON FeatureCollection and CSV output carries WKT polygons,
so either can be loaded straight into GIS tooling.

Examples:
  # Outline every bucket of a stored spill
  slick outline --id deepwater --output json

  # Outline a single timestamp and density of a file
  slick outline spill.json --timestamp 2010-04-22T12:00:00Z --density 3`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runExecutor("Cannot compute outlines", core.ExecuteOutline)
	},
}
