// Package cmd defines the command-line interface for slick.
package cmd

import (
	"github.com/huangsam/slick/internal/contract"
	"github.com/huangsam/slick/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(outlineCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the records subcommands to the parent records command
	recordsCmd.AddCommand(recordsImportCmd)
	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsShowCmd)
	recordsCmd.AddCommand(recordsDeleteCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeExportCmd)
	storeCmd.AddCommand(storeMigrateCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("detail", string(schema.DetailMedium), "Level of detail: single or low or medium or high")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of results to display")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet or html")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns (1 or 2)")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().Float64("cluster-scale", contract.DefaultClusterScale, "Clusters per square degree of bounding box")
	rootCmd.PersistentFlags().Int("max-iterations", contract.DefaultMaxIterations, "Upper bound on k-means iterations")
	rootCmd.PersistentFlags().Float64("epsilon", contract.DefaultEpsilon, "Centroid movement below which k-means stops early")
	rootCmd.PersistentFlags().String("tie-break", contract.TieBreakFirst, "Cluster chosen on equal distance: first or last")
	rootCmd.PersistentFlags().Bool("drop-empty", false, "Drop clusters that end up with no member points")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Record store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for the record store (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("emoji", "no", "Enable emojis in headers (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// groupsCmd flags
	groupsCmd.Flags().String("id", "", "Only build the spill with this id")
	groupsCmd.Flags().Bool("sun", false, "Attach the subsolar point for every timestamp")
	addQueryFlags(groupsCmd.Flags())

	// statsCmd flags
	statsCmd.Flags().String("rank-by", string(schema.AreaField), "Stat field to rank spills by")
	addQueryFlags(statsCmd.Flags())

	// outlineCmd flags
	outlineCmd.Flags().String("id", "", "Spill id to outline")
	outlineCmd.Flags().String("timestamp", "", "Only outline this timestamp")
	outlineCmd.Flags().String("density", "", "Only outline this density key")

	// records subcommand flags
	recordsImportCmd.Flags().String("id", "", "Spill id for an upload document without one")
	addQueryFlags(recordsListCmd.Flags())
	recordsShowCmd.Flags().String("id", "", "Spill id to show")
	recordsDeleteCmd.Flags().String("id", "", "Spill id to delete")

	// serveCmd flags
	serveCmd.Flags().String("listen", contract.DefaultListen, "Address the HTTP API listens on")

	// storeMigrateCmd flags
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}
}

// addQueryFlags registers the record store query flags on fs.
func addQueryFlags(fs *pflag.FlagSet) {
	fs.Int("page", contract.DefaultPage, "Page of stored records, starting at 1")
	fs.Int("size", contract.DefaultPageSize, "Number of stored records per page")
	fs.String("id-contains", "", "Only records whose id contains this text (at least 3 characters)")
	fs.String("min-area", "", "Only records with at least this area")
	fs.String("max-area", "", "Only records with at most this area")
	fs.String("sort", string(schema.SortByID), "Sort field: id or area or imported_at")
	fs.String("order", string(schema.SortAsc), "Sort order: asc or desc")
}
