package cmd

import (
	"fmt"

	"github.com/huangsam/slick/internal/contract"
	"github.com/huangsam/slick/internal/iocache"
	"github.com/huangsam/slick/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeBackendFromViper resolves and validates the record store backend settings.
func storeBackendFromViper() (schema.DatabaseBackend, string, error) {
	backend := schema.DatabaseBackend(viper.GetString("store-backend"))
	if backend == "" {
		backend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("store-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// storeSetup loads minimal configuration needed for record store operations.
// This is used by commands that need store access without full shared setup.
func storeSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := storeBackendFromViper()
	if err != nil {
		return err
	}

	// Initialize the record store only (no groups cache for store commands)
	if err := iocache.InitStores("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize record store: %w", err)
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")

	return nil
}

// storeSetupWrapper wraps storeSetup to provide PreRunE for store commands.
func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup()
}

// storeMigrateSetup loads minimal configuration needed for migrate operations.
// It does NOT initialize stores or create tables, so migrations can run on a fresh database.
func storeMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := storeBackendFromViper()
	if err != nil {
		return err
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr

	return nil
}

// storeMigrateSetupWrapper wraps storeMigrateSetup to provide PreRunE for the migrate command.
func storeMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeMigrateSetup()
}

// storeCmd focused on record store management.
//
// Note: Store subcommands use minimal initialization (storeSetup) instead of
// the full sharedSetup, so a bad pipeline flag never blocks maintenance.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the spill record store",
	Long: `Manage the database that holds imported spill records and their stats.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show record store statistics
  export  - Export records and stats to Parquet
  clear   - Remove all stored records
  migrate - Run database schema migrations

Examples:
  # Check store status
  slick store status

  # Export for analysis in pandas/DuckDB
  slick store export --output-file spills`,
}

// storeClearCmd clears the record store.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored spill records",
	Long: `Delete every stored record and its stats.

WARNING: This action cannot be undone. Consider exporting data first.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the records table

Examples:
  slick store export --output-file backup
  slick store clear`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearStore(cfg.StoreBackend, contract.GetStoreDBFilePath(), cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear record store", err)
		}
		fmt.Println("Record store cleared successfully.")
	},
}

// storeStatusCmd shows record store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display record store statistics and connection details",
	Long: `Show the backend, connection status, record count, import times and table size
of the record store.

Examples:
  slick store status`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetRecordStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get record store status", err)
		}
		iocache.PrintStoreStatus(status)
	},
}

// storeExportCmd exports stored records to Parquet files.
var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored records and stats to Parquet",
	Long: `Export all stored records and their stats to two Parquet files:
<output-file>.records.parquet and <output-file>.stats.parquet.

Requires: --output-file parameter

Examples:
  slick store export --output-file spills
  duckdb -c "SELECT * FROM read_parquet('spills.stats.parquet') LIMIT 10"`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteStoreExport(rootCtx, cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export records", err)
		}
	},
}

// storeMigrateCmd runs database migrations for the record store.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the record store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  slick store migrate

  # Rollback to initial state
  slick store migrate --target-version 0`,
	PreRunE: storeMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateStore(cfg.StoreBackend, cfg.StoreDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
