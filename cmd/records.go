package cmd

import (
	"github.com/huangsam/slick/core"
	"github.com/spf13/cobra"
)

// recordsCmd groups the record store operations.
var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Import, list, show and delete stored spill records.",
	Long: `Manage the spill records kept in the record store.

Imported records are stored together with their precomputed stats, so later
groups, stats and outline runs can read them by id or by query.

Subcommands:
  import - Store the records of a JSON file
  list   - Page through stored records
  show   - Print one record with its stats
  delete - Remove one record`,
}

// recordsImportCmd stores the records of a file.
var recordsImportCmd = &cobra.Command{
	Use:   "import <records-file>",
	Short: "Store the records of a JSON file with their stats",
	Long: `Read a record, an array of records or an upload document and store each record
together with its precomputed stats. Existing records with the same id are replaced.

Examples:
  # Import an upload document under an explicit id
  slick records import upload.json --id deepwater

  # Import many records into PostgreSQL
  SLICK_STORE_BACKEND=postgresql SLICK_STORE_DB_CONNECT="..." slick records import records.json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runExecutor("Cannot import records", core.ExecuteImport)
	},
}

// recordsListCmd pages through stored records.
var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Page through stored records",
	Long: `List stored records with their area, entry count and reference coordinate.

Examples:
  # Largest spills first
  slick records list --sort area --order desc

  # Second page of spills whose id mentions "gulf"
  slick records list --id-contains gulf --page 2 --size 10`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runExecutor("Cannot list records", core.ExecuteRecordsList)
	},
}

// recordsShowCmd prints a single stored record.
var recordsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print one stored record with its stats",
	Long: `Print the metadata and precomputed stats of the record selected with --id.

Examples:
  slick records show --id deepwater
  slick records show --id deepwater --output json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runExecutor("Cannot show record", core.ExecuteRecordsShow)
	},
}

// recordsDeleteCmd removes a single stored record.
var recordsDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove one stored record",
	Long: `Delete the record selected with --id from the record store.

Examples:
  slick records delete --id deepwater`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runExecutor("Cannot delete record", core.ExecuteRecordsDelete)
	},
}
