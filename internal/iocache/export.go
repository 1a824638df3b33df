package iocache

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/slick/internal/parquet"
	"github.com/huangsam/slick/schema"
)

// ExecuteStoreExport exports every stored record and its stats to Parquet files.
func ExecuteStoreExport(ctx context.Context, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	store := Manager.GetRecordStore()
	if store == nil {
		return errors.New("record store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get store status: %w", err)
	}
	if status.TotalRecords == 0 {
		return errors.New("no records found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total records: %d\n", status.TotalRecords)

	all := schema.RecordQuery{SortBy: schema.SortByID, SortDir: schema.SortAsc}
	page, err := store.ListRecords(ctx, all)
	if err != nil {
		return fmt.Errorf("failed to retrieve records: %w", err)
	}
	stats, err := store.ListStats(ctx, all)
	if err != nil {
		return fmt.Errorf("failed to retrieve stats: %w", err)
	}

	recordsFile := outputFile + ".records.parquet"
	records := parquet.ConvertRecords(page.Items)
	if err := parquet.WriteFile(records, recordsFile); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	fmt.Printf("Exported %d records to: %s\n", len(records), recordsFile)

	statsFile := outputFile + ".stats.parquet"
	rows := parquet.ConvertStats(stats)
	if err := parquet.WriteFile(rows, statsFile); err != nil {
		return fmt.Errorf("failed to write stats: %w", err)
	}
	fmt.Printf("Exported %d stats rows to: %s\n", len(rows), statsFile)

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - DuckDB")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - Any other Parquet-compatible tool")

	return nil
}
