// Package core orchestrates the pipeline: loading records, building grouped
// output, aggregating stats and computing outlines.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/slick/internal/contract"
	"github.com/huangsam/slick/internal/outwriter"
)

// ExecutorFunc defines the function signature for executing pipeline commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteGroups builds grouped, level-of-detail output for the selected records.
func ExecuteGroups(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	records, err := loadRecords(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	if !isQuiet(ctx) {
		outwriter.LogGroupsHeader(cfg, len(records))
	}

	doc, err := BuildDocument(ctx, cfg, mgr, records)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteGroups(doc, cfg, time.Since(start))
}

// ExecuteStats aggregates precomputed stats and lists the top entries by cfg.RankBy.
func ExecuteStats(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	stats, ranked, err := GetStatsResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteStats(stats, ranked, cfg, time.Since(start))
}

// ExecuteOutline computes convex-hull outlines for the density buckets of one spill.
func ExecuteOutline(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	outlines, err := GetOutlines(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteOutlines(outlines, cfg, time.Since(start))
}

// ExecuteImport reads cfg.InputPath and stores its records with their stats.
func ExecuteImport(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	if cfg.InputPath == "" {
		return errors.New("an input file is required")
	}
	store, err := recordStore(mgr)
	if err != nil {
		return err
	}

	records, err := ReadRecordsFile(cfg.InputPath, cfg.SpillID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return ErrNoRecords
	}

	stats, err := ImportRecords(ctx, store, records)
	if err != nil {
		return fmt.Errorf("import stopped after %d of %d records: %w", len(stats), len(records), err)
	}
	return outwriter.NewOutWriter().WriteImport(stats, cfg, time.Since(start))
}

// ExecuteRecordsList prints one page of the record store.
func ExecuteRecordsList(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	page, err := GetRecordPage(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteRecords(page, cfg, time.Since(start))
}

// ExecuteRecordsShow prints a single stored record with its stats.
func ExecuteRecordsShow(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	stored, err := GetStoredRecord(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteRecord(stored, cfg)
}

// ExecuteRecordsDelete removes a single record from the store.
func ExecuteRecordsDelete(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	if cfg.SpillID == "" {
		return errors.New("--id is required")
	}
	store, err := recordStore(mgr)
	if err != nil {
		return err
	}
	if err := store.DeleteRecord(ctx, cfg.SpillID); err != nil {
		return err
	}
	fmt.Printf("Deleted spill %s.\n", cfg.SpillID)
	return nil
}
