package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/slick/core/agg"
	"github.com/huangsam/slick/core/algo"
	"github.com/huangsam/slick/internal/contract"
	"github.com/huangsam/slick/schema"
)

// GetGroupsDocument loads the selected records and builds their grouped document.
func GetGroupsDocument(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.GroupsDocument, error) {
	records, err := loadRecords(ctx, cfg, mgr)
	if err != nil {
		return schema.GroupsDocument{}, err
	}
	return BuildDocument(ctx, cfg, mgr, records)
}

// GetStatsResults aggregates the selected stats and ranks them by cfg.RankBy.
func GetStatsResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.FormattedStats, []schema.PrecomputedStatsEntry, error) {
	entries, err := loadStats(ctx, cfg, mgr)
	if err != nil {
		return schema.FormattedStats{}, nil, err
	}

	stats, err := agg.Aggregate(entries)
	if errors.Is(err, agg.ErrEmptyInput) {
		return schema.FormattedStats{}, nil, ErrNoRecords
	}
	if err != nil {
		return schema.FormattedStats{}, nil, err
	}
	return stats, algo.RankStats(entries, cfg.RankBy, cfg.Limit), nil
}

// GetOutlines computes the outlines for the single spill selected by cfg.
func GetOutlines(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) ([]schema.Outline, error) {
	if cfg.SpillID == "" && cfg.InputPath == "" {
		return nil, errors.New("--id is required when reading from the record store")
	}

	records, err := loadRecords(ctx, cfg, mgr)
	if err != nil {
		return nil, err
	}
	if len(records) != 1 {
		return nil, fmt.Errorf("outline needs exactly one spill, got %d; use --id to pick one", len(records))
	}
	return BuildOutlines(ctx, cfg, mgr, records[0])
}

// GetRecordPage returns the page of stored records matching cfg.Query.
func GetRecordPage(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.RecordPage, error) {
	store, err := recordStore(mgr)
	if err != nil {
		return schema.RecordPage{}, err
	}
	return store.ListRecords(ctx, cfg.Query)
}

// GetStoredRecord returns the stored record named by cfg.SpillID.
func GetStoredRecord(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.StoredRecord, error) {
	if cfg.SpillID == "" {
		return schema.StoredRecord{}, errors.New("--id is required")
	}
	store, err := recordStore(mgr)
	if err != nil {
		return schema.StoredRecord{}, err
	}
	return store.GetRecord(ctx, cfg.SpillID)
}
