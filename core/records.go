package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/slick/core/metrics"
	"github.com/huangsam/slick/internal/contract"
	"github.com/huangsam/slick/internal/ingest"
	"github.com/huangsam/slick/schema"
)

// ErrNoRecords is returned when a command has nothing to work on.
var ErrNoRecords = errors.New("no spill records found")

// loadRecords resolves the records a command works on. A positional input
// file wins, then a single --id from the store, then the store query.
func loadRecords(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) ([]schema.RawSpillRecord, error) {
	if cfg.InputPath != "" {
		records, err := ReadRecordsFile(cfg.InputPath, cfg.SpillID)
		if err != nil {
			return nil, err
		}
		if cfg.SpillID != "" {
			return selectRecord(records, cfg.SpillID)
		}
		return records, nil
	}

	store, err := recordStore(mgr)
	if err != nil {
		return nil, err
	}
	if cfg.SpillID != "" {
		stored, err := store.GetRecord(ctx, cfg.SpillID)
		if err != nil {
			return nil, err
		}
		return []schema.RawSpillRecord{stored.Record}, nil
	}

	page, err := store.ListRecords(ctx, cfg.Query)
	if err != nil {
		return nil, err
	}
	if len(page.Records) == 0 {
		return nil, ErrNoRecords
	}
	return page.Records, nil
}

// loadStats resolves the precomputed stats a stats command aggregates.
func loadStats(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) ([]schema.PrecomputedStatsEntry, error) {
	if cfg.InputPath != "" {
		records, err := ReadRecordsFile(cfg.InputPath, "")
		if err != nil {
			return nil, err
		}
		return metrics.ComputeAll(records), nil
	}

	store, err := recordStore(mgr)
	if err != nil {
		return nil, err
	}
	return store.ListStats(ctx, cfg.Query)
}

func recordStore(mgr contract.CacheManager) (contract.RecordStore, error) {
	if mgr == nil || mgr.GetRecordStore() == nil {
		return nil, errors.New("record store is not initialized; pass an input file or configure --store-backend")
	}
	return mgr.GetRecordStore(), nil
}

func selectRecord(records []schema.RawSpillRecord, id string) ([]schema.RawSpillRecord, error) {
	for _, rec := range records {
		if rec.ID == id {
			return []schema.RawSpillRecord{rec}, nil
		}
	}
	return nil, fmt.Errorf("spill %s not found in input", id)
}

// ReadRecordsFile reads records from a file holding either records in the
// store's JSON form or a single upload document. uploadID names an upload
// that carries no id of its own.
func ReadRecordsFile(path, uploadID string) ([]schema.RawSpillRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseRecordsData(data, uploadID)
}

// ParseRecordsData decodes records, detecting upload documents by their "spill" key.
func ParseRecordsData(data []byte, uploadID string) ([]schema.RawSpillRecord, error) {
	if isUpload(data) {
		rec, err := ingest.ParseUpload(bytes.NewReader(data), uploadID)
		if err != nil {
			return nil, err
		}
		return []schema.RawSpillRecord{rec}, nil
	}
	return ingest.ParseRecords(bytes.NewReader(data))
}

func isUpload(data []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	_, ok := probe["spill"]
	return ok
}

// ImportRecords computes stats for records and writes both to the store.
func ImportRecords(ctx context.Context, store contract.RecordStore, records []schema.RawSpillRecord) ([]schema.PrecomputedStatsEntry, error) {
	stats := make([]schema.PrecomputedStatsEntry, 0, len(records))
	for _, rec := range records {
		entry := metrics.Compute(rec)
		if err := store.PutRecord(ctx, rec, entry); err != nil {
			return stats, err
		}
		stats = append(stats, entry)
	}
	return stats, nil
}
