// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/slick/schema"
)

// CacheManager defines the interface for managing the cache and record stores.
// This allows the storage layer to be mocked for testing.
type CacheManager interface {
	GetGroupsStore() CacheStore
	GetRecordStore() RecordStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// RecordStore defines the query layer that supplies spill records.
type RecordStore interface {
	// PutRecord inserts or replaces a record together with its precomputed stats
	PutRecord(ctx context.Context, rec schema.RawSpillRecord, stats schema.PrecomputedStatsEntry) error

	// GetRecord returns a single record by id
	GetRecord(ctx context.Context, id string) (schema.StoredRecord, error)

	// ListRecords returns one page of records matching the query
	ListRecords(ctx context.Context, q schema.RecordQuery) (schema.RecordPage, error)

	// ListStats returns the precomputed stats of every record matching the query, ignoring paging
	ListStats(ctx context.Context, q schema.RecordQuery) ([]schema.PrecomputedStatsEntry, error)

	// DeleteRecord removes a record by id
	DeleteRecord(ctx context.Context, id string) error

	// GetStatus returns status information about the record store
	GetStatus() (schema.StoreStatus, error)

	// Close closes the underlying connection
	Close() error
}
