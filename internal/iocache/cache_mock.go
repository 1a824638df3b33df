package iocache

import (
	"context"

	"github.com/huangsam/slick/internal/contract"
	"github.com/huangsam/slick/schema"
	"github.com/stretchr/testify/mock"
)

// MockCacheManager is a mock implementation of CacheManager for testing.
type MockCacheManager struct {
	mock.Mock
}

var _ contract.CacheManager = &MockCacheManager{} // Compile-time check

// GetGroupsStore implements the CacheManager interface.
func (m *MockCacheManager) GetGroupsStore() contract.CacheStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.CacheStore)
	return store
}

// GetRecordStore implements the CacheManager interface.
func (m *MockCacheManager) GetRecordStore() contract.RecordStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RecordStore)
	return store
}

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ contract.CacheStore = &MockCacheStore{} // Compile-time check

// Get implements the CacheStore interface.
func (m *MockCacheStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the CacheStore interface.
func (m *MockCacheStore) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// Close implements the CacheStore interface.
func (m *MockCacheStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// GetStatus implements the CacheStore interface.
func (m *MockCacheStore) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}

// MockRecordStore is a mock implementation of RecordStore for testing.
type MockRecordStore struct {
	mock.Mock
}

var _ contract.RecordStore = &MockRecordStore{} // Compile-time check

// PutRecord implements the RecordStore interface.
func (m *MockRecordStore) PutRecord(ctx context.Context, rec schema.RawSpillRecord, stats schema.PrecomputedStatsEntry) error {
	args := m.Called(ctx, rec, stats)
	return args.Error(0)
}

// GetRecord implements the RecordStore interface.
func (m *MockRecordStore) GetRecord(ctx context.Context, id string) (schema.StoredRecord, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(schema.StoredRecord), args.Error(1)
}

// ListRecords implements the RecordStore interface.
func (m *MockRecordStore) ListRecords(ctx context.Context, q schema.RecordQuery) (schema.RecordPage, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(schema.RecordPage), args.Error(1)
}

// ListStats implements the RecordStore interface.
func (m *MockRecordStore) ListStats(ctx context.Context, q schema.RecordQuery) ([]schema.PrecomputedStatsEntry, error) {
	args := m.Called(ctx, q)
	entries, _ := args.Get(0).([]schema.PrecomputedStatsEntry)
	return entries, args.Error(1)
}

// DeleteRecord implements the RecordStore interface.
func (m *MockRecordStore) DeleteRecord(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// GetStatus implements the RecordStore interface.
func (m *MockRecordStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the RecordStore interface.
func (m *MockRecordStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
