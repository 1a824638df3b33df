package iocache

import (
	"sync"

	"github.com/huangsam/slick/internal/contract"
)

// CacheStoreManager holds the groups cache and the record store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	groups       contract.CacheStore
	records      contract.RecordStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetGroupsStore returns the CacheStore for built groups.
func (mgr *CacheStoreManager) GetGroupsStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.groups
}

// GetRecordStore returns the RecordStore for imported spills.
func (mgr *CacheStoreManager) GetRecordStore() contract.RecordStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.records
}
