package iocache

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/slick/internal/contract"
	"github.com/huangsam/slick/schema"
)

// groupsTable is the name of the table for cached groups.
const groupsTable = "groups_cache"

// Global Manager instance for main logic.
var (
	Manager   = &CacheStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	return contract.GetCacheDBFilePath()
}

// GetStoreDBFilePath returns the path to the SQLite DB file for record storage.
func GetStoreDBFilePath() string {
	return contract.GetStoreDBFilePath()
}

// InitStores initializes the global manager with the groups cache and the record store.
// An empty backend leaves the matching store unset.
func InitStores(cacheBackend schema.DatabaseBackend, cacheConnStr string, storeBackend schema.DatabaseBackend, storeConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		var err error

		var groupsStore contract.CacheStore
		if cacheBackend != "" {
			groupsStore, err = NewCacheStore(groupsTable, cacheBackend, cacheConnStr)
			if err != nil {
				initErr = fmt.Errorf("failed to initialize groups cache: %w", err)
				return
			}
		}

		var recordStore contract.RecordStore
		if storeBackend != "" {
			recordStore, err = NewRecordStore(storeBackend, storeConnStr)
			if err != nil {
				if groupsStore != nil {
					_ = groupsStore.Close()
				}
				initErr = fmt.Errorf("failed to initialize record store: %w", err)
				return
			}
		}

		Manager.Lock()
		Manager.groups = groupsStore
		Manager.records = recordStore
		Manager.Unlock()
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.groups != nil {
			_ = Manager.groups.Close()
		}
		if Manager.records != nil {
			_ = Manager.records.Close()
		}
	})
}

// ClearCache clears the groups cache for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the table.
// For NoneBackend, it does nothing.
func ClearCache(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearBackend(backend, dbFilePath, connStr, groupsTable)
}

// ClearStore drops every imported record for the specified backend.
func ClearStore(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearBackend(backend, dbFilePath, connStr, recordsTable, migrationsTable)
}

func clearBackend(backend schema.DatabaseBackend, dbFilePath, connStr string, tables ...string) error {
	switch backend {
	case schema.SQLiteBackend:
		// An explicit SQLite connection string is the database file itself
		if connStr != "" {
			dbFilePath = connStr
		}
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		for _, table := range tables {
			if err := clearSQLTable(backend, connStr, table); err != nil {
				return err
			}
		}
		return nil

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}

// clearSQLTable connects to the SQL database and drops the table if it exists.
func clearSQLTable(backend schema.DatabaseBackend, connStr, tableName string) error {
	db, err := sql.Open(driverName(backend), connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", backend, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", backend, err)
	}

	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(tableName, backend))
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}

	return nil
}
