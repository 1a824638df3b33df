package iocache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/slick/internal/contract"
	"github.com/huangsam/slick/schema"
)

// recordsTable is the name of the table holding spill records.
const recordsTable = "slick_spill_records"

// ErrRecordNotFound is returned when a record id is not in the store.
var ErrRecordNotFound = errors.New("record not found")

// sortColumns whitelists the columns a query may order by.
var sortColumns = map[schema.SortField]string{
	schema.SortByID:       "id",
	schema.SortByArea:     "area",
	schema.SortByImported: "imported_at",
}

// RecordStoreImpl implements the RecordStore interface.
type RecordStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	connStr string
	now     func() time.Time
}

var _ contract.RecordStore = &RecordStoreImpl{} // Compile-time check

// NewRecordStore creates a new RecordStore with the specified backend.
func NewRecordStore(backend schema.DatabaseBackend, connStr string) (contract.RecordStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled storage
		return &RecordStoreImpl{backend: backend, now: time.Now}, nil
	}

	db, err := openDB(backend, connStr, GetStoreDBFilePath())
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(getCreateRecordsTableQuery(backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", recordsTable, err)
	}

	return &RecordStoreImpl{db: db, backend: backend, connStr: connStr, now: time.Now}, nil
}

// getCreateRecordsTableQuery returns the CREATE TABLE query for the given backend.
// It matches the first migration of each backend.
func getCreateRecordsTableQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(recordsTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(255) PRIMARY KEY,
				area DOUBLE NOT NULL,
				longitude DOUBLE NULL,
				latitude DOUBLE NULL,
				entries INT NOT NULL,
				payload LONGTEXT NOT NULL,
				stats TEXT NOT NULL,
				imported_at BIGINT NOT NULL
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(255) PRIMARY KEY,
				area DOUBLE PRECISION NOT NULL,
				longitude DOUBLE PRECISION,
				latitude DOUBLE PRECISION,
				entries INTEGER NOT NULL,
				payload TEXT NOT NULL,
				stats TEXT NOT NULL,
				imported_at BIGINT NOT NULL
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				area REAL NOT NULL,
				longitude REAL,
				latitude REAL,
				entries INTEGER NOT NULL,
				payload TEXT NOT NULL,
				stats TEXT NOT NULL,
				imported_at INTEGER NOT NULL
			);
		`, quotedTableName)
	}
}

func (s *RecordStoreImpl) disabled() bool {
	return s.backend == schema.NoneBackend || s.db == nil
}

// PutRecord inserts or replaces a record together with its stats.
func (s *RecordStoreImpl) PutRecord(ctx context.Context, rec schema.RawSpillRecord, stats schema.PrecomputedStatsEntry) error {
	if s.disabled() {
		return nil
	}
	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("record id cannot be empty")
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", rec.ID, err)
	}
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode stats of %s: %w", rec.ID, err)
	}

	var lng, lat sql.NullFloat64
	if rec.Coordinates != nil {
		lng = sql.NullFloat64{Float64: rec.Coordinates[0], Valid: true}
		lat = sql.NullFloat64{Float64: rec.Coordinates[1], Valid: true}
	}

	_, err = s.db.ExecContext(ctx, s.getUpsertQuery(),
		rec.ID, stats.Area, lng, lat, len(rec.Data), string(payload), string(statsJSON), s.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to store record %s: %w", rec.ID, err)
	}
	return nil
}

// getUpsertQuery returns the UPSERT query for the backend.
func (s *RecordStoreImpl) getUpsertQuery() string {
	quotedTableName := quoteTableName(recordsTable, s.backend)
	const cols = "id, area, longitude, latitude, entries, payload, stats, imported_at"
	switch s.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE area = new.area, longitude = new.longitude, latitude = new.latitude,
			entries = new.entries, payload = new.payload, stats = new.stats, imported_at = new.imported_at`, quotedTableName, cols)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET area = EXCLUDED.area, longitude = EXCLUDED.longitude, latitude = EXCLUDED.latitude,
			entries = EXCLUDED.entries, payload = EXCLUDED.payload, stats = EXCLUDED.stats, imported_at = EXCLUDED.imported_at`, quotedTableName, cols)

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, quotedTableName, cols)
	}
}

// GetRecord returns a single record by id.
func (s *RecordStoreImpl) GetRecord(ctx context.Context, id string) (schema.StoredRecord, error) {
	if s.disabled() {
		return schema.StoredRecord{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}

	args := argList{backend: s.backend}
	query := fmt.Sprintf("SELECT payload, stats, imported_at FROM %s WHERE id = %s",
		quoteTableName(recordsTable, s.backend), args.add(id))

	var (
		payload, statsJSON string
		importedAt         int64
	)
	err := s.db.QueryRowContext(ctx, query, args.args...).Scan(&payload, &statsJSON, &importedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.StoredRecord{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	if err != nil {
		return schema.StoredRecord{}, fmt.Errorf("failed to load record %s: %w", id, err)
	}
	return decodeStored(payload, statsJSON, importedAt)
}

// ListRecords returns one page of records matching the query.
func (s *RecordStoreImpl) ListRecords(ctx context.Context, q schema.RecordQuery) (schema.RecordPage, error) {
	page := schema.RecordPage{Page: max(q.Page, 1), Size: q.Size, Items: []schema.RecordSummary{}}
	if s.disabled() {
		return page, nil
	}

	table := quoteTableName(recordsTable, s.backend)
	countArgs := argList{backend: s.backend}
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", table, whereClause(q, &countArgs))
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs.args...).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("failed to count records: %w", err)
	}

	args := argList{backend: s.backend}
	query := fmt.Sprintf("SELECT id, area, longitude, latitude, entries, payload, imported_at FROM %s%s%s",
		table, whereClause(q, &args), orderClause(q))
	if q.Size > 0 {
		query += fmt.Sprintf(" LIMIT %s OFFSET %s", args.add(q.Size), args.add(q.Offset()))
	}

	rows, err := s.db.QueryContext(ctx, query, args.args...)
	if err != nil {
		return page, fmt.Errorf("failed to list records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			item       schema.RecordSummary
			lng, lat   sql.NullFloat64
			payload    string
			importedAt int64
		)
		if err := rows.Scan(&item.ID, &item.Area, &lng, &lat, &item.Entries, &payload, &importedAt); err != nil {
			return page, fmt.Errorf("failed to scan record: %w", err)
		}
		if lng.Valid && lat.Valid {
			item.Coordinate = &[2]float64{lng.Float64, lat.Float64}
		}
		item.ImportedAt = time.Unix(importedAt, 0).UTC()

		var rec schema.RawSpillRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return page, fmt.Errorf("failed to decode record %s: %w", item.ID, err)
		}
		page.Items = append(page.Items, item)
		page.Records = append(page.Records, rec)
	}
	return page, rows.Err()
}

// ListStats returns the stats of every record matching the query, ignoring paging.
func (s *RecordStoreImpl) ListStats(ctx context.Context, q schema.RecordQuery) ([]schema.PrecomputedStatsEntry, error) {
	if s.disabled() {
		return nil, nil
	}

	args := argList{backend: s.backend}
	query := fmt.Sprintf("SELECT stats FROM %s%s%s",
		quoteTableName(recordsTable, s.backend), whereClause(q, &args), orderClause(q))
	rows, err := s.db.QueryContext(ctx, query, args.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.PrecomputedStatsEntry
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		var entry schema.PrecomputedStatsEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("failed to decode stats: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// DeleteRecord removes a record by id.
func (s *RecordStoreImpl) DeleteRecord(ctx context.Context, id string) error {
	if s.disabled() {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	args := argList{backend: s.backend}
	query := fmt.Sprintf("DELETE FROM %s WHERE id = %s", quoteTableName(recordsTable, s.backend), args.add(id))
	res, err := s.db.ExecContext(ctx, query, args.args...)
	if err != nil {
		return fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return nil
}

// GetStatus returns status information about the record store.
func (s *RecordStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:   string(s.backend),
		Connected: s.db != nil,
	}
	if s.disabled() {
		return status, nil
	}

	table := quoteTableName(recordsTable, s.backend)
	var totalArea sql.NullFloat64
	row := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*), SUM(area) FROM %s", table))
	if err := row.Scan(&status.TotalRecords, &totalArea); err != nil {
		return status, fmt.Errorf("failed to get total records: %w", err)
	}
	status.TotalArea = totalArea.Float64
	if status.TotalRecords == 0 {
		return status, nil
	}

	var lastTs, oldestTs int64
	row = s.db.QueryRow(fmt.Sprintf("SELECT MAX(imported_at), MIN(imported_at) FROM %s", table))
	if err := row.Scan(&lastTs, &oldestTs); err != nil {
		return status, fmt.Errorf("failed to get import times: %w", err)
	}
	status.LastImportTime = time.Unix(lastTs, 0)
	status.OldestImport = time.Unix(oldestTs, 0)
	return status, nil
}

// Close closes the underlying connection.
func (s *RecordStoreImpl) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// likeEscaper makes LIKE wildcards in a user substring match literally.
// '!' is the escape character since a backslash literal is read differently by
// mysql and postgres.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// whereClause renders the filters of a query. The id substring is matched
// case-insensitively and only when it is long enough.
func whereClause(q schema.RecordQuery, args *argList) string {
	var conds []string
	if q.UsesIDFilter() {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(q.IDContains)) + "%"
		conds = append(conds, "LOWER(id) LIKE "+args.add(pattern)+" ESCAPE '!'")
	}
	if q.MinArea != nil {
		conds = append(conds, "area >= "+args.add(*q.MinArea))
	}
	if q.MaxArea != nil {
		conds = append(conds, "area <= "+args.add(*q.MaxArea))
	}
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// orderClause renders a whitelisted ORDER BY, with id as the tie-breaker.
func orderClause(q schema.RecordQuery) string {
	col, ok := sortColumns[q.SortBy]
	if !ok {
		col = "id"
	}
	dir := "ASC"
	if q.SortDir == schema.SortDesc {
		dir = "DESC"
	}
	if col == "id" {
		return fmt.Sprintf(" ORDER BY id %s", dir)
	}
	return fmt.Sprintf(" ORDER BY %s %s, id ASC", col, dir)
}

func decodeStored(payload, statsJSON string, importedAt int64) (schema.StoredRecord, error) {
	var out schema.StoredRecord
	if err := json.Unmarshal([]byte(payload), &out.Record); err != nil {
		return out, fmt.Errorf("failed to decode record: %w", err)
	}
	if err := json.Unmarshal([]byte(statsJSON), &out.Stats); err != nil {
		return out, fmt.Errorf("failed to decode stats: %w", err)
	}
	out.ImportedAt = time.Unix(importedAt, 0).UTC()
	return out, nil
}
