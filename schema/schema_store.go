package schema

import "time"

// MinIDFilterLength is the shortest id substring the query layer filters on.
const MinIDFilterLength = 3

// RecordQuery describes one page of the record store.
type RecordQuery struct {
	Page       int           `json:"page"` // 1-based
	Size       int           `json:"size"`
	IDContains string        `json:"id_contains,omitempty"`
	MinArea    *float64      `json:"min_area,omitempty"`
	MaxArea    *float64      `json:"max_area,omitempty"`
	SortBy     SortField     `json:"sort_by"`
	SortDir    SortDirection `json:"sort_dir"`
}

// UsesIDFilter reports whether the id substring is long enough to be applied.
func (q RecordQuery) UsesIDFilter() bool {
	return len([]rune(q.IDContains)) >= MinIDFilterLength
}

// Offset returns the row offset of the requested page.
func (q RecordQuery) Offset() int {
	if q.Page <= 1 {
		return 0
	}
	return (q.Page - 1) * q.Size
}

// RecordSummary is the listing view of a stored record.
type RecordSummary struct {
	ID         string      `json:"id"`
	Area       float64     `json:"area"`
	Coordinate *[2]float64 `json:"coordinates,omitempty"`
	Entries    int         `json:"entries"`
	ImportedAt time.Time   `json:"imported_at"`
}

// RecordPage is a page of stored records.
type RecordPage struct {
	Page    int              `json:"page"`
	Size    int              `json:"size"`
	Total   int              `json:"total"`
	Items   []RecordSummary  `json:"items"`
	Records []RawSpillRecord `json:"-"`
}

// StoredRecord is a record together with its precomputed stats, as persisted.
type StoredRecord struct {
	Record     RawSpillRecord        `json:"record"`
	Stats      PrecomputedStatsEntry `json:"stats"`
	ImportedAt time.Time             `json:"imported_at"`
}
