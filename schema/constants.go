package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and record storage.
	DatabaseBackend string

	// DetailLevel represents the level-of-detail used when building groups.
	DetailLevel string

	// ActorType represents the kind of entity observed in a spill record.
	ActorType string

	// GeometryType represents the tag of a raw geometry union.
	GeometryType string

	// SortField represents a sortable column of the record store.
	SortField string

	// SortDirection represents the ordering applied to a sort field.
	SortDirection string

	// StatField represents one field of a precomputed stats entry.
	StatField string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
	HTMLOut    OutputMode = "html"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All detail levels supported.
const (
	DetailSingle DetailLevel = "single"
	DetailLow    DetailLevel = "low"
	DetailMedium DetailLevel = "medium" // default
	DetailHigh   DetailLevel = "high"
)

// Actor types. Anything that is not Oil is treated as an annotation.
const (
	ActorOil    ActorType = "Oil"
	ActorObject ActorType = "Object"
)

// Geometry tags.
const (
	PointGeometry   GeometryType = "Point"
	PolygonGeometry GeometryType = "Polygon"
)

// Sort fields and directions for record queries.
const (
	SortByID       SortField = "id"
	SortByArea     SortField = "area"
	SortByImported SortField = "imported_at"

	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Simple stat fields hold a single number per entry.
const (
	AreaField      StatField = "area"
	DurationField  StatField = "duration"
	FrequencyField StatField = "frequency"
	PointsField    StatField = "points"
)

// Nested stat fields hold a min/max/average triple per entry.
const (
	DensityField            StatField = "density"
	PerimeterField          StatField = "perimeter"
	CompactionField         StatField = "compaction"
	DispersionRadiusField   StatField = "dispersionRadius"
	DispersionDistanceField StatField = "dispersionDistance"
	BearingField            StatField = "bearing"
)

// SimpleStatFields lists the simple fields in display order.
var SimpleStatFields = []StatField{AreaField, DurationField, FrequencyField, PointsField}

// NestedStatFields lists the nested fields in display order.
var NestedStatFields = []StatField{
	DensityField,
	PerimeterField,
	CompactionField,
	DispersionRadiusField,
	DispersionDistanceField,
	BearingField,
}

// DetailCeilings maps each detail level to its per-bucket point ceiling.
var DetailCeilings = map[DetailLevel]int{
	DetailSingle: 1,
	DetailLow:    16,
	DetailMedium: 32,
	DetailHigh:   64,
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
	HTMLOut:    {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidSortFields lists all sortable record columns.
var ValidSortFields = map[SortField]struct{}{
	SortByID:       {},
	SortByArea:     {},
	SortByImported: {},
}
