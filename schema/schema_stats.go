package schema

// MinMaxAvg is a per-spill summary of a series of values.
type MinMaxAvg struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
}

// PrecomputedStatsEntry holds the metrics derived from one spill record.
type PrecomputedStatsEntry struct {
	ID                 string    `json:"id"`
	Area               float64   `json:"area"`
	Duration           float64   `json:"duration"`  // hours
	Frequency          float64   `json:"frequency"` // observations
	Points             float64   `json:"points"`
	Density            MinMaxAvg `json:"density"`
	Perimeter          MinMaxAvg `json:"perimeter"`          // km
	Compaction         MinMaxAvg `json:"compaction"`         // 4πA/P²
	DispersionRadius   MinMaxAvg `json:"dispersionRadius"`   // km
	DispersionDistance MinMaxAvg `json:"dispersionDistance"` // km
	Bearing            MinMaxAvg `json:"bearing"`            // degrees
}

// StatValue is the aggregate of a simple field across entries.
type StatValue struct {
	Min     float64   `json:"min"`
	Max     float64   `json:"max"`
	Average float64   `json:"average"`
	Data    []float64 `json:"data"`
}

// NestedStatValue is the aggregate of a nested field across entries.
type NestedStatValue struct {
	StatValue
	MinAbs float64 `json:"minAbs"`
	MaxAbs float64 `json:"maxAbs"`
}

// FormattedStats is the payload consumed by the stats dashboard.
type FormattedStats struct {
	Count              int             `json:"count"`
	Area               StatValue       `json:"area"`
	Duration           StatValue       `json:"duration"`
	Frequency          StatValue       `json:"frequency"`
	Points             StatValue       `json:"points"`
	Density            NestedStatValue `json:"density"`
	Perimeter          NestedStatValue `json:"perimeter"`
	Compaction         NestedStatValue `json:"compaction"`
	DispersionRadius   NestedStatValue `json:"dispersionRadius"`
	DispersionDistance NestedStatValue `json:"dispersionDistance"`
	Bearing            NestedStatValue `json:"bearing"`
}
