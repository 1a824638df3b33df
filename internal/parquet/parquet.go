// Package parquet provides data structures and functions for exporting spill
// groups, stats and stored records to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/slick/schema"
	"github.com/parquet-go/parquet-go"
)

// GroupPoint is one reduced point of a built group, flattened for columnar export.
type GroupPoint struct {
	// Timestamp is the observation time the group belongs to
	Timestamp string `parquet:"timestamp,snappy"`

	// SpillID identifies the spill record
	SpillID string `parquet:"spill_id,snappy"`

	// DensityKey is the bucket label, empty for markers
	DensityKey string `parquet:"density_key,snappy"`

	// Kind is "oil" for bucketed points and the actor type for markers
	Kind string `parquet:"kind,snappy"`

	Color     string  `parquet:"color,snappy"`
	Latitude  float64 `parquet:"latitude,snappy"`
	Longitude float64 `parquet:"longitude,snappy"`
	Density   float64 `parquet:"density,snappy"`
}

// SpillStats is the flattened precomputed stats of one spill record.
type SpillStats struct {
	ID        string  `parquet:"id,snappy"`
	Area      float64 `parquet:"area,snappy"`
	Duration  float64 `parquet:"duration,snappy"`
	Frequency float64 `parquet:"frequency,snappy"`
	Points    float64 `parquet:"points,snappy"`

	DensityMin float64 `parquet:"density_min,snappy"`
	DensityMax float64 `parquet:"density_max,snappy"`
	DensityAvg float64 `parquet:"density_avg,snappy"`

	PerimeterAvg          float64 `parquet:"perimeter_avg,snappy"`
	CompactionAvg         float64 `parquet:"compaction_avg,snappy"`
	DispersionRadiusAvg   float64 `parquet:"dispersion_radius_avg,snappy"`
	DispersionDistanceAvg float64 `parquet:"dispersion_distance_avg,snappy"`
	BearingAvg            float64 `parquet:"bearing_avg,snappy"`
}

// StoredRecord is the listing view of a record in the store.
type StoredRecord struct {
	ID      string  `parquet:"id,snappy"`
	Area    float64 `parquet:"area,snappy"`
	Entries int32   `parquet:"entries,snappy"`

	// Longitude and Latitude are null when the record has no reference coordinate
	Longitude *float64 `parquet:"longitude,optional,snappy"`
	Latitude  *float64 `parquet:"latitude,optional,snappy"`

	// ImportedAt is stored as TIMESTAMP with nanosecond precision
	ImportedAt time.Time `parquet:"imported_at,snappy"`
}

// Write encodes rows to w with a schema inferred from the struct tags of T.
func Write[T any](w io.Writer, rows []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteFile writes rows to a new Parquet file at outputPath.
func WriteFile[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return Write(file, rows)
}

// ConvertGroups flattens grouped entries into rows ordered by timestamp,
// record order and density key.
func ConvertGroups(entries schema.GroupedEntries) []GroupPoint {
	var rows []GroupPoint
	for _, ts := range entries.Timestamps() {
		for _, g := range entries[ts] {
			for _, key := range g.DensityKeys() {
				for _, p := range g.Densities[key].Points {
					rows = append(rows, GroupPoint{
						Timestamp:  ts,
						SpillID:    g.ID,
						DensityKey: key,
						Kind:       string(schema.ActorOil),
						Color:      p.Color,
						Latitude:   p.Latitude,
						Longitude:  p.Longitude,
						Density:    p.Density,
					})
				}
			}
			for _, m := range g.Markers {
				rows = append(rows, GroupPoint{
					Timestamp: ts,
					SpillID:   g.ID,
					Kind:      m.Type,
					Color:     m.Color,
					Latitude:  m.Latitude,
					Longitude: m.Longitude,
					Density:   m.Density,
				})
			}
		}
	}
	return rows
}

// ConvertStats converts precomputed stats entries to SpillStats rows.
func ConvertStats(entries []schema.PrecomputedStatsEntry) []SpillStats {
	result := make([]SpillStats, len(entries))
	for i, e := range entries {
		result[i] = SpillStats{
			ID:                    e.ID,
			Area:                  e.Area,
			Duration:              e.Duration,
			Frequency:             e.Frequency,
			Points:                e.Points,
			DensityMin:            e.Density.Min,
			DensityMax:            e.Density.Max,
			DensityAvg:            e.Density.Average,
			PerimeterAvg:          e.Perimeter.Average,
			CompactionAvg:         e.Compaction.Average,
			DispersionRadiusAvg:   e.DispersionRadius.Average,
			DispersionDistanceAvg: e.DispersionDistance.Average,
			BearingAvg:            e.Bearing.Average,
		}
	}
	return result
}

// ConvertRecords converts record summaries to StoredRecord rows.
func ConvertRecords(items []schema.RecordSummary) []StoredRecord {
	result := make([]StoredRecord, len(items))
	for i, item := range items {
		row := StoredRecord{
			ID:         item.ID,
			Area:       item.Area,
			Entries:    int32(item.Entries),
			ImportedAt: item.ImportedAt,
		}
		if item.Coordinate != nil {
			lng, lat := item.Coordinate[0], item.Coordinate[1]
			row.Longitude = &lng
			row.Latitude = &lat
		}
		result[i] = row
	}
	return result
}
