package parquet

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/slick/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll[T any](t *testing.T, r io.ReaderAt) []T {
	t.Helper()
	reader := parquet.NewGenericReader[T](r)
	defer reader.Close()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err, "Should be able to read data")
	}
	return rows[:n]
}

func TestStructTags(t *testing.T) {
	tests := []struct {
		name    string
		row     any
		columns []string
	}{
		{"group point", new(GroupPoint), []string{"timestamp", "spill_id", "density_key", "kind", "color", "latitude", "longitude", "density"}},
		{"spill stats", new(SpillStats), []string{"id", "area", "duration", "frequency", "points", "density_min", "density_max", "density_avg", "bearing_avg"}},
		{"stored record", new(StoredRecord), []string{"id", "area", "entries", "longitude", "latitude", "imported_at"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parquet.SchemaOf(tt.row)
			require.NotNil(t, s)
			for _, colName := range tt.columns {
				_, ok := s.Lookup(colName)
				assert.True(t, ok, "Column %s should exist in schema", colName)
			}
		})
	}
}

func TestConvertGroups(t *testing.T) {
	entries := schema.GroupedEntries{
		"2024-01-02": {{
			ID: "b",
			Densities: map[string]schema.DensityBucket{
				"10": {Color: "red", Points: []schema.NormalizedPoint{{Latitude: 1, Longitude: 2, Density: 10, Color: "red"}}},
				"2":  {Color: "blue", Points: []schema.NormalizedPoint{{Latitude: 3, Longitude: 4, Density: 2, Color: "blue"}}},
			},
		}},
		"2024-01-01": {{
			ID:        "a",
			Densities: map[string]schema.DensityBucket{},
			Markers:   []schema.NormalizedPoint{{Latitude: 5, Longitude: 6, Type: "Object", Color: "green"}},
		}},
	}

	rows := ConvertGroups(entries)
	require.Len(t, rows, 3)
	assert.Equal(t, GroupPoint{Timestamp: "2024-01-01", SpillID: "a", Kind: "Object", Color: "green", Latitude: 5, Longitude: 6}, rows[0])
	assert.Equal(t, "2", rows[1].DensityKey)
	assert.Equal(t, "10", rows[2].DensityKey)
	assert.Equal(t, "Oil", rows[2].Kind)
}

func TestConvertStats(t *testing.T) {
	rows := ConvertStats([]schema.PrecomputedStatsEntry{{
		ID:      "x",
		Area:    12.5,
		Density: schema.MinMaxAvg{Min: 1, Max: 3, Average: 2},
		Bearing: schema.MinMaxAvg{Average: 90},
	}})
	require.Len(t, rows, 1)
	assert.Equal(t, "x", rows[0].ID)
	assert.Equal(t, 1.0, rows[0].DensityMin)
	assert.Equal(t, 3.0, rows[0].DensityMax)
	assert.Equal(t, 90.0, rows[0].BearingAvg)
}

func TestWriteFileStoredRecords(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "records.parquet")
	imported := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	data := ConvertRecords([]schema.RecordSummary{
		{ID: "with-coord", Area: 4.2, Entries: 3, Coordinate: &[2]float64{-88.4, 28.7}, ImportedAt: imported},
		{ID: "no-coord", Area: 1, Entries: 1, ImportedAt: imported},
	})

	require.NoError(t, WriteFile(data, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Output file should not be empty")

	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	got := readAll[StoredRecord](t, file)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].Longitude)
	assert.Equal(t, -88.4, *got[0].Longitude)
	assert.Equal(t, 28.7, *got[0].Latitude)
	assert.Nil(t, got[1].Longitude, "Longitude should be nil")
	assert.Nil(t, got[1].Latitude, "Latitude should be nil")
	assert.Equal(t, int32(3), got[0].Entries)
	assert.WithinDuration(t, imported, got[0].ImportedAt, time.Nanosecond)
}

func TestWriteToBuffer(t *testing.T) {
	var buf bytes.Buffer
	rows := []GroupPoint{{Timestamp: "t1", SpillID: "s", DensityKey: "1", Kind: "Oil", Latitude: 1, Longitude: 2, Density: 1}}
	require.NoError(t, Write(&buf, rows))

	got := readAll[GroupPoint](t, bytes.NewReader(buf.Bytes()))
	assert.Equal(t, rows, got)
}

func TestWriteEmptyData(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteFile([]SpillStats{}, outputPath), "Writing empty data should not produce error")

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Parquet footer should still be written")
}

func TestWriteFileInvalidPath(t *testing.T) {
	err := WriteFile([]SpillStats{{ID: "x"}}, filepath.Join(t.TempDir(), "missing", "out.parquet"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create output file")
}
