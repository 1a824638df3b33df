package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/slick/internal/contract"
	"github.com/huangsam/slick/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	slickparquet "github.com/huangsam/slick/internal/parquet"
)

func sampleDocument() schema.GroupsDocument {
	entries := schema.GroupedEntries{
		"2024-01-01T00:00:00Z": {
			{
				ID: "spill-1",
				Densities: map[string]schema.DensityBucket{
					"1": {Color: "black", Points: []schema.NormalizedPoint{{Latitude: 1, Longitude: 2, Density: 1, Color: "black"}}},
					"4": {Color: "brown", Points: []schema.NormalizedPoint{
						{Latitude: 1.5, Longitude: 2.5, Density: 4, Color: "brown"},
						{Latitude: 1.6, Longitude: 2.6, Density: 4, Color: "brown"},
					}},
				},
				Markers: []schema.NormalizedPoint{{Latitude: 3, Longitude: 4, Color: "red", Type: "Object"}},
			},
		},
	}
	return schema.GroupsDocument{
		Detail:      schema.DetailMedium,
		Timestamps:  entries.Timestamps(),
		Entries:     entries,
		Diagnostics: []string{"spill-1: clustering did not converge"},
	}
}

func textConfig(output schema.OutputMode) *contract.Config {
	return &contract.Config{
		Output:       output,
		Precision:    2,
		Width:        120,
		Workers:      2,
		RankBy:       schema.AreaField,
		CacheBackend: schema.NoneBackend,
		StoreBackend: schema.SQLiteBackend,
	}
}

func TestWriteGroupsTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGroups(&buf, sampleDocument(), textConfig(schema.TextOut), 50*time.Millisecond))

	out := buf.String()
	assert.Contains(t, out, "spill-1")
	assert.Contains(t, out, "2024-01-01T00:00:00Z")
	assert.Contains(t, out, contract.HeavyValue)
	assert.Contains(t, out, contract.SheenValue)
	assert.Contains(t, out, "Markers")
	assert.Contains(t, out, "Showing 1 timestamps (points: 3, markers: 1, detail: medium)")
	assert.Contains(t, out, "Note: spill-1: clustering did not converge")
	assert.Contains(t, out, "Built in 50ms with 2 workers")
}

func TestWriteGroupsJSON(t *testing.T) {
	var buf bytes.Buffer
	doc := sampleDocument()
	require.NoError(t, WriteGroups(&buf, doc, textConfig(schema.JSONOut), 0))

	var decoded schema.GroupsDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, doc.Timestamps, decoded.Timestamps)
	assert.Equal(t, doc.Entries, decoded.Entries)
}

func TestWriteGroupsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGroups(&buf, sampleDocument(), textConfig(schema.CSVOut), 0))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"timestamp", "spill_id", "density_key", "kind", "color", "latitude", "longitude", "density"}, rows[0])
	assert.Equal(t, []string{"2024-01-01T00:00:00Z", "spill-1", "1", "Oil", "black", "1", "2", "1.00"}, rows[1])
	assert.Equal(t, "Object", rows[4][3])
}

func TestWriteGroupsParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groups.parquet")
	cfg := textConfig(schema.ParquetOut)
	cfg.OutputFile = path
	require.NoError(t, PrintGroups(sampleDocument(), cfg, 0))

	rows, err := parquet.ReadFile[slickparquet.GroupPoint](path)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestWriteGroupsHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGroups(&buf, sampleDocument(), textConfig(schema.HTMLOut), 0))
	assert.Contains(t, buf.String(), "Spill Groups")
}

func sampleStats() (schema.FormattedStats, []schema.PrecomputedStatsEntry) {
	ranked := []schema.PrecomputedStatsEntry{
		{ID: "big", Area: 10, Duration: 5, Points: 40, Density: schema.MinMaxAvg{Min: 1, Max: 4, Average: 2}},
		{ID: "small", Area: 2, Duration: 1, Points: 8},
	}
	stats := schema.FormattedStats{
		Count: 2,
		Area:  schema.StatValue{Min: 2, Max: 10, Average: 6, Data: []float64{2, 10}},
		Density: schema.NestedStatValue{
			StatValue: schema.StatValue{Min: 1, Max: 2, Average: 1.5},
			MinAbs:    1,
			MaxAbs:    4,
		},
	}
	return stats, ranked
}

func TestWriteStatsTable(t *testing.T) {
	stats, ranked := sampleStats()
	var buf bytes.Buffer
	require.NoError(t, WriteStats(&buf, stats, ranked, textConfig(schema.TextOut), time.Second))

	out := buf.String()
	assert.Contains(t, out, "dispersionRadius")
	assert.Contains(t, out, "10.00")
	assert.Contains(t, out, "big")
	assert.Contains(t, out, "small")
	assert.Contains(t, out, "Aggregated 2 spills, top 2 by area, in 1s")
}

func TestWriteStatsJSONAndCSV(t *testing.T) {
	stats, ranked := sampleStats()

	var buf bytes.Buffer
	require.NoError(t, WriteStats(&buf, stats, ranked, textConfig(schema.JSONOut), 0))
	var decoded statsOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 2, decoded.Stats.Count)
	assert.Equal(t, schema.AreaField, decoded.RankBy)
	assert.Equal(t, ranked, decoded.Top)

	buf.Reset()
	require.NoError(t, WriteStats(&buf, stats, ranked, textConfig(schema.CSVOut), 0))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1+len(schema.SimpleStatFields)+len(schema.NestedStatFields))
	assert.Equal(t, []string{"area", "2.00", "10.00", "6.00", "", ""}, rows[1])
	assert.Equal(t, []string{"density", "1.00", "2.00", "1.50", "1.00", "4.00"}, rows[5])
}

func sampleOutlines() []schema.Outline {
	return []schema.Outline{
		{
			ID: "spill-1", Timestamp: "2024-01-01T00:00:00Z", Density: "4", Color: "brown", Points: 3,
			Ring: [][2]float64{{0, 0}, {1, 0}, {0, 1}, {0, 0}},
		},
		{ID: "spill-1", Timestamp: "2024-01-01T00:00:00Z", Density: "1", Color: "black", Points: 1, Ring: [][2]float64{}},
	}
}

func TestWriteOutlinesGeoJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOutlines(&buf, sampleOutlines(), textConfig(schema.JSONOut), 0))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry   *struct{ Type string } `json:"geometry"`
			Properties map[string]any         `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)
	require.NotNil(t, fc.Features[0].Geometry)
	assert.Equal(t, "Polygon", fc.Features[0].Geometry.Type)
	assert.Equal(t, "4", fc.Features[0].Properties["density"])
	assert.Equal(t, "1", fc.Features[1].Properties["density"])
}

func TestWriteOutlinesCSVAndTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOutlines(&buf, sampleOutlines(), textConfig(schema.CSVOut), 0))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "POLYGON((0 0,1 0,0 1,0 0))", rows[1][5])
	assert.Equal(t, "POLYGON EMPTY", rows[2][5])

	buf.Reset()
	require.NoError(t, WriteOutlines(&buf, sampleOutlines(), textConfig(schema.TextOut), 0))
	assert.Contains(t, buf.String(), "Computed 2 outlines")
	assert.Contains(t, buf.String(), contract.HeavyValue)

	err = WriteOutlines(&buf, sampleOutlines(), textConfig(schema.ParquetOut), 0)
	require.Error(t, err)
}

func samplePage() schema.RecordPage {
	imported := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return schema.RecordPage{
		Page:  2,
		Size:  2,
		Total: 5,
		Items: []schema.RecordSummary{
			{ID: "gulf-a", Area: 12.5, Coordinate: &[2]float64{-90.1, 28.7}, Entries: 3, ImportedAt: imported},
			{ID: "north", Area: 1, Entries: 1, ImportedAt: imported},
		},
	}
}

func TestWriteRecordsTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, samplePage(), textConfig(schema.TextOut), 0))

	out := buf.String()
	assert.Contains(t, out, "gulf-a")
	assert.Contains(t, out, "-90.10, 28.70")
	assert.Contains(t, out, "2024-03-01 12:00:00")
	assert.Contains(t, out, "Page 2 of 3 (5 records)")
}

func TestWriteRecordsCSVAndJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, samplePage(), textConfig(schema.CSVOut), 0))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"gulf-a", "12.5", "-90.1", "28.7", "3", "2024-03-01T12:00:00Z"}, rows[1])
	assert.Equal(t, "", rows[2][2])

	buf.Reset()
	require.NoError(t, WriteRecords(&buf, samplePage(), textConfig(schema.JSONOut), 0))
	assert.True(t, strings.Contains(buf.String(), `"total": 5`))
}

func TestWriteRecord(t *testing.T) {
	stored := schema.StoredRecord{
		Record:     schema.RawSpillRecord{ID: "gulf-a", Area: 12.5, Data: []schema.TimestampEntry{{Timestamp: "t1"}}},
		Stats:      schema.PrecomputedStatsEntry{ID: "gulf-a", Area: 12.5, Frequency: 1},
		ImportedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRecord(&buf, stored, textConfig(schema.TextOut)))
	assert.Contains(t, buf.String(), "Spill: gulf-a")
	assert.Contains(t, buf.String(), "Coordinates: -")
	assert.Contains(t, buf.String(), "bearing")

	buf.Reset()
	require.NoError(t, WriteRecord(&buf, stored, textConfig(schema.CSVOut)))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "gulf-a", rows[1][0])
}

func TestWriteImport(t *testing.T) {
	stats := []schema.PrecomputedStatsEntry{{ID: "gulf-a", Area: 12.5, Frequency: 3, Points: 30}}

	var buf bytes.Buffer
	require.NoError(t, WriteImport(&buf, stats, textConfig(schema.TextOut), time.Second))
	assert.Contains(t, buf.String(), "gulf-a")
	assert.Contains(t, buf.String(), "Imported 1 spills in 1s")

	buf.Reset()
	require.NoError(t, WriteImport(&buf, stats, textConfig(schema.JSONOut), 0))
	var decoded []schema.PrecomputedStatsEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, stats, decoded)
}

func TestGetMaxTableIDWidth(t *testing.T) {
	tests := []struct {
		width, columns, expected int
	}{
		{80, 6, 12},
		{120, 6, 38},
		{300, 2, 48},
	}
	for _, tt := range tests {
		cfg := &contract.Config{Width: tt.width}
		assert.Equal(t, tt.expected, GetMaxTableIDWidth(cfg, tt.columns), "width=%d columns=%d", tt.width, tt.columns)
	}
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 1, pageCount(0, 20))
	assert.Equal(t, 1, pageCount(5, 0))
	assert.Equal(t, 3, pageCount(5, 2))
	assert.Equal(t, 2, pageCount(40, 20))
}
