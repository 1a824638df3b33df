package ingest

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/huangsam/slick/core/normalize"
	"github.com/huangsam/slick/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleUpload = `{
  "coordinates": [-88.36, 28.74],
  "area": 42.5,
  "spill": [
    {
      "timestamp": "2010-04-22T12:00:00Z",
      "actor": [
        {"type": "oil", "density": 3, "color": "#111", "polygon": [[-88.4, 28.7], [-88.3, 28.7], [-88.3, 28.8], [-88.4, 28.7]]},
        {"type": "OBJECT", "density": 0, "color": "#f00", "polygon": [-88.36, 28.74], "name": "rig", "url": "https://example.org/rig", "scale": 2}
      ]
    },
    {
      "timestamp": "2010-04-23T12:00:00Z",
      "actor": [
        {"type": "", "density": 1, "color": "#222", "polygon": [[[-88.5, 28.6], [-88.2, 28.6], [-88.2, 28.9]], [[-88.4, 28.7], [-88.3, 28.7], [-88.3, 28.75]]]},
        {"type": "oil", "density": 1, "color": "#333", "polygon": "garbage"},
        {"type": "oil", "density": 1, "color": "#333", "polygon": [[1]]}
      ]
    }
  ]
}`

func TestParseUpload(t *testing.T) {
	rec, err := ParseUpload(strings.NewReader(sampleUpload), "deepwater")
	require.NoError(t, err)

	assert.Equal(t, "deepwater", rec.ID)
	assert.Equal(t, &[2]float64{-88.36, 28.74}, rec.Coordinates)
	assert.Equal(t, 42.5, rec.Area)
	require.Len(t, rec.Data, 2)

	first := rec.Data[0]
	assert.Equal(t, "2010-04-22T12:00:00Z", first.Timestamp)
	require.Len(t, first.Actors, 2)
	assert.Equal(t, schema.ActorOil, first.Actors[0].Type)
	assert.Equal(t, schema.PolygonGeometry, first.Actors[0].Geometry.Type)

	marker := first.Actors[1]
	assert.Equal(t, schema.ActorObject, marker.Type)
	assert.Equal(t, schema.PointGeometry, marker.Geometry.Type)
	assert.JSONEq(t, `[-88.36,28.74]`, string(marker.Geometry.Coordinates))
	assert.Equal(t, "rig", marker.Name)
	require.NotNil(t, marker.Scale)
	assert.Equal(t, 2.0, *marker.Scale)

	second := rec.Data[1]
	require.Len(t, second.Actors, 1, "malformed polygons are dropped")
	assert.Equal(t, schema.ActorOil, second.Actors[0].Type, "unknown types are oil")

	points := normalize.Record(rec)
	assert.Len(t, points, 4+1+6)
}

func TestParseUploadIDFallbacks(t *testing.T) {
	withDocID := `{"id": " doc-id ", "spill": [{"timestamp": "t", "actor": []}]}`
	rec, err := ParseUpload(strings.NewReader(withDocID), "")
	require.NoError(t, err)
	assert.Equal(t, "doc-id", rec.ID)

	noID := `{"spill": [{"timestamp": "t", "actor": []}]}`
	rec, err = ParseUpload(strings.NewReader(noID), "  ")
	require.NoError(t, err)
	_, err = uuid.Parse(rec.ID)
	assert.NoError(t, err, "generated id should be a UUID")
	require.Len(t, rec.Data, 1)
	assert.Empty(t, rec.Data[0].Actors)
}

func TestParseUploadErrors(t *testing.T) {
	_, err := ParseUpload(strings.NewReader(`{"spill": []}`), "x")
	assert.ErrorIs(t, err, ErrNoEntries)

	_, err = ParseUpload(strings.NewReader(`{not json`), "x")
	assert.Error(t, err)
}

func TestPolygon(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		ok       bool
		kind     schema.GeometryType
		wantJSON string
	}{
		{"pair", `[1, 2]`, true, schema.PointGeometry, `[1,2]`},
		{"pair with altitude", `[1, 2, 3]`, true, schema.PointGeometry, `[1,2]`},
		{"ring", `[[0,0],[1,0],[1,1]]`, true, schema.PolygonGeometry, `[[[0,0],[1,0],[1,1]]]`},
		{"rings", `[[[0,0],[1,0],[1,1]]]`, true, schema.PolygonGeometry, `[[[0,0],[1,0],[1,1]]]`},
		{"empty", ``, false, "", ""},
		{"null", `null`, false, "", ""},
		{"short pair", `[1]`, false, "", ""},
		{"short ring vertex", `[[0,0],[1]]`, false, "", ""},
		{"empty ring list", `[[]]`, false, "", ""},
		{"string", `"abc"`, false, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, ok := Polygon(json.RawMessage(tt.raw))
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				assert.Nil(t, g)
				return
			}
			assert.Equal(t, tt.kind, g.Type)
			assert.JSONEq(t, tt.wantJSON, string(g.Coordinates))
		})
	}
}

func TestParseRecords(t *testing.T) {
	single := `  {"id": "a", "area": 1, "data": []}`
	records, err := ParseRecords(strings.NewReader(single))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0].ID)

	many := "\n[{\"id\": \"a\", \"data\": []}, {\"id\": \"b\", \"coordinates\": [1, 2], \"data\": [{\"timestamp\": \"t\", \"actors\": []}]}]"
	records, err = ParseRecords(strings.NewReader(many))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, &[2]float64{1, 2}, records[1].Coordinates)
	require.Len(t, records[1].Data, 1)

	_, err = ParseRecords(strings.NewReader(`[{"data": []}]`))
	assert.ErrorContains(t, err, "no id")

	_, err = ParseRecords(strings.NewReader(`42`))
	assert.Error(t, err)

	_, err = ParseRecords(strings.NewReader(`   `))
	assert.Error(t, err)
}
