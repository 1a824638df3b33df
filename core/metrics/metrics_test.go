package metrics

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/huangsam/slick/schema"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(t *testing.T, lng, lat float64, density float64) schema.RawActor {
	t.Helper()
	rings := [][][]float64{{{lng, lat}, {lng + 1, lat}, {lng + 1, lat + 1}, {lng, lat + 1}, {lng, lat}}}
	raw, err := json.Marshal(rings)
	require.NoError(t, err)
	return schema.RawActor{
		Type:     schema.ActorOil,
		Density:  density,
		Color:    "black",
		Geometry: &schema.Geometry{Type: schema.PolygonGeometry, Coordinates: raw},
	}
}

func marker(t *testing.T, lng, lat float64) schema.RawActor {
	t.Helper()
	raw, err := json.Marshal([]float64{lng, lat})
	require.NoError(t, err)
	return schema.RawActor{
		Type:     schema.ActorObject,
		Geometry: &schema.Geometry{Type: schema.PointGeometry, Coordinates: raw},
	}
}

func drifting(t *testing.T) schema.RawSpillRecord {
	return schema.RawSpillRecord{
		ID: "drift",
		Data: []schema.TimestampEntry{
			{Timestamp: "2023-01-01T00:00:00Z", Actors: []schema.RawActor{square(t, 0, 0, 2), marker(t, 5, 5)}},
			{Timestamp: "2023-01-02T06:00:00Z", Actors: []schema.RawActor{square(t, 1, 0, 4)}},
		},
	}
}

func TestCompute(t *testing.T) {
	got := Compute(drifting(t))

	assert.Equal(t, "drift", got.ID)
	assert.InEpsilon(t, 12392, got.Area, 0.01)
	assert.Equal(t, 30.0, got.Duration)
	assert.Equal(t, 2.0, got.Frequency)
	assert.Equal(t, 11.0, got.Points)
	assert.Equal(t, schema.MinMaxAvg{Min: 2, Max: 4, Average: 3}, got.Density)

	assert.InEpsilon(t, 444.7, got.Perimeter.Average, 0.01)
	assert.InEpsilon(t, math.Pi/4, got.Compaction.Average, 0.02)
	assert.Greater(t, got.DispersionRadius.Max, 90.0)
	assert.Less(t, got.DispersionRadius.Max, 100.0)

	assert.InEpsilon(t, 111.19, got.DispersionDistance.Average, 0.01)
	assert.InDelta(t, 90, got.Bearing.Average, 0.1)
}

func TestComputePrefersRecordArea(t *testing.T) {
	rec := drifting(t)
	rec.Area = 50
	assert.Equal(t, 50.0, Compute(rec).Area)
}

func TestComputeEmpty(t *testing.T) {
	got := Compute(schema.RawSpillRecord{ID: "empty"})
	assert.Equal(t, schema.PrecomputedStatsEntry{ID: "empty"}, got)

	only := Compute(schema.RawSpillRecord{ID: "markers", Data: []schema.TimestampEntry{
		{Timestamp: "bad", Actors: []schema.RawActor{marker(t, 1, 1)}},
	}})
	assert.Equal(t, 1.0, only.Frequency)
	assert.Equal(t, 1.0, only.Points)
	assert.Equal(t, 0.0, only.Duration)
	assert.Equal(t, schema.MinMaxAvg{}, only.Density)
}

func TestComputeAll(t *testing.T) {
	got := ComputeAll([]schema.RawSpillRecord{drifting(t), {ID: "other"}})
	require.Len(t, got, 2)
	assert.Equal(t, "drift", got[0].ID)
	assert.Equal(t, "other", got[1].ID)
}

func TestParseTimestamp(t *testing.T) {
	for _, s := range []string{"2023-01-01T10:00:00Z", "2023-01-01T10:00:00.5+02:00", "2023-01-01T10:00:00", "2023-01-01 10:00:00", "2023-01-01"} {
		_, ok := ParseTimestamp(s)
		assert.True(t, ok, s)
	}
	_, ok := ParseTimestamp("yesterday")
	assert.False(t, ok)
}

func TestCentroid(t *testing.T) {
	c, ok := Centroid([]schema.NormalizedPoint{
		{Latitude: 10, Longitude: 20, Density: 1},
		{Latitude: 12, Longitude: 24, Density: 3},
	})
	require.True(t, ok)
	assert.InDelta(t, 23, c.Lon(), 1e-9)
	assert.InDelta(t, 11.5, c.Lat(), 1e-9)

	c, ok = Centroid([]schema.NormalizedPoint{{Latitude: 0, Longitude: 0}, {Latitude: 2, Longitude: 2}})
	require.True(t, ok)
	assert.Equal(t, orb.Point{1, 1}, c)

	_, ok = Centroid(nil)
	assert.False(t, ok)
}

func TestPolygonAreaClosesRings(t *testing.T) {
	open := orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}}}
	closed := orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}
	assert.InDelta(t, PolygonArea(closed), PolygonArea(open), 1e-6)
	assert.Equal(t, 0.0, PolygonArea(nil))
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, schema.MinMaxAvg{}, Summarize(nil))
	assert.Equal(t, schema.MinMaxAvg{Min: 1, Max: 3, Average: 2}, Summarize([]float64{3, 1, 2}))
}
