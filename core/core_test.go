package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/huangsam/slick/core/cluster"
	"github.com/huangsam/slick/core/lod"
	"github.com/huangsam/slick/internal/contract"
	"github.com/huangsam/slick/internal/iocache"
	"github.com/huangsam/slick/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var densityColors = []string{"#f4e04d", "#8b5a2b", "#1b1b1b"}

// makeRecord builds a record with n point actors per timestamp spread over three densities.
func makeRecord(id string, n int, timestamps ...string) schema.RawSpillRecord {
	rec := schema.RawSpillRecord{ID: id, Area: float64(n), Coordinates: &[2]float64{-88.4, 28.7}}
	for t, ts := range timestamps {
		entry := schema.TimestampEntry{Timestamp: ts}
		for i := range n {
			raw, _ := json.Marshal([]float64{-88.4 + float64(i%10)*0.01 + float64(t)*0.001, 28.7 + float64(i/10)*0.01})
			d := i % 3
			entry.Actors = append(entry.Actors, schema.RawActor{
				Type:     schema.ActorOil,
				Density:  float64(d + 1),
				Color:    densityColors[d],
				Geometry: &schema.Geometry{Type: schema.PointGeometry, Coordinates: raw},
			})
		}
		rec.Data = append(rec.Data, entry)
	}
	return rec
}

func testConfig() *contract.Config {
	return &contract.Config{
		Detail:        schema.DetailLow,
		Workers:       4,
		Precision:     2,
		Output:        schema.JSONOut,
		RankBy:        schema.AreaField,
		ClusterScale:  contract.DefaultClusterScale,
		MaxIterations: contract.DefaultMaxIterations,
		Epsilon:       contract.DefaultEpsilon,
		TieBreak:      contract.TieBreakFirst,
	}
}

func writeRecordsFile(t *testing.T, records []schema.RawSpillRecord) string {
	t.Helper()
	data, err := json.Marshal(records)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestBuildGroupsMatchesSequentialBuild(t *testing.T) {
	var records []schema.RawSpillRecord
	for i := range 6 {
		records = append(records, makeRecord(fmt.Sprintf("spill-%d", i), 60+i, "2023-06-01T00:00:00Z", "2023-06-02T00:00:00Z"))
	}
	cfg := testConfig()

	got, _, err := buildGroups(context.Background(), cfg, records)
	require.NoError(t, err)
	want := lod.Build(records, cfg.Detail, ClusterOptions(cfg)...)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("buildGroups() mismatch (-want +got):\n%s", diff)
	}

	groups := got["2023-06-01T00:00:00Z"]
	require.Len(t, groups, 6)
	for i, g := range groups {
		assert.Equal(t, fmt.Sprintf("spill-%d", i), g.ID, "record order must be preserved")
		for _, key := range g.DensityKeys() {
			assert.LessOrEqual(t, len(g.Densities[key].Points), 16)
		}
	}
}

func TestBuildGroupsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := buildGroups(ctx, testConfig(), []schema.RawSpillRecord{makeRecord("a", 50, "2023-06-01T00:00:00Z")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClusterOptionsTieBreak(t *testing.T) {
	cfg := testConfig()
	assert.Len(t, ClusterOptions(cfg), 5)
	cfg.TieBreak = contract.TieBreakLast
	assert.Len(t, ClusterOptions(cfg), 5)
}

func TestClusterOptionsDropEmpty(t *testing.T) {
	// Two identical points and k=2: the second centroid never gets a member.
	points := []schema.NormalizedPoint{
		{Latitude: 1, Longitude: 1, Density: 1},
		{Latitude: 1, Longitude: 1, Density: 1},
		{Latitude: 1, Longitude: 1, Density: 1},
	}
	cfg := testConfig()
	assert.Len(t, cluster.Cluster(points, 2, ClusterOptions(cfg)...), 2)

	cfg.DropEmpty = true
	assert.Len(t, cluster.Cluster(points, 2, ClusterOptions(cfg)...), 1)
}

func TestCacheKeyTracksDropEmpty(t *testing.T) {
	records := []schema.RawSpillRecord{makeRecord("a", 5, "2023-06-01T00:00:00Z")}
	cfg := testConfig()
	keep, err := generateCacheKey(cfg, records)
	require.NoError(t, err)
	cfg.DropEmpty = true
	drop, err := generateCacheKey(cfg, records)
	require.NoError(t, err)
	assert.NotEqual(t, keep, drop)
}

func TestBuildDocument(t *testing.T) {
	cfg := testConfig()
	cfg.WithSun = true
	records := []schema.RawSpillRecord{makeRecord("a", 5, "2023-06-21T12:00:00Z", "not-a-time")}

	doc, err := BuildDocument(WithQuiet(context.Background()), cfg, nil, records)
	require.NoError(t, err)
	assert.Equal(t, schema.DetailLow, doc.Detail)
	assert.Equal(t, []string{"2023-06-21T12:00:00Z", "not-a-time"}, doc.Timestamps)
	require.Contains(t, doc.Sun, "2023-06-21T12:00:00Z")
	assert.NotContains(t, doc.Sun, "not-a-time")
	assert.InDelta(t, 23.44, doc.Sun["2023-06-21T12:00:00Z"].Latitude, 0.2)
}

func TestOutlines(t *testing.T) {
	records := []schema.RawSpillRecord{makeRecord("a", 30, "2023-06-01T00:00:00Z", "2023-06-02T00:00:00Z")}
	entries := lod.Build(records, schema.DetailMedium)

	all := Outlines(entries, "a", "", "")
	assert.Len(t, all, 6)

	filtered := Outlines(entries, "a", "2023-06-02T00:00:00Z", "3")
	require.Len(t, filtered, 1)
	assert.Equal(t, "3", filtered[0].Density)
	assert.Equal(t, densityColors[2], filtered[0].Color)
	assert.Equal(t, filtered[0].Ring[0], filtered[0].Ring[len(filtered[0].Ring)-1])

	assert.Empty(t, Outlines(entries, "missing", "", ""))
}

func TestBuildOutlinesNoMatch(t *testing.T) {
	cfg := testConfig()
	cfg.Density = "9"
	_, err := BuildOutlines(WithQuiet(context.Background()), cfg, nil, makeRecord("a", 10, "2023-06-01T00:00:00Z"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no density bucket")
}

func TestCachedBuildGroupsMissThenHit(t *testing.T) {
	ctx := WithQuiet(context.Background())
	cfg := testConfig()
	records := []schema.RawSpillRecord{makeRecord("a", 40, "2023-06-01T00:00:00Z")}
	key, err := generateCacheKey(cfg, records)
	require.NoError(t, err)

	var saved []byte
	store := &iocache.MockCacheStore{}
	store.On("Get", key).Return(nil, 0, int64(0), errors.New("miss")).Once()
	store.On("Set", key, mock.Anything, currentCacheVersion, mock.AnythingOfType("int64")).
		Run(func(args mock.Arguments) { saved = args.Get(1).([]byte) }).
		Return(nil).Once()
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetGroupsStore").Return(store)

	first, _, err := cachedBuildGroups(ctx, cfg, mgr, records)
	require.NoError(t, err)
	require.NotEmpty(t, saved)

	store.On("Get", key).Return(saved, currentCacheVersion, time.Now().Unix(), nil).Once()
	second, _, err := cachedBuildGroups(ctx, cfg, mgr, records)
	require.NoError(t, err)

	firstJSON, _ := json.Marshal(first)
	secondJSON, _ := json.Marshal(second)
	assert.JSONEq(t, string(firstJSON), string(secondJSON))
	store.AssertExpectations(t)
	mgr.AssertExpectations(t)
}

func TestCachedBuildGroupsWithoutStore(t *testing.T) {
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetGroupsStore").Return(nil)

	entries, _, err := cachedBuildGroups(WithQuiet(context.Background()), testConfig(), mgr,
		[]schema.RawSpillRecord{makeRecord("a", 3, "2023-06-01T00:00:00Z")})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	mgr.AssertExpectations(t)
}

func TestCheckCacheHitRejectsInvalidEntries(t *testing.T) {
	payload, _ := json.Marshal(cachedGroups{Entries: schema.GroupedEntries{}})
	valid := cacheEncoder.EncodeAll(payload, nil)
	now := time.Now().Unix()
	expired := time.Now().Add(-cacheTTL - time.Hour).Unix()

	tests := []struct {
		name    string
		data    []byte
		version int
		ts      int64
		want    bool
	}{
		{"valid", valid, currentCacheVersion, now, true},
		{"old version", valid, currentCacheVersion + 1, now, false},
		{"expired", valid, currentCacheVersion, expired, false},
		{"not compressed", payload, currentCacheVersion, now, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &iocache.MockCacheStore{}
			store.On("Get", "k").Return(tt.data, tt.version, tt.ts, nil)
			hit, ok := checkCacheHit(store, "k")
			assert.Equal(t, tt.want, ok)
			if ok {
				assert.NotNil(t, hit.Entries)
			}
		})
	}
}

func TestGenerateCacheKey(t *testing.T) {
	records := []schema.RawSpillRecord{makeRecord("a", 3, "2023-06-01T00:00:00Z")}
	cfg := testConfig()

	k1, err := generateCacheKey(cfg, records)
	require.NoError(t, err)
	k2, _ := generateCacheKey(cfg.Clone(), records)
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 64)

	other := cfg.Clone()
	other.Detail = schema.DetailHigh
	k3, _ := generateCacheKey(other, records)
	assert.NotEqual(t, k1, k3)

	k4, _ := generateCacheKey(cfg, []schema.RawSpillRecord{makeRecord("b", 3, "2023-06-01T00:00:00Z")})
	assert.NotEqual(t, k1, k4)
}
