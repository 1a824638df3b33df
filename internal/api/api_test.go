package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/huangsam/slick/core/metrics"
	"github.com/huangsam/slick/internal/api"
	"github.com/huangsam/slick/internal/contract"
	"github.com/huangsam/slick/internal/iocache"
	"github.com/huangsam/slick/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func baseConfig() *contract.Config {
	return &contract.Config{
		Detail:        schema.DetailMedium,
		Workers:       2,
		Precision:     2,
		Limit:         contract.DefaultResultLimit,
		RankBy:        schema.AreaField,
		ClusterScale:  contract.DefaultClusterScale,
		MaxIterations: contract.DefaultMaxIterations,
		Epsilon:       contract.DefaultEpsilon,
		TieBreak:      contract.TieBreakFirst,
		Query:         schema.RecordQuery{Page: 1, Size: contract.DefaultPageSize, SortBy: schema.SortByID, SortDir: schema.SortAsc},
	}
}

// gulfRecord has twelve oil points split over three densities and one marker.
func gulfRecord() schema.RawSpillRecord {
	colors := []string{"#111", "#222", "#333"}
	entry := schema.TimestampEntry{Timestamp: "2010-04-22T12:00:00Z"}
	for i := range 12 {
		raw, _ := json.Marshal([]float64{-88.4 + float64(i%4)*0.01, 28.7 + float64(i/4)*0.01})
		entry.Actors = append(entry.Actors, schema.RawActor{
			Type:     schema.ActorOil,
			Density:  float64(i%3 + 1),
			Color:    colors[i%3],
			Geometry: &schema.Geometry{Type: schema.PointGeometry, Coordinates: raw},
		})
	}
	entry.Actors = append(entry.Actors, schema.RawActor{
		Type:     schema.ActorObject,
		Color:    "#f00",
		Name:     "rig",
		Geometry: &schema.Geometry{Type: schema.PointGeometry, Coordinates: json.RawMessage(`[-88.36, 28.74]`)},
	})
	return schema.RawSpillRecord{ID: "gulf", Area: 12, Coordinates: &[2]float64{-88.36, 28.74}, Data: []schema.TimestampEntry{entry}}
}

func newMocks() (*iocache.MockCacheManager, *iocache.MockRecordStore) {
	store := &iocache.MockRecordStore{}
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetRecordStore").Return(store)
	mgr.On("GetGroupsStore").Return(nil)
	return mgr, store
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	mgr, _ := newMocks()
	rec := get(t, api.NewRouter(baseConfig(), mgr), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestListSpills(t *testing.T) {
	mgr, store := newMocks()
	want := schema.RecordQuery{Page: 2, Size: 5, IDContains: "gul", SortBy: schema.SortByArea, SortDir: schema.SortDesc}
	store.On("ListRecords", mock.Anything, want).
		Return(schema.RecordPage{Page: 2, Size: 5, Total: 6, Items: []schema.RecordSummary{{ID: "gulf", Area: 12, Entries: 1}}}, nil)

	rec := get(t, api.NewRouter(baseConfig(), mgr), "/api/spills?page=2&size=5&id_contains=gul&sort=area&order=desc")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var page schema.RecordPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 6, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "gulf", page.Items[0].ID)
	store.AssertExpectations(t)
}

func TestListSpillsBadParams(t *testing.T) {
	mgr, store := newMocks()
	router := api.NewRouter(baseConfig(), mgr)

	for _, target := range []string{
		"/api/spills?page=abc",
		"/api/spills?sort=bogus",
		"/api/spills?order=sideways",
		"/api/spills?min-area=1&min_area=x",
		"/api/spills?min_area=10&max_area=1",
	} {
		t.Run(target, func(t *testing.T) {
			rec := get(t, router, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), "invalid parameters")
		})
	}
	store.AssertNotCalled(t, "ListRecords", mock.Anything, mock.Anything)
}

func TestGetSpill(t *testing.T) {
	mgr, store := newMocks()
	rec := gulfRecord()
	store.On("GetRecord", mock.Anything, "gulf").Return(schema.StoredRecord{Record: rec, Stats: metrics.Compute(rec)}, nil)
	store.On("GetRecord", mock.Anything, "nope").Return(schema.StoredRecord{}, iocache.ErrRecordNotFound)
	router := api.NewRouter(baseConfig(), mgr)

	res := get(t, router, "/api/spills/gulf")
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var stored schema.StoredRecord
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &stored))
	assert.Equal(t, "gulf", stored.Record.ID)
	assert.Equal(t, "gulf", stored.Stats.ID)

	res = get(t, router, "/api/spills/nope")
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Contains(t, res.Body.String(), "record not found")
}

func TestGetGroups(t *testing.T) {
	mgr, store := newMocks()
	store.On("GetRecord", mock.Anything, "gulf").Return(schema.StoredRecord{Record: gulfRecord()}, nil)
	router := api.NewRouter(baseConfig(), mgr)

	res := get(t, router, "/api/spills/gulf/groups?detail=single&sun=yes")
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var doc schema.GroupsDocument
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &doc))
	assert.Equal(t, schema.DetailSingle, doc.Detail)
	assert.Equal(t, []string{"2010-04-22T12:00:00Z"}, doc.Timestamps)
	require.Len(t, doc.Entries["2010-04-22T12:00:00Z"], 1)

	group := doc.Entries["2010-04-22T12:00:00Z"][0]
	assert.Equal(t, "gulf", group.ID)
	assert.Len(t, group.Densities, 3)
	for key, bucket := range group.Densities {
		assert.Len(t, bucket.Points, 1, "single detail keeps one point in bucket %s", key)
	}
	assert.Len(t, group.Markers, 1)
	assert.Contains(t, doc.Sun, "2010-04-22T12:00:00Z")

	res = get(t, router, "/api/spills/gulf/groups?detail=ultra")
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = get(t, router, "/api/spills/gulf/groups?sun=maybe")
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestGetOutline(t *testing.T) {
	mgr, store := newMocks()
	store.On("GetRecord", mock.Anything, "gulf").Return(schema.StoredRecord{Record: gulfRecord()}, nil)

	res := get(t, api.NewRouter(baseConfig(), mgr), "/api/spills/gulf/outline?density=2")
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "gulf", fc.Features[0].Properties["id"])
}

func TestGetStats(t *testing.T) {
	mgr, store := newMocks()
	small := gulfRecord()
	small.ID, small.Area = "baltic", 3
	entries := metrics.ComputeAll([]schema.RawSpillRecord{gulfRecord(), small})
	store.On("ListStats", mock.Anything, mock.Anything).Return(entries, nil)
	router := api.NewRouter(baseConfig(), mgr)

	res := get(t, router, "/api/stats?rank_by=area&limit=1")
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var body struct {
		RankBy string                         `json:"rank_by"`
		Top    []schema.PrecomputedStatsEntry `json:"top"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, "area", body.RankBy)
	require.Len(t, body.Top, 1)
	assert.Equal(t, "gulf", body.Top[0].ID)

	assert.Equal(t, http.StatusBadRequest, get(t, router, "/api/stats?rank_by=color").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, router, "/api/stats?limit=-1").Code)
}

func TestGetStatsEmpty(t *testing.T) {
	mgr, store := newMocks()
	store.On("ListStats", mock.Anything, mock.Anything).Return(nil, nil)

	res := get(t, api.NewRouter(baseConfig(), mgr), "/api/stats")
	assert.Equal(t, http.StatusNotFound, res.Code)
}
