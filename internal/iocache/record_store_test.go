package iocache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/huangsam/slick/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryRecordStore(t *testing.T) *RecordStoreImpl {
	t.Helper()
	store, err := NewRecordStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	impl := store.(*RecordStoreImpl)
	clock := time.Unix(1_700_000_000, 0)
	impl.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return impl
}

func sampleRecord(id string, area float64) (schema.RawSpillRecord, schema.PrecomputedStatsEntry) {
	rec := schema.RawSpillRecord{
		ID:          id,
		Coordinates: &[2]float64{-88.4, 28.7},
		Area:        area,
		Data: []schema.TimestampEntry{{
			Timestamp: "2024-01-01T00:00:00Z",
			Actors: []schema.RawActor{{
				Type:    schema.ActorOil,
				Density: 3,
				Color:   "black",
				Geometry: &schema.Geometry{
					Type:        schema.PointGeometry,
					Coordinates: []byte(`[-88.4,28.7]`),
				},
			}},
		}},
	}
	return rec, schema.PrecomputedStatsEntry{ID: id, Area: area, Frequency: 1}
}

func seed(t *testing.T, store *RecordStoreImpl, ids map[string]float64) {
	t.Helper()
	for id, area := range ids {
		rec, stats := sampleRecord(id, area)
		require.NoError(t, store.PutRecord(context.Background(), rec, stats))
	}
}

func TestRecordStorePutGet(t *testing.T) {
	ctx := context.Background()
	store := newMemoryRecordStore(t)

	rec, stats := sampleRecord("deepwater", 12.5)
	require.NoError(t, store.PutRecord(ctx, rec, stats))

	got, err := store.GetRecord(ctx, "deepwater")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.Record.ID)
	assert.Equal(t, rec.Coordinates, got.Record.Coordinates)
	require.Len(t, got.Record.Data, 1)
	assert.JSONEq(t, `[-88.4,28.7]`, string(got.Record.Data[0].Actors[0].Geometry.Coordinates))
	assert.Equal(t, stats, got.Stats)
	assert.False(t, got.ImportedAt.IsZero())

	_, err = store.GetRecord(ctx, "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestRecordStoreUpsert(t *testing.T) {
	ctx := context.Background()
	store := newMemoryRecordStore(t)

	rec, stats := sampleRecord("dup", 1)
	require.NoError(t, store.PutRecord(ctx, rec, stats))
	rec.Area, stats.Area = 9, 9
	require.NoError(t, store.PutRecord(ctx, rec, stats))

	page, err := store.ListRecords(ctx, schema.RecordQuery{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 9.0, page.Items[0].Area)
}

func TestRecordStoreRejectsEmptyID(t *testing.T) {
	store := newMemoryRecordStore(t)
	rec, stats := sampleRecord("  ", 1)
	assert.Error(t, store.PutRecord(context.Background(), rec, stats))
}

func TestRecordStoreListPaging(t *testing.T) {
	ctx := context.Background()
	store := newMemoryRecordStore(t)
	ids := map[string]float64{}
	for i := range 7 {
		ids[fmt.Sprintf("spill-%02d", i)] = float64(i)
	}
	seed(t, store, ids)

	page, err := store.ListRecords(ctx, schema.RecordQuery{Page: 2, Size: 3, SortBy: schema.SortByID, SortDir: schema.SortAsc})
	require.NoError(t, err)
	assert.Equal(t, 7, page.Total)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "spill-03", page.Items[0].ID)
	assert.Equal(t, "spill-05", page.Items[2].ID)
	require.Len(t, page.Records, 3)
	assert.Equal(t, "spill-03", page.Records[0].ID)
	require.NotNil(t, page.Items[0].Coordinate)
	assert.Equal(t, 1, page.Items[0].Entries)

	last, err := store.ListRecords(ctx, schema.RecordQuery{Page: 3, Size: 3, SortBy: schema.SortByID})
	require.NoError(t, err)
	require.Len(t, last.Items, 1)
	assert.Equal(t, "spill-06", last.Items[0].ID)

	beyond, err := store.ListRecords(ctx, schema.RecordQuery{Page: 9, Size: 3})
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
	assert.Equal(t, 7, beyond.Total)
}

func TestRecordStoreListFilters(t *testing.T) {
	ctx := context.Background()
	store := newMemoryRecordStore(t)
	seed(t, store, map[string]float64{
		"Gulf-A": 10,
		"gulf-B": 50,
		"north":  30,
		"baltic": 70,
	})

	tests := []struct {
		name string
		q    schema.RecordQuery
		want []string
	}{
		{
			name: "id filter is case-insensitive",
			q:    schema.RecordQuery{IDContains: "GULF", SortBy: schema.SortByID},
			want: []string{"Gulf-A", "gulf-B"},
		},
		{
			name: "short id filter is ignored",
			q:    schema.RecordQuery{IDContains: "gu", SortBy: schema.SortByID},
			want: []string{"Gulf-A", "baltic", "gulf-B", "north"},
		},
		{
			name: "area range is inclusive",
			q:    schema.RecordQuery{MinArea: ptr(30.0), MaxArea: ptr(50.0), SortBy: schema.SortByArea},
			want: []string{"north", "gulf-B"},
		},
		{
			name: "area descending",
			q:    schema.RecordQuery{SortBy: schema.SortByArea, SortDir: schema.SortDesc},
			want: []string{"baltic", "gulf-B", "north", "Gulf-A"},
		},
		{
			name: "unknown sort falls back to id",
			q:    schema.RecordQuery{SortBy: "area; DROP TABLE x"},
			want: []string{"Gulf-A", "baltic", "gulf-B", "north"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := store.ListRecords(ctx, tt.q)
			require.NoError(t, err)
			var ids []string
			for _, item := range page.Items {
				ids = append(ids, item.ID)
			}
			assert.Equal(t, tt.want, ids)
			assert.Equal(t, len(tt.want), page.Total)

			stats, err := store.ListStats(ctx, tt.q)
			require.NoError(t, err)
			assert.Len(t, stats, len(tt.want))
		})
	}
}

func TestRecordStoreDeleteAndStatus(t *testing.T) {
	ctx := context.Background()
	store := newMemoryRecordStore(t)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 0, status.TotalRecords)

	seed(t, store, map[string]float64{"a-one": 1.5, "b-two": 2.5})
	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalRecords)
	assert.InDelta(t, 4.0, status.TotalArea, 1e-9)
	assert.True(t, status.LastImportTime.After(status.OldestImport))

	require.NoError(t, store.DeleteRecord(ctx, "a-one"))
	assert.ErrorIs(t, store.DeleteRecord(ctx, "a-one"), ErrRecordNotFound)

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 1, status.TotalRecords)
}

func TestRecordStoreNoneBackend(t *testing.T) {
	ctx := context.Background()
	store, err := NewRecordStore(schema.NoneBackend, "")
	require.NoError(t, err)

	rec, stats := sampleRecord("x", 1)
	assert.NoError(t, store.PutRecord(ctx, rec, stats))

	_, err = store.GetRecord(ctx, "x")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	page, err := store.ListRecords(ctx, schema.RecordQuery{Page: 1, Size: 5})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestWhereAndOrderClauses(t *testing.T) {
	args := argList{backend: schema.PostgreSQLBackend}
	where := whereClause(schema.RecordQuery{IDContains: "Gulf", MinArea: ptr(1.0)}, &args)
	assert.Equal(t, " WHERE LOWER(id) LIKE $1 ESCAPE '!' AND area >= $2", where)
	assert.Equal(t, []any{"%gulf%", 1.0}, args.args)

	args = argList{backend: schema.MySQLBackend}
	whereClause(schema.RecordQuery{IDContains: "a_b%c!"}, &args)
	assert.Equal(t, []any{"%a!_b!%c!!%"}, args.args)

	assert.Equal(t, "", whereClause(schema.RecordQuery{}, &argList{}))
	assert.Equal(t, " ORDER BY id ASC", orderClause(schema.RecordQuery{}))
	assert.Equal(t, " ORDER BY imported_at DESC, id ASC", orderClause(schema.RecordQuery{SortBy: schema.SortByImported, SortDir: schema.SortDesc}))
}

func TestRecordStoreIDFilterIsLiteral(t *testing.T) {
	ctx := context.Background()
	store := newMemoryRecordStore(t)
	seed(t, store, map[string]float64{"spill-001": 1, "spill_002": 2, "gulf100": 3, "rig!_07": 4})

	tests := []struct {
		substr string
		want   []string
	}{
		{substr: "l_0", want: []string{"spill_002"}},
		{substr: "1%0", want: nil},
		{substr: "%00", want: nil},
		{substr: "!_0", want: []string{"rig!_07"}},
		{substr: "l-0", want: []string{"spill-001"}},
		{substr: "100", want: []string{"gulf100"}},
	}
	for _, tt := range tests {
		t.Run(tt.substr, func(t *testing.T) {
			page, err := store.ListRecords(ctx, schema.RecordQuery{Page: 1, Size: 10, IDContains: tt.substr, SortBy: schema.SortByID})
			require.NoError(t, err)
			var got []string
			for _, item := range page.Items {
				got = append(got, item.ID)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want), page.Total)
		})
	}
}

func ptr[T any](v T) *T { return &v }
