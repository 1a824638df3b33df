// Package metrics derives the precomputed per-spill stats consumed by the aggregator.
package metrics

import (
	"math"
	"time"

	"github.com/huangsam/slick/core/geodesy"
	"github.com/huangsam/slick/core/normalize"
	"github.com/huangsam/slick/schema"
	"github.com/montanaflynn/stats"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"gonum.org/v1/gonum/stat"
)

// timestampLayouts are tried in order when parsing entry timestamps.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// snapshot is the Oil geometry observed at one timestamp.
type snapshot struct {
	area      float64 // km²
	perimeter float64 // km
	centroid  orb.Point
	points    []schema.NormalizedPoint
}

// Compute derives the stats entry of one record.
func Compute(rec schema.RawSpillRecord) schema.PrecomputedStatsEntry {
	var (
		densities    []float64
		perimeters   []float64
		compactions  []float64
		radii        []float64
		distances    []float64
		bearings     []float64
		maxArea      float64
		pointCount   int
		prevCentroid *orb.Point
	)

	for _, entry := range rec.Data {
		pointCount += len(normalize.Entry(entry))

		snap, ok := observe(entry)
		if !ok {
			continue
		}
		for _, actor := range entry.Actors {
			if normalize.IsOil(actor) && len(normalize.Actor(actor)) > 0 {
				densities = append(densities, actor.Density)
			}
		}

		maxArea = math.Max(maxArea, snap.area)
		if snap.perimeter > 0 {
			perimeters = append(perimeters, snap.perimeter)
			compactions = append(compactions, 4*math.Pi*snap.area/(snap.perimeter*snap.perimeter))
		}

		radius := 0.0
		for _, p := range snap.points {
			radius = math.Max(radius, geodesy.Haversine(snap.centroid.Lat(), snap.centroid.Lon(), p.Latitude, p.Longitude))
		}
		radii = append(radii, radius)

		if prevCentroid != nil {
			distances = append(distances, geodesy.Distance(*prevCentroid, snap.centroid))
			bearings = append(bearings, geodesy.Bearing(*prevCentroid, snap.centroid))
		}
		c := snap.centroid
		prevCentroid = &c
	}

	area := rec.Area
	if area <= 0 {
		area = maxArea
	}

	return schema.PrecomputedStatsEntry{
		ID:                 rec.ID,
		Area:               area,
		Duration:           Duration(rec),
		Frequency:          float64(len(rec.Data)),
		Points:             float64(pointCount),
		Density:            Summarize(densities),
		Perimeter:          Summarize(perimeters),
		Compaction:         Summarize(compactions),
		DispersionRadius:   Summarize(radii),
		DispersionDistance: Summarize(distances),
		Bearing:            Summarize(bearings),
	}
}

// ComputeAll derives the stats entry of every record, in order.
func ComputeAll(records []schema.RawSpillRecord) []schema.PrecomputedStatsEntry {
	out := make([]schema.PrecomputedStatsEntry, len(records))
	for i, rec := range records {
		out[i] = Compute(rec)
	}
	return out
}

// Duration returns the hours between the earliest and latest parseable timestamps.
func Duration(rec schema.RawSpillRecord) float64 {
	var first, last time.Time
	for _, entry := range rec.Data {
		t, ok := ParseTimestamp(entry.Timestamp)
		if !ok {
			continue
		}
		if first.IsZero() || t.Before(first) {
			first = t
		}
		if last.IsZero() || t.After(last) {
			last = t
		}
	}
	if first.IsZero() {
		return 0
	}
	return last.Sub(first).Hours()
}

// ParseTimestamp parses an entry timestamp in any of the accepted layouts.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Summarize returns min, max and mean of values, or zeros when empty.
func Summarize(values []float64) schema.MinMaxAvg {
	data := stats.Float64Data(values)
	minV, err := data.Min()
	if err != nil {
		return schema.MinMaxAvg{}
	}
	maxV, _ := data.Max()
	avg, _ := data.Mean()
	return schema.MinMaxAvg{Min: minV, Max: maxV, Average: avg}
}

// Centroid returns the density-weighted mean position of points as [lng, lat].
// A zero total density falls back to the plain mean.
func Centroid(points []schema.NormalizedPoint) (orb.Point, bool) {
	if len(points) == 0 {
		return orb.Point{}, false
	}
	lats := make([]float64, len(points))
	lngs := make([]float64, len(points))
	weights := make([]float64, len(points))
	total := 0.0
	for i, p := range points {
		lats[i], lngs[i], weights[i] = p.Latitude, p.Longitude, p.Density
		total += p.Density
	}
	if total == 0 {
		weights = nil
	}
	return orb.Point{stat.Mean(lngs, weights), stat.Mean(lats, weights)}, true
}

// observe collects the Oil geometry of one entry. Entries without any Oil
// point report false.
func observe(entry schema.TimestampEntry) (snapshot, bool) {
	var snap snapshot
	for _, actor := range entry.Actors {
		if !normalize.IsOil(actor) {
			continue
		}
		g, ok := normalize.Geometry(actor.Geometry)
		if !ok {
			continue
		}
		snap.points = append(snap.points, normalize.Actor(actor)...)

		poly, isPoly := g.(orb.Polygon)
		if !isPoly || len(poly) == 0 || len(poly[0]) < 3 {
			continue
		}
		snap.area += PolygonArea(poly)
		snap.perimeter += geodesy.RingLength(poly[0])
	}

	c, ok := Centroid(snap.points)
	if !ok {
		return snapshot{}, false
	}
	snap.centroid = c
	return snap, true
}

// PolygonArea returns the geodesic area of a polygon in km², holes excluded.
func PolygonArea(poly orb.Polygon) float64 {
	if len(poly) == 0 {
		return 0
	}
	closed := make(orb.Polygon, len(poly))
	for i, ring := range poly {
		if len(ring) > 0 && !ring.Closed() {
			ring = append(append(orb.Ring{}, ring...), ring[0])
		}
		closed[i] = ring
	}
	return math.Abs(geo.Area(closed)) / 1e6
}
