// Package algo has the geometric and ranking algorithms used on top of grouped output.
package algo

import (
	"github.com/huangsam/slick/core/geodesy"
	"github.com/huangsam/slick/schema"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Hull returns the convex hull of points in counter-clockwise order using a
// Jarvis march from the leftmost point. Inputs with fewer than three distinct
// points, or whose points are all collinear, yield nil.
// The walk is bounded by the number of distinct points.
func Hull(points []orb.Point) []orb.Point {
	pts := distinct(points)
	if len(pts) < 3 {
		return nil
	}

	start := 0
	for i, p := range pts {
		if p[0] < pts[start][0] || (p[0] == pts[start][0] && p[1] < pts[start][1]) {
			start = i
		}
	}

	hull := make([]orb.Point, 0, len(pts))
	current := start
	for range pts {
		hull = append(hull, pts[current])

		next := (current + 1) % len(pts)
		for i, p := range pts {
			if i == current || i == next {
				continue
			}
			c := cross(pts[current], pts[next], p)
			if c < 0 || (c == 0 && sqDist(pts[current], p) > sqDist(pts[current], pts[next])) {
				next = i
			}
		}

		current = next
		if current == start {
			break
		}
	}

	if len(hull) < 3 {
		return nil
	}
	return hull
}

// HullOfPoints returns the hull of normalized points as [lng, lat] vertices.
func HullOfPoints(points []schema.NormalizedPoint) []orb.Point {
	pts := make([]orb.Point, len(points))
	for i, p := range points {
		pts[i] = orb.Point{p.Longitude, p.Latitude}
	}
	return Hull(pts)
}

// CloseRing repeats the first vertex at the end, as renderers expect.
func CloseRing(hull []orb.Point) orb.Ring {
	if len(hull) == 0 {
		return nil
	}
	ring := make(orb.Ring, 0, len(hull)+1)
	ring = append(ring, hull...)
	return append(ring, hull[0])
}

// BuildOutline computes the outline of one density bucket of a spill.
func BuildOutline(id, timestamp, density string, bucket schema.DensityBucket) schema.Outline {
	out := schema.Outline{
		ID:        id,
		Timestamp: timestamp,
		Density:   density,
		Color:     bucket.Color,
		Points:    len(bucket.Points),
		Ring:      [][2]float64{},
		Globe:     [][3]float64{},
	}
	for _, p := range CloseRing(HullOfPoints(bucket.Points)) {
		out.Ring = append(out.Ring, [2]float64{p.Lon(), p.Lat()})
		out.Globe = append(out.Globe, geodesy.UnitVector(p.Lat(), p.Lon()))
	}
	return out
}

// Feature converts an outline into a GeoJSON polygon feature.
// Outlines without a ring become point-less features with a nil geometry.
func Feature(o schema.Outline) *geojson.Feature {
	ring := make(orb.Ring, len(o.Ring))
	for i, p := range o.Ring {
		ring[i] = orb.Point{p[0], p[1]}
	}

	var f *geojson.Feature
	if len(ring) > 0 {
		f = geojson.NewFeature(orb.Polygon{ring})
	} else {
		f = &geojson.Feature{Type: "Feature", Properties: geojson.Properties{}}
	}
	f.Properties["id"] = o.ID
	f.Properties["timestamp"] = o.Timestamp
	f.Properties["density"] = o.Density
	f.Properties["color"] = o.Color
	f.Properties["points"] = o.Points
	return f
}

// cross is positive when b lies left of the directed line o->a.
func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

func sqDist(a, b orb.Point) float64 {
	dx, dy := a[0]-b[0], a[1]-b[1]
	return dx*dx + dy*dy
}

func distinct(points []orb.Point) []orb.Point {
	seen := make(map[orb.Point]struct{}, len(points))
	out := make([]orb.Point, 0, len(points))
	for _, p := range points {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
