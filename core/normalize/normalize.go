// Package normalize flattens raw spill geometries into points.
package normalize

import (
	"encoding/json"

	"github.com/huangsam/slick/schema"
	"github.com/paulmach/orb"
)

// Record returns the points of every actor of every entry, in entry order.
func Record(rec schema.RawSpillRecord) []schema.NormalizedPoint {
	var out []schema.NormalizedPoint
	for _, entry := range rec.Data {
		out = append(out, Entry(entry)...)
	}
	return out
}

// Entry returns the points of every actor observed at one timestamp.
func Entry(entry schema.TimestampEntry) []schema.NormalizedPoint {
	var out []schema.NormalizedPoint
	for _, actor := range entry.Actors {
		out = append(out, Actor(actor)...)
	}
	return out
}

// Actor converts one actor into points. A Point yields one point and a
// Polygon yields one point per vertex of every ring, closing vertices
// included. Actors with a missing or undecodable geometry yield nothing.
func Actor(actor schema.RawActor) []schema.NormalizedPoint {
	g, ok := Geometry(actor.Geometry)
	if !ok {
		return nil
	}

	var typ string
	if actor.Type != schema.ActorOil {
		typ = string(actor.Type)
	}
	point := func(p orb.Point) schema.NormalizedPoint {
		return schema.NormalizedPoint{
			Latitude:  p.Lat(),
			Longitude: p.Lon(),
			Density:   actor.Density,
			Color:     actor.Color,
			Type:      typ,
		}
	}

	switch v := g.(type) {
	case orb.Point:
		return []schema.NormalizedPoint{point(v)}
	case orb.Polygon:
		var out []schema.NormalizedPoint
		for _, ring := range v {
			for _, p := range ring {
				out = append(out, point(p))
			}
		}
		return out
	}
	return nil
}

// Geometry decodes a raw geometry into an orb.Point or orb.Polygon.
// Coordinates are read as [lng, lat] pairs.
func Geometry(g *schema.Geometry) (orb.Geometry, bool) {
	if g == nil || len(g.Coordinates) == 0 {
		return nil, false
	}

	switch g.Type {
	case schema.PointGeometry:
		var pair []float64
		if err := json.Unmarshal(g.Coordinates, &pair); err != nil {
			return nil, false
		}
		p, ok := toPoint(pair)
		if !ok {
			return nil, false
		}
		return p, true

	case schema.PolygonGeometry:
		var rings [][][]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil, false
		}
		poly := make(orb.Polygon, 0, len(rings))
		for _, raw := range rings {
			ring := make(orb.Ring, 0, len(raw))
			for _, pair := range raw {
				p, ok := toPoint(pair)
				if !ok {
					return nil, false
				}
				ring = append(ring, p)
			}
			poly = append(poly, ring)
		}
		return poly, true
	}
	return nil, false
}

// IsOil reports whether an actor takes part in density bucketing.
func IsOil(actor schema.RawActor) bool {
	return actor.Type == schema.ActorOil
}

func toPoint(pair []float64) (orb.Point, bool) {
	if len(pair) < 2 {
		return orb.Point{}, false
	}
	return orb.Point{pair[0], pair[1]}, true
}
