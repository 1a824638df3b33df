// Package schema has configs, models and global variables for all parts of slick.
package schema

import (
	"encoding/json"
	"sort"
	"strconv"
)

// Geometry is the raw tagged union carried by an actor.
// Coordinates are kept undecoded until normalization so that malformed
// payloads only affect the actor that carries them.
type Geometry struct {
	Type        GeometryType    `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// RawActor is one entity observed at one timestamp.
type RawActor struct {
	Type     ActorType `json:"type"`
	Density  float64   `json:"density"`
	Color    string    `json:"color"`
	Geometry *Geometry `json:"geometry,omitempty"`
	Name     string    `json:"name,omitempty"`
	URL      string    `json:"url,omitempty"`
	Scale    *float64  `json:"scale,omitempty"`
}

// TimestampEntry groups the actors observed at a single point in time.
type TimestampEntry struct {
	Timestamp string     `json:"timestamp"`
	Actors    []RawActor `json:"actors"`
}

// RawSpillRecord is one spill incident as supplied by the record store or an import.
type RawSpillRecord struct {
	ID          string           `json:"id"`
	Coordinates *[2]float64      `json:"coordinates,omitempty"` // [lng, lat]
	Area        float64          `json:"area"`                  // km²
	Data        []TimestampEntry `json:"data"`
}

// NormalizedPoint is a flattened geometry sample in WGS84 degrees.
type NormalizedPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Density   float64 `json:"density"`
	Color     string  `json:"color"`
	Type      string  `json:"type,omitempty"`
}

// DensityBucket holds the reduced points of a single density class.
type DensityBucket struct {
	Color  string            `json:"color"`
	Points []NormalizedPoint `json:"points"`
}

// SpillGroup is one spill at one timestamp, split into density buckets.
// Markers carries the annotation actors that never take part in clustering.
type SpillGroup struct {
	ID        string                   `json:"id"`
	Densities map[string]DensityBucket `json:"densities"`
	Markers   []NormalizedPoint        `json:"markers,omitempty"`
}

// GroupedEntries maps a timestamp to the spills present at that time, in record order.
type GroupedEntries map[string][]SpillGroup

// DensityKey returns the bucket label for a density value.
func DensityKey(density float64) string {
	return strconv.FormatFloat(density, 'f', -1, 64)
}

// DensityKeys returns the bucket labels of a group ordered by their numeric value.
func (g SpillGroup) DensityKeys() []string {
	keys := make([]string, 0, len(g.Densities))
	for k := range g.Densities {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.ParseFloat(keys[i], 64)
		b, errB := strconv.ParseFloat(keys[j], 64)
		if errA != nil || errB != nil || a == b {
			return keys[i] < keys[j]
		}
		return a < b
	})
	return keys
}

// PointCount returns the number of reduced points across all buckets.
func (g SpillGroup) PointCount() int {
	total := 0
	for _, b := range g.Densities {
		total += len(b.Points)
	}
	return total
}

// Timestamps returns the keys of the mapping in ascending order.
func (g GroupedEntries) Timestamps() []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SunPosition is the subsolar point for a timestamp.
type SunPosition struct {
	Timestamp   string  `json:"timestamp"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Declination float64 `json:"declination"`
}

// GroupsDocument is the payload handed to the rendering layer.
type GroupsDocument struct {
	Detail      DetailLevel            `json:"detail"`
	Timestamps  []string               `json:"timestamps"`
	Entries     GroupedEntries         `json:"entries"`
	Sun         map[string]SunPosition `json:"sun,omitempty"`
	Diagnostics []string               `json:"diagnostics,omitempty"`
}

// Outline is the convex boundary of one density bucket.
type Outline struct {
	ID        string       `json:"id"`
	Timestamp string       `json:"timestamp"`
	Density   string       `json:"density"`
	Color     string       `json:"color"`
	Points    int          `json:"points"`
	Ring      [][2]float64 `json:"ring"`  // closed, [lng, lat]
	Globe     [][3]float64 `json:"globe"` // unit sphere xyz of Ring
}
