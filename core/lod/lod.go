// Package lod groups normalized spill points by timestamp and density and
// reduces every density bucket to the point ceiling of a detail level.
package lod

import (
	"context"
	"fmt"
	"strings"

	"github.com/huangsam/slick/core/cluster"
	"github.com/huangsam/slick/core/normalize"
	"github.com/huangsam/slick/schema"
)

// Unconverged describes a bucket whose clustering stopped at the iteration cap.
type Unconverged struct {
	ID         string `json:"id"`
	Timestamp  string `json:"timestamp"`
	Density    string `json:"density"`
	Points     int    `json:"points"`
	Iterations int    `json:"iterations"`
}

// Report collects diagnostics from a build.
type Report struct {
	Unconverged []Unconverged `json:"unconverged,omitempty"`
}

// Diagnostics renders the report as human-readable lines.
func (r Report) Diagnostics() []string {
	if len(r.Unconverged) == 0 {
		return nil
	}
	out := make([]string, 0, len(r.Unconverged))
	for _, u := range r.Unconverged {
		out = append(out, fmt.Sprintf("spill %s at %s density %s: %d points did not converge after %d iterations",
			u.ID, u.Timestamp, u.Density, u.Points, u.Iterations))
	}
	return out
}

// TimedGroup is a spill group together with the timestamp it belongs to.
type TimedGroup struct {
	Timestamp string
	Group     schema.SpillGroup
}

// ParseDetail validates a detail level name.
func ParseDetail(s string) (schema.DetailLevel, error) {
	d := schema.DetailLevel(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := schema.DetailCeilings[d]; !ok {
		return "", fmt.Errorf("invalid detail level %q, must be one of single, low, medium, high", s)
	}
	return d, nil
}

// Ceiling returns the per-bucket point ceiling of a detail level, or 0 if unknown.
func Ceiling(detail schema.DetailLevel) int {
	return schema.DetailCeilings[detail]
}

// Build groups records at the given detail level. An unknown detail level
// yields empty entries; validate user input with ParseDetail first, or call
// BuildWithReport to get the error.
func Build(records []schema.RawSpillRecord, detail schema.DetailLevel, opts ...cluster.Option) schema.GroupedEntries {
	entries, _, err := BuildWithReport(context.Background(), records, detail, opts...)
	if err != nil {
		return schema.GroupedEntries{}
	}
	return entries
}

// BuildWithReport is Build with cancellation and a diagnostic report.
func BuildWithReport(ctx context.Context, records []schema.RawSpillRecord, detail schema.DetailLevel, opts ...cluster.Option) (schema.GroupedEntries, Report, error) {
	parts := make([][]TimedGroup, 0, len(records))
	var report Report
	for _, rec := range records {
		groups, r, err := BuildRecord(ctx, rec, detail, opts...)
		if err != nil {
			return nil, report, err
		}
		parts = append(parts, groups)
		report.Unconverged = append(report.Unconverged, r.Unconverged...)
	}
	return Merge(parts), report, nil
}

// BuildRecord groups a single record. Entries without a valid actor are dropped.
func BuildRecord(ctx context.Context, rec schema.RawSpillRecord, detail schema.DetailLevel, opts ...cluster.Option) ([]TimedGroup, Report, error) {
	ceiling := Ceiling(detail)
	if ceiling == 0 {
		return nil, Report{}, fmt.Errorf("invalid detail level %q", detail)
	}

	var (
		out    []TimedGroup
		report Report
	)
	for _, entry := range rec.Data {
		buckets, order, markers := partition(entry)
		if len(order) == 0 && len(markers) == 0 {
			continue
		}

		group := schema.SpillGroup{
			ID:        rec.ID,
			Densities: make(map[string]schema.DensityBucket, len(order)),
			Markers:   markers,
		}
		for _, key := range order {
			points := buckets[key]
			reduced, u, err := reduce(ctx, points, detail, ceiling, opts)
			if err != nil {
				return nil, report, fmt.Errorf("spill %s at %s: %w", rec.ID, entry.Timestamp, err)
			}
			if u != nil {
				u.ID, u.Timestamp, u.Density = rec.ID, entry.Timestamp, key
				report.Unconverged = append(report.Unconverged, *u)
			}
			group.Densities[key] = schema.DensityBucket{Color: points[0].Color, Points: reduced}
		}
		out = append(out, TimedGroup{Timestamp: entry.Timestamp, Group: group})
	}
	return out, report, nil
}

// Merge concatenates per-record groups into the timestamp mapping,
// preserving the order of parts.
func Merge(parts [][]TimedGroup) schema.GroupedEntries {
	entries := schema.GroupedEntries{}
	for _, groups := range parts {
		for _, tg := range groups {
			entries[tg.Timestamp] = append(entries[tg.Timestamp], tg.Group)
		}
	}
	return entries
}

// partition splits the points of an entry into Oil density buckets and markers.
// order lists bucket keys by first appearance.
func partition(entry schema.TimestampEntry) (map[string][]schema.NormalizedPoint, []string, []schema.NormalizedPoint) {
	buckets := map[string][]schema.NormalizedPoint{}
	var (
		order   []string
		markers []schema.NormalizedPoint
	)
	for _, actor := range entry.Actors {
		points := normalize.Actor(actor)
		if len(points) == 0 {
			continue
		}
		if !normalize.IsOil(actor) {
			markers = append(markers, points...)
			continue
		}
		key := schema.DensityKey(actor.Density)
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], points...)
	}
	return buckets, order, markers
}

// reduce applies the detail ceiling to one bucket.
func reduce(ctx context.Context, points []schema.NormalizedPoint, detail schema.DetailLevel, ceiling int, opts []cluster.Option) ([]schema.NormalizedPoint, *Unconverged, error) {
	if detail == schema.DetailSingle {
		return []schema.NormalizedPoint{argMax(points)}, nil, nil
	}
	if len(points) <= ceiling {
		return points, nil, nil
	}

	res, err := cluster.Run(ctx, points, ceiling, opts...)
	if err != nil {
		return nil, nil, err
	}
	if !res.Converged {
		return res.Points, &Unconverged{Points: len(points), Iterations: res.Iterations}, nil
	}
	return res.Points, nil, nil
}

// argMax returns the densest point; the first maximum wins.
func argMax(points []schema.NormalizedPoint) schema.NormalizedPoint {
	best := points[0]
	for _, p := range points[1:] {
		if p.Density > best.Density {
			best = p
		}
	}
	return best
}
