package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/huangsam/slick/core/algo"
	"github.com/huangsam/slick/core/cluster"
	"github.com/huangsam/slick/core/geodesy"
	"github.com/huangsam/slick/core/lod"
	"github.com/huangsam/slick/core/metrics"
	"github.com/huangsam/slick/internal/contract"
	"github.com/huangsam/slick/schema"
)

// ClusterOptions translates the clustering knobs of cfg into cluster options.
func ClusterOptions(cfg *contract.Config) []cluster.Option {
	tb := cluster.TieFirst
	if cfg.TieBreak == contract.TieBreakLast {
		tb = cluster.TieLast
	}
	return []cluster.Option{
		cluster.WithScaleFactor(cfg.ClusterScale),
		cluster.WithMaxIterations(cfg.MaxIterations),
		cluster.WithEpsilon(cfg.Epsilon),
		cluster.WithTieBreak(tb),
		cluster.WithDropEmpty(cfg.DropEmpty),
	}
}

// buildGroups builds every record on a pool of cfg.Workers goroutines.
// Results are merged in record order, so the output matches a sequential build.
func buildGroups(ctx context.Context, cfg *contract.Config, records []schema.RawSpillRecord) (schema.GroupedEntries, lod.Report, error) {
	type job struct {
		idx int
		rec schema.RawSpillRecord
	}
	type result struct {
		idx    int
		groups []lod.TimedGroup
		report lod.Report
		err    error
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := ClusterOptions(cfg)
	jobCh := make(chan job, len(records))
	resultCh := make(chan result, len(records))
	var wg sync.WaitGroup

	// Start worker pool
	for range max(cfg.Workers, 1) {
		wg.Go(func() {
			for j := range jobCh {
				groups, report, err := lod.BuildRecord(ctx, j.rec, cfg.Detail, opts...)
				if err != nil {
					cancel()
				}
				resultCh <- result{idx: j.idx, groups: groups, report: report, err: err}
			}
		})
	}

	for i, rec := range records {
		jobCh <- job{idx: i, rec: rec}
	}
	close(jobCh)

	wg.Wait()
	close(resultCh)

	parts := make([][]lod.TimedGroup, len(records))
	reports := make([]lod.Report, len(records))
	var firstErr error
	for r := range resultCh {
		// Prefer the error that triggered cancellation over the ones it caused
		if r.err != nil && (firstErr == nil || errors.Is(firstErr, context.Canceled)) {
			firstErr = r.err
		}
		parts[r.idx] = r.groups
		reports[r.idx] = r.report
	}
	if firstErr != nil {
		return nil, lod.Report{}, firstErr
	}

	var report lod.Report
	for _, r := range reports {
		report.Unconverged = append(report.Unconverged, r.Unconverged...)
	}
	return lod.Merge(parts), report, nil
}

// BuildDocument builds the renderer payload for records, using the groups
// cache of mgr when one is configured.
func BuildDocument(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, records []schema.RawSpillRecord) (schema.GroupsDocument, error) {
	entries, diagnostics, err := cachedBuildGroups(ctx, cfg, mgr, records)
	if err != nil {
		return schema.GroupsDocument{}, err
	}

	doc := schema.GroupsDocument{
		Detail:      cfg.Detail,
		Timestamps:  entries.Timestamps(),
		Entries:     entries,
		Diagnostics: diagnostics,
	}
	if cfg.WithSun {
		doc.Sun = SunPositions(doc.Timestamps)
	}
	return doc, nil
}

// SunPositions returns the subsolar point of every parseable timestamp.
func SunPositions(timestamps []string) map[string]schema.SunPosition {
	out := make(map[string]schema.SunPosition, len(timestamps))
	for _, ts := range timestamps {
		t, ok := metrics.ParseTimestamp(ts)
		if !ok {
			continue
		}
		lat, lng := geodesy.Subsolar(t)
		out[ts] = schema.SunPosition{
			Timestamp:   ts,
			Latitude:    lat,
			Longitude:   lng,
			Declination: geodesy.Declination(t),
		}
	}
	return out
}

// Outlines computes the hull of every density bucket of spill id.
// Empty timestamp or density selects all of them.
func Outlines(entries schema.GroupedEntries, id, timestamp, density string) []schema.Outline {
	var out []schema.Outline
	for _, ts := range entries.Timestamps() {
		if timestamp != "" && ts != timestamp {
			continue
		}
		for _, g := range entries[ts] {
			if g.ID != id {
				continue
			}
			for _, key := range g.DensityKeys() {
				if density != "" && key != density {
					continue
				}
				out = append(out, algo.BuildOutline(id, ts, key, g.Densities[key]))
			}
		}
	}
	return out
}

// BuildOutlines builds the groups of a single record and returns its outlines.
func BuildOutlines(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, rec schema.RawSpillRecord) ([]schema.Outline, error) {
	entries, _, err := cachedBuildGroups(ctx, cfg, mgr, []schema.RawSpillRecord{rec})
	if err != nil {
		return nil, err
	}
	outlines := Outlines(entries, rec.ID, cfg.Timestamp, cfg.Density)
	if len(outlines) == 0 {
		return nil, fmt.Errorf("no density bucket of spill %s matches timestamp %q and density %q", rec.ID, cfg.Timestamp, cfg.Density)
	}
	return outlines, nil
}
