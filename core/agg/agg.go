// Package agg aggregates per-spill precomputed stats for the stats dashboard.
package agg

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/huangsam/slick/schema"
	"github.com/montanaflynn/stats"
)

// ErrEmptyInput is returned when there is nothing to aggregate.
var ErrEmptyInput = errors.New("no stats entries to aggregate")

// precision is the number of decimals every aggregate is rounded to.
const precision = 2

// Aggregate summarizes every simple and nested field across entries.
func Aggregate(entries []schema.PrecomputedStatsEntry) (schema.FormattedStats, error) {
	if len(entries) == 0 {
		return schema.FormattedStats{}, ErrEmptyInput
	}

	out := schema.FormattedStats{Count: len(entries)}
	for _, f := range schema.SimpleStatFields {
		values := make([]float64, len(entries))
		for i, e := range entries {
			values[i] = e.SimpleValue(f)
		}
		v, err := Simple(values)
		if err != nil {
			return schema.FormattedStats{}, fmt.Errorf("aggregate %s: %w", f, err)
		}
		out.SetSimple(f, v)
	}

	for _, f := range schema.NestedStatFields {
		values := make([]schema.MinMaxAvg, len(entries))
		for i, e := range entries {
			values[i] = e.NestedValue(f)
		}
		v, err := Nested(values)
		if err != nil {
			return schema.FormattedStats{}, fmt.Errorf("aggregate %s: %w", f, err)
		}
		out.SetNested(f, v)
	}
	return out, nil
}

// Simple returns min, max and average of the values with an ascending copy as Data.
func Simple(values []float64) (schema.StatValue, error) {
	if len(values) == 0 {
		return schema.StatValue{}, ErrEmptyInput
	}
	data := stats.Float64Data(values)

	minV, err := data.Min()
	if err != nil {
		return schema.StatValue{}, err
	}
	maxV, err := data.Max()
	if err != nil {
		return schema.StatValue{}, err
	}
	avg, err := data.Mean()
	if err != nil {
		return schema.StatValue{}, err
	}

	return schema.StatValue{
		Min:     round(minV),
		Max:     round(maxV),
		Average: round(avg),
		Data:    sortedRounded(values),
	}, nil
}

// Nested combines per-entry triples: min of mins, max of maxes, average of
// averages, and absolute bounds over all mins, maxes and averages pooled.
// Data holds the ascending averages.
func Nested(values []schema.MinMaxAvg) (schema.NestedStatValue, error) {
	if len(values) == 0 {
		return schema.NestedStatValue{}, ErrEmptyInput
	}

	mins := make(stats.Float64Data, len(values))
	maxs := make(stats.Float64Data, len(values))
	avgs := make(stats.Float64Data, len(values))
	for i, v := range values {
		mins[i], maxs[i], avgs[i] = v.Min, v.Max, v.Average
	}
	pooled := make(stats.Float64Data, 0, 3*len(values))
	pooled = append(append(append(pooled, mins...), maxs...), avgs...)

	minOfMins, err := mins.Min()
	if err != nil {
		return schema.NestedStatValue{}, err
	}
	maxOfMaxs, err := maxs.Max()
	if err != nil {
		return schema.NestedStatValue{}, err
	}
	avgOfAvgs, err := avgs.Mean()
	if err != nil {
		return schema.NestedStatValue{}, err
	}
	minAbs, err := pooled.Min()
	if err != nil {
		return schema.NestedStatValue{}, err
	}
	maxAbs, err := pooled.Max()
	if err != nil {
		return schema.NestedStatValue{}, err
	}

	return schema.NestedStatValue{
		StatValue: schema.StatValue{
			Min:     round(minOfMins),
			Max:     round(maxOfMaxs),
			Average: round(avgOfAvgs),
			Data:    sortedRounded(avgs),
		},
		MinAbs: round(minAbs),
		MaxAbs: round(maxAbs),
	}, nil
}

func sortedRounded(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = round(v)
	}
	sort.Float64s(out)
	return out
}

// round rounds half away from zero. NaN and infinities pass through unchanged.
func round(x float64) float64 {
	if math.IsInf(x, 0) {
		return x
	}
	r, err := stats.Round(x, precision)
	if err != nil {
		return x
	}
	return r
}
