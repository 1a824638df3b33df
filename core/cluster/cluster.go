// Package cluster reduces point sets to representative centroids with weighted k-means.
package cluster

import (
	"context"
	"errors"
	"math"

	"github.com/huangsam/slick/core/geodesy"
	"github.com/huangsam/slick/schema"
	"gonum.org/v1/gonum/stat"
)

// ErrInvalidK is returned when the requested cluster count is below one.
var ErrInvalidK = errors.New("cluster count must be at least 1")

// Result is the outcome of a clustering run.
type Result struct {
	Points     []schema.NormalizedPoint
	Iterations int
	Converged  bool
}

// Cluster reduces points to at most k density-weighted centroids.
// Sets with k or fewer points are returned unchanged.
func Cluster(points []schema.NormalizedPoint, k int, opts ...Option) []schema.NormalizedPoint {
	res, err := Run(context.Background(), points, k, opts...)
	if err != nil {
		return nil
	}
	return res.Points
}

// Run is Cluster with cancellation and convergence details.
// Centroids start at the first k points. Each iteration assigns every point to
// its nearest centroid by great-circle distance and moves each non-empty
// centroid to the density-weighted mean of its members. Empty clusters keep
// their previous centroid. The loop stops once no centroid moves more than
// Epsilon or after MaxIterations.
func Run(ctx context.Context, points []schema.NormalizedPoint, k int, opts ...Option) (Result, error) {
	if k < 1 {
		return Result{}, ErrInvalidK
	}
	if len(points) <= k {
		return Result{Points: points, Converged: true}, nil
	}

	o := resolve(opts)
	centroids := make([]schema.NormalizedPoint, k)
	copy(centroids, points[:k])
	assign := make([]int, len(points))
	members := make([]int, k)

	for iter := 1; iter <= o.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return Result{Points: centroids, Iterations: iter - 1}, err
		}

		for i, p := range points {
			assign[i] = nearest(p, centroids, o.TieBreak)
		}

		var moved bool
		centroids, members, moved = recompute(points, assign, centroids, o)
		if !moved {
			return Result{Points: finalize(centroids, members, o), Iterations: iter, Converged: true}, nil
		}
	}

	return Result{Points: finalize(centroids, members, o), Iterations: o.MaxIterations}, nil
}

// nearest returns the index of the closest centroid.
func nearest(p schema.NormalizedPoint, centroids []schema.NormalizedPoint, tb TieBreak) int {
	best := 0
	bestDist := math.Inf(1)
	for i, c := range centroids {
		d := geodesy.Haversine(p.Latitude, p.Longitude, c.Latitude, c.Longitude)
		if d < bestDist || (tb == TieLast && d == bestDist) {
			best = i
			bestDist = d
		}
	}
	return best
}

// recompute moves every centroid to the weighted mean of its members.
func recompute(points []schema.NormalizedPoint, assign []int, prev []schema.NormalizedPoint, o Options) ([]schema.NormalizedPoint, []int, bool) {
	k := len(prev)
	lats := make([][]float64, k)
	lngs := make([][]float64, k)
	weights := make([][]float64, k)
	firsts := make([]int, k)
	for i := range firsts {
		firsts[i] = -1
	}

	for i, p := range points {
		c := assign[i]
		if firsts[c] < 0 {
			firsts[c] = i
		}
		lats[c] = append(lats[c], p.Latitude)
		lngs[c] = append(lngs[c], p.Longitude)
		weights[c] = append(weights[c], p.Density)
	}

	next := make([]schema.NormalizedPoint, k)
	members := make([]int, k)
	moved := false
	for c := range k {
		members[c] = len(lats[c])
		if members[c] == 0 {
			next[c] = prev[c]
			continue
		}

		total := sum(weights[c])
		w := weights[c]
		if total == 0 {
			w = nil
		}
		first := points[firsts[c]]
		next[c] = schema.NormalizedPoint{
			Latitude:  stat.Mean(lats[c], w),
			Longitude: stat.Mean(lngs[c], w),
			Density:   total / float64(members[c]) * o.ScaleFactor,
			Color:     first.Color,
			Type:      first.Type,
		}

		if math.Abs(next[c].Latitude-prev[c].Latitude) > o.Epsilon ||
			math.Abs(next[c].Longitude-prev[c].Longitude) > o.Epsilon {
			moved = true
		}
	}
	return next, members, moved
}

func finalize(centroids []schema.NormalizedPoint, members []int, o Options) []schema.NormalizedPoint {
	if !o.DropEmpty {
		return centroids
	}
	kept := make([]schema.NormalizedPoint, 0, len(centroids))
	for i, c := range centroids {
		if members[i] > 0 {
			kept = append(kept, c)
		}
	}
	return kept
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
