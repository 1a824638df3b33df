package algo

import (
	"sort"

	"github.com/huangsam/slick/schema"
)

// RankStats sorts entries by a stat field in descending order and returns the
// top 'limit' entries. Nested fields rank by their average. Ties keep input
// order. If limit is not positive or exceeds the number of entries, all
// entries are returned in sorted order. The input slice is not modified.
func RankStats(entries []schema.PrecomputedStatsEntry, field schema.StatField, limit int) []schema.PrecomputedStatsEntry {
	ranked := make([]schema.PrecomputedStatsEntry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return SortValue(ranked[i], field) > SortValue(ranked[j], field)
	})
	if limit > 0 && len(ranked) > limit {
		return ranked[:limit]
	}
	return ranked
}

// SortValue returns the number an entry is ranked by for a field.
func SortValue(e schema.PrecomputedStatsEntry, field schema.StatField) float64 {
	for _, f := range schema.NestedStatFields {
		if f == field {
			return e.NestedValue(field).Average
		}
	}
	return e.SimpleValue(field)
}
