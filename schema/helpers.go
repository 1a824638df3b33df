package schema

// SimpleValue returns the raw value of a simple field.
func (e PrecomputedStatsEntry) SimpleValue(f StatField) float64 {
	switch f {
	case AreaField:
		return e.Area
	case DurationField:
		return e.Duration
	case FrequencyField:
		return e.Frequency
	case PointsField:
		return e.Points
	default:
		return 0
	}
}

// NestedValue returns the min/max/average triple of a nested field.
func (e PrecomputedStatsEntry) NestedValue(f StatField) MinMaxAvg {
	switch f {
	case DensityField:
		return e.Density
	case PerimeterField:
		return e.Perimeter
	case CompactionField:
		return e.Compaction
	case DispersionRadiusField:
		return e.DispersionRadius
	case DispersionDistanceField:
		return e.DispersionDistance
	case BearingField:
		return e.Bearing
	default:
		return MinMaxAvg{}
	}
}

// Simple returns the aggregate of a simple field.
func (s FormattedStats) Simple(f StatField) StatValue {
	switch f {
	case AreaField:
		return s.Area
	case DurationField:
		return s.Duration
	case FrequencyField:
		return s.Frequency
	case PointsField:
		return s.Points
	default:
		return StatValue{}
	}
}

// Nested returns the aggregate of a nested field.
func (s FormattedStats) Nested(f StatField) NestedStatValue {
	switch f {
	case DensityField:
		return s.Density
	case PerimeterField:
		return s.Perimeter
	case CompactionField:
		return s.Compaction
	case DispersionRadiusField:
		return s.DispersionRadius
	case DispersionDistanceField:
		return s.DispersionDistance
	case BearingField:
		return s.Bearing
	default:
		return NestedStatValue{}
	}
}

// SetSimple stores the aggregate of a simple field.
func (s *FormattedStats) SetSimple(f StatField, v StatValue) {
	switch f {
	case AreaField:
		s.Area = v
	case DurationField:
		s.Duration = v
	case FrequencyField:
		s.Frequency = v
	case PointsField:
		s.Points = v
	}
}

// SetNested stores the aggregate of a nested field.
func (s *FormattedStats) SetNested(f StatField, v NestedStatValue) {
	switch f {
	case DensityField:
		s.Density = v
	case PerimeterField:
		s.Perimeter = v
	case CompactionField:
		s.Compaction = v
	case DispersionRadiusField:
		s.DispersionRadius = v
	case DispersionDistanceField:
		s.DispersionDistance = v
	case BearingField:
		s.Bearing = v
	}
}
