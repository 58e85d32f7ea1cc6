package viz

import "fmt"

// Explain returns a one-line rationale for recommending chart given f.
func Explain(chart string, f FeatureSet) string {
	base := "Visualization type"
	if c, ok := Lookup(chart); ok {
		base = c.Rationale
	}
	if reason := detectedReason(chart, f); reason != "" {
		return fmt.Sprintf("%s (Detected %s)", base, reason)
	}
	return base
}

func detectedReason(chart string, f FeatureSet) string {
	pick := func(cond bool, yes, no string) string {
		if cond {
			return yes
		}
		return no
	}

	switch chart {
	case AreaChart:
		return pick(f.HasTimeSeries, "time series data", "cumulative values")
	case BarChart:
		return pick(f.HasCategories, "categorical comparison", "ranking data")
	case ChordDiagram:
		return pick(len(f.Relationships) > 1, "complex relationship data", "interconnected groups")
	case TreemapChart:
		return pick(len(f.Hierarchies) > 0, "hierarchical data with size components", "nested categories")
	case NetworkGraph:
		return pick(len(f.Relationships) > 2, "network connections", "relationship mapping")
	case HeatmapChart:
		return pick(f.MultiDimensional, "multi-dimensional data patterns", "correlation analysis")
	case WordCloud:
		return pick(f.IsTextHeavy, "text analysis", "keyword frequency")
	case ConnectionMap:
		return pick(f.LocationCount > 2, "geographic relationships", "spatial data")
	case DonutChart:
		switch {
		case f.PercentageIndicators > 2:
			return "percentage distribution"
		case f.HasCategories:
			return "category proportions"
		default:
			return "part-to-whole relationships"
		}
	}
	return ""
}
