package viz

// overSelected charts get a flat penalty after boosting.
var overSelected = []string{BarChart, LineChart, AreaChart}

const overSelectionPenalty = 0.1

// Boost applies additive feature-driven adjustments. Matching rules stack.
// The input map is not modified.
func Boost(in ScoreMap, f FeatureSet) ScoreMap {
	s := in.Clone()

	// Trend
	if len(f.Trends) > 0 && f.HasTimeSeries {
		s[LineChart] += 0.4
		s[AreaChart] += 0.3
	} else if len(f.Trends) > 0 {
		s[LineChart] += 0.2
	}

	// Relationships
	switch n := len(f.Relationships); {
	case n > 2:
		s[NetworkGraph] += 0.8
		s[ChordDiagram] += 0.7
		s[DAG] += 0.6
	case n > 0:
		s[NetworkGraph] += 0.4
		s[ChordDiagram] += 0.3
	}

	// Hierarchy
	switch n := len(f.Hierarchies); {
	case n > 2:
		s[TreemapChart] += 0.8
		s[SunburstChart] += 0.7
		s[CirclePacking] += 0.6
		s[TreeDiagram] += 0.5
	case n > 0:
		s[TreemapChart] += 0.4
		s[SunburstChart] += 0.3
	}

	// Part-to-whole
	if f.SumToWhole {
		s[DonutChart] += 0.9
		s[TreemapChart] += 0.6
	}
	switch {
	case f.PercentageIndicators >= 3:
		s[DonutChart] += 0.7
	case f.PercentageIndicators > 0:
		s[DonutChart] += 0.4
	}
	if f.ProportionPhrases > 0 {
		s[DonutChart] += 0.5
	}
	switch n := len(f.PartToWhole); {
	case n >= 3:
		s[DonutChart] += 0.8
	case n > 0:
		s[DonutChart] += 0.4
	}
	if f.HasCategories && containsAny(f.PartToWhole, "breakdown", "distribution", "composition") {
		s[DonutChart] += 0.6
	}
	if !f.HasTimeSeries && len(f.PartToWhole) > 0 {
		s[DonutChart] += 0.3
	}

	// Geography
	switch {
	case f.LocationCount > 3:
		s[ConnectionMap] += 0.8
		s[VoronoiMap] += 0.6
	case f.LocationCount > 0:
		s[ConnectionMap] += 0.5
	}

	if len(f.Comparisons) > 2 && f.HasCategories {
		s[BarChart] += 0.5
		s[MosaicPlot] += 0.6
		s[SmallMultiples] += 0.7
	}
	if f.MultiDimensional {
		s[HeatmapChart] += 0.8
		s[SmallMultiples] += 0.6
	}
	if f.HasDistribution {
		s[HeatmapChart] += 0.6
	}
	if f.IsTextHeavy {
		s[WordCloud] += 0.9
	}

	for _, c := range overSelected {
		s[c] -= overSelectionPenalty
	}

	return s
}

func containsAny(list []string, words ...string) bool {
	for _, item := range list {
		for _, w := range words {
			if item == w {
				return true
			}
		}
	}
	return false
}
