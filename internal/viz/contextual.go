package viz

import (
	"regexp"
	"strings"
)

// proportionQuestions each add a donut boost when they match the query.
var proportionQuestions = []*regexp.Regexp{
	regexp.MustCompile(`what is the breakdown of`),
	regexp.MustCompile(`how is .* distributed`),
	regexp.MustCompile(`what percentage`),
	regexp.MustCompile(`what proportion`),
	regexp.MustCompile(`what is the split`),
	regexp.MustCompile(`what are the percentages`),
	regexp.MustCompile(`show .* distribution`),
	regexp.MustCompile(`pie chart`),
	regexp.MustCompile(`donut chart`),
	regexp.MustCompile(`composition of`),
	regexp.MustCompile(`makeup of`),
}

var (
	shareTopics   = []string{"market share", "budget allocation", "demographic", "voter"}
	wholeSegments = []string{"categories", "segments", "components"}
)

// AdjustForContext applies query-intent boosts on top of Boost. Phrase cues
// match the lower-cased query as substrings; process and correlation cues
// come from the combined-text features. The input map is not modified.
func AdjustForContext(in ScoreMap, query string, f FeatureSet) ScoreMap {
	s := in.Clone()
	q := strings.ToLower(query)

	if hasAny(q, "show hierarchy", "hierarchical") {
		s[TreemapChart] += 0.5
		s[SunburstChart] += 0.5
		s[TreeDiagram] += 0.4
	}
	if hasAny(q, "show network", "connections between") {
		s[NetworkGraph] += 0.6
		s[ChordDiagram] += 0.5
	}
	if hasAny(q, "over time", "trend") {
		s[LineChart] += 0.4
		s[AreaChart] += 0.3
	}
	if hasAny(q, "map", "geographic") {
		s[ConnectionMap] += 0.7
		s[VoronoiMap] += 0.4
	}
	if hasAny(q, "comparison", "compare") {
		s[BarChart] += 0.4
		s[SmallMultiples] += 0.5
	}

	for _, re := range proportionQuestions {
		if re.MatchString(q) {
			s[DonutChart] += 0.7
		}
	}
	if hasAny(q, shareTopics...) && !f.HasTimeSeries {
		s[DonutChart] += 0.6
	}
	if strings.Contains(q, "top") && hasAny(q, wholeSegments...) {
		s[DonutChart] += 0.5
	}

	if f.HasTimeSeries && len(f.PartToWhole) > 0 {
		s[StackedAreaChart] += 0.7
	}
	if f.HasCategories && f.MultiDimensional {
		s[HeatmapChart] += 0.6
		s[SmallMultiples] += 0.5
	}
	if f.HasProcessFlow {
		s[DAG] += 0.7
	}
	if f.HasCorrelation {
		s[HeatmapChart] += 0.5
		s[NetworkGraph] += 0.4
	}

	return s
}

func hasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
