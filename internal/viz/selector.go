package viz

import "math"

// SelectOptions tunes diversity selection.
type SelectOptions struct {
	MaxResults          int
	DiversityThreshold  float64 // a chart above this may repeat a used group
	DonutForceThreshold float64 // minimum donut score for forced inclusion
}

// DefaultSelectOptions returns the standard selection settings.
func DefaultSelectOptions() SelectOptions {
	return SelectOptions{
		MaxResults:          4,
		DiversityThreshold:  0.8,
		DonutForceThreshold: 0.3,
	}
}

// Select picks up to MaxResults charts, preferring unused category groups,
// and forces the donut chart in when part-to-whole evidence is strong and
// no time series is present. Ungrouped charts never block each other.
func Select(scores ScoreMap, f FeatureSet, opts SelectOptions) []Scored {
	if opts.MaxResults < 1 {
		opts.MaxResults = DefaultSelectOptions().MaxResults
	}

	ranked := scores.Ranked()
	selected := []Scored{ranked[0]}
	used := map[string]bool{}
	if g := CategoryOf(ranked[0].Chart); g != "" {
		used[g] = true
	}

	for _, c := range ranked[1:] {
		if len(selected) >= opts.MaxResults {
			break
		}
		g := CategoryOf(c.Chart)
		if g == "" || !used[g] || c.Score > opts.DiversityThreshold {
			selected = append(selected, c)
			if g != "" {
				used[g] = true
			}
		}
	}

	if forceDonut(scores, f, opts) && !containsChart(selected, DonutChart) {
		sortAscending(selected)
		selected[0] = Scored{Chart: DonutChart, Score: scores[DonutChart]}
		sortDescending(selected)
	}

	return selected
}

func forceDonut(scores ScoreMap, f FeatureSet, opts SelectOptions) bool {
	strong := len(f.PartToWhole) > 1 || f.PercentageIndicators > 2 || f.SumToWhole
	return strong && !f.HasTimeSeries && scores[DonutChart] > opts.DonutForceThreshold
}

func containsChart(list []Scored, chart string) bool {
	for _, s := range list {
		if s.Chart == chart {
			return true
		}
	}
	return false
}

// NormalizeScores min-max rescales scores to [0,1], rounded to two decimals.
// When all scores are equal they are only rounded.
func NormalizeScores(in []Scored) []Scored {
	out := make([]Scored, len(in))
	copy(out, in)
	if len(out) == 0 {
		return out
	}

	lo, hi := out[0].Score, out[0].Score
	for _, s := range out[1:] {
		lo = math.Min(lo, s.Score)
		hi = math.Max(hi, s.Score)
	}

	for i := range out {
		if hi-lo > 0 {
			out[i].Score = round2((out[i].Score - lo) / (hi - lo))
		} else {
			out[i].Score = round2(out[i].Score)
		}
	}
	return out
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
