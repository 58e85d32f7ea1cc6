package viz

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kgviz/vizrec/internal/nlp"
)

// FeatureSet is the signal record extracted from one query/response pair.
type FeatureSet struct {
	Numbers       []string `json:"numbers"`
	Locations     []string `json:"locations"`
	Trends        []string `json:"trends"`
	Relationships []string `json:"relationships"`
	Hierarchies   []string `json:"hierarchies"`
	PartToWhole   []string `json:"part_to_whole"`
	Comparisons   []string `json:"comparisons"`

	HasTimeSeries    bool `json:"has_time_series"`
	HasMultipleDates bool `json:"has_multiple_dates"`
	MultiDimensional bool `json:"multi_dimensional"`
	HasDistribution  bool `json:"has_distribution"`
	HasCategories    bool `json:"has_categories"`
	IsTextHeavy      bool `json:"is_text_heavy"`
	HasProcessFlow   bool `json:"has_process_flow"`
	HasCorrelation   bool `json:"has_correlation"`

	LocationCount        int       `json:"location_count"`
	PercentageIndicators int       `json:"percentage_indicators"`
	ProportionPhrases    int       `json:"proportion_phrases"`
	PercentageValues     []float64 `json:"percentage_values"`
	SumToWhole           bool      `json:"sum_to_whole"`

	// Response layout, see AnalyzeStructure.
	HasTable         bool `json:"has_table"`
	HasLists         bool `json:"has_lists"`
	HasHierarchy     bool `json:"has_hierarchy"`
	HasDatedSequence bool `json:"has_dated_sequence"`
}

func keywordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

var (
	trendKeywords = keywordSet(
		"increase", "decline", "growth", "rise", "drop", "trend", "fall", "reduce", "expansion",
		"fluctuation", "progression", "evolution", "trajectory", "historical",
		"increased", "decreased", "grew", "fell", "risen", "trending",
	)
	relationshipKeywords = keywordSet(
		"prefer", "dominate", "compared", "versus", "majority", "minority", "correlation",
		"causation", "influence", "impact", "affect", "between", "connection", "network",
		"interaction", "collaboration", "flow", "transfer", "connected", "linked", "relation",
		"mapping", "connect", "link", "association", "interact",
	)
	hierarchyKeywords = keywordSet(
		"structure", "hierarchy", "nested", "parent", "child", "tree", "branch", "root",
		"descendant", "ancestor", "organization", "breakdown", "composition", "contains",
		"hierarchical", "level", "tier", "layer", "subordinate", "superordinate", "category",
		"subcategory", "classification", "taxonomy", "class", "subclass",
	)
	partToWholeKeywords = keywordSet(
		"percentage", "proportion", "fraction", "share", "allocation", "distribution",
		"segment", "portion", "division", "makeup", "composition", "constituent", "breakdown",
		"ratio", "percent", "split", "divided", "parts", "pieces", "sections", "components",
		"pie", "slice", "partition", "comprises",
	)
	comparisonKeywords = keywordSet(
		"versus", "against", "compare", "contrast", "difference", "similarity",
		"benchmark", "outperform", "underperform", "rank", "exceed",
		"higher", "lower", "better", "worse", "comparison", "relative",
	)
	distributionKeywords = keywordSet("distribution", "frequency", "spread", "range", "variance", "outlier")
	processKeywords      = keywordSet("process", "workflow", "sequence", "step", "procedure")
	correlationKeywords  = keywordSet("correlation", "relationship", "association", "connected")
)

var (
	percentLiteral   = regexp.MustCompile(`\d+%`)
	proportionPhrase = regexp.MustCompile(`(account|make|constitute|represent)s? for|up \d+%`)
)

// Thresholds for the derived flags.
const (
	multiDimensionalNumbers = 5
	categoryEntities        = 2
	textHeavyTokens         = 30
	percentSumLow           = 95
	percentSumHigh          = 105
)

// CombinedText joins query and response the way every stage expects.
func CombinedText(query, response string) string {
	return query + " " + response
}

// ExtractFeatures derives the FeatureSet from a document of the combined
// query and response text. It never fails; an empty document yields a zero
// FeatureSet with empty lists.
func ExtractFeatures(doc *nlp.Document) FeatureSet {
	if doc == nil {
		doc = &nlp.Document{}
	}

	f := FeatureSet{
		Numbers:       []string{},
		Locations:     []string{},
		Trends:        []string{},
		Relationships: []string{},
		Hierarchies:   []string{},
		PartToWhole:   []string{},
		Comparisons:   []string{},
	}

	hasBy := false
	alphaContent := 0
	for _, t := range doc.Tokens {
		if t.LikeNum {
			f.Numbers = append(f.Numbers, t.Text)
		}
		if strings.ToLower(t.Text) == "by" {
			hasBy = true
		}
		if t.IsAlpha && !t.IsStop {
			alphaContent++
		}

		lemma := t.Lemma
		if trendKeywords[lemma] {
			f.Trends = append(f.Trends, lemma)
		}
		if relationshipKeywords[lemma] {
			f.Relationships = append(f.Relationships, lemma)
		}
		if hierarchyKeywords[lemma] {
			f.Hierarchies = append(f.Hierarchies, lemma)
		}
		if partToWholeKeywords[lemma] {
			f.PartToWhole = append(f.PartToWhole, lemma)
		}
		if comparisonKeywords[lemma] {
			f.Comparisons = append(f.Comparisons, lemma)
		}
		if distributionKeywords[lemma] {
			f.HasDistribution = true
		}
		if processKeywords[lemma] {
			f.HasProcessFlow = true
		}
		if correlationKeywords[lemma] {
			f.HasCorrelation = true
		}
		if t.Text == "%" {
			f.PercentageIndicators++
		}
	}

	dates, categories := 0, 0
	for _, e := range doc.Entities {
		switch e.Label {
		case nlp.LabelGPE, nlp.LabelLOC:
			f.Locations = append(f.Locations, e.Text)
		case nlp.LabelDATE:
			dates++
			f.HasTimeSeries = true
		case nlp.LabelTIME:
			f.HasTimeSeries = true
		case nlp.LabelORG, nlp.LabelPRODUCT:
			categories++
		}
	}

	f.LocationCount = len(f.Locations)
	f.HasMultipleDates = dates > 1
	f.HasCategories = categories > categoryEntities
	f.MultiDimensional = hasBy && len(f.Numbers) > multiDimensionalNumbers
	f.IsTextHeavy = alphaContent > textHeavyTokens

	f.PercentageIndicators += len(percentLiteral.FindAllString(doc.Text, -1))
	f.ProportionPhrases = len(proportionPhrase.FindAllString(doc.Text, -1))

	f.PercentageValues = percentageValues(doc)
	if f.PercentageIndicators > 2 && len(f.PercentageValues) > 2 {
		var sum float64
		for _, v := range f.PercentageValues {
			if v <= 100 {
				sum += v
			}
		}
		f.SumToWhole = sum >= percentSumLow && sum <= percentSumHigh
	}

	return f
}

// percentageValues returns numeric tokens carrying or followed by "%".
// Number words such as "forty" have no numeric value and are skipped.
func percentageValues(doc *nlp.Document) []float64 {
	values := []float64{}
	for _, t := range doc.Tokens {
		if !t.LikeNum {
			continue
		}
		marker := t.Text
		if next := doc.Next(t); next != nil {
			marker += next.Text
		}
		if !strings.Contains(marker, "%") {
			continue
		}
		raw := strings.NewReplacer("%", "", ",", "").Replace(t.Text)
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	return values
}
