package viz

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kgviz/vizrec/internal/nlp"
)

// Structure holds layout cues found in the response text alone.
type Structure struct {
	HasTable         bool `json:"has_table"`
	HasLists         bool `json:"has_lists"`
	HasHierarchy     bool `json:"has_hierarchy"`
	HasDatedSequence bool `json:"has_dated_sequence"`
	HasCategories    bool `json:"has_categories"`
}

const (
	minTableRows       = 4
	minListItems       = 3
	minIndentLevels    = 2
	maxShallowIndent   = 4
	minDatedEntities   = 3
	minEntitySentences = 3
)

// AnalyzeStructure inspects the response and its processed document for
// tables, lists, indentation hierarchy, dense dates and entity-bearing
// sentences.
func AnalyzeStructure(response string, doc *nlp.Document) Structure {
	if doc == nil {
		doc = &nlp.Document{}
	}
	rows := strings.Split(response, "\n")

	var s Structure
	s.HasTable = hasTable(rows)
	s.HasLists = hasLists(response, rows)
	s.HasHierarchy = hasIndentHierarchy(rows)
	s.HasDatedSequence = len(doc.EntitiesWithLabel(nlp.LabelDATE)) > minDatedEntities

	sentences := 0
	for _, sent := range doc.Sentences {
		for _, e := range doc.SentenceEntities(sent) {
			if e.Label == nlp.LabelORG || e.Label == nlp.LabelPRODUCT || e.Label == nlp.LabelGPE {
				sentences++
				break
			}
		}
	}
	s.HasCategories = sentences > minEntitySentences

	return s
}

// hasTable checks the first four rows for a shared "|" count, or a shared
// count of more than two commas.
func hasTable(rows []string) bool {
	if len(rows) < minTableRows {
		return false
	}
	head := rows[:minTableRows]

	sameCount := func(sep string) bool {
		n := strings.Count(head[0], sep)
		for _, r := range head[1:] {
			if strings.Count(r, sep) != n {
				return false
			}
		}
		return true
	}

	if strings.Count(head[0], "|") > 0 && sameCount("|") {
		return true
	}
	return strings.Count(head[0], ",") > 2 && sameCount(",")
}

func hasLists(response string, rows []string) bool {
	if strings.Count(response, "\n-") > minListItems || strings.Count(response, "\n•") > minListItems {
		return true
	}

	numbered := 0
	for i, line := range rows {
		if strings.HasPrefix(strings.TrimSpace(line), fmt.Sprintf("%d.", i+1)) {
			numbered++
		}
	}
	return numbered > minListItems
}

func hasIndentHierarchy(rows []string) bool {
	widths := make(map[int]bool)
	deepest := 0
	for _, line := range rows {
		if strings.TrimSpace(line) == "" {
			continue
		}
		trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
		w := utf8.RuneCountInString(line) - utf8.RuneCountInString(trimmed)
		widths[w] = true
		if w > deepest {
			deepest = w
		}
	}
	return len(widths) > minIndentLevels && deepest > maxShallowIndent
}

// ApplyStructure copies structure cues into f. Response-layout values win
// over the values derived from the combined text, including HasCategories.
func (f FeatureSet) ApplyStructure(s Structure) FeatureSet {
	f.HasTable = s.HasTable
	f.HasLists = s.HasLists
	f.HasHierarchy = s.HasHierarchy
	f.HasDatedSequence = s.HasDatedSequence
	f.HasCategories = s.HasCategories
	return f
}
