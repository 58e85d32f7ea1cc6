package nlp

import "strings"

var irregularLemmas = map[string]string{
	"am": "be", "is": "be", "are": "be", "was": "be", "were": "be", "been": "be", "being": "be",
	"has": "have", "had": "have", "having": "have",
	"does": "do", "did": "do", "done": "do",
	"grew": "grow", "grown": "grow",
	"fell": "fall", "fallen": "fall",
	"rose": "rise", "risen": "rise",
	"went": "go", "gone": "go",
	"made": "make", "took": "take", "taken": "take",
	"gave": "give", "given": "give",
	"saw": "see", "seen": "see",
	"shown": "show", "knew": "know", "known": "know",
	"led": "lead", "left": "leave", "lost": "lose",
	"spent": "spend", "sold": "sell", "bought": "buy",
	"began": "begin", "begun": "begin",
	"split": "split", "spread": "spread", "cost": "cost",
	"children": "child", "people": "person", "men": "man", "women": "woman",
	"data": "datum", "analyses": "analysis", "criteria": "criterion",
	"indices": "index", "matrices": "matrix", "hierarchies": "hierarchy",
	"nested": "nested", "linked": "link", "trending": "trend",
}

// Base forms the suffix rules should land on when a candidate matches.
var lemmaVocabulary = func() map[string]bool {
	words := strings.Fields(`
increase decline decrease rise drop trend fall reduce grow fluctuate progress
evolve prefer dominate compare influence impact affect connect link relate map
interact collaborate flow transfer associate correlate structure nest contain
divide comprise consist share allocate distribute segment partition split
contrast differ benchmark outperform underperform rank exceed compose make
classify categorize group sort order count measure show display visualize
analyze use need want include change move shift improve expand spend sell buy
vary range spread process sequence step proceed depend organize manage
category company country city state region market product user customer
signup subscriber vote voter percentage proportion fraction allocation
distribution portion division constituent ratio percent piece section
component slice level tier layer branch child parent root descendant ancestor
class subclass subcategory taxonomy hierarchy breakdown composition makeup
network connection relationship association interaction collaboration
comparison difference similarity value number amount total sale revenue
budget expense cost price plan team topic theme word term month year week day
quarter time period series
`)
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}()

// Lemmatize returns the dictionary form of a lower-cased word. Irregular
// forms are looked up first; regular inflections are stripped with suffix
// rules, preferring a candidate that is a known base form.
func Lemmatize(word string) string {
	w := strings.ToLower(word)
	if lemma, ok := irregularLemmas[w]; ok {
		return lemma
	}
	if len(w) <= 3 || !isAlpha(w) {
		return w
	}

	var candidates []string
	fallback := w

	switch {
	case strings.HasSuffix(w, "ies") && len(w) > 4:
		candidates = []string{w[:len(w)-3] + "y", w[:len(w)-1]}
		fallback = w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "sses"), strings.HasSuffix(w, "ches"), strings.HasSuffix(w, "shes"),
		strings.HasSuffix(w, "xes"), strings.HasSuffix(w, "zes"):
		candidates = []string{w[:len(w)-2], w[:len(w)-1]}
		fallback = w[:len(w)-2]
	case strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") &&
		!strings.HasSuffix(w, "us") && !strings.HasSuffix(w, "is"):
		candidates = []string{w[:len(w)-1]}
		fallback = w[:len(w)-1]
	case strings.HasSuffix(w, "ied") && len(w) > 4:
		candidates = []string{w[:len(w)-3] + "y"}
		fallback = w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "ed") && len(w) > 4:
		stem := w[:len(w)-2]
		candidates = []string{w[:len(w)-1], stem}
		if undoubled, ok := undouble(stem); ok {
			candidates = append(candidates, undoubled)
			fallback = undoubled
		}
	case strings.HasSuffix(w, "ing") && len(w) > 5:
		stem := w[:len(w)-3]
		candidates = []string{stem, stem + "e"}
		if undoubled, ok := undouble(stem); ok {
			candidates = append(candidates, undoubled)
			fallback = undoubled
		}
	default:
		return w
	}

	for _, c := range candidates {
		if lemmaVocabulary[c] {
			return c
		}
	}
	if lemmaVocabulary[w] {
		return w
	}
	return fallback
}

// undouble strips a doubled final consonant ("stopp" -> "stop").
func undouble(stem string) (string, bool) {
	n := len(stem)
	if n < 4 || stem[n-1] != stem[n-2] {
		return "", false
	}
	switch stem[n-1] {
	case 'a', 'e', 'i', 'o', 'u', 'l', 's', 'z':
		return "", false
	}
	return stem[:n-1], true
}
