package nlp

import (
	"strings"
)

var terminators = map[string]bool{".": true, "!": true, "?": true}

// SplitSentences groups tokens into sentences. A sentence ends at a line
// break, or at ".", "!" or "?" when the next token starts a new clause
// (capitalised word, digit, quote) rather than continuing an abbreviation.
func SplitSentences(text string, tokens []Token) []Sentence {
	var out []Sentence
	start := 0

	flush := func(end int) {
		if end <= start {
			return
		}
		last := tokens[end-1]
		s := strings.TrimSpace(text[tokens[start].Offset : last.Offset+len(last.Text)])
		out = append(out, Sentence{Text: s, Start: start, End: end})
		start = end
	}

	for i := range tokens {
		if i+1 >= len(tokens) {
			break
		}
		next := tokens[i+1]
		gap := text[tokens[i].Offset+len(tokens[i].Text) : next.Offset]
		switch {
		case strings.Contains(gap, "\n"):
			flush(i + 1)
		case terminators[tokens[i].Text] && gap != "" && startsClause(next.Text):
			flush(i + 1)
		}
	}
	flush(len(tokens))

	return out
}

func startsClause(s string) bool {
	if s == "" {
		return false
	}
	r := s[0]
	return isCapitalized(s) || (r >= '0' && r <= '9') || r == '"' || r == '\'' || r == '('
}
