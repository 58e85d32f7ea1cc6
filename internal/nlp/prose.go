package nlp

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jdkato/prose/v2"
)

var percentToken = regexp.MustCompile(`^(\d[\d.,]*)%$`)

// ProseProcessor uses prose for tokenization, part-of-speech tags,
// sentence segmentation and GPE/PERSON recognition. Lemmas, lexical flags
// and the remaining entity labels come from the rule layer.
type ProseProcessor struct{}

// NewProseProcessor creates a prose-backed processor.
func NewProseProcessor() *ProseProcessor {
	return &ProseProcessor{}
}

// Name returns the backend name.
func (p *ProseProcessor) Name() string {
	return BackendProse
}

// Process runs prose over text and aligns its output with byte offsets.
func (p *ProseProcessor) Process(ctx context.Context, text string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return &Document{Text: text}, nil
	}

	pdoc, err := prose.NewDocument(text)
	if err != nil {
		return nil, fmt.Errorf("prose: %w", err)
	}

	tokens := alignTokens(text, pdoc.Tokens())

	var cands []candidate
	cands = append(cands, timeCandidates(tokens)...)
	cands = append(cands, dateCandidates(tokens)...)
	temporal := coveredTokens(len(tokens), cands)

	for _, e := range pdoc.Entities() {
		if e.Label != LabelGPE && e.Label != LabelPERSON {
			continue
		}
		for _, span := range findSpans(text, tokens, e.Text) {
			if acceptProseSpan(tokens, temporal, span[0], span[1]) {
				cands = append(cands, candidate{span[0], span[1], e.Label, -1})
			}
		}
	}
	cands = append(cands, gazetteerCandidates(tokens)...)
	cands = append(cands, orgCandidates(tokens)...)

	return &Document{
		Text:      text,
		Tokens:    tokens,
		Entities:  resolve(text, tokens, cands),
		Sentences: alignSentences(text, tokens, pdoc.Sentences()),
	}, nil
}

func coveredTokens(n int, cands []candidate) []bool {
	covered := make([]bool, n)
	for _, c := range cands {
		for i := c.start; i < c.end && i < n; i++ {
			covered[i] = true
		}
	}
	return covered
}

// acceptProseSpan rejects prose GPE/PERSON spans that touch a date or time,
// name a month or weekday, or contain a token not tagged as a proper noun.
func acceptProseSpan(tokens []Token, temporal []bool, start, end int) bool {
	for i := start; i < end; i++ {
		l := strings.ToLower(tokens[i].Text)
		if temporal[i] || months[l] || weekdays[l] {
			return false
		}
		if !strings.HasPrefix(tokens[i].Tag, "NNP") {
			return false
		}
	}
	return true
}

func alignTokens(text string, ptoks []prose.Token) []Token {
	tokens := make([]Token, 0, len(ptoks))
	cursor := 0

	push := func(s, tag string, offset int) {
		t := newToken(s, len(tokens), offset)
		t.Tag = tag
		tokens = append(tokens, t)
	}

	for _, pt := range ptoks {
		idx := strings.Index(text[cursor:], pt.Text)
		if idx < 0 {
			// prose normalised the token (quotes, ellipses); skip it
			continue
		}
		offset := cursor + idx
		cursor = offset + len(pt.Text)

		if m := percentToken.FindStringSubmatch(pt.Text); m != nil {
			push(m[1], "CD", offset)
			push("%", "NN", offset+len(m[1]))
			continue
		}
		push(pt.Text, pt.Tag, offset)
	}
	return tokens
}

func alignSentences(text string, tokens []Token, psents []prose.Sentence) []Sentence {
	out := make([]Sentence, 0, len(psents))
	cursor, ti := 0, 0

	for _, ps := range psents {
		idx := strings.Index(text[cursor:], ps.Text)
		if idx < 0 {
			continue
		}
		begin := cursor + idx
		end := begin + len(ps.Text)
		cursor = end

		for ti < len(tokens) && tokens[ti].Offset < begin {
			ti++
		}
		start := ti
		for ti < len(tokens) && tokens[ti].Offset < end {
			ti++
		}
		if ti > start {
			out = append(out, Sentence{Text: strings.TrimSpace(ps.Text), Start: start, End: ti})
		}
	}
	return out
}

// findSpans returns the token spans whose source text equals s.
func findSpans(text string, tokens []Token, s string) [][2]int {
	var out [][2]int
	for i := range tokens {
		begin := tokens[i].Offset
		if !strings.HasPrefix(text[begin:], s) {
			continue
		}
		end := begin + len(s)
		j := i
		for j < len(tokens) && tokens[j].Offset < end {
			j++
		}
		out = append(out, [2]int{i, j})
	}
	return out
}
