package nlp

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Text
	}
	return out
}

func entityPairs(doc *Document) map[string]string {
	out := make(map[string]string)
	for _, e := range doc.Entities {
		out[e.Text] = e.Label
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"percent split", "Plan A: 40%", []string{"Plan", "A", ":", "40", "%"}},
		{"thousands and decimals", "1,200 users and 3.5 points", []string{"1,200", "users", "and", "3.5", "points"}},
		{"quarter code", "Q1 2024", []string{"Q1", "2024"}},
		{"decade", "the 1990s", []string{"the", "1990s"}},
		{"hyphen", "part-to-whole", []string{"part", "-", "to", "-", "whole"}},
		{"empty", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, texts(Tokenize(tt.text)))
		})
	}
}

func TestTokenize_OffsetsAndIndexes(t *testing.T) {
	text := "Growth rose 40%"
	tokens := Tokenize(text)
	require.Len(t, tokens, 4)

	for i, tok := range tokens {
		assert.Equal(t, i, tok.Index)
		assert.Equal(t, tok.Text, text[tok.Offset:tok.Offset+len(tok.Text)])
	}
	assert.Equal(t, "rise", tokens[1].Lemma)
	assert.True(t, tokens[2].LikeNum)
	assert.False(t, tokens[3].LikeNum)
}

func TestLikeNum(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"42", true},
		{"1,000", true},
		{"3.14", true},
		{"1/2", true},
		{"seven", true},
		{"Million", true},
		{"%", false},
		{"10:30", false},
		{"Q1", false},
		{"apple", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, LikeNum(tt.text))
		})
	}
}

func TestLemmatize(t *testing.T) {
	tests := map[string]string{
		"increased":  "increase",
		"decreased":  "decrease",
		"grew":       "grow",
		"fell":       "fall",
		"risen":      "rise",
		"rising":     "rise",
		"trending":   "trend",
		"declining":  "decline",
		"categories": "category",
		"shares":     "share",
		"connected":  "connect",
		"compared":   "compare",
		"dropped":    "drop",
		"months":     "month",
		"process":    "process",
		"analysis":   "analysis",
		"breakdown":  "breakdown",
		"was":        "be",
		"by":         "by",
	}

	for word, want := range tests {
		t.Run(word, func(t *testing.T) {
			assert.Equal(t, want, Lemmatize(word))
		})
	}
}

func TestIsStopWord(t *testing.T) {
	assert.True(t, IsStopWord("the"))
	assert.True(t, IsStopWord("The"))
	assert.True(t, IsStopWord("between"))
	assert.False(t, IsStopWord("market"))
	assert.False(t, IsStopWord("share"))
}

func TestRuleProcessor_Entities(t *testing.T) {
	p := NewRuleProcessor()
	ctx := context.Background()

	tests := []struct {
		name string
		text string
		want map[string]string
	}{
		{
			name: "months and cities",
			text: "Sales in January and February 2024 rose in London.",
			want: map[string]string{"January": LabelDATE, "February 2024": LabelDATE, "London": LabelGPE},
		},
		{
			name: "relative period",
			text: "Signups over the last 6 months",
			want: map[string]string{"last 6 months": LabelDATE},
		},
		{
			name: "clock time",
			text: "The outage started at 10:30 am",
			want: map[string]string{"10:30 am": LabelTIME},
		},
		{
			name: "organisations",
			text: "Acme Widgets Inc competes with Google and Company B",
			want: map[string]string{"Acme Widgets Inc": LabelORG, "Google": LabelORG, "Company B": LabelORG},
		},
		{
			name: "multi-token places",
			text: "Offices in New York and Southeast Asia",
			want: map[string]string{"New York": LabelGPE, "Southeast Asia": LabelLOC},
		},
		{
			name: "products",
			text: "The iPhone outsold Android phones",
			want: map[string]string{"iPhone": LabelPRODUCT, "Android": LabelPRODUCT},
		},
		{
			name: "lowercase modal is not a month",
			text: "it may rise",
			want: map[string]string{},
		},
		{
			name: "percentage is not a year",
			text: "2000% growth",
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := p.Process(ctx, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, entityPairs(doc))
		})
	}
}

func TestRuleProcessor_EntitiesDoNotOverlap(t *testing.T) {
	doc, err := NewRuleProcessor().Process(context.Background(), "Revenue in the past 3 years and on 5 March 2023 in New York City")
	require.NoError(t, err)

	covered := -1
	for _, e := range doc.Entities {
		assert.GreaterOrEqual(t, e.Start, covered)
		assert.Greater(t, e.End, e.Start)
		covered = e.End
	}
	assert.Equal(t, LabelGPE, entityPairs(doc)["New York City"])
	assert.Equal(t, LabelDATE, entityPairs(doc)["5 March 2023"])
}

func TestSplitSentences(t *testing.T) {
	doc, err := NewRuleProcessor().Process(context.Background(),
		"Apple leads the market. Samsung is second!\nGoogle follows\nAcme Inc. sells widgets")
	require.NoError(t, err)

	var got []string
	for _, s := range doc.Sentences {
		got = append(got, s.Text)
	}
	assert.Equal(t, []string{
		"Apple leads the market.",
		"Samsung is second!",
		"Google follows",
		"Acme Inc. sells widgets",
	}, got)

	for _, s := range doc.Sentences {
		assert.NotEmpty(t, doc.SentenceEntities(s), s.Text)
	}
}

func TestDocument_Helpers(t *testing.T) {
	doc, err := NewRuleProcessor().Process(context.Background(), "Paris in June, Tesla in Texas")
	require.NoError(t, err)

	assert.Len(t, doc.EntitiesWithLabel(LabelGPE), 2)
	assert.Len(t, doc.EntitiesWithLabel(LabelORG, LabelPRODUCT), 1)

	last := doc.Tokens[len(doc.Tokens)-1]
	assert.Nil(t, doc.Next(last))
	assert.Equal(t, "in", doc.Next(doc.Tokens[0]).Text)
}

func TestRuleProcessor_EmptyAndCancelled(t *testing.T) {
	p := NewRuleProcessor()

	doc, err := p.Process(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, doc.Tokens)
	assert.Empty(t, doc.Entities)
	assert.Empty(t, doc.Sentences)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Process(ctx, "text")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	p, err := New("")
	require.NoError(t, err)
	assert.Equal(t, BackendRules, p.Name())

	p, err = New(BackendProse)
	require.NoError(t, err)
	assert.Equal(t, BackendProse, p.Name())

	_, err = New("spacy")
	assert.Error(t, err)
}

func TestProseProcessor(t *testing.T) {
	p := NewProseProcessor()

	doc, err := p.Process(context.Background(), "Plan A costs 40% more in January. Plan B is cheaper.")
	require.NoError(t, err)

	words := texts(doc.Tokens)
	assert.Contains(t, words, "40")
	assert.Contains(t, words, "%")
	assert.Len(t, doc.Sentences, 2)
	assert.Equal(t, LabelDATE, entityPairs(doc)["January"])

	for _, tok := range doc.Tokens {
		assert.Equal(t, tok.Text, doc.Text[tok.Offset:tok.Offset+len(tok.Text)])
	}

	empty, err := p.Process(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, empty.Tokens)
}

func TestProseProcessor_MonthsStayDates(t *testing.T) {
	p := NewProseProcessor()

	doc, err := p.Process(context.Background(), "Revenue rose in March. Sales fell in April and recovered on Monday.")
	require.NoError(t, err)

	pairs := entityPairs(doc)
	assert.Equal(t, LabelDATE, pairs["March"])
	assert.Equal(t, LabelDATE, pairs["April"])
	for _, e := range doc.Entities {
		if e.Label != LabelGPE && e.Label != LabelPERSON {
			continue
		}
		for i := e.Start; i < e.End; i++ {
			l := strings.ToLower(doc.Tokens[i].Text)
			assert.False(t, months[l] || weekdays[l], "%s labelled %s", e.Text, e.Label)
		}
	}
}

func TestAcceptProseSpan(t *testing.T) {
	tokens := []Token{
		{Text: "Paris", Tag: "NNP"},
		{Text: "in", Tag: "IN"},
		{Text: "January", Tag: "NNP"},
		{Text: "Revenue", Tag: "NN"},
	}
	temporal := []bool{false, false, true, false}

	assert.True(t, acceptProseSpan(tokens, temporal, 0, 1))
	assert.False(t, acceptProseSpan(tokens, temporal, 2, 3))
	assert.False(t, acceptProseSpan(tokens, make([]bool, 4), 2, 3))
	assert.False(t, acceptProseSpan(tokens, temporal, 3, 4))
	assert.False(t, acceptProseSpan(tokens, temporal, 0, 2))
}
