// Package nlp turns raw text into a Document of tokens, entities and sentences.
//
// Two processors are available: RuleProcessor, a dependency-free rule and
// gazetteer pipeline, and ProseProcessor, which takes tokens, sentences and
// GPE entities from github.com/jdkato/prose/v2 and fills the remaining
// entity labels from the rule layer.
package nlp

import (
	"context"
	"fmt"
)

// Entity labels produced by the processors.
const (
	LabelGPE     = "GPE"
	LabelLOC     = "LOC"
	LabelDATE    = "DATE"
	LabelTIME    = "TIME"
	LabelORG     = "ORG"
	LabelPRODUCT = "PRODUCT"
	LabelPERSON  = "PERSON"
)

// Token is a single word, number or punctuation mark.
type Token struct {
	Text    string
	Lemma   string
	Tag     string // part-of-speech tag when the backend provides one
	Index   int
	Offset  int // byte offset in Document.Text
	IsAlpha bool
	IsStop  bool
	LikeNum bool
}

// Entity is a labelled token span [Start, End).
type Entity struct {
	Text  string
	Label string
	Start int
	End   int
}

// Sentence is a token span [Start, End).
type Sentence struct {
	Text  string
	Start int
	End   int
}

// Document is the processed form of a text.
type Document struct {
	Text      string
	Tokens    []Token
	Entities  []Entity
	Sentences []Sentence
}

// Processor converts text into a Document.
type Processor interface {
	Process(ctx context.Context, text string) (*Document, error)
	Name() string
}

// Backend names accepted by New.
const (
	BackendRules = "rules"
	BackendProse = "prose"
)

// New returns the processor for backend.
func New(backend string) (Processor, error) {
	switch backend {
	case "", BackendRules:
		return NewRuleProcessor(), nil
	case BackendProse:
		return NewProseProcessor(), nil
	default:
		return nil, fmt.Errorf("unknown nlp backend %q", backend)
	}
}

// Next returns the token following t, or nil at the end of the document.
func (d *Document) Next(t Token) *Token {
	if t.Index+1 < len(d.Tokens) {
		return &d.Tokens[t.Index+1]
	}
	return nil
}

// EntitiesWithLabel returns entities whose label is one of labels, in order.
func (d *Document) EntitiesWithLabel(labels ...string) []Entity {
	var out []Entity
	for _, e := range d.Entities {
		for _, l := range labels {
			if e.Label == l {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// SentenceEntities returns the entities that start inside s.
func (d *Document) SentenceEntities(s Sentence) []Entity {
	var out []Entity
	for _, e := range d.Entities {
		if e.Start >= s.Start && e.Start < s.End {
			out = append(out, e)
		}
	}
	return out
}
