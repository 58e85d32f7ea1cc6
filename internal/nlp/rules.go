package nlp

import "context"

// RuleProcessor is a self-contained English pipeline: regex tokenizer,
// suffix lemmatizer, stop list, gazetteer and pattern NER, and a
// punctuation/line-break sentence splitter.
type RuleProcessor struct{}

// NewRuleProcessor creates a rule-based processor.
func NewRuleProcessor() *RuleProcessor {
	return &RuleProcessor{}
}

// Name returns the backend name.
func (p *RuleProcessor) Name() string {
	return BackendRules
}

// Process runs the pipeline over text.
func (p *RuleProcessor) Process(ctx context.Context, text string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := Tokenize(text)
	return &Document{
		Text:      text,
		Tokens:    tokens,
		Entities:  RecognizeEntities(text, tokens),
		Sentences: SplitSentences(text, tokens),
	}, nil
}
