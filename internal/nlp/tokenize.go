package nlp

import (
	"regexp"
	"strings"
	"unicode"
)

// Alternatives are tried left to right: ordinals and decades, numbers with
// separators, alphanumeric codes (Q1, H2), words with apostrophes, then any
// single non-space symbol. "%" is always its own token.
var tokenPattern = regexp.MustCompile(
	`\d+(?:st|nd|rd|th|s)\b` +
		`|\d+(?:[.,:/]\d+)*` +
		`|\p{L}+\d[\p{L}\d]*` +
		`|\p{L}+(?:['’]\p{L}+)*` +
		`|[^\s\p{L}\d]`,
)

var numberWords = map[string]bool{
	"zero": true, "one": true, "two": true, "three": true, "four": true,
	"five": true, "six": true, "seven": true, "eight": true, "nine": true,
	"ten": true, "eleven": true, "twelve": true, "thirteen": true,
	"fourteen": true, "fifteen": true, "sixteen": true, "seventeen": true,
	"eighteen": true, "nineteen": true, "twenty": true, "thirty": true,
	"forty": true, "fifty": true, "sixty": true, "seventy": true,
	"eighty": true, "ninety": true, "hundred": true, "thousand": true,
	"million": true, "billion": true, "trillion": true, "dozen": true,
}

// Tokenize splits text into tokens with lemma and lexical flags set.
func Tokenize(text string) []Token {
	locs := tokenPattern.FindAllStringIndex(text, -1)
	tokens := make([]Token, 0, len(locs))
	for i, loc := range locs {
		tokens = append(tokens, newToken(text[loc[0]:loc[1]], i, loc[0]))
	}
	return tokens
}

func newToken(text string, index, offset int) Token {
	lower := strings.ToLower(text)
	return Token{
		Text:    text,
		Lemma:   Lemmatize(lower),
		Index:   index,
		Offset:  offset,
		IsAlpha: isAlpha(text),
		IsStop:  IsStopWord(lower),
		LikeNum: LikeNum(text),
	}
}

// LikeNum reports whether text looks like a number: digits with optional
// thousands or decimal separators, a simple fraction, or a number word.
func LikeNum(text string) bool {
	t := strings.TrimLeft(text, "+-±~")
	t = strings.NewReplacer(",", "", ".", "").Replace(t)
	if t == "" {
		return false
	}
	if isDigits(t) {
		return true
	}
	if num, den, ok := strings.Cut(t, "/"); ok && isDigits(num) && isDigits(den) {
		return true
	}
	return numberWords[strings.ToLower(t)]
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func isCapitalized(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}
