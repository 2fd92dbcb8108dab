package corpus

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
)

// Tokenizer splits text on runs of characters that are neither letters nor
// digits and uppercases the pieces. With stemming enabled every word is
// reduced by the English Snowball stemmer first.
type Tokenizer struct {
	stem bool
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithStemming toggles Snowball stemming.
func WithStemming(enabled bool) Option {
	return func(t *Tokenizer) {
		t.stem = enabled
	}
}

func NewTokenizer(opts ...Option) *Tokenizer {
	t := &Tokenizer{}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tokenize returns the normalized tokens of text in their original order.
// Empty or whitespace-only text yields an empty, non-nil slice.
func (t *Tokenizer) Tokenize(text string) []string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if t.stem {
			word = english.Stem(strings.ToLower(word), false)
			if word == "" {
				continue
			}
		}
		tokens = append(tokens, strings.ToUpper(word))
	}
	return tokens
}

// Stemming reports whether the tokenizer stems words.
func (t *Tokenizer) Stemming() bool {
	return t.stem
}
