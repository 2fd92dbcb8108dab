// Package parser loads queries into token sequences. Queries carry no
// weights and are not deduplicated: scoring decides what repetition means.
package parser

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/corpus"
)

// Query is an identifier plus its uppercase tokens in original order.
type Query struct {
	ID     int      `json:"id"`
	Tokens []string `json:"tokens"`
}

// Parse splits text on whitespace after stripping surrounding double
// quotes, as stored in the processed queries file.
func Parse(id int, text string) Query {
	text = strings.Trim(strings.TrimSpace(text), `"`)
	fields := strings.Fields(strings.ToUpper(text))
	if fields == nil {
		fields = []string{}
	}
	return Query{ID: id, Tokens: fields}
}

// ParseText normalizes free text with the same tokenizer used for the
// corpus, so punctuation and stemming match the indexed terms.
func ParseText(id int, text string, tok *corpus.Tokenizer) Query {
	return Query{ID: id, Tokens: tok.Tokenize(text)}
}

// IsEmpty reports whether the query has no tokens.
func (q Query) IsEmpty() bool {
	return len(q.Tokens) == 0
}
