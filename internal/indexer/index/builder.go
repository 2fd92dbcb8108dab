// Package index builds the inverted index: for every term, the list of
// document identifiers in which it occurs, one entry per occurrence.
package index

import (
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/corpus"
)

// Builder accumulates posting lists. It is not safe for concurrent use and
// must not be touched after Build hands its storage to the InvertedIndex.
type Builder struct {
	stopwords map[string]struct{}
	postings  map[string]PostingList
	docs      map[int]struct{}
	built     bool
}

// NewBuilder returns a builder that drops the given stopwords. Stopwords are
// compared after normalization, so they are expected in uppercase.
func NewBuilder(stopwords map[string]struct{}) *Builder {
	if stopwords == nil {
		stopwords = map[string]struct{}{}
	}
	return &Builder{
		stopwords: stopwords,
		postings:  make(map[string]PostingList),
		docs:      make(map[int]struct{}),
	}
}

// Add appends one posting per kept token of the document. It returns the
// number of postings added; a document with no tokens adds nothing.
func (b *Builder) Add(docID int, tokens []string) int {
	if b.built {
		panic("index: Add called after Build")
	}
	added := 0
	for _, tok := range tokens {
		term := Normalize(tok)
		if term == "" {
			continue
		}
		if _, stop := b.stopwords[term]; stop {
			continue
		}
		b.postings[term] = append(b.postings[term], docID)
		added++
	}
	if added > 0 {
		b.docs[docID] = struct{}{}
	}
	return added
}

// Build finalizes the index. The builder transfers its storage and cannot
// be used afterwards.
func (b *Builder) Build() *InvertedIndex {
	if b.built {
		panic("index: Build called twice")
	}
	b.built = true
	terms := make([]string, 0, len(b.postings))
	for term := range b.postings {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	docIDs := make([]int, 0, len(b.docs))
	for id := range b.docs {
		docIDs = append(docIDs, id)
	}
	sort.Ints(docIDs)
	idx := &InvertedIndex{
		postings: b.postings,
		terms:    terms,
		docIDs:   docIDs,
	}
	b.postings = nil
	b.docs = nil
	return idx
}

// Normalize uppercases a token and strips semicolons from both ends.
func Normalize(token string) string {
	return strings.Trim(strings.ToUpper(token), ";")
}

// BuildIndex indexes every document of the collection in ascending ID
// order.
func BuildIndex(c corpus.Collection, stopwords map[string]struct{}) *InvertedIndex {
	b := NewBuilder(stopwords)
	for _, id := range c.IDs() {
		b.Add(id, c[id])
	}
	return b.Build()
}
