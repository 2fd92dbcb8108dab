package ranker

import (
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer/vector"
)

// TermWeight is one component of a document vector.
type TermWeight struct {
	Term   string
	Weight float64
}

// DocumentVector lists a document's terms in ascending term order together
// with the vector's Euclidean norm.
type DocumentVector struct {
	Terms     []TermWeight
	Magnitude float64
}

// DocumentVectors is the document-centric view of a model.
type DocumentVectors map[int]DocumentVector

// Reorient turns the term-centric model into per-document vectors: every
// (term, document, weight) triple becomes a component of that document's
// vector.
func Reorient(m *vector.Model) DocumentVectors {
	components := make(map[int][]TermWeight)
	for _, term := range m.Terms() {
		tv, _ := m.Term(term)
		for doc, w := range tv.Weights {
			components[doc] = append(components[doc], TermWeight{Term: term, Weight: w})
		}
	}
	docs := make(DocumentVectors, len(components))
	for doc, terms := range components {
		sort.Slice(terms, func(i, j int) bool { return terms[i].Term < terms[j].Term })
		var sq float64
		for _, tw := range terms {
			sq += tw.Weight * tw.Weight
		}
		docs[doc] = DocumentVector{Terms: terms, Magnitude: math.Sqrt(sq)}
	}
	return docs
}

// IDs returns the document identifiers in ascending order.
func (d DocumentVectors) IDs() []int {
	ids := make([]int, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
