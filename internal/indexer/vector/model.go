package vector

import "sort"

// TermVector is the model entry of one term: its idf and the weight of
// every document that contains it. Documents without the term are absent.
type TermVector struct {
	IDF     float64
	Weights map[int]float64
}

// Model is the term-centric vector-space model. It is read-only once built.
type Model struct {
	vectors map[string]TermVector
	terms   []string
}

// NewModel wraps vectors. The map is owned by the model afterwards.
func NewModel(vectors map[string]TermVector) *Model {
	terms := make([]string, 0, len(vectors))
	for term := range vectors {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return &Model{vectors: vectors, terms: terms}
}

// Term returns the vector of term.
func (m *Model) Term(term string) (TermVector, bool) {
	v, ok := m.vectors[term]
	return v, ok
}

// Weight returns weight(term, doc), zero when either is unknown.
func (m *Model) Weight(term string, doc int) float64 {
	return m.vectors[term].Weights[doc]
}

// Terms returns the model's terms in ascending order.
func (m *Model) Terms() []string {
	return m.terms
}

func (m *Model) Len() int {
	return len(m.terms)
}

// DocumentIDs returns every document with at least one weight, ascending.
func (m *Model) DocumentIDs() []int {
	seen := make(map[int]struct{})
	for _, v := range m.vectors {
		for id := range v.Weights {
			seen[id] = struct{}{}
		}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
