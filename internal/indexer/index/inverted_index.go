package index

// InvertedIndex is the immutable term to posting list mapping produced by
// Builder.Build or FromEntries. Callers must not modify returned slices.
type InvertedIndex struct {
	postings map[string]PostingList
	terms    []string
	docIDs   []int
}

// FromEntries builds an index from already materialized entries, e.g. ones
// read back from the inverted list file. Later entries for the same term
// replace earlier ones.
func FromEntries(entries []TermEntry) *InvertedIndex {
	b := NewBuilder(nil)
	for _, e := range entries {
		b.postings[e.Term] = append(PostingList(nil), e.Postings...)
		for _, id := range e.Postings {
			b.docs[id] = struct{}{}
		}
	}
	return b.Build()
}

// Postings returns the posting list of term, or nil.
func (x *InvertedIndex) Postings(term string) PostingList {
	return x.postings[term]
}

// Terms returns all indexed terms in ascending order.
func (x *InvertedIndex) Terms() []string {
	return x.terms
}

// Len returns the number of distinct terms.
func (x *InvertedIndex) Len() int {
	return len(x.terms)
}

// DocumentIDs returns the distinct document identifiers appearing in any
// posting list, ascending.
func (x *InvertedIndex) DocumentIDs() []int {
	return x.docIDs
}

// Entries returns the index as term entries ordered by term.
func (x *InvertedIndex) Entries() []TermEntry {
	entries := make([]TermEntry, 0, len(x.terms))
	for _, term := range x.terms {
		entries = append(entries, TermEntry{Term: term, Postings: x.postings[term]})
	}
	return entries
}

// DocumentLengths returns the number of indexed tokens per document.
func (x *InvertedIndex) DocumentLengths() map[int]int {
	lengths := make(map[int]int, len(x.docIDs))
	for _, p := range x.postings {
		for _, id := range p {
			lengths[id]++
		}
	}
	return lengths
}
