package index

// PostingList holds one document identifier per occurrence of a term,
// concatenated document by document. It is not deduplicated: the number of
// times an ID appears equals the term frequency in that document.
type PostingList []int

// Counts returns the occurrence count per document.
func (p PostingList) Counts() map[int]int {
	counts := make(map[int]int)
	for _, id := range p {
		counts[id]++
	}
	return counts
}

// Documents returns the distinct document identifiers of p in order of
// first occurrence.
func (p PostingList) Documents() []int {
	seen := make(map[int]struct{}, len(p))
	docs := make([]int, 0, len(p))
	for _, id := range p {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		docs = append(docs, id)
	}
	return docs
}

// TermEntry pairs a term with its posting list.
type TermEntry struct {
	Term     string
	Postings PostingList
}
