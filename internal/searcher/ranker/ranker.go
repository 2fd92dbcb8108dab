// Package ranker implements cosine similarity between queries and document
// vectors and the ordering of scored documents.
package ranker

import "sort"

// Scored is a document with its similarity to a query.
type Scored struct {
	DocID int
	Score float64
}

// Hit is one line of a ranked result list. Position starts at 1.
type Hit struct {
	Position   int     `json:"position"`
	DocID      int     `json:"doc_id"`
	Similarity float64 `json:"similarity"`
}

// Better reports whether a ranks ahead of b: higher similarity first, ties
// broken by the larger document identifier.
func Better(a, b Scored) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.DocID > b.DocID
}

// Rank orders scored documents with Better and keeps the first limit
// entries (all when limit <= 0). The input slice is sorted in place.
func Rank(scored []Scored, limit int) []Hit {
	sort.Slice(scored, func(i, j int) bool {
		return Better(scored[i], scored[j])
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return Positions(scored)
}

// Positions numbers already ordered documents from 1.
func Positions(ordered []Scored) []Hit {
	hits := make([]Hit, len(ordered))
	for i, s := range ordered {
		hits[i] = Hit{Position: i + 1, DocID: s.DocID, Similarity: s.Score}
	}
	return hits
}
