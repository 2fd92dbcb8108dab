// Package merger selects the best k scored documents with a bounded heap,
// avoiding a full sort when only a page of results is wanted.
package merger

import (
	"container/heap"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/ranker"
)

// TopK returns the limit best documents of the given lists, best first, in
// the order ranker.Rank would produce. A limit <= 0 keeps everything.
func TopK(limit int, lists ...[]ranker.Scored) []ranker.Scored {
	if limit <= 0 {
		var all []ranker.Scored
		for _, l := range lists {
			all = append(all, l...)
		}
		out := make([]ranker.Scored, len(all))
		for i, h := range ranker.Rank(all, 0) {
			out[i] = ranker.Scored{DocID: h.DocID, Score: h.Similarity}
		}
		return out
	}
	h := &scoredHeap{}
	for _, l := range lists {
		for _, doc := range l {
			if h.Len() < limit {
				heap.Push(h, doc)
				continue
			}
			if ranker.Better(doc, (*h)[0]) {
				(*h)[0] = doc
				heap.Fix(h, 0)
			}
		}
	}
	result := make([]ranker.Scored, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(ranker.Scored)
	}
	return result
}

// scoredHeap keeps the worst retained document at the root.
type scoredHeap []ranker.Scored

func (h scoredHeap) Len() int { return len(h) }

func (h scoredHeap) Less(i, j int) bool { return ranker.Better(h[j], h[i]) }

func (h scoredHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredHeap) Push(x any) {
	*h = append(*h, x.(ranker.Scored))
}

func (h *scoredHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
