package ranker

import (
	"fmt"
	"math"

	vsmerrors "github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/errors"
)

// Similarity scores a query against a document vector. Implementations
// return 0 whenever either vector has zero magnitude.
type Similarity interface {
	Score(query []string, doc DocumentVector) float64
	Name() string
}

// BinaryQuery treats the query as a membership set with weight 1 per term
// and uses sqrt(len(query)) as its magnitude, duplicates included.
type BinaryQuery struct{}

func (BinaryQuery) Name() string { return "binary-query" }

func (BinaryQuery) Score(query []string, doc DocumentVector) float64 {
	qMag := math.Sqrt(float64(len(query)))
	if qMag == 0 || doc.Magnitude == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(query))
	for _, t := range query {
		set[t] = struct{}{}
	}
	var dot float64
	for _, tw := range doc.Terms {
		if _, ok := set[tw.Term]; ok {
			dot += tw.Weight
		}
	}
	return dot / (qMag * doc.Magnitude)
}

// WeightedQuery weights each query term by its number of occurrences in
// the query.
type WeightedQuery struct{}

func (WeightedQuery) Name() string { return "tf-weighted-query" }

func (WeightedQuery) Score(query []string, doc DocumentVector) float64 {
	counts := make(map[string]float64, len(query))
	for _, t := range query {
		counts[t]++
	}
	var sq float64
	for _, c := range counts {
		sq += c * c
	}
	qMag := math.Sqrt(sq)
	if qMag == 0 || doc.Magnitude == 0 {
		return 0
	}
	var dot float64
	for _, tw := range doc.Terms {
		dot += counts[tw.Term] * tw.Weight
	}
	return dot / (qMag * doc.Magnitude)
}

// ParseSimilarity resolves a configured policy name.
func ParseSimilarity(name string) (Similarity, error) {
	switch name {
	case "", "binary-query":
		return BinaryQuery{}, nil
	case "tf-weighted-query":
		return WeightedQuery{}, nil
	}
	return nil, vsmerrors.New("search", vsmerrors.ErrInvalidInput, fmt.Sprintf("unknown similarity %q", name))
}
