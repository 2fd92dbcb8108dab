package executor

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer/vector"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/metrics"
)

func catDogModel() *vector.Model {
	return vector.NewModel(map[string]vector.TermVector{
		"CAT":  {IDF: math.Ln2, Weights: map[int]float64{1: math.Ln2}},
		"DOG":  {IDF: 0, Weights: map[int]float64{1: 0, 2: 0}},
		"BIRD": {IDF: math.Ln2, Weights: map[int]float64{2: math.Ln2 / 2}},
	})
}

// randomModel spreads terms over documents with a fixed seed.
func randomModel(terms, docs int, seed int64) *vector.Model {
	rng := rand.New(rand.NewSource(seed))
	vectors := make(map[string]vector.TermVector, terms)
	for i := 0; i < terms; i++ {
		weights := make(map[int]float64)
		for j := 0; j < 1+rng.Intn(docs/4+1); j++ {
			weights[1+rng.Intn(docs)] = rng.Float64()
		}
		vectors[fmt.Sprintf("T%03d", i)] = vector.TermVector{IDF: 1, Weights: weights}
	}
	return vector.NewModel(vectors)
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestSearchQueryRanksEveryDocument(t *testing.T) {
	e := New(catDogModel())
	assert.Equal(t, 2, e.DocumentCount())

	res, err := e.SearchQuery(context.Background(), parser.Query{ID: 1, Tokens: []string{"CAT"}}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.QueryID)
	require.Len(t, res.Hits, 2)
	assert.Equal(t, 1, res.Hits[0].DocID)
	assert.InDelta(t, 1.0, res.Hits[0].Similarity, 1e-12)
	assert.Equal(t, ranker.Hit{Position: 2, DocID: 2, Similarity: 0}, res.Hits[1])
}

func TestSearchQueryEmptyQuery(t *testing.T) {
	e := New(catDogModel())
	res, err := e.SearchQuery(context.Background(), parser.Query{ID: 4, Tokens: []string{}}, 0)
	require.NoError(t, err)
	require.Len(t, res.Hits, 2)
	for _, h := range res.Hits {
		assert.Zero(t, h.Similarity)
	}
	// Ties fall back to the larger document identifier.
	assert.Equal(t, 2, res.Hits[0].DocID)
}

func TestSearchQueryLimit(t *testing.T) {
	e := New(randomModel(50, 40, 1))
	q := parser.Query{ID: 1, Tokens: []string{"T001", "T002", "T010"}}
	full, err := e.SearchQuery(context.Background(), q, 0)
	require.NoError(t, err)
	top, err := e.SearchQuery(context.Background(), q, 5)
	require.NoError(t, err)
	assert.Equal(t, full.Hits[:5], top.Hits)
}

func TestPruningMatchesExhaustiveRanking(t *testing.T) {
	model := randomModel(80, 60, 9)
	queries := []parser.Query{
		{ID: 1, Tokens: []string{"T000"}},
		{ID: 2, Tokens: []string{"T005", "T017", "T005"}},
		{ID: 3, Tokens: []string{"MISSING"}},
		{ID: 4, Tokens: []string{}},
	}
	for _, sim := range []ranker.Similarity{ranker.BinaryQuery{}, ranker.WeightedQuery{}} {
		a, err := New(model, WithSimilarity(sim)).Search(context.Background(), queries)
		require.NoError(t, err)
		b, err := New(model, WithSimilarity(sim), WithPruning(true), WithWorkers(3)).Search(context.Background(), queries)
		require.NoError(t, err)
		assert.Equal(t, a, b, sim.Name())
	}
}

func TestSearchKeepsQueryOrder(t *testing.T) {
	e := New(randomModel(20, 20, 3), WithWorkers(4))
	var queries []parser.Query
	for i := 1; i <= 30; i++ {
		queries = append(queries, parser.Query{ID: i * 10, Tokens: []string{fmt.Sprintf("T%03d", i%20)}})
	}
	results, err := e.Search(context.Background(), queries)
	require.NoError(t, err)
	require.Len(t, results, len(queries))
	for i, r := range results {
		assert.Equal(t, queries[i].ID, r.QueryID)
		assert.Len(t, r.Hits, e.DocumentCount())
	}
}

func TestSearchCancelled(t *testing.T) {
	e := New(catDogModel())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Search(ctx, []parser.Query{{ID: 1, Tokens: []string{"CAT"}}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScoreDocumentsSkipsUnknownDocuments(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := New(catDogModel(), WithMetrics(metrics.New(reg)))

	res, err := e.ScoreDocuments(context.Background(),
		parser.Query{ID: 2, Tokens: []string{"CAT"}}, []int{2, 99, 1, 100})
	require.NoError(t, err)
	assert.Equal(t, []int{99, 100}, res.Skipped)
	require.Len(t, res.Hits, 2)
	assert.Equal(t, 1, res.Hits[0].DocID)
	assert.Equal(t, 2, res.Hits[1].DocID)

	assert.Equal(t, 2.0, counterValue(t, reg, "vsm_inconsistent_documents_total"))
	assert.Equal(t, 1.0, counterValue(t, reg, "vsm_queries_scored_total"))
}

func TestScoreDocumentsIgnoresRepeatedIDs(t *testing.T) {
	e := New(catDogModel())

	res, err := e.ScoreDocuments(context.Background(),
		parser.Query{ID: 3, Tokens: []string{"CAT"}}, []int{1, 1, 99, 99})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, 1, res.Hits[0].DocID)
	assert.Equal(t, []int{99}, res.Skipped)
}

func TestEngineIgnoresLaterModelChanges(t *testing.T) {
	vectors := map[string]vector.TermVector{
		"CAT": {IDF: 1, Weights: map[int]float64{1: 1}},
	}
	e := New(vector.NewModel(vectors))
	vectors["DOG"] = vector.TermVector{IDF: 1, Weights: map[int]float64{5: 1}}
	assert.Equal(t, 1, e.DocumentCount())
}

func BenchmarkSearchQuery(b *testing.B) {
	model := randomModel(2000, 1400, 11)
	for _, prune := range []bool{false, true} {
		e := New(model, WithPruning(prune))
		q := parser.Query{ID: 1, Tokens: []string{"T001", "T100", "T1500"}}
		b.Run(fmt.Sprintf("prune=%v", prune), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := e.SearchQuery(context.Background(), q, 10); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
