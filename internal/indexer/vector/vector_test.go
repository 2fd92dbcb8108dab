package vector

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer/index"
	vsmerrors "github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/errors"
)

func catDog() *index.InvertedIndex {
	return index.BuildIndex(corpus.Collection{
		1: {"CAT", "DOG"},
		2: {"DOG", "BIRD"},
	}, nil)
}

func TestIndexTermInEveryDocumentHasZeroWeight(t *testing.T) {
	m, err := New().Index(context.Background(), catDog())
	require.NoError(t, err)

	dog, ok := m.Term("DOG")
	require.True(t, ok)
	assert.Equal(t, 0.0, dog.IDF)
	assert.Equal(t, 0.0, m.Weight("DOG", 1))
	assert.Equal(t, 0.0, m.Weight("DOG", 2))
}

func TestIndexRareTermWeight(t *testing.T) {
	m, err := New().Index(context.Background(), catDog())
	require.NoError(t, err)

	cat, ok := m.Term("CAT")
	require.True(t, ok)
	assert.InDelta(t, math.Ln2, cat.IDF, 1e-12)
	assert.InDelta(t, math.Ln2, m.Weight("CAT", 1), 1e-12)
	assert.Equal(t, map[int]float64{1: cat.Weights[1]}, cat.Weights, "only documents containing the term carry a weight")
	assert.Equal(t, 0.0, m.Weight("CAT", 2))
}

func TestIndexWeightFormula(t *testing.T) {
	x := index.BuildIndex(corpus.Collection{
		1: {"A", "A", "B"},
		2: {"A", "C"},
		3: {"C"},
		4: {"D"},
	}, nil)
	m, err := New().Index(context.Background(), x)
	require.NoError(t, err)

	idfA := math.Log(4.0 / 2.0)
	assert.InDelta(t, idfA, m.Weight("A", 1)*3/2, 1e-12, "tf normalized by posting list length 3")
	assert.InDelta(t, idfA/3, m.Weight("A", 2), 1e-12)
}

func TestIDFProperties(t *testing.T) {
	assert.Equal(t, 0.0, IDF(5, 5))
	assert.Greater(t, IDF(5, 1), IDF(5, 2))
	assert.Equal(t, 0.0, IDF(0, 3), "degenerate universe")
	assert.Equal(t, 0.0, IDF(3, 0), "degenerate df")

	m, err := New().Index(context.Background(), index.BuildIndex(corpus.Collection{
		1: {"X", "Y"}, 2: {"X", "Z"}, 3: {"X", "Y", "W"},
	}, nil))
	require.NoError(t, err)
	for _, term := range m.Terms() {
		tv, _ := m.Term(term)
		assert.GreaterOrEqual(t, tv.IDF, 0.0, term)
		assert.Equal(t, term == "X", tv.IDF == 0, "idf is 0 only for the term in every document: %s", term)
	}
}

func TestIndexDeterministic(t *testing.T) {
	c := corpus.Collection{}
	vocab := []string{"A", "B", "C", "D", "E", "F", "G"}
	for id := 1; id <= 200; id++ {
		for i := 0; i < id%13+1; i++ {
			c[id] = append(c[id], vocab[(id*i+3)%len(vocab)])
		}
	}
	x := index.BuildIndex(c, nil)

	m1, err := New(WithWorkers(1)).Index(context.Background(), x)
	require.NoError(t, err)
	m2, err := New(WithWorkers(8)).Index(context.Background(), x)
	require.NoError(t, err)

	require.Equal(t, m1.Terms(), m2.Terms())
	for _, term := range m1.Terms() {
		a, _ := m1.Term(term)
		b, _ := m2.Term(term)
		assert.Equal(t, math.Float64bits(a.IDF), math.Float64bits(b.IDF))
		for id, w := range a.Weights {
			assert.Equal(t, math.Float64bits(w), math.Float64bits(b.Weights[id]))
		}
	}
}

func TestUniversePolicies(t *testing.T) {
	x := catDog()

	m, err := New(WithUniverse(UniverseDistinctTerms)).Index(context.Background(), x)
	require.NoError(t, err)
	dog, _ := m.Term("DOG")
	assert.InDelta(t, math.Log(3.0/2.0), dog.IDF, 1e-12, "three distinct terms")

	m, err = New(WithUniverse(UniverseCollection), WithCollectionSize(4)).Index(context.Background(), x)
	require.NoError(t, err)
	dog, _ = m.Term("DOG")
	assert.InDelta(t, math.Log(4.0/2.0), dog.IDF, 1e-12)

	_, err = New(WithUniverse(UniverseCollection)).Index(context.Background(), x)
	assert.ErrorIs(t, err, vsmerrors.ErrInvalidInput)
}

func TestTFNormDocumentLength(t *testing.T) {
	x := index.BuildIndex(corpus.Collection{
		1: {"A", "A", "B", "C"},
		2: {"B"},
	}, nil)
	m, err := New(WithTFNorm(TFDocumentLength)).Index(context.Background(), x)
	require.NoError(t, err)
	assert.InDelta(t, 0.5*math.Ln2, m.Weight("A", 1), 1e-12, "2 of 4 tokens")
	assert.Equal(t, 0.0, m.Weight("B", 2))
}

func TestIndexCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Index(ctx, catDog())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParsePolicies(t *testing.T) {
	u, err := ParseUniverse("")
	require.NoError(t, err)
	assert.Equal(t, UniverseIndexedDocuments, u)
	for _, name := range []string{"indexed-documents", "distinct-terms", "collection"} {
		u, err := ParseUniverse(name)
		require.NoError(t, err)
		assert.Equal(t, name, u.String())
	}
	_, err = ParseUniverse("bogus")
	assert.ErrorIs(t, err, vsmerrors.ErrInvalidInput)

	n, err := ParseTFNorm("document-length")
	require.NoError(t, err)
	assert.Equal(t, TFDocumentLength, n)
	_, err = ParseTFNorm("bogus")
	assert.Error(t, err)
}

func TestModelDocumentIDs(t *testing.T) {
	m := NewModel(map[string]TermVector{
		"B": {IDF: 1, Weights: map[int]float64{5: 1, 2: 1}},
		"A": {IDF: 1, Weights: map[int]float64{2: 1}},
	})
	assert.Equal(t, []string{"A", "B"}, m.Terms())
	assert.Equal(t, []int{2, 5}, m.DocumentIDs())
	assert.Equal(t, 0.0, m.Weight("Z", 2))
}
