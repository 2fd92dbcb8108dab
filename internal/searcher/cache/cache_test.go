package cache

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer/vector"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/ranker"
)

func newLRUCache(t *testing.T, fingerprint string) *QueryCache {
	t.Helper()
	store, err := NewLRUStore(16)
	require.NoError(t, err)
	return New(store, fingerprint, nil)
}

func answer(docs ...int) executor.QueryResult {
	res := executor.QueryResult{}
	for i, d := range docs {
		res.Hits = append(res.Hits, ranker.Hit{Position: i + 1, DocID: d, Similarity: 0.5})
	}
	return res
}

func TestGetOrComputeMissThenHit(t *testing.T) {
	c := newLRUCache(t, "fp")
	var calls atomic.Int32
	compute := func(context.Context) (executor.QueryResult, error) {
		calls.Add(1)
		return answer(3, 1), nil
	}
	ctx := context.Background()

	res, hit, err := c.GetOrCompute(ctx, parser.Query{ID: 1, Tokens: []string{"CAT", "DOG"}}, 10, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, res.QueryID)

	res, hit, err = c.GetOrCompute(ctx, parser.Query{ID: 9, Tokens: []string{"DOG", "CAT"}}, 10, compute)
	require.NoError(t, err)
	assert.True(t, hit, "token order does not matter")
	assert.Equal(t, 9, res.QueryID, "query id follows the request")
	assert.Equal(t, answer(3, 1).Hits, res.Hits)
	assert.EqualValues(t, 1, calls.Load())

	hits, misses := c.Stats()
	assert.EqualValues(t, 1, hits)
	assert.EqualValues(t, 1, misses)
}

func TestKeyDistinguishesDuplicatesAndLimit(t *testing.T) {
	c := newLRUCache(t, "fp")
	base := c.buildKey(parser.Query{Tokens: []string{"CAT"}}, 10)
	assert.NotEqual(t, base, c.buildKey(parser.Query{Tokens: []string{"CAT", "CAT"}}, 10))
	assert.NotEqual(t, base, c.buildKey(parser.Query{Tokens: []string{"CAT"}}, 5))
	assert.NotEqual(t, base, newLRUCache(t, "other").buildKey(parser.Query{Tokens: []string{"CAT"}}, 10))
	assert.Contains(t, base, keyPrefix)
}

func TestGetOrComputeErrorNotCached(t *testing.T) {
	c := newLRUCache(t, "fp")
	boom := errors.New("boom")
	q := parser.Query{ID: 1, Tokens: []string{"CAT"}}
	_, _, err := c.GetOrCompute(context.Background(), q, 10, func(context.Context) (executor.QueryResult, error) {
		return executor.QueryResult{}, boom
	})
	assert.ErrorIs(t, err, boom)

	_, hit, err := c.GetOrCompute(context.Background(), q, 10, func(context.Context) (executor.QueryResult, error) {
		return answer(1), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestGetOrComputeCollapsesConcurrentMisses(t *testing.T) {
	c := newLRUCache(t, "fp")
	var calls atomic.Int32
	release := make(chan struct{})
	compute := func(context.Context) (executor.QueryResult, error) {
		calls.Add(1)
		<-release
		return answer(1), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := c.GetOrCompute(context.Background(), parser.Query{ID: 1, Tokens: []string{"CAT"}}, 10, compute)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, calls.Load(), int32(8))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestInvalidate(t *testing.T) {
	c := newLRUCache(t, "fp")
	ctx := context.Background()
	for _, tok := range []string{"A", "B", "C"} {
		_, _, err := c.GetOrCompute(ctx, parser.Query{Tokens: []string{tok}}, 10, func(context.Context) (executor.QueryResult, error) {
			return answer(1), nil
		})
		require.NoError(t, err)
	}
	n, err := c.Invalidate(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	_, hit, err := c.GetOrCompute(ctx, parser.Query{Tokens: []string{"A"}}, 10, func(context.Context) (executor.QueryResult, error) {
		return answer(1), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "lru", c.StoreName())
}

func TestLRUStoreEvicts(t *testing.T) {
	store, err := NewLRUStore(2)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "a", []byte("1")))
	require.NoError(t, store.Set(ctx, "b", []byte("2")))
	require.NoError(t, store.Set(ctx, "c", []byte("3")))

	_, ok, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
	v, ok, err := store.Get(ctx, "c")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("3"), v)
}

func TestFingerprint(t *testing.T) {
	m := vector.NewModel(map[string]vector.TermVector{
		"CAT": {IDF: math.Ln2, Weights: map[int]float64{1: math.Ln2}},
	})
	same := vector.NewModel(map[string]vector.TermVector{
		"CAT": {IDF: math.Ln2, Weights: map[int]float64{1: math.Ln2}},
	})
	changed := vector.NewModel(map[string]vector.TermVector{
		"CAT": {IDF: 1, Weights: map[int]float64{1: 1}},
	})
	assert.Equal(t, Fingerprint(m, "binary-query"), Fingerprint(same, "binary-query"))
	assert.NotEqual(t, Fingerprint(m, "binary-query"), Fingerprint(m, "tf-weighted-query"))
	assert.NotEqual(t, Fingerprint(m, "binary-query"), Fingerprint(changed, "binary-query"))
}
