// Package cache memoizes ranked answers of the search service. Entries are
// keyed by the query tokens, the result limit, the similarity policy and a
// model fingerprint, so a reloaded model never serves stale rankings.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer/vector"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/metrics"
)

const keyPrefix = "vsm:search:"

type QueryCache struct {
	store       Store
	fingerprint string
	group       singleflight.Group
	metrics     *metrics.Metrics
	logger      *slog.Logger
	hits        atomic.Int64
	misses      atomic.Int64
}

// New builds a cache over store. fingerprint identifies the model and
// similarity policy the cached rankings were computed with.
func New(store Store, fingerprint string, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		store:       store,
		fingerprint: fingerprint,
		metrics:     m,
		logger:      slog.Default().With("component", "query-cache", "store", store.Name()),
	}
}

func (c *QueryCache) get(ctx context.Context, key string) (executor.QueryResult, bool) {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Error("cache get failed", "key", key, "error", err)
		return executor.QueryResult{}, false
	}
	if !ok {
		return executor.QueryResult{}, false
	}
	var result executor.QueryResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return executor.QueryResult{}, false
	}
	return result, true
}

func (c *QueryCache) set(ctx context.Context, key string, result executor.QueryResult) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for q or computes it once, even
// under concurrent identical requests. The boolean reports a cache hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	q parser.Query,
	limit int,
	compute func(ctx context.Context) (executor.QueryResult, error),
) (executor.QueryResult, bool, error) {
	key := c.buildKey(q, limit)
	if result, ok := c.get(ctx, key); ok {
		c.recordHit()
		result.QueryID = q.ID
		return result, true, nil
	}
	c.recordMiss()
	val, err, _ := c.group.Do(key, func() (any, error) {
		if result, ok := c.get(ctx, key); ok {
			return result, nil
		}
		result, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, result)
		return result, nil
	})
	if err != nil {
		return executor.QueryResult{}, false, err
	}
	result := val.(executor.QueryResult)
	result.QueryID = q.ID
	return result, false, nil
}

// Invalidate drops every entry.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.store.Flush(ctx)
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) StoreName() string {
	return c.store.Name()
}

func (c *QueryCache) recordHit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// buildKey sorts tokens but keeps duplicates, since repetition changes the
// query magnitude.
func (c *QueryCache) buildKey(q parser.Query, limit int) string {
	tokens := append([]string(nil), q.Tokens...)
	sort.Strings(tokens)
	raw := fmt.Sprintf("%s|%s|limit=%d", c.fingerprint, strings.Join(tokens, " "), limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// Fingerprint identifies a model and similarity policy: it hashes every
// term with its idf and document frequency.
func Fingerprint(model *vector.Model, similarity string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|", similarity, len(model.DocumentIDs()))
	for _, term := range model.Terms() {
		tv, _ := model.Term(term)
		fmt.Fprintf(h, "%s:%x:%d;", term, math.Float64bits(tv.IDF), len(tv.Weights))
	}
	return fmt.Sprintf("%x", h.Sum(nil)[:8])
}
