// Package executor runs queries against a vector-space model: every query
// is scored against every document and the scores are ranked.
package executor

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer/vector"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/ranker"
	vsmerrors "github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/metrics"
)

// QueryResult is the ranked answer to one query. Skipped lists document
// identifiers that were requested but are absent from the model.
type QueryResult struct {
	QueryID int          `json:"query_id"`
	Hits    []ranker.Hit `json:"hits"`
	Skipped []int        `json:"skipped,omitempty"`
}

// Engine scores queries against a fixed set of document vectors. It holds
// no mutable state and is safe for concurrent use.
type Engine struct {
	docs       ranker.DocumentVectors
	ids        []int
	termDocs   map[string][]int
	similarity ranker.Similarity
	workers    int
	prune      bool
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

func WithSimilarity(s ranker.Similarity) Option {
	return func(e *Engine) { e.similarity = s }
}

func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithPruning scores only documents sharing a term with the query. The
// remaining documents are still emitted with similarity 0, so the ranking
// equals the exhaustive one.
func WithPruning(enabled bool) Option {
	return func(e *Engine) { e.prune = enabled }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New reorients model into document vectors. The model must be complete;
// the engine never observes later changes.
func New(model *vector.Model, opts ...Option) *Engine {
	e := &Engine{
		docs:       ranker.Reorient(model),
		similarity: ranker.BinaryQuery{},
		workers:    1,
		logger:     slog.Default().With("component", "query-executor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.ids = e.docs.IDs()
	if e.prune {
		e.termDocs = make(map[string][]int, model.Len())
		for _, term := range model.Terms() {
			tv, _ := model.Term(term)
			ids := make([]int, 0, len(tv.Weights))
			for id := range tv.Weights {
				ids = append(ids, id)
			}
			e.termDocs[term] = ids
		}
	}
	return e
}

// DocumentCount returns the number of documents with a vector.
func (e *Engine) DocumentCount() int {
	return len(e.ids)
}

// Similarity returns the scoring policy in use.
func (e *Engine) Similarity() ranker.Similarity {
	return e.similarity
}

// Search ranks every document for every query. Results keep the order of
// queries. Queries are scored concurrently; cancelling ctx stops the batch.
func (e *Engine) Search(ctx context.Context, queries []parser.Query) ([]QueryResult, error) {
	results := make([]QueryResult, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.workers, 1))
	for i, q := range queries {
		g.Go(func() error {
			res, err := e.SearchQuery(gctx, q, 0)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.logger.Info("query batch ranked",
		"queries", len(queries),
		"documents", len(e.ids),
		"similarity", e.similarity.Name(),
	)
	return results, nil
}

// SearchQuery ranks every document for q and keeps the first limit hits
// (all when limit <= 0).
func (e *Engine) SearchQuery(ctx context.Context, q parser.Query, limit int) (QueryResult, error) {
	start := time.Now()
	if q.IsEmpty() {
		e.logger.Debug("query has no tokens, all similarities are 0",
			"query_id", q.ID,
			"kind", vsmerrors.ErrMalformedInput.Error(),
		)
	}
	scored, err := e.scoreAll(ctx, q)
	if err != nil {
		e.observe("error", start)
		return QueryResult{}, err
	}
	var hits []ranker.Hit
	if limit > 0 {
		hits = ranker.Positions(merger.TopK(limit, scored))
	} else {
		hits = ranker.Rank(scored, 0)
	}
	if q.IsEmpty() {
		e.observe("empty", start)
	} else {
		e.observe("ranked", start)
	}
	return QueryResult{QueryID: q.ID, Hits: hits}, nil
}

// ScoreDocuments ranks only the given documents. Identifiers missing from
// the model are skipped and reported in QueryResult.Skipped instead of
// failing the query. Repeated identifiers are scored once.
func (e *Engine) ScoreDocuments(ctx context.Context, q parser.Query, docIDs []int) (QueryResult, error) {
	start := time.Now()
	scored := make([]ranker.Scored, 0, len(docIDs))
	var skipped []int
	seen := make(map[int]struct{}, len(docIDs))
	for i, id := range docIDs {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				e.observe("error", start)
				return QueryResult{}, err
			}
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		doc, ok := e.docs[id]
		if !ok {
			skipped = append(skipped, id)
			continue
		}
		scored = append(scored, ranker.Scored{DocID: id, Score: e.similarity.Score(q.Tokens, doc)})
	}
	if len(skipped) > 0 {
		e.logger.Warn("documents missing from vector model skipped",
			"query_id", q.ID,
			"skipped", len(skipped),
			"kind", vsmerrors.ErrInconsistentModel.Error(),
		)
		if e.metrics != nil {
			e.metrics.InconsistentDocuments.Add(float64(len(skipped)))
		}
	}
	e.observe("ranked", start)
	return QueryResult{QueryID: q.ID, Hits: ranker.Rank(scored, 0), Skipped: skipped}, nil
}

func (e *Engine) scoreAll(ctx context.Context, q parser.Query) ([]ranker.Scored, error) {
	scored := make([]ranker.Scored, 0, len(e.ids))
	if e.prune {
		candidates := e.candidates(q)
		for i, id := range e.ids {
			if i%1024 == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			var s float64
			if _, ok := candidates[id]; ok {
				s = e.similarity.Score(q.Tokens, e.docs[id])
			}
			scored = append(scored, ranker.Scored{DocID: id, Score: s})
		}
		return scored, nil
	}
	for i, id := range e.ids {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		scored = append(scored, ranker.Scored{DocID: id, Score: e.similarity.Score(q.Tokens, e.docs[id])})
	}
	return scored, nil
}

func (e *Engine) candidates(q parser.Query) map[int]struct{} {
	out := make(map[int]struct{})
	for _, t := range q.Tokens {
		for _, id := range e.termDocs[t] {
			out[id] = struct{}{}
		}
	}
	return out
}

func (e *Engine) observe(outcome string, start time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.QueriesScoredTotal.WithLabelValues(outcome).Inc()
	e.metrics.QueryLatency.Observe(time.Since(start).Seconds())
}
