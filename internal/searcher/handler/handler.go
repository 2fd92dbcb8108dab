// Package handler exposes the search engine over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/ranker"
	vsmerrors "github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/logger"
)

// Searcher is the part of executor.Engine the handler needs.
type Searcher interface {
	SearchQuery(ctx context.Context, q parser.Query, limit int) (executor.QueryResult, error)
	ScoreDocuments(ctx context.Context, q parser.Query, docIDs []int) (executor.QueryResult, error)
	DocumentCount() int
}

type Handler struct {
	searcher     Searcher
	tokenizer    *corpus.Tokenizer
	cache        *cache.QueryCache
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Query     string       `json:"query"`
	Tokens    []string     `json:"tokens"`
	Documents int          `json:"documents"`
	Hits      []ranker.Hit `json:"hits"`
	Skipped   []int        `json:"skipped,omitempty"`
	CacheHit  bool         `json:"cache_hit"`
	TookMs    int64        `json:"took_ms"`
}

// ScoreRequest asks for the similarity of a query to specific documents.
type ScoreRequest struct {
	Query     string `json:"query"`
	Documents []int  `json:"documents"`
}

// New builds a handler. queryCache may be nil.
func New(s Searcher, tok *corpus.Tokenizer, queryCache *cache.QueryCache, defaultLimit, maxResults int) *Handler {
	return &Handler{
		searcher:     s,
		tokenizer:    tok,
		cache:        queryCache,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Register mounts the routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("POST /api/v1/score", h.Score)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

// Search handles GET /api/v1/search?q=...&limit=...
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx).With("component", "search-handler")

	text := r.URL.Query().Get("q")
	if text == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	limit := h.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, h.maxResults)
	}

	q := parser.ParseText(0, text, h.tokenizer)
	compute := func(ctx context.Context) (executor.QueryResult, error) {
		return h.searcher.SearchQuery(ctx, q, limit)
	}
	var (
		result   executor.QueryResult
		cacheHit bool
		err      error
	)
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, q, limit, compute)
	} else {
		result, err = compute(ctx)
	}
	if err != nil {
		log.Error("search failed", "query", text, "error", err)
		h.writeError(w, statusFor(ctx, err), "search failed")
		return
	}

	took := time.Since(start).Milliseconds()
	log.Info("search completed",
		"query", text,
		"tokens", len(q.Tokens),
		"returned", len(result.Hits),
		"cache_hit", cacheHit,
		"latency_ms", took,
	)
	h.writeJSON(w, http.StatusOK, SearchResponse{
		Query:     text,
		Tokens:    q.Tokens,
		Documents: h.searcher.DocumentCount(),
		Hits:      nonNil(result.Hits),
		CacheHit:  cacheHit,
		TookMs:    took,
	})
}

// Score handles POST /api/v1/score. Unknown documents are reported in
// "skipped" rather than failing the request.
func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req ScoreRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Documents) == 0 {
		h.writeError(w, http.StatusBadRequest, "documents must not be empty")
		return
	}
	q := parser.ParseText(0, req.Query, h.tokenizer)
	result, err := h.searcher.ScoreDocuments(r.Context(), q, req.Documents)
	if err != nil {
		h.writeError(w, statusFor(r.Context(), err), "scoring failed")
		return
	}
	h.writeJSON(w, http.StatusOK, SearchResponse{
		Query:     req.Query,
		Tokens:    q.Tokens,
		Documents: h.searcher.DocumentCount(),
		Hits:      nonNil(result.Hits),
		Skipped:   result.Skipped,
		TookMs:    time.Since(start).Milliseconds(),
	})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"store":    h.cache.StoreName(),
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func statusFor(ctx context.Context, err error) int {
	if ctx.Err() != nil {
		return http.StatusServiceUnavailable
	}
	return vsmerrors.HTTPStatusCode(err)
}

func nonNil(hits []ranker.Hit) []ranker.Hit {
	if hits == nil {
		return []ranker.Hit{}
	}
	return hits
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
