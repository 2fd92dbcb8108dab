// Package pipeline wires the retrieval stages together: query processing,
// inverted index construction, TF-IDF indexing, search and evaluation. Each
// stage reads its inputs from the previous stage or from the files named in
// the configuration, and writes its outputs to files.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/sink"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/tracing"
)

// Stage names used in logs, spans and metrics.
const (
	StageQueries  = "queries"
	StageInvert   = "invert"
	StageIndex    = "index"
	StageSearch   = "search"
	StageEvaluate = "evaluate"
)

// Pipeline runs stages with a fixed configuration.
type Pipeline struct {
	cfg       *config.Config
	tokenizer *corpus.Tokenizer
	metrics   *metrics.Metrics
	sinks     sink.Sink
	logger    *slog.Logger
}

type Option func(*Pipeline)

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithSink forwards search results to s after the results file is written.
func WithSink(s sink.Sink) Option {
	return func(p *Pipeline) { p.sinks = s }
}

func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:       cfg,
		tokenizer: corpus.NewTokenizer(corpus.WithStemming(cfg.Indexer.Stemming)),
		logger:    logger.WithComponent("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Summary reports what a full run produced.
type Summary struct {
	RunID      uuid.UUID
	Queries    int
	Documents  int
	Terms      int
	Results    int
	Evaluation *evaluation.Report
	Duration   time.Duration
}

// Run executes every stage in order under an exclusive lock on the results
// directory. Cancelling ctx stops the run between stages.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	runID := uuid.New()
	ctx = logger.WithRunID(ctx, runID.String())
	log := logger.FromContext(ctx).With("component", "pipeline")

	lock, err := acquireDirLock(filepath.Dir(p.path(p.cfg.Pipeline.Results)))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.release(); err != nil {
			log.Warn("releasing output lock failed", "error", err)
		}
	}()

	ctx, root := tracing.StartRun(ctx, "pipeline.run", runID.String())
	summary, err := p.run(ctx, runID)
	root.End(err)
	if p.cfg.Tracing.Enabled {
		root.Log(log)
	}
	if err != nil {
		log.Error("pipeline run failed", "error", err)
		return nil, err
	}
	summary.Duration = time.Since(start)
	log.Info("pipeline run completed",
		"queries", summary.Queries,
		"documents", summary.Documents,
		"terms", summary.Terms,
		"duration", summary.Duration,
	)
	return summary, nil
}

func (p *Pipeline) run(ctx context.Context, runID uuid.UUID) (*Summary, error) {
	summary := &Summary{RunID: runID}

	qs, err := p.ProcessQueries(ctx)
	if err != nil {
		return nil, err
	}
	summary.Queries = len(qs.Queries)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inv, err := p.Invert(ctx)
	if err != nil {
		return nil, err
	}
	summary.Documents = inv.CollectionSize
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	model, err := p.Index(ctx, inv)
	if err != nil {
		return nil, err
	}
	summary.Terms = model.Len()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results, err := p.Search(ctx, model, qs.Queries)
	if err != nil {
		return nil, err
	}
	summary.Results = len(results)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report, err := p.Evaluate(ctx, results, qs.Judgments)
	if err != nil {
		return nil, err
	}
	summary.Evaluation = report
	return summary, nil
}

// stage runs fn inside a child span and records its duration and outcome.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := tracing.StartChildSpan(ctx, name)
	start := time.Now()
	logger.FromContext(ctx).Info("stage started", "component", "pipeline", "stage", name)

	err := fn(ctx)
	span.End(err)

	status := "ok"
	if err != nil {
		status = "error"
	}
	if p.metrics != nil {
		p.metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		p.metrics.StageRunsTotal.WithLabelValues(name, status).Inc()
	}
	if err != nil {
		return fmt.Errorf("stage %s: %w", name, err)
	}
	logger.FromContext(ctx).Info("stage finished",
		"component", "pipeline",
		"stage", name,
		"duration", time.Since(start),
	)
	return nil
}

func (p *Pipeline) path(name string) string {
	return p.cfg.Pipeline.Resolve(name)
}

// runFromContext reuses the run id carried by ctx or mints a new one.
func runFromContext(ctx context.Context) uuid.UUID {
	if id, err := uuid.Parse(logger.RunID(ctx)); err == nil {
		return id
	}
	return uuid.New()
}

// Inverted is the output of the invert stage.
type Inverted struct {
	Index *index.InvertedIndex
	// CollectionSize counts every collected document, including those
	// left without indexable terms.
	CollectionSize int
}
