package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer/vector"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/sink"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/storage/textfile"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/tracing"
)

// ProcessQueries reads the query XML and writes the processed queries and
// the expected results files.
func (p *Pipeline) ProcessQueries(ctx context.Context) (*corpus.QuerySet, error) {
	var qs *corpus.QuerySet
	err := p.stage(ctx, StageQueries, func(ctx context.Context) error {
		cfg := p.cfg.Pipeline
		if err := textfile.ReadFile(p.path(cfg.QueriesSource), func(r io.Reader) error {
			var err error
			qs, err = corpus.ParseQueries(r)
			return err
		}); err != nil {
			return err
		}
		if err := textfile.WriteFile(p.path(cfg.ProcessedQueries), func(w io.Writer) error {
			return textfile.WriteQueries(w, qs.Queries)
		}); err != nil {
			return err
		}
		if err := textfile.WriteFile(p.path(cfg.ExpectedResults), func(w io.Writer) error {
			return textfile.WriteExpected(w, qs.Judgments)
		}); err != nil {
			return err
		}
		tracing.SpanFromContext(ctx).SetAttr("queries", len(qs.Queries))
		logger.FromContext(ctx).Info("queries processed",
			"component", "pipeline",
			"queries", len(qs.Queries),
			"judgments", len(qs.Judgments),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return qs, nil
}

// Invert collects the corpus, removes stopwords and writes the inverted
// list.
func (p *Pipeline) Invert(ctx context.Context) (*Inverted, error) {
	var out *Inverted
	err := p.stage(ctx, StageInvert, func(ctx context.Context) error {
		cfg := p.cfg.Pipeline
		stopwords, err := p.loadStopwords()
		if err != nil {
			return err
		}
		collection, err := p.collect(ctx)
		if err != nil {
			return err
		}

		b := index.NewBuilder(stopwords)
		empty := 0
		for _, d := range collection.Documents() {
			if b.Add(d.ID, d.Tokens) == 0 {
				empty++
			}
		}
		x := b.Build()
		if err := textfile.WriteFile(p.path(cfg.InvertedList), func(w io.Writer) error {
			return textfile.WriteInvertedList(w, x)
		}); err != nil {
			return err
		}

		if p.metrics != nil {
			p.metrics.EmptyDocuments.Add(float64(empty))
			postings := 0
			for _, e := range x.Entries() {
				postings += len(e.Postings)
			}
			p.metrics.PostingsIndexed.Add(float64(postings))
		}
		tracing.SpanFromContext(ctx).SetAttr("terms", x.Len())
		logger.FromContext(ctx).Info("inverted list built",
			"component", "pipeline",
			"documents", len(collection),
			"empty_documents", empty,
			"terms", x.Len(),
		)
		out = &Inverted{Index: x, CollectionSize: len(collection)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Index derives the TF-IDF model and writes it as a delimited file and, when
// configured, as a binary segment. A nil inv reads the inverted list file.
func (p *Pipeline) Index(ctx context.Context, inv *Inverted) (*vector.Model, error) {
	var model *vector.Model
	err := p.stage(ctx, StageIndex, func(ctx context.Context) error {
		cfg := p.cfg.Pipeline
		universe, err := vector.ParseUniverse(p.cfg.Indexer.Universe)
		if err != nil {
			return err
		}
		tfNorm, err := vector.ParseTFNorm(p.cfg.Indexer.TFNorm)
		if err != nil {
			return err
		}
		if inv == nil {
			inv, err = p.readInverted(ctx, universe)
			if err != nil {
				return err
			}
		}

		ix := vector.New(
			vector.WithUniverse(universe),
			vector.WithTFNorm(tfNorm),
			vector.WithCollectionSize(inv.CollectionSize),
			vector.WithWorkers(p.cfg.Indexer.Workers),
		)
		model, err = ix.Index(ctx, inv.Index)
		if err != nil {
			return err
		}
		if err := textfile.WriteFile(p.path(cfg.VectorModel), func(w io.Writer) error {
			return textfile.WriteModel(w, model)
		}); err != nil {
			return err
		}
		if cfg.ModelSegment != "" {
			if err := segment.Write(p.path(cfg.ModelSegment), model); err != nil {
				return fmt.Errorf("writing model segment: %w", err)
			}
		}
		if p.metrics != nil {
			p.metrics.TermsIndexed.Set(float64(model.Len()))
		}
		tracing.SpanFromContext(ctx).SetAttr("terms", model.Len())
		logger.FromContext(ctx).Info("vector model written",
			"component", "pipeline",
			"terms", model.Len(),
			"universe", universe.String(),
			"tf_norm", tfNorm.String(),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return model, nil
}

// Search ranks every document for every query and writes the results file.
// A nil model or nil queries are read from their files. Results are then
// handed to the configured sink; a sink failure is logged but does not fail
// the stage because the results file is already complete.
func (p *Pipeline) Search(ctx context.Context, model *vector.Model, queries []corpus.ProcessedQuery) ([]executor.QueryResult, error) {
	var results []executor.QueryResult
	err := p.stage(ctx, StageSearch, func(ctx context.Context) error {
		cfg := p.cfg.Pipeline
		var err error
		if model == nil {
			if model, err = p.readModel(); err != nil {
				return err
			}
		}
		if queries == nil {
			if err := textfile.ReadFile(p.path(cfg.ProcessedQueries), func(r io.Reader) error {
				queries, err = textfile.ReadQueries(r)
				return err
			}); err != nil {
				return err
			}
		}
		sim, err := ranker.ParseSimilarity(p.cfg.Search.Similarity)
		if err != nil {
			return err
		}
		engine := executor.New(model,
			executor.WithSimilarity(sim),
			executor.WithWorkers(p.cfg.Search.Workers),
			executor.WithPruning(p.cfg.Search.Prune),
			executor.WithMetrics(p.metrics),
		)
		parsed := make([]parser.Query, len(queries))
		for i, q := range queries {
			parsed[i] = p.parseQuery(q)
		}
		results, err = engine.Search(ctx, parsed)
		if err != nil {
			return err
		}
		if err := textfile.WriteFile(p.path(cfg.Results), func(w io.Writer) error {
			return textfile.WriteResults(w, results)
		}); err != nil {
			return err
		}
		tracing.SpanFromContext(ctx).SetAttr("queries", len(results))

		if p.sinks != nil {
			run := sink.Run{ID: runFromContext(ctx), StartedAt: time.Now().UTC(), Similarity: sim.Name()}
			if err := p.sinks.WriteResults(ctx, run, results); err != nil {
				logger.FromContext(ctx).Error("result sink failed", "component", "pipeline", "error", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Evaluate scores results against expected relevance and writes the report.
// Nil arguments are read from the results and expected results files.
func (p *Pipeline) Evaluate(ctx context.Context, results []executor.QueryResult, judgments []corpus.Judgment) (*evaluation.Report, error) {
	var report *evaluation.Report
	err := p.stage(ctx, StageEvaluate, func(ctx context.Context) error {
		cfg := p.cfg.Pipeline
		var err error
		if results == nil {
			if err := textfile.ReadFile(p.path(cfg.Results), func(r io.Reader) error {
				results, err = textfile.ReadResults(r)
				return err
			}); err != nil {
				return err
			}
		}
		if judgments == nil {
			if err := textfile.ReadFile(p.path(cfg.ExpectedResults), func(r io.Reader) error {
				judgments, err = textfile.ReadExpected(r)
				return err
			}); err != nil {
				return err
			}
		}
		report = evaluation.Evaluate(results, judgments)
		if err := textfile.WriteFile(p.path(cfg.EvaluationReport), func(w io.Writer) error {
			_, err := report.WriteTo(w)
			return err
		}); err != nil {
			return err
		}
		logger.FromContext(ctx).Info("evaluation written",
			"component", "pipeline",
			"queries", len(report.Queries),
			"map", report.MAP,
			"mrr", report.MRR,
			"p_at_10", report.MeanPrecisionAt10,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// parseQuery splits the processed text on whitespace. With stemming on,
// the corpus tokenizer is used instead so query terms match indexed stems.
func (p *Pipeline) parseQuery(q corpus.ProcessedQuery) parser.Query {
	if p.tokenizer.Stemming() {
		return parser.ParseText(q.ID, q.Text, p.tokenizer)
	}
	return parser.Parse(q.ID, q.Text)
}

func (p *Pipeline) loadStopwords() (map[string]struct{}, error) {
	if p.cfg.Pipeline.Stopwords == "" {
		return map[string]struct{}{}, nil
	}
	var stopwords map[string]struct{}
	err := textfile.ReadFile(p.path(p.cfg.Pipeline.Stopwords), func(r io.Reader) error {
		var err error
		stopwords, err = corpus.LoadStopwords(r)
		return err
	})
	return stopwords, err
}

func (p *Pipeline) collect(ctx context.Context) (corpus.Collection, error) {
	sources := make([]string, len(p.cfg.Pipeline.CorpusSources))
	for i, s := range p.cfg.Pipeline.CorpusSources {
		sources[i] = p.path(s)
	}
	collection, err := corpus.Collect(ctx, sources, p.tokenizer, p.cfg.Indexer.Workers)
	if err != nil {
		return nil, err
	}
	if p.metrics != nil {
		p.metrics.DocumentsCollected.Add(float64(len(collection)))
	}
	return collection, nil
}

// readInverted loads the inverted list file. The collection universe also
// needs the corpus size, which the inverted list alone cannot give.
func (p *Pipeline) readInverted(ctx context.Context, universe vector.Universe) (*Inverted, error) {
	var x *index.InvertedIndex
	if err := textfile.ReadFile(p.path(p.cfg.Pipeline.InvertedList), func(r io.Reader) error {
		var err error
		x, err = textfile.ReadInvertedList(r)
		return err
	}); err != nil {
		return nil, err
	}
	inv := &Inverted{Index: x, CollectionSize: len(x.DocumentIDs())}
	if universe == vector.UniverseCollection {
		collection, err := p.collect(ctx)
		if err != nil {
			return nil, err
		}
		inv.CollectionSize = len(collection)
	}
	return inv, nil
}

func (p *Pipeline) readModel() (*vector.Model, error) {
	var model *vector.Model
	err := textfile.ReadFile(p.path(p.cfg.Pipeline.VectorModel), func(r io.Reader) error {
		var err error
		model, err = textfile.ReadModel(r)
		return err
	})
	return model, err
}

// LoadModel returns the vector model for serving: the binary segment when
// one is configured and readable, the delimited model file otherwise.
func (p *Pipeline) LoadModel() (*vector.Model, error) {
	if seg := p.cfg.Pipeline.ModelSegment; seg != "" {
		model, err := segment.Load(p.path(seg))
		if err == nil {
			return model, nil
		}
		p.logger.Warn("model segment unavailable, reading delimited model", "segment", seg, "error", err)
	}
	return p.readModel()
}

// Tokenizer returns the tokenizer configured for the corpus.
func (p *Pipeline) Tokenizer() *corpus.Tokenizer {
	return p.tokenizer
}
