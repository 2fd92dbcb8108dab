// Package vector turns an inverted index into a TF-IDF vector-space model.
package vector

import (
	"context"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer/index"
	vsmerrors "github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/errors"
)

const stage = "vector-index"

// Indexer computes idf per term and a weight per (term, document) pair.
// The zero value uses the indexed-documents universe and term-occurrence
// TF normalization, and runs on a single goroutine.
type Indexer struct {
	Universe       Universe
	TFNorm         TFNorm
	CollectionSize int
	Workers        int
	logger         *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer)

func WithUniverse(u Universe) Option {
	return func(ix *Indexer) { ix.Universe = u }
}

func WithTFNorm(n TFNorm) Option {
	return func(ix *Indexer) { ix.TFNorm = n }
}

// WithCollectionSize sets the universe used by UniverseCollection.
func WithCollectionSize(n int) Option {
	return func(ix *Indexer) { ix.CollectionSize = n }
}

func WithWorkers(n int) Option {
	return func(ix *Indexer) { ix.Workers = n }
}

func New(opts ...Option) *Indexer {
	ix := &Indexer{
		Universe: UniverseIndexedDocuments,
		TFNorm:   TFTermOccurrences,
		Workers:  1,
		logger:   slog.Default().With("component", "vector-indexer"),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Index builds the model. Terms are processed concurrently but each result
// depends only on its own posting list and the index-wide universe, so the
// output is identical for identical input.
func (ix *Indexer) Index(ctx context.Context, x *index.InvertedIndex) (*Model, error) {
	universe, err := ix.universeSize(x)
	if err != nil {
		return nil, err
	}
	var docLengths map[int]int
	if ix.TFNorm == TFDocumentLength {
		docLengths = x.DocumentLengths()
	}

	terms := x.Terms()
	vectors := make([]TermVector, len(terms))
	workers := ix.Workers
	if workers < 1 {
		workers = 1
	}
	chunk := (len(terms) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(terms); start += chunk {
		end := min(start+chunk, len(terms))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if i%256 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				vectors[i] = ix.termVector(x.Postings(terms[i]), universe, docLengths)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byTerm := make(map[string]TermVector, len(terms))
	degenerate := 0
	for i, term := range terms {
		byTerm[term] = vectors[i]
		if len(x.Postings(term)) == 0 {
			degenerate++
		}
	}
	if degenerate > 0 {
		ix.logger.Debug("terms with empty posting lists given idf 0",
			"count", degenerate,
			"kind", vsmerrors.ErrArithmeticDegenerate.Error(),
		)
	}
	ix.logger.Info("vector model built",
		"terms", len(terms),
		"universe", universe,
		"universe_policy", ix.Universe.String(),
		"tf_norm", ix.TFNorm.String(),
	)
	return NewModel(byTerm), nil
}

func (ix *Indexer) termVector(p index.PostingList, universe int, docLengths map[int]int) TermVector {
	counts := p.Counts()
	idf := IDF(universe, len(counts))
	weights := make(map[int]float64, len(counts))
	for doc, tf := range counts {
		var denom int
		switch ix.TFNorm {
		case TFDocumentLength:
			denom = docLengths[doc]
		default:
			denom = len(p)
		}
		var tfNorm float64
		if denom > 0 {
			tfNorm = float64(tf) / float64(denom)
		}
		weights[doc] = tfNorm * idf
	}
	return TermVector{IDF: idf, Weights: weights}
}

func (ix *Indexer) universeSize(x *index.InvertedIndex) (int, error) {
	switch ix.Universe {
	case UniverseIndexedDocuments:
		return len(x.DocumentIDs()), nil
	case UniverseDistinctTerms:
		return x.Len(), nil
	case UniverseCollection:
		if ix.CollectionSize <= 0 {
			return 0, vsmerrors.New(stage, vsmerrors.ErrInvalidInput,
				"collection universe requires a positive collection size")
		}
		return ix.CollectionSize, nil
	}
	return 0, vsmerrors.Newf(stage, vsmerrors.ErrInvalidInput, "unknown universe %d", int(ix.Universe))
}

// IDF returns ln(universe/df), or 0 when either count is zero.
func IDF(universe, df int) float64 {
	if df <= 0 || universe <= 0 {
		return 0
	}
	return math.Log(float64(universe) / float64(df))
}
