// Package sink ships the ranked results of a pipeline run to external
// systems in addition to the results file.
package sink

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/resilience"
)

// Run identifies the pipeline execution that produced a batch of results.
type Run struct {
	ID         uuid.UUID `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	Similarity string    `json:"similarity"`
}

// Sink receives the complete result set of one run.
type Sink interface {
	Name() string
	WriteResults(ctx context.Context, run Run, results []executor.QueryResult) error
}

// Fanout writes to every sink, retrying each independently. One failing
// sink does not stop the others; the joined error reports all failures.
type Fanout struct {
	sinks   []Sink
	retry   resilience.RetryConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewFanout(retry resilience.RetryConfig, m *metrics.Metrics, sinks ...Sink) *Fanout {
	return &Fanout{
		sinks:   sinks,
		retry:   retry,
		metrics: m,
		logger:  slog.Default().With("component", "result-sink"),
	}
}

var _ Sink = (*Fanout)(nil)

// Name lets a Fanout stand in wherever a single Sink is expected.
func (f *Fanout) Name() string { return "fanout" }

// Len returns the number of configured sinks.
func (f *Fanout) Len() int {
	return len(f.sinks)
}

func (f *Fanout) WriteResults(ctx context.Context, run Run, results []executor.QueryResult) error {
	var errs []error
	for _, s := range f.sinks {
		err := resilience.Retry(ctx, "sink-"+s.Name(), f.retry, func(ctx context.Context) error {
			return s.WriteResults(ctx, run, results)
		})
		status := "ok"
		if err != nil {
			status = "error"
			errs = append(errs, err)
			f.logger.Error("sink write failed", "sink", s.Name(), "run_id", run.ID, "error", err)
		} else {
			f.logger.Info("results delivered", "sink", s.Name(), "run_id", run.ID, "queries", len(results))
		}
		if f.metrics != nil {
			f.metrics.SinkWritesTotal.WithLabelValues(s.Name(), status).Inc()
		}
	}
	return errors.Join(errs...)
}
