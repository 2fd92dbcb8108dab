package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/resilience"
)

var fastRetry = resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

func testResults() []executor.QueryResult {
	return []executor.QueryResult{
		{QueryID: 1, Hits: []ranker.Hit{
			{Position: 1, DocID: 7, Similarity: 0.9},
			{Position: 2, DocID: 3, Similarity: 0.4},
			{Position: 3, DocID: 1, Similarity: 0},
		}},
		{QueryID: 2, Hits: []ranker.Hit{{Position: 1, DocID: 3, Similarity: 1}}},
	}
}

func testRun() Run {
	return Run{ID: uuid.New(), StartedAt: time.Now().UTC().Truncate(time.Microsecond), Similarity: "binary-query"}
}

type flakySink struct {
	name     string
	failures int
	calls    int
	err      error
}

func (f *flakySink) Name() string { return f.name }

func (f *flakySink) WriteResults(context.Context, Run, []executor.QueryResult) error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func TestFanoutRetriesTransientFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	flaky := &flakySink{name: "flaky", failures: 2, err: errors.New("timeout")}
	steady := &flakySink{name: "steady"}
	f := NewFanout(fastRetry, metrics.New(reg), flaky, steady)
	assert.Equal(t, 2, f.Len())

	require.NoError(t, f.WriteResults(context.Background(), testRun(), testResults()))
	assert.Equal(t, 3, flaky.calls)
	assert.Equal(t, 1, steady.calls)
}

func TestFanoutJoinsFailuresAndKeepsGoing(t *testing.T) {
	broken := &flakySink{name: "broken", failures: 100, err: errors.New("refused")}
	rejected := &flakySink{name: "rejected", failures: 100, err: &resilience.Permanent{Err: errors.New("bad schema")}}
	steady := &flakySink{name: "steady"}
	f := NewFanout(fastRetry, nil, broken, rejected, steady)

	err := f.WriteResults(context.Background(), testRun(), testResults())
	require.Error(t, err)
	assert.ErrorContains(t, err, "refused")
	assert.ErrorContains(t, err, "bad schema")
	assert.Equal(t, 3, broken.calls)
	assert.Equal(t, 1, rejected.calls, "permanent errors are not retried")
	assert.Equal(t, 1, steady.calls)
}

type fakeBatchPublisher struct {
	batches [][]kafka.Event
}

func (f *fakeBatchPublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	f.batches = append(f.batches, events)
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	pub := &fakeBatchPublisher{}
	k := NewKafkaPublisher(pub, 2)
	run := testRun()
	require.NoError(t, k.WriteResults(context.Background(), run, testResults()))

	require.Len(t, pub.batches, 1)
	events := pub.batches[0]
	require.Len(t, events, 2)
	assert.Equal(t, "1", events[0].Key)
	first := events[0].Value.(ResultEvent)
	assert.Equal(t, run.ID, first.ID)
	assert.Len(t, first.Hits, 2, "rankings truncated to the limit")
	assert.Equal(t, "2", events[1].Key)

	require.NoError(t, k.WriteResults(context.Background(), run, nil))
	assert.Len(t, pub.batches, 1, "empty result sets publish nothing")
}
