package sink

import (
	"context"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/kafka"
)

// BatchPublisher is satisfied by *kafka.Producer.
type BatchPublisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// ResultEvent is the message published per query.
type ResultEvent struct {
	Run
	QueryID int          `json:"query_id"`
	Hits    []ranker.Hit `json:"hits"`
}

// KafkaPublisher emits one ResultEvent per query, keyed by query id so all
// runs of a query land on the same partition.
type KafkaPublisher struct {
	publisher BatchPublisher
	limit     int
}

// NewKafkaPublisher truncates each ranking to limit hits (all when
// limit <= 0) to keep messages small.
func NewKafkaPublisher(p BatchPublisher, limit int) *KafkaPublisher {
	return &KafkaPublisher{publisher: p, limit: limit}
}

func (k *KafkaPublisher) Name() string { return "kafka" }

func (k *KafkaPublisher) WriteResults(ctx context.Context, run Run, results []executor.QueryResult) error {
	events := make([]kafka.Event, 0, len(results))
	for _, res := range results {
		hits := res.Hits
		if k.limit > 0 && len(hits) > k.limit {
			hits = hits[:k.limit]
		}
		events = append(events, kafka.Event{
			Key:   strconv.Itoa(res.QueryID),
			Value: ResultEvent{Run: run, QueryID: res.QueryID, Hits: hits},
		})
	}
	if len(events) == 0 {
		return nil
	}
	return k.publisher.PublishBatch(ctx, events)
}
