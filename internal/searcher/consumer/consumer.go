// Package consumer answers search requests arriving on a Kafka topic and
// publishes the rankings to the results topic.
package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/logger"
)

// QueryEvent is a search request. Limit <= 0 selects the default limit.
type QueryEvent struct {
	RequestID string `json:"request_id"`
	QueryID   int    `json:"query_id"`
	Text      string `json:"text"`
	Limit     int    `json:"limit,omitempty"`
}

// ResponseEvent carries the ranking of one QueryEvent.
type ResponseEvent struct {
	RequestID string       `json:"request_id"`
	QueryID   int          `json:"query_id"`
	Tokens    []string     `json:"tokens"`
	Hits      []ranker.Hit `json:"hits"`
}

type Searcher interface {
	SearchQuery(ctx context.Context, q parser.Query, limit int) (executor.QueryResult, error)
}

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

type QueryConsumer struct {
	searcher     Searcher
	tokenizer    *corpus.Tokenizer
	publisher    Publisher
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

func New(s Searcher, tok *corpus.Tokenizer, pub Publisher, defaultLimit, maxResults int) *QueryConsumer {
	return &QueryConsumer{
		searcher:     s,
		tokenizer:    tok,
		publisher:    pub,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		logger:       slog.Default().With("component", "query-consumer"),
	}
}

// Handle decodes, ranks and answers one message. Undecodable messages are
// logged and acknowledged so they do not block the partition.
func (c *QueryConsumer) Handle(ctx context.Context, msg kafka.Message) error {
	event, err := kafka.DecodeJSON[QueryEvent](msg.Value)
	if err != nil {
		c.logger.Warn("dropping undecodable query event",
			"key", string(msg.Key),
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}
	if event.RequestID != "" {
		ctx = logger.WithRunID(ctx, event.RequestID)
	}
	limit := event.Limit
	if limit <= 0 {
		limit = c.defaultLimit
	}
	limit = min(limit, c.maxResults)

	q := parser.ParseText(event.QueryID, event.Text, c.tokenizer)
	result, err := c.searcher.SearchQuery(ctx, q, limit)
	if err != nil {
		return fmt.Errorf("ranking query %d: %w", event.QueryID, err)
	}
	resp := ResponseEvent{
		RequestID: event.RequestID,
		QueryID:   event.QueryID,
		Tokens:    q.Tokens,
		Hits:      result.Hits,
	}
	if err := c.publisher.Publish(ctx, kafka.Event{Key: strconv.Itoa(event.QueryID), Value: resp}); err != nil {
		return fmt.Errorf("publishing response for query %d: %w", event.QueryID, err)
	}
	logger.FromContext(ctx).Debug("query answered", "query_id", event.QueryID, "hits", len(result.Hits))
	return nil
}

// MessageHandler adapts Handle to the kafka consumer loop.
func (c *QueryConsumer) MessageHandler() kafka.MessageHandler {
	return c.Handle
}
