package sink

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS search_runs (
	run_id      UUID PRIMARY KEY,
	started_at  TIMESTAMPTZ NOT NULL,
	similarity  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS search_results (
	run_id      UUID NOT NULL REFERENCES search_runs(run_id) ON DELETE CASCADE,
	query_id    INTEGER NOT NULL,
	position    INTEGER NOT NULL,
	doc_id      INTEGER NOT NULL,
	similarity  DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, query_id, position)
);`

// PostgresStore persists runs and their rankings.
type PostgresStore struct {
	client *postgres.Client
}

func NewPostgresStore(client *postgres.Client) *PostgresStore {
	return &PostgresStore{client: client}
}

func (s *PostgresStore) Name() string { return "postgres" }

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.client.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrating results schema: %w", err)
	}
	return nil
}

// WriteResults stores the run in one transaction. Writing the same run
// again replaces its rows.
func (s *PostgresStore) WriteResults(ctx context.Context, run Run, results []executor.QueryResult) error {
	return s.client.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM search_runs WHERE run_id = $1`, run.ID); err != nil {
			return fmt.Errorf("clearing run %s: %w", run.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO search_runs (run_id, started_at, similarity) VALUES ($1, $2, $3)`,
			run.ID, run.StartedAt, run.Similarity,
		); err != nil {
			return fmt.Errorf("inserting run %s: %w", run.ID, err)
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO search_results (run_id, query_id, position, doc_id, similarity) VALUES ($1, $2, $3, $4, $5)`)
		if err != nil {
			return fmt.Errorf("preparing result insert: %w", err)
		}
		defer stmt.Close()
		for _, res := range results {
			for _, h := range res.Hits {
				if _, err := stmt.ExecContext(ctx, run.ID, res.QueryID, h.Position, h.DocID, h.Similarity); err != nil {
					return fmt.Errorf("inserting result of query %d: %w", res.QueryID, err)
				}
			}
		}
		return nil
	})
}

// ReadResults loads a stored run ordered by query and position.
func (s *PostgresStore) ReadResults(ctx context.Context, runID uuid.UUID) ([]executor.QueryResult, error) {
	rows, err := s.client.DB.QueryContext(ctx,
		`SELECT query_id, position, doc_id, similarity FROM search_results
		 WHERE run_id = $1 ORDER BY query_id, position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying run %s: %w", runID, err)
	}
	defer rows.Close()
	var out []executor.QueryResult
	for rows.Next() {
		var queryID int
		var h ranker.Hit
		if err := rows.Scan(&queryID, &h.Position, &h.DocID, &h.Similarity); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].QueryID != queryID {
			out = append(out, executor.QueryResult{QueryID: queryID})
		}
		last := &out[len(out)-1]
		last.Hits = append(last.Hits, h)
	}
	return out, rows.Err()
}
