package sink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/postgres"
)

// skipIfNoPostgres skips the test when PostgreSQL is unavailable.
func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	cfg, err := config.Load("")
	require.NoError(t, err)
	client, err := postgres.New(context.Background(), cfg.Postgres)
	if err != nil {
		t.Skipf("skipping integration test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	client := skipIfNoPostgres(t)
	ctx := context.Background()
	store := NewPostgresStore(client)
	require.NoError(t, store.Migrate(ctx))

	run := testRun()
	t.Cleanup(func() {
		client.DB.Exec(`DELETE FROM search_runs WHERE run_id = $1`, run.ID)
	})
	require.NoError(t, store.WriteResults(ctx, run, testResults()))
	// Rewriting the same run replaces its rows.
	require.NoError(t, store.WriteResults(ctx, run, testResults()))

	got, err := store.ReadResults(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, testResults(), got)
}
