package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/sink"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/config"
	vsmerrors "github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/resilience"
)

const testCorpus = `<?xml version="1.0"?>
<root>
  <RECORD>
    <RECORDNUM>1</RECORDNUM>
    <ABSTRACT>Cat dog</ABSTRACT>
  </RECORD>
  <RECORD>
    <RECORDNUM>2</RECORDNUM>
    <ABSTRACT>the dog</ABSTRACT>
  </RECORD>
</root>`

const testQueries = `<FILEQUERY>
<QUERY>
  <QueryNumber>1</QueryNumber>
  <QueryText>cat</QueryText>
  <Records><Item score="1100">1</Item></Records>
</QUERY>
<QUERY>
  <QueryNumber>2</QueryNumber>
  <QueryText>bird dog</QueryText>
  <Records><Item score="0001">2</Item></Records>
</QUERY>
</FILEQUERY>`

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	writeFixture(t, dir, "data/cf.xml", testCorpus)
	writeFixture(t, dir, "data/query.xml", testQueries)
	writeFixture(t, dir, "stopwords.txt", "the\n")

	cfg := config.Default()
	cfg.Pipeline.DataDir = dir
	cfg.Pipeline.CorpusSources = []string{"data/cf.xml"}
	cfg.Pipeline.QueriesSource = "data/query.xml"
	return cfg
}

func readOutput(t *testing.T, cfg *config.Config, name string) string {
	t.Helper()
	data, err := os.ReadFile(cfg.Pipeline.Resolve(name))
	require.NoError(t, err)
	return string(data)
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	reg := prometheus.NewRegistry()
	p := New(cfg, WithMetrics(metrics.New(reg)))

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Queries)
	assert.Equal(t, 2, summary.Documents)
	assert.Equal(t, 2, summary.Terms)
	assert.Equal(t, 2, summary.Results)
	require.NotNil(t, summary.Evaluation)
	assert.InDelta(t, 1.0, summary.Evaluation.MRR, 1e-12)

	assert.Equal(t,
		"#vsm v1\nWord;DocumentIDs\nCAT;[1]\nDOG;[1, 2]\n",
		readOutput(t, cfg, cfg.Pipeline.InvertedList))
	assert.Equal(t,
		"#vsm v1\nword;idf;data\nCAT;0.6931471805599453;{1: 0.6931471805599453}\nDOG;0;{1: 0, 2: 0}\n",
		readOutput(t, cfg, cfg.Pipeline.VectorModel))
	assert.Equal(t,
		"#vsm v1\nQueryId;Result\n1;[1, 1, 1]\n1;[2, 2, 0]\n2;[1, 2, 0]\n2;[2, 1, 0]\n",
		readOutput(t, cfg, cfg.Pipeline.Results))
	assert.Contains(t, readOutput(t, cfg, cfg.Pipeline.ProcessedQueries), "2;\"BIRD DOG\"\n")
	assert.Contains(t, readOutput(t, cfg, cfg.Pipeline.ExpectedResults), "1;1;2\n")
	assert.True(t, strings.HasPrefix(readOutput(t, cfg, cfg.Pipeline.EvaluationReport), "#vsm v1\nScope;Metric;Value\n"))

	families, err := reg.Gather()
	require.NoError(t, err)
	var stageRuns float64
	for _, mf := range families {
		if mf.GetName() == "vsm_stage_runs_total" {
			for _, m := range mf.GetMetric() {
				stageRuns += m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, 5.0, stageRuns)
}

func TestStagesFromFilesMatchInMemoryRun(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg)
	ctx := context.Background()

	summary, err := p.Run(ctx)
	require.NoError(t, err)
	inMemory := readOutput(t, cfg, cfg.Pipeline.Results)

	_, err = p.Index(ctx, nil)
	require.NoError(t, err)
	results, err := p.Search(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, inMemory, readOutput(t, cfg, cfg.Pipeline.Results))

	report, err := p.Evaluate(ctx, nil, nil)
	require.NoError(t, err)
	assert.InDelta(t, summary.Evaluation.MAP, report.MAP, 1e-12)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].QueryID)
}

func TestLoadModelPrefersSegment(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg)
	_, err := p.Run(context.Background())
	require.NoError(t, err)

	model, err := p.LoadModel()
	require.NoError(t, err)
	assert.Equal(t, []string{"CAT", "DOG"}, model.Terms())

	require.NoError(t, os.Remove(cfg.Pipeline.Resolve(cfg.Pipeline.ModelSegment)))
	model, err = p.LoadModel()
	require.NoError(t, err)
	assert.Equal(t, 2, model.Len())
}

func TestCollectionUniverseFromFiles(t *testing.T) {
	cfg := testConfig(t)
	writeFixture(t, cfg.Pipeline.DataDir, "data/cf2.xml",
		"<root><RECORD><RECORDNUM>3</RECORDNUM><ABSTRACT>the</ABSTRACT></RECORD></root>")
	cfg.Pipeline.CorpusSources = append(cfg.Pipeline.CorpusSources, "data/cf2.xml")
	cfg.Indexer.Universe = "collection"
	p := New(cfg)

	_, err := p.Invert(context.Background())
	require.NoError(t, err)
	model, err := p.Index(context.Background(), nil)
	require.NoError(t, err)
	// Three collected documents, one of them empty after stopwords.
	dog, ok := model.Term("DOG")
	require.True(t, ok)
	assert.InDelta(t, 0.4054651081081644, dog.IDF, 1e-12)
}

func TestRunRejectsLockedOutputDirectory(t *testing.T) {
	cfg := testConfig(t)
	dir := filepath.Dir(cfg.Pipeline.Resolve(cfg.Pipeline.Results))
	lock, err := acquireDirLock(dir)
	require.NoError(t, err)
	defer lock.release()

	_, err = New(cfg).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, vsmerrors.ErrInvalidInput)
}

func TestRunCancelled(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(cfg).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(cfg.Pipeline.Resolve(cfg.Pipeline.Results))
	assert.True(t, os.IsNotExist(statErr))
}

func TestMissingCorpusFileFailsInvert(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.CorpusSources = []string{"data/missing.xml"}
	_, err := New(cfg).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage invert")
}

type recordingSink struct {
	runs    []sink.Run
	results [][]executor.QueryResult
	err     error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) WriteResults(_ context.Context, run sink.Run, results []executor.QueryResult) error {
	s.runs = append(s.runs, run)
	s.results = append(s.results, results)
	return s.err
}

func TestSearchForwardsResultsToSink(t *testing.T) {
	cfg := testConfig(t)
	rec := &recordingSink{}
	summary, err := New(cfg, WithSink(rec)).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rec.runs, 1)
	assert.Equal(t, summary.RunID, rec.runs[0].ID)
	assert.Equal(t, "binary-query", rec.runs[0].Similarity)
	assert.Len(t, rec.results[0], 2)
}

func TestSinkFailureDoesNotFailSearch(t *testing.T) {
	cfg := testConfig(t)
	rec := &recordingSink{err: assert.AnError}
	_, err := New(cfg, WithSink(rec)).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, rec.runs, 1)
}

func TestRunDeliversThroughFanout(t *testing.T) {
	cfg := testConfig(t)
	first, second := &recordingSink{}, &recordingSink{err: assert.AnError}
	fanout := sink.NewFanout(resilience.RetryConfig{MaxAttempts: 1}, nil, first, second)

	summary, err := New(cfg, WithSink(fanout)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fanout", fanout.Name())
	require.Len(t, first.runs, 1)
	assert.Equal(t, summary.RunID, first.runs[0].ID)
	assert.Len(t, second.runs, 1)
}
