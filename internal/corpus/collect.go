package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"
)

// Collect parses every corpus file concurrently, bounded by workers, and
// merges the documents in path order: when two files carry the same
// RECORDNUM the later file wins.
func Collect(ctx context.Context, paths []string, tok *Tokenizer, workers int) (Collection, error) {
	logger := slog.Default().With("component", "collector")
	perFile := make([][]Document, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			docs, err := parseFile(path, tok)
			if err != nil {
				return err
			}
			perFile[i] = docs
			logger.Info("corpus file processed", "file", path, "documents", len(docs))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	collection := make(Collection)
	for i, docs := range perFile {
		for _, d := range docs {
			if _, dup := collection[d.ID]; dup {
				logger.Warn("duplicate document id, keeping later record",
					"doc_id", d.ID,
					"file", paths[i],
				)
			}
			collection[d.ID] = d.Tokens
		}
	}
	return collection, nil
}

func parseFile(path string, tok *Tokenizer) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus file: %w", err)
	}
	defer f.Close()
	docs, err := ParseRecords(f, tok)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return docs, nil
}
