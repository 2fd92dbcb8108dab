package textfile

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/corpus"
)

var (
	queriesHeader  = []string{"QueryNumber", "QueryText"}
	expectedHeader = []string{"QueryNumber", "DocNumber", "DocScore"}
)

// WriteQueries writes the processed queries file. The text column is always
// double-quoted with whitespace collapsed.
func WriteQueries(w io.Writer, queries []corpus.ProcessedQuery) error {
	cw, err := newWriter(w, queriesHeader)
	if err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	for _, q := range queries {
		text := strings.ReplaceAll(corpus.CollapseSpace(q.Text), `"`, `""`)
		if _, err := fmt.Fprintf(w, "%d;\"%s\"\n", q.ID, text); err != nil {
			return fmt.Errorf("writing query %d: %w", q.ID, err)
		}
	}
	return nil
}

// ReadQueries reads a processed queries file.
func ReadQueries(r io.Reader) ([]corpus.ProcessedQuery, error) {
	cr, err := newReader(r, queriesHeader)
	if err != nil {
		return nil, err
	}
	var out []corpus.ProcessedQuery
	err = readRows(cr, func(row int, rec []string) error {
		id, err := atoi(row, "QueryNumber", rec[0])
		if err != nil {
			return err
		}
		out = append(out, corpus.ProcessedQuery{ID: id, Text: rec[1]})
		return nil
	})
	return out, err
}

// WriteExpected writes the relevance judgments file.
func WriteExpected(w io.Writer, judgments []corpus.Judgment) error {
	cw, err := newWriter(w, expectedHeader)
	if err != nil {
		return err
	}
	for _, j := range judgments {
		if err := cw.Write([]string{
			strconv.Itoa(j.QueryID),
			strconv.Itoa(j.DocID),
			strconv.Itoa(j.Votes),
		}); err != nil {
			return fmt.Errorf("writing judgment: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadExpected reads the relevance judgments file.
func ReadExpected(r io.Reader) ([]corpus.Judgment, error) {
	cr, err := newReader(r, expectedHeader)
	if err != nil {
		return nil, err
	}
	var out []corpus.Judgment
	err = readRows(cr, func(row int, rec []string) error {
		q, err := atoi(row, "QueryNumber", rec[0])
		if err != nil {
			return err
		}
		d, err := atoi(row, "DocNumber", rec[1])
		if err != nil {
			return err
		}
		v, err := atoi(row, "DocScore", rec[2])
		if err != nil {
			return err
		}
		out = append(out, corpus.Judgment{QueryID: q, DocID: d, Votes: v})
		return nil
	})
	return out, err
}
