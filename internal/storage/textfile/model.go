package textfile

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer/vector"
)

var modelHeader = []string{"word", "idf", "data"}

// WriteModel writes one row per term: the term, its idf, and its document
// weights.
func WriteModel(w io.Writer, m *vector.Model) error {
	cw, err := newWriter(w, modelHeader)
	if err != nil {
		return err
	}
	for _, term := range m.Terms() {
		tv, _ := m.Term(term)
		if err := cw.Write([]string{term, FormatFloat(tv.IDF), formatWeights(tv.Weights)}); err != nil {
			return fmt.Errorf("writing term %q: %w", term, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadModel reads a model written by WriteModel.
func ReadModel(r io.Reader) (*vector.Model, error) {
	cr, err := newReader(r, modelHeader)
	if err != nil {
		return nil, err
	}
	vectors := make(map[string]vector.TermVector)
	err = readRows(cr, func(row int, rec []string) error {
		if rec[0] == "" {
			return invalid("row %d: empty word", row)
		}
		idf, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return invalid("row %d: idf %q is not a number", row, rec[1])
		}
		weights, ok := parseWeights(rec[2])
		if !ok {
			return invalid("row %d: malformed weights %q", row, rec[2])
		}
		vectors[rec[0]] = vector.TermVector{IDF: idf, Weights: weights}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vector.NewModel(vectors), nil
}
