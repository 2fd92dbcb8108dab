package textfile

import (
	"fmt"
	"io"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer/index"
)

var invertedHeader = []string{"Word", "DocumentIDs"}

// WriteInvertedList writes one row per term, ordered by term, with the
// posting list kept verbatim (repetitions included).
func WriteInvertedList(w io.Writer, x *index.InvertedIndex) error {
	cw, err := newWriter(w, invertedHeader)
	if err != nil {
		return err
	}
	for _, e := range x.Entries() {
		if err := cw.Write([]string{e.Term, formatIntList(e.Postings)}); err != nil {
			return fmt.Errorf("writing term %q: %w", e.Term, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadInvertedList rebuilds an inverted index from its file form.
func ReadInvertedList(r io.Reader) (*index.InvertedIndex, error) {
	cr, err := newReader(r, invertedHeader)
	if err != nil {
		return nil, err
	}
	var entries []index.TermEntry
	err = readRows(cr, func(row int, rec []string) error {
		if rec[0] == "" {
			return invalid("row %d: empty word", row)
		}
		ids, ok := parseIntList(rec[1])
		if !ok {
			return invalid("row %d: malformed document list %q", row, rec[1])
		}
		entries = append(entries, index.TermEntry{Term: rec[0], Postings: ids})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return index.FromEntries(entries), nil
}
