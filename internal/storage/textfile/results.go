package textfile

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/ranker"
)

var resultsHeader = []string{"QueryId", "Result"}

// WriteResults writes one row per ranked document:
// "QueryId;[position, DocumentId, Similarity]".
func WriteResults(w io.Writer, results []executor.QueryResult) error {
	cw, err := newWriter(w, resultsHeader)
	if err != nil {
		return err
	}
	for _, res := range results {
		qid := strconv.Itoa(res.QueryID)
		for _, h := range res.Hits {
			triple := fmt.Sprintf("[%d, %d, %s]", h.Position, h.DocID, FormatFloat(h.Similarity))
			if err := cw.Write([]string{qid, triple}); err != nil {
				return fmt.Errorf("writing result of query %d: %w", res.QueryID, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadResults groups result rows by query, preserving the order in which
// queries first appear.
func ReadResults(r io.Reader) ([]executor.QueryResult, error) {
	cr, err := newReader(r, resultsHeader)
	if err != nil {
		return nil, err
	}
	var out []executor.QueryResult
	pos := make(map[int]int)
	err = readRows(cr, func(row int, rec []string) error {
		qid, err := atoi(row, "QueryId", rec[0])
		if err != nil {
			return err
		}
		hit, ok := parseHit(rec[1])
		if !ok {
			return invalid("row %d: malformed result %q", row, rec[1])
		}
		i, seen := pos[qid]
		if !seen {
			i = len(out)
			pos[qid] = i
			out = append(out, executor.QueryResult{QueryID: qid})
		}
		out[i].Hits = append(out[i].Hits, hit)
		return nil
	})
	return out, err
}

func parseHit(s string) (ranker.Hit, bool) {
	inner, ok := unwrap(s, '[', ']')
	if !ok {
		return ranker.Hit{}, false
	}
	parts := strings.Split(inner, ",")
	if len(parts) != 3 {
		return ranker.Hit{}, false
	}
	position, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return ranker.Hit{}, false
	}
	doc, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return ranker.Hit{}, false
	}
	sim, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return ranker.Hit{}, false
	}
	return ranker.Hit{Position: position, DocID: doc, Similarity: sim}, true
}
