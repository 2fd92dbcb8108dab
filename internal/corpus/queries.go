package corpus

import (
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"

	vsmerrors "github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/errors"
)

const queryStage = "queries"

// ProcessedQuery is a query as written to the processed queries file:
// uppercase text with whitespace collapsed.
type ProcessedQuery struct {
	ID   int
	Text string
}

// Judgment records how many experts voted a document relevant for a query.
type Judgment struct {
	QueryID int
	DocID   int
	Votes   int
}

// QuerySet is the outcome of processing a query XML file.
type QuerySet struct {
	Queries   []ProcessedQuery
	Judgments []Judgment
}

type xmlQuery struct {
	Number string    `xml:"QueryNumber"`
	Text   string    `xml:"QueryText"`
	Items  []xmlItem `xml:"Records>Item"`
}

type xmlItem struct {
	Score string `xml:"score,attr"`
	Doc   string `xml:",chardata"`
}

// ParseQueries decodes QUERY elements. Queries lacking a number or text are
// skipped. When a document is judged twice for the same query the later
// score wins but the document keeps its first position.
func ParseQueries(r io.Reader) (*QuerySet, error) {
	dec := xml.NewDecoder(r)
	set := &QuerySet{}
	for {
		t, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return set, nil
		}
		if err != nil {
			return nil, vsmerrors.Newf(queryStage, vsmerrors.ErrInvalidRecord, "decoding query xml: %v", err)
		}
		start, ok := t.(xml.StartElement)
		if !ok || start.Name.Local != "QUERY" {
			continue
		}
		var q xmlQuery
		if err := dec.DecodeElement(&q, &start); err != nil {
			return nil, vsmerrors.Newf(queryStage, vsmerrors.ErrInvalidRecord, "decoding QUERY: %v", err)
		}
		number := strings.TrimSpace(q.Number)
		text := CollapseSpace(strings.ToUpper(q.Text))
		if number == "" || text == "" {
			continue
		}
		id, err := strconv.Atoi(number)
		if err != nil {
			return nil, vsmerrors.Newf(queryStage, vsmerrors.ErrInvalidRecord, "QueryNumber %q: %v", number, err)
		}
		judgments, err := parseItems(id, q.Items)
		if err != nil {
			return nil, err
		}
		set.Queries = append(set.Queries, ProcessedQuery{ID: id, Text: text})
		set.Judgments = append(set.Judgments, judgments...)
	}
}

func parseItems(queryID int, items []xmlItem) ([]Judgment, error) {
	out := make([]Judgment, 0, len(items))
	pos := make(map[int]int, len(items))
	for _, item := range items {
		doc, err := strconv.Atoi(strings.TrimSpace(item.Doc))
		if err != nil {
			return nil, vsmerrors.Newf(queryStage, vsmerrors.ErrInvalidRecord,
				"query %d: document %q: %v", queryID, item.Doc, err)
		}
		votes, err := Votes(item.Score)
		if err != nil {
			return nil, vsmerrors.Newf(queryStage, vsmerrors.ErrInvalidRecord,
				"query %d document %d: %v", queryID, doc, err)
		}
		if i, seen := pos[doc]; seen {
			out[i].Votes = votes
			continue
		}
		pos[doc] = len(out)
		out = append(out, Judgment{QueryID: queryID, DocID: doc, Votes: votes})
	}
	return out, nil
}

// Votes sums the decimal digits of a relevance score: each digit is one
// expert's grade, so "2212" yields 7.
func Votes(score string) (int, error) {
	score = strings.TrimSpace(score)
	n, err := strconv.Atoi(score)
	if err != nil || n < 0 {
		return 0, vsmerrors.Newf(queryStage, vsmerrors.ErrInvalidRecord, "score %q is not a non-negative integer", score)
	}
	sum := 0
	for _, d := range strconv.Itoa(n) {
		sum += int(d - '0')
	}
	return sum, nil
}

// CollapseSpace trims s and replaces every run of whitespace with a single
// space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
