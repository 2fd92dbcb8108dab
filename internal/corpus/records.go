package corpus

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	vsmerrors "github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/errors"
)

const collectStage = "collect"

type xmlRecord struct {
	RecordNum string  `xml:"RECORDNUM"`
	Abstract  *string `xml:"ABSTRACT"`
	Extract   *string `xml:"EXTRACT"`
}

// text returns the abstract, falling back to the extract.
func (r xmlRecord) text() string {
	switch {
	case r.Abstract != nil:
		return *r.Abstract
	case r.Extract != nil:
		return *r.Extract
	default:
		return ""
	}
}

// ParseRecords streams RECORD elements out of a corpus XML file and
// tokenizes their text. A record without text yields a document with no
// tokens.
func ParseRecords(r io.Reader, tok *Tokenizer) ([]Document, error) {
	dec := xml.NewDecoder(r)
	docs := make([]Document, 0, 128)
	for {
		t, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, vsmerrors.Newf(collectStage, vsmerrors.ErrInvalidRecord, "decoding corpus xml: %v", err)
		}
		start, ok := t.(xml.StartElement)
		if !ok || start.Name.Local != "RECORD" {
			continue
		}
		var rec xmlRecord
		if err := dec.DecodeElement(&rec, &start); err != nil {
			return nil, vsmerrors.Newf(collectStage, vsmerrors.ErrInvalidRecord, "decoding RECORD: %v", err)
		}
		id, err := parseDocID(rec.RecordNum)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{ID: id, Tokens: tok.Tokenize(rec.text())})
	}
}

func parseDocID(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, vsmerrors.Newf(collectStage, vsmerrors.ErrInvalidRecord,
			"RECORDNUM %q is not a positive integer", raw)
	}
	return id, nil
}

// LoadStopwords reads one stopword per line. Words are trimmed and
// uppercased; blank lines are skipped.
func LoadStopwords(r io.Reader) (map[string]struct{}, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading stopwords: %w", err)
	}
	words := make(map[string]struct{})
	for _, line := range strings.Split(string(data), "\n") {
		w := strings.ToUpper(strings.TrimSpace(line))
		if w == "" {
			continue
		}
		words[w] = struct{}{}
	}
	return words, nil
}
