package corpus

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vsmerrors "github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/errors"
)

func TestTokenize(t *testing.T) {
	tok := NewTokenizer()
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"punctuation stripped", "Cystic fibrosis, (CF) patients.", []string{"CYSTIC", "FIBROSIS", "CF", "PATIENTS"}},
		{"digits kept", "Type 2 in 1974", []string{"TYPE", "2", "IN", "1974"}},
		{"order and duplicates kept", "a b a", []string{"A", "B", "A"}},
		{"empty", "", []string{}},
		{"whitespace only", " \n\t ", []string{}},
		{"semicolons split", "x;y", []string{"X", "Y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tok.Tokenize(tt.text)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenizeStemming(t *testing.T) {
	tok := NewTokenizer(WithStemming(true))
	assert.True(t, tok.Stemming())
	got := tok.Tokenize("Running infections")
	assert.Equal(t, []string{"RUN", "INFECT"}, got)
	assert.False(t, NewTokenizer().Stemming())
}

const corpusXML = `<?xml version="1.0"?>
<root>
  <RECORD>
    <RECORDNUM>00001</RECORDNUM>
    <ABSTRACT>Sweat chloride in cystic fibrosis.</ABSTRACT>
  </RECORD>
  <RECORD>
    <RECORDNUM>2</RECORDNUM>
    <EXTRACT>Pancreatic enzymes</EXTRACT>
  </RECORD>
  <RECORD>
    <RECORDNUM>3</RECORDNUM>
  </RECORD>
</root>`

func TestParseRecords(t *testing.T) {
	docs, err := ParseRecords(strings.NewReader(corpusXML), NewTokenizer())
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, 1, docs[0].ID)
	assert.Equal(t, []string{"SWEAT", "CHLORIDE", "IN", "CYSTIC", "FIBROSIS"}, docs[0].Tokens)
	assert.Equal(t, []string{"PANCREATIC", "ENZYMES"}, docs[1].Tokens, "falls back to EXTRACT")
	assert.Empty(t, docs[2].Tokens, "record without text yields no tokens")
}

func TestParseRecordsRejectsBadID(t *testing.T) {
	for _, id := range []string{"", "abc", "0", "-4"} {
		xml := "<root><RECORD><RECORDNUM>" + id + "</RECORDNUM><ABSTRACT>x</ABSTRACT></RECORD></root>"
		_, err := ParseRecords(strings.NewReader(xml), NewTokenizer())
		require.Error(t, err, "id %q", id)
		assert.ErrorIs(t, err, vsmerrors.ErrInvalidRecord)
	}
}

func TestLoadStopwords(t *testing.T) {
	words, err := LoadStopwords(strings.NewReader("the\n  of \n\nAnd\n"))
	require.NoError(t, err)
	assert.Len(t, words, 3)
	for _, w := range []string{"THE", "OF", "AND"} {
		assert.Contains(t, words, w)
	}
}

const queryXML = `<FILEQUERY>
<QUERY>
  <QueryNumber>00001</QueryNumber>
  <QueryText>What are the effects of
     calcium on mucus?</QueryText>
  <Results>3</Results>
  <Records>
    <Item score="2222">139</Item>
    <Item score="0011">151</Item>
    <Item score="0001">139</Item>
  </Records>
</QUERY>
<QUERY>
  <QueryNumber>2</QueryNumber>
  <QueryText>   </QueryText>
</QUERY>
<QUERY>
  <QueryNumber>3</QueryNumber>
  <QueryText>Pseudomonas</QueryText>
  <Records>
    <Item score="1000">7</Item>
  </Records>
</QUERY>
</FILEQUERY>`

func TestParseQueries(t *testing.T) {
	qs, err := ParseQueries(strings.NewReader(queryXML))
	require.NoError(t, err)

	require.Len(t, qs.Queries, 2, "query without text is skipped")
	assert.Equal(t, ProcessedQuery{ID: 1, Text: "WHAT ARE THE EFFECTS OF CALCIUM ON MUCUS?"}, qs.Queries[0])
	assert.Equal(t, ProcessedQuery{ID: 3, Text: "PSEUDOMONAS"}, qs.Queries[1])

	assert.Equal(t, []Judgment{
		{QueryID: 1, DocID: 139, Votes: 1},
		{QueryID: 1, DocID: 151, Votes: 2},
		{QueryID: 3, DocID: 7, Votes: 1},
	}, qs.Judgments)
}

func TestParseQueriesRejectsBadScore(t *testing.T) {
	xml := `<Q><QUERY><QueryNumber>1</QueryNumber><QueryText>x</QueryText>
<Records><Item score="ab">1</Item></Records></QUERY></Q>`
	_, err := ParseQueries(strings.NewReader(xml))
	assert.ErrorIs(t, err, vsmerrors.ErrInvalidRecord)
}

func TestVotes(t *testing.T) {
	tests := map[string]int{"2212": 7, "0000": 0, "1": 1, " 0101 ": 2}
	for score, want := range tests {
		got, err := Votes(score)
		require.NoError(t, err, score)
		assert.Equal(t, want, got, score)
	}
	_, err := Votes("-1")
	assert.Error(t, err)
}

func TestCollectLaterFileWins(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.xml")
	b := filepath.Join(dir, "b.xml")
	require.NoError(t, os.WriteFile(a, []byte(`<r>
<RECORD><RECORDNUM>1</RECORDNUM><ABSTRACT>old text</ABSTRACT></RECORD>
<RECORD><RECORDNUM>2</RECORDNUM><ABSTRACT>kept</ABSTRACT></RECORD></r>`), 0644))
	require.NoError(t, os.WriteFile(b, []byte(`<r>
<RECORD><RECORDNUM>1</RECORDNUM><ABSTRACT>new</ABSTRACT></RECORD></r>`), 0644))

	c, err := Collect(context.Background(), []string{a, b}, NewTokenizer(), 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, c.IDs())
	assert.Equal(t, []string{"NEW"}, c[1])
	assert.Equal(t, 2, c.TokenCount())
}

func TestCollectMissingFile(t *testing.T) {
	_, err := Collect(context.Background(), []string{filepath.Join(t.TempDir(), "missing.xml")}, NewTokenizer(), 1)
	assert.Error(t, err)
}

func TestCollectionDocumentsOrdered(t *testing.T) {
	c := NewCollection([]Document{{ID: 9, Tokens: []string{"X"}}, {ID: 3}, {ID: 5}})
	docs := c.Documents()
	require.Len(t, docs, 3)
	assert.Equal(t, 3, docs[0].ID)
	assert.Equal(t, 5, docs[1].ID)
	assert.Equal(t, 9, docs[2].ID)
}
