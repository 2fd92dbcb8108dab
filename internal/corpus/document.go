// Package corpus turns raw corpus and query files into normalized token
// sequences. It is the first stage of the pipeline: everything downstream
// sees only document identifiers and uppercase tokens.
package corpus

import "sort"

// Document is one record of the collection after tokenization.
type Document struct {
	ID     int
	Tokens []string
}

// Collection maps document identifiers to their token sequences. It is
// built once by Collect and treated as read-only afterwards.
type Collection map[int][]string

// NewCollection builds a Collection from documents. A later document with
// an already seen ID replaces the earlier one.
func NewCollection(docs []Document) Collection {
	c := make(Collection, len(docs))
	for _, d := range docs {
		c[d.ID] = d.Tokens
	}
	return c
}

// IDs returns the document identifiers in ascending order.
func (c Collection) IDs() []int {
	ids := make([]int, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Documents returns the collection as a slice ordered by ID.
func (c Collection) Documents() []Document {
	ids := c.IDs()
	docs := make([]Document, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, Document{ID: id, Tokens: c[id]})
	}
	return docs
}

// TokenCount returns the total number of tokens across all documents.
func (c Collection) TokenCount() int {
	n := 0
	for _, tokens := range c {
		n += len(tokens)
	}
	return n
}
