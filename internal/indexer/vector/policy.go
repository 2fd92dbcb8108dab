package vector

import (
	"fmt"

	vsmerrors "github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/errors"
)

// Universe selects the numerator of idf(T) = ln(universe / df(T)).
type Universe int

const (
	// UniverseIndexedDocuments counts the distinct documents appearing in
	// any posting list.
	UniverseIndexedDocuments Universe = iota
	// UniverseDistinctTerms counts the distinct terms of the index.
	UniverseDistinctTerms
	// UniverseCollection uses a collection size supplied by the caller, which
	// also counts documents that contributed no terms.
	UniverseCollection
)

func (u Universe) String() string {
	switch u {
	case UniverseIndexedDocuments:
		return "indexed-documents"
	case UniverseDistinctTerms:
		return "distinct-terms"
	case UniverseCollection:
		return "collection"
	default:
		return fmt.Sprintf("universe(%d)", int(u))
	}
}

func ParseUniverse(s string) (Universe, error) {
	switch s {
	case "", "indexed-documents":
		return UniverseIndexedDocuments, nil
	case "distinct-terms":
		return UniverseDistinctTerms, nil
	case "collection":
		return UniverseCollection, nil
	}
	return 0, vsmerrors.Newf(stage, vsmerrors.ErrInvalidInput, "unknown idf universe %q", s)
}

// TFNorm selects the denominator that normalizes a raw term frequency.
type TFNorm int

const (
	// TFTermOccurrences divides by the term's occurrence count across the
	// whole corpus, i.e. the length of its posting list.
	TFTermOccurrences TFNorm = iota
	// TFDocumentLength divides by the number of indexed tokens of the
	// document.
	TFDocumentLength
)

func (n TFNorm) String() string {
	switch n {
	case TFTermOccurrences:
		return "term-occurrences"
	case TFDocumentLength:
		return "document-length"
	default:
		return fmt.Sprintf("tfnorm(%d)", int(n))
	}
}

func ParseTFNorm(s string) (TFNorm, error) {
	switch s {
	case "", "term-occurrences":
		return TFTermOccurrences, nil
	case "document-length":
		return TFDocumentLength, nil
	}
	return 0, vsmerrors.Newf(stage, vsmerrors.ErrInvalidInput, "unknown tf normalization %q", s)
}
