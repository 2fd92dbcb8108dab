package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer/vector"
)

// Reader serves term lookups from a segment file.
type Reader struct {
	file   *os.File
	header Header
	dict   []DictEntry
}

// OpenReader validates the header, footer and dictionary checksum of the
// segment at path.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening segment file: %w", err)
	}
	r, err := open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening segment %s: %w", path, err)
	}
	return r, nil
}

func open(f *os.File) (*Reader, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	if info.Size() < int64(HeaderSize+FooterSize) {
		return nil, fmt.Errorf("file too small (%d bytes)", info.Size())
	}
	headerBytes := make([]byte, HeaderSize)
	if _, err := f.ReadAt(headerBytes, 0); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	header := decodeHeader(headerBytes)
	if header.Magic != MagicBytes {
		return nil, fmt.Errorf("bad magic bytes %x", header.Magic)
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported segment version %d", header.Version)
	}
	footer := make([]byte, FooterSize)
	if _, err := f.ReadAt(footer, info.Size()-int64(FooterSize)); err != nil {
		return nil, fmt.Errorf("reading footer: %w", err)
	}
	dictBytes := make([]byte, header.DictSize)
	if _, err := f.ReadAt(dictBytes, header.DictOffset); err != nil {
		return nil, fmt.Errorf("reading dictionary: %w", err)
	}
	if want, got := binary.LittleEndian.Uint32(footer[0:4]), crc32.ChecksumIEEE(dictBytes); want != got {
		return nil, fmt.Errorf("dictionary checksum mismatch: want %08x, got %08x", want, got)
	}
	var dict []DictEntry
	if err := json.Unmarshal(dictBytes, &dict); err != nil {
		return nil, fmt.Errorf("parsing dictionary: %w", err)
	}
	return &Reader{file: f, header: header, dict: dict}, nil
}

// Lookup returns the vector of term. The boolean is false when the segment
// does not contain the term.
func (r *Reader) Lookup(term string) (vector.TermVector, bool, error) {
	i := sort.Search(len(r.dict), func(i int) bool {
		return r.dict[i].Term >= term
	})
	if i >= len(r.dict) || r.dict[i].Term != term {
		return vector.TermVector{}, false, nil
	}
	tv, err := r.read(r.dict[i])
	if err != nil {
		return vector.TermVector{}, false, err
	}
	return tv, true, nil
}

// Load reads every term into an in-memory model.
func (r *Reader) Load() (*vector.Model, error) {
	vectors := make(map[string]vector.TermVector, len(r.dict))
	for _, entry := range r.dict {
		tv, err := r.read(entry)
		if err != nil {
			return nil, err
		}
		vectors[entry.Term] = tv
	}
	return vector.NewModel(vectors), nil
}

func (r *Reader) read(entry DictEntry) (vector.TermVector, error) {
	data := make([]byte, entry.Length)
	if _, err := r.file.ReadAt(data, r.header.PostOffset+entry.Offset); err != nil {
		return vector.TermVector{}, fmt.Errorf("reading vector of %q: %w", entry.Term, err)
	}
	var b block
	if err := json.Unmarshal(data, &b); err != nil {
		return vector.TermVector{}, fmt.Errorf("parsing vector of %q: %w", entry.Term, err)
	}
	if b.Weights == nil {
		b.Weights = map[int]float64{}
	}
	return vector.TermVector{IDF: entry.IDF, Weights: b.Weights}, nil
}

func (r *Reader) Terms() int {
	return len(r.dict)
}

func (r *Reader) DocCount() uint32 {
	return r.header.DocCount
}

func (r *Reader) Close() error {
	return r.file.Close()
}

// Load opens the segment at path, reads the whole model and closes it.
func Load(path string) (*vector.Model, error) {
	r, err := OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.Load()
}
