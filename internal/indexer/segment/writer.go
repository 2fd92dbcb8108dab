// Package segment stores a vector-space model as a single binary file: a
// fixed header, one JSON block per term, a JSON dictionary sorted by term,
// and a footer carrying a CRC32 of the dictionary.
package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer/vector"
)

// MagicBytes identifies a valid model segment ("VSMS").
const (
	MagicBytes    uint32 = 0x56534d53
	FormatVersion uint32 = 1
	HeaderSize    int    = 64
	FooterSize    int    = 32
)

// Header is the 64-byte header written at the start of every segment.
type Header struct {
	Magic      uint32
	Version    uint32
	TermCount  uint32
	DocCount   uint32
	CreatedAt  int64
	DictOffset int64
	DictSize   int64
	PostOffset int64
	PostSize   int64
}

// DictEntry locates the vector block of a term.
type DictEntry struct {
	Term    string  `json:"t"`
	Offset  int64   `json:"o"`
	Length  int     `json:"l"`
	DocFreq int     `json:"d"`
	IDF     float64 `json:"i"`
}

type block struct {
	Weights map[int]float64 `json:"w"`
}

// Write atomically creates the segment at path. It writes to path+".tmp"
// and renames on success.
func Write(path string, model *vector.Model) error {
	if model.Len() == 0 {
		return fmt.Errorf("cannot write empty segment")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating segment directory: %w", err)
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp segment file: %w", err)
	}
	defer f.Close()

	headerBytes := make([]byte, HeaderSize)
	if _, err := f.Write(headerBytes); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	postStart := int64(HeaderSize)
	offset := int64(0)
	dict := make([]DictEntry, 0, model.Len())
	docIDs := make(map[int]struct{})
	for _, term := range model.Terms() {
		tv, _ := model.Term(term)
		data, err := json.Marshal(block{Weights: tv.Weights})
		if err != nil {
			return fmt.Errorf("marshaling vector for term %q: %w", term, err)
		}
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("writing vector for term %q: %w", term, err)
		}
		dict = append(dict, DictEntry{
			Term:    term,
			Offset:  offset,
			Length:  len(data),
			DocFreq: len(tv.Weights),
			IDF:     tv.IDF,
		})
		offset += int64(len(data))
		for id := range tv.Weights {
			docIDs[id] = struct{}{}
		}
	}

	dictStart := postStart + offset
	dictData, err := json.Marshal(dict)
	if err != nil {
		return fmt.Errorf("marshaling dictionary: %w", err)
	}
	if _, err := f.Write(dictData); err != nil {
		return fmt.Errorf("writing dictionary: %w", err)
	}

	header := Header{
		Magic:      MagicBytes,
		Version:    FormatVersion,
		TermCount:  uint32(len(dict)),
		DocCount:   uint32(len(docIDs)),
		CreatedAt:  time.Now().Unix(),
		DictOffset: dictStart,
		DictSize:   int64(len(dictData)),
		PostOffset: postStart,
		PostSize:   offset,
	}
	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(footer[0:4], crc32.ChecksumIEEE(dictData))
	binary.LittleEndian.PutUint32(footer[4:8], header.DocCount)
	binary.LittleEndian.PutUint64(footer[8:16], uint64(header.DictOffset))
	binary.LittleEndian.PutUint64(footer[16:24], uint64(header.DictSize))
	binary.LittleEndian.PutUint64(footer[24:32], uint64(header.PostSize))
	if _, err := f.Write(footer); err != nil {
		return fmt.Errorf("writing footer: %w", err)
	}
	if _, err := f.WriteAt(encodeHeader(header), 0); err != nil {
		return fmt.Errorf("updating header: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing segment file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing segment file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming segment file: %w", err)
	}
	return nil
}

func encodeHeader(h Header) []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], h.Magic)
	binary.LittleEndian.PutUint32(b[4:8], h.Version)
	binary.LittleEndian.PutUint32(b[8:12], h.TermCount)
	binary.LittleEndian.PutUint32(b[12:16], h.DocCount)
	binary.LittleEndian.PutUint64(b[16:24], uint64(h.CreatedAt))
	binary.LittleEndian.PutUint64(b[24:32], uint64(h.DictOffset))
	binary.LittleEndian.PutUint64(b[32:40], uint64(h.DictSize))
	binary.LittleEndian.PutUint64(b[40:48], uint64(h.PostOffset))
	binary.LittleEndian.PutUint64(b[48:56], uint64(h.PostSize))
	return b
}

func decodeHeader(b []byte) Header {
	return Header{
		Magic:      binary.LittleEndian.Uint32(b[0:4]),
		Version:    binary.LittleEndian.Uint32(b[4:8]),
		TermCount:  binary.LittleEndian.Uint32(b[8:12]),
		DocCount:   binary.LittleEndian.Uint32(b[12:16]),
		CreatedAt:  int64(binary.LittleEndian.Uint64(b[16:24])),
		DictOffset: int64(binary.LittleEndian.Uint64(b[24:32])),
		DictSize:   int64(binary.LittleEndian.Uint64(b[32:40])),
		PostOffset: int64(binary.LittleEndian.Uint64(b[40:48])),
		PostSize:   int64(binary.LittleEndian.Uint64(b[48:56])),
	}
}
