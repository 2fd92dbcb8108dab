// Package textfile reads and writes the ';'-delimited intermediate files
// exchanged between pipeline stages. Every file starts with a version line
// followed by a header row. Composite values (posting lists, weight maps,
// result triples) use a small fixed grammar parsed by hand; nothing is ever
// evaluated as an expression.
package textfile

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	vsmerrors "github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/errors"
)

// VersionLine opens every file written by this package.
const VersionLine = "#vsm v1"

const (
	delimiter = ';'
	stage     = "textfile"
)

func invalid(format string, args ...any) error {
	return vsmerrors.Newf(stage, vsmerrors.ErrInvalidRecord, format, args...)
}

// FormatFloat renders f in the shortest form that parses back to the same
// bits.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func newWriter(w io.Writer, header []string) (*csv.Writer, error) {
	if _, err := io.WriteString(w, VersionLine+"\n"); err != nil {
		return nil, fmt.Errorf("writing version line: %w", err)
	}
	cw := csv.NewWriter(w)
	cw.Comma = delimiter
	if err := cw.Write(header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	return cw, nil
}

// newReader checks the version line and header row and returns a reader
// positioned at the first data row.
func newReader(r io.Reader, header []string) (*csv.Reader, error) {
	br := bufio.NewReader(r)
	first, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading version line: %w", err)
	}
	if got := strings.TrimRight(first, "\r\n"); got != VersionLine {
		return nil, invalid("unsupported format line %q, want %q", got, VersionLine)
	}
	cr := csv.NewReader(br)
	cr.Comma = delimiter
	cr.FieldsPerRecord = len(header)
	cr.ReuseRecord = true
	got, err := cr.Read()
	if err != nil {
		return nil, invalid("reading header: %v", err)
	}
	for i := range header {
		if got[i] != header[i] {
			return nil, invalid("header column %d is %q, want %q", i+1, got[i], header[i])
		}
	}
	return cr, nil
}

// readRows calls fn for every data row. Row numbers count data rows from 1.
func readRows(cr *csv.Reader, fn func(row int, rec []string) error) error {
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return invalid("row %d: %v", row, err)
		}
		if err := fn(row, rec); err != nil {
			return err
		}
	}
}

func atoi(row int, field, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, invalid("row %d: %s %q is not an integer", row, field, s)
	}
	return n, nil
}

// WriteFile atomically replaces path with whatever fn writes.
func WriteFile(path string, fn func(w io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", path, err)
		}
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmpPath, err)
	}
	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming %s: %w", tmpPath, err)
	}
	return nil
}

// ReadFile opens path and hands it to fn.
func ReadFile(path string, fn func(r io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	if err := fn(f); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}
