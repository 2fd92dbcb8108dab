package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	vsmerrors "github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/errors"
)

// Stage file names and the keys each one understands.
const (
	QueryStageFile  = "pc.cfg"
	InvertStageFile = "gli.cfg"
	IndexStageFile  = "index.cfg"
	SearchStageFile = "busca.cfg"
	KeyRead         = "LEIA"
	KeyWrite        = "ESCREVA"
	KeyQueries      = "CONSULTAS"
	KeyExpected     = "ESPERADOS"
	KeyModel        = "MODELO"
	KeyResults      = "RESULTADOS"
)

const (
	corpusListSep      = ","
	stageConfigSubject = "config"
)

// ParseStageFile reads key=value lines. Blank lines are ignored; any other
// line must contain exactly one '='.
func ParseStageFile(r io.Reader) (map[string]string, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.Count(line, "=") != 1 {
			return nil, vsmerrors.Newf(stageConfigSubject, vsmerrors.ErrInvalidRecord,
				"line %d: expected exactly one '=' in %q", lineNo, line)
		}
		key, value, _ := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, vsmerrors.Newf(stageConfigSubject, vsmerrors.ErrInvalidRecord,
				"line %d: empty key", lineNo)
		}
		values[key] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning stage file: %w", err)
	}
	return values, nil
}

// LoadStageFile parses the stage file at path.
func LoadStageFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	values, err := ParseStageFile(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return values, nil
}

// ApplyStageFiles overlays the paths found in the stage files of dir onto
// cfg.Pipeline. Missing stage files are skipped.
func ApplyStageFiles(cfg *Config, dir string) error {
	apply := func(name string, fn func(values map[string]string)) error {
		values, err := LoadStageFile(filepath.Join(dir, name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		fn(values)
		return nil
	}
	p := &cfg.Pipeline
	if err := apply(QueryStageFile, func(v map[string]string) {
		setIfPresent(&p.QueriesSource, v, KeyRead)
		setIfPresent(&p.ProcessedQueries, v, KeyQueries)
		setIfPresent(&p.ExpectedResults, v, KeyExpected)
	}); err != nil {
		return err
	}
	if err := apply(InvertStageFile, func(v map[string]string) {
		if list, ok := v[KeyRead]; ok && list != "" {
			p.CorpusSources = splitList(list)
		}
		setIfPresent(&p.InvertedList, v, KeyWrite)
	}); err != nil {
		return err
	}
	if err := apply(IndexStageFile, func(v map[string]string) {
		setIfPresent(&p.InvertedList, v, KeyRead)
		setIfPresent(&p.VectorModel, v, KeyWrite)
	}); err != nil {
		return err
	}
	return apply(SearchStageFile, func(v map[string]string) {
		setIfPresent(&p.VectorModel, v, KeyModel)
		setIfPresent(&p.ProcessedQueries, v, KeyQueries)
		setIfPresent(&p.Results, v, KeyResults)
	})
}

func setIfPresent(dst *string, values map[string]string, key string) {
	if v, ok := values[key]; ok && v != "" {
		*dst = v
	}
}

func splitList(list string) []string {
	parts := strings.Split(list, corpusListSep)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
