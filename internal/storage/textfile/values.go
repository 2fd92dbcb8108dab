package textfile

import (
	"sort"
	"strconv"
	"strings"
)

// formatIntList renders ids as "[1, 2, 2]".
func formatIntList(ids []int) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, id := range ids {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(id))
	}
	b.WriteByte(']')
	return b.String()
}

// parseIntList accepts "[1, 2, 2]" and "[]".
func parseIntList(s string) ([]int, bool) {
	inner, ok := unwrap(s, '[', ']')
	if !ok {
		return nil, false
	}
	if inner == "" {
		return []int{}, true
	}
	parts := strings.Split(inner, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, false
		}
		ids = append(ids, n)
	}
	return ids, true
}

// formatWeights renders weights as "{1: 0.5, 7: 0.25}" with keys ascending.
func formatWeights(weights map[int]float64) string {
	ids := make([]int, 0, len(weights))
	for id := range weights {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	var b strings.Builder
	b.WriteByte('{')
	for i, id := range ids {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(id))
		b.WriteString(": ")
		b.WriteString(FormatFloat(weights[id]))
	}
	b.WriteByte('}')
	return b.String()
}

// parseWeights accepts the output of formatWeights.
func parseWeights(s string) (map[int]float64, bool) {
	inner, ok := unwrap(s, '{', '}')
	if !ok {
		return nil, false
	}
	weights := make(map[int]float64)
	if inner == "" {
		return weights, true
	}
	for _, pair := range strings.Split(inner, ",") {
		k, v, found := strings.Cut(pair, ":")
		if !found {
			return nil, false
		}
		id, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return nil, false
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, false
		}
		if _, dup := weights[id]; dup {
			return nil, false
		}
		weights[id] = w
	}
	return weights, true
}

func unwrap(s string, open, close byte) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != open || s[len(s)-1] != close {
		return "", false
	}
	return strings.TrimSpace(s[1 : len(s)-1]), true
}
