// Package evaluation scores ranked results against expert relevance
// judgments with the usual offline IR measures.
package evaluation

import (
	"log/slog"
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/executor"
)

// RecallLevels are the standard eleven recall points 0.0, 0.1, ... 1.0.
const RecallLevels = 11

// QueryMetrics holds the measures of a single query.
type QueryMetrics struct {
	QueryID          int
	Relevant         int
	PrecisionAt5     float64
	PrecisionAt10    float64
	RPrecision       float64
	AveragePrecision float64
	ReciprocalRank   float64
	NDCGAt10         float64
	F1At10           float64
	Interpolated     [RecallLevels]float64
}

// Report aggregates per-query measures. Means are arithmetic over the
// evaluated queries; MAP and MRR are the means of AveragePrecision and
// ReciprocalRank.
type Report struct {
	Queries           []QueryMetrics
	MeanPrecisionAt5  float64
	MeanPrecisionAt10 float64
	MeanRPrecision    float64
	MAP               float64
	MRR               float64
	MeanNDCGAt10      float64
	MeanF1At10        float64
	Interpolated      [RecallLevels]float64
	Unjudged          []int
}

// Evaluate compares results with judgments. A document counts as relevant
// when it received at least one vote; the vote count is its graded gain for
// nDCG. Queries without judgments are listed in Report.Unjudged.
func Evaluate(results []executor.QueryResult, judgments []corpus.Judgment) *Report {
	gains := make(map[int]map[int]int)
	for _, j := range judgments {
		if j.Votes <= 0 {
			continue
		}
		if gains[j.QueryID] == nil {
			gains[j.QueryID] = make(map[int]int)
		}
		gains[j.QueryID][j.DocID] = j.Votes
	}

	report := &Report{}
	for _, res := range results {
		g, ok := gains[res.QueryID]
		if !ok {
			report.Unjudged = append(report.Unjudged, res.QueryID)
			continue
		}
		report.Queries = append(report.Queries, evaluateQuery(res, g))
	}
	if len(report.Unjudged) > 0 {
		slog.Default().With("component", "evaluation").Warn("queries without relevance judgments skipped",
			"count", len(report.Unjudged),
		)
	}

	n := float64(len(report.Queries))
	if n == 0 {
		return report
	}
	for _, q := range report.Queries {
		report.MeanPrecisionAt5 += q.PrecisionAt5 / n
		report.MeanPrecisionAt10 += q.PrecisionAt10 / n
		report.MeanRPrecision += q.RPrecision / n
		report.MAP += q.AveragePrecision / n
		report.MRR += q.ReciprocalRank / n
		report.MeanNDCGAt10 += q.NDCGAt10 / n
		report.MeanF1At10 += q.F1At10 / n
		for i := range q.Interpolated {
			report.Interpolated[i] += q.Interpolated[i] / n
		}
	}
	return report
}

func evaluateQuery(res executor.QueryResult, gains map[int]int) QueryMetrics {
	r := len(gains)
	m := QueryMetrics{QueryID: res.QueryID, Relevant: r}

	rel := make([]bool, len(res.Hits))
	for i, h := range res.Hits {
		_, rel[i] = gains[h.DocID]
	}

	m.PrecisionAt5 = precisionAt(rel, 5)
	m.PrecisionAt10 = precisionAt(rel, 10)
	m.RPrecision = precisionAt(rel, r)

	found := 0
	var precisions, recalls []float64
	for i, isRel := range rel {
		if !isRel {
			continue
		}
		found++
		p := float64(found) / float64(i+1)
		m.AveragePrecision += p
		precisions = append(precisions, p)
		recalls = append(recalls, float64(found)/float64(r))
		if found == 1 {
			m.ReciprocalRank = 1 / float64(i+1)
		}
	}
	m.AveragePrecision /= float64(r)
	m.Interpolated = interpolate(precisions, recalls)

	recall10 := float64(countRelevant(rel, 10)) / float64(r)
	if m.PrecisionAt10+recall10 > 0 {
		m.F1At10 = 2 * m.PrecisionAt10 * recall10 / (m.PrecisionAt10 + recall10)
	}
	m.NDCGAt10 = ndcg(res, gains, 10)
	return m
}

func countRelevant(rel []bool, k int) int {
	n := 0
	for i := 0; i < k && i < len(rel); i++ {
		if rel[i] {
			n++
		}
	}
	return n
}

// precisionAt divides by k even when fewer than k documents were returned.
func precisionAt(rel []bool, k int) float64 {
	if k <= 0 {
		return 0
	}
	return float64(countRelevant(rel, k)) / float64(k)
}

// interpolate returns, for each recall level, the highest precision reached
// at that recall or beyond.
func interpolate(precisions, recalls []float64) [RecallLevels]float64 {
	var out [RecallLevels]float64
	for level := 0; level < RecallLevels; level++ {
		target := float64(level) / float64(RecallLevels-1)
		best := 0.0
		for i := range precisions {
			if recalls[i]+1e-12 >= target && precisions[i] > best {
				best = precisions[i]
			}
		}
		out[level] = best
	}
	return out
}

func ndcg(res executor.QueryResult, gains map[int]int, k int) float64 {
	var dcg float64
	for i, h := range res.Hits {
		if i >= k {
			break
		}
		dcg += float64(gains[h.DocID]) / math.Log2(float64(i+2))
	}
	ideal := make([]int, 0, len(gains))
	for _, g := range gains {
		ideal = append(ideal, g)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ideal)))
	var idcg float64
	for i, g := range ideal {
		if i >= k {
			break
		}
		idcg += float64(g) / math.Log2(float64(i+2))
	}
	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}
