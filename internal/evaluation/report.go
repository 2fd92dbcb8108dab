package evaluation

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/storage/textfile"
)

// WriteTo writes the report as "Scope;Metric;Value" rows: one block per
// query followed by the aggregate rows under scope "ALL".
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	if _, err := io.WriteString(cw, textfile.VersionLine+"\n"); err != nil {
		return cw.n, err
	}
	out := csv.NewWriter(cw)
	out.Comma = ';'
	row := func(scope, metric string, v float64) {
		out.Write([]string{scope, metric, textfile.FormatFloat(v)})
	}
	out.Write([]string{"Scope", "Metric", "Value"})
	for _, q := range r.Queries {
		scope := strconv.Itoa(q.QueryID)
		row(scope, "P@5", q.PrecisionAt5)
		row(scope, "P@10", q.PrecisionAt10)
		row(scope, "R-Precision", q.RPrecision)
		row(scope, "AP", q.AveragePrecision)
		row(scope, "RR", q.ReciprocalRank)
		row(scope, "nDCG@10", q.NDCGAt10)
		row(scope, "F1@10", q.F1At10)
	}
	row("ALL", "P@5", r.MeanPrecisionAt5)
	row("ALL", "P@10", r.MeanPrecisionAt10)
	row("ALL", "R-Precision", r.MeanRPrecision)
	row("ALL", "MAP", r.MAP)
	row("ALL", "MRR", r.MRR)
	row("ALL", "nDCG@10", r.MeanNDCGAt10)
	row("ALL", "F1@10", r.MeanF1At10)
	for i, p := range r.Interpolated {
		row("ALL", fmt.Sprintf("P@R=%.1f", float64(i)/float64(RecallLevels-1)), p)
	}
	out.Flush()
	return cw.n, out.Error()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
