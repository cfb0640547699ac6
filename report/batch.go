package report

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/width"

	"github.com/gogpu/lensed"
)

// Column widths of the batch format.
const (
	summaryWidth = 60 // three summary columns of 18 plus separators
	valueWidth   = 18
	paramWidth   = 10
	paramGroup   = 12 // paramWidth plus the separator
)

// displayWidth returns the number of terminal cells s occupies.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

// pad left-aligns s in a column of n cells.
func pad(s string, n int) string {
	if w := displayWidth(s); w < n {
		return s + strings.Repeat(" ", n-w)
	}
	return s
}

// BatchHeader writes the two header lines of the batch format: the field
// groups, then the column names.
func BatchHeader(w io.Writer, params []*lensed.Parameter) error {
	var sb strings.Builder
	sb.WriteString(pad("summary", summaryWidth))
	for _, group := range []string{"mean", "sigma", "ML", "MAP"} {
		sb.WriteString(pad(group, len(params)*paramGroup))
	}
	sb.WriteByte('\n')

	for _, col := range []string{"log-ev", "log-lh", "chi2/n"} {
		sb.WriteString(pad(col, valueWidth) + "  ")
	}
	for range 4 {
		for _, p := range params {
			sb.WriteString(pad(p.Name(), paramWidth) + "  ")
		}
	}
	sb.WriteByte('\n')
	_, err := io.WriteString(w, sb.String())
	return err
}

// BatchRow writes the result as one line under BatchHeader.
func BatchRow(w io.Writer, res *lensed.RunResult) error {
	var sb strings.Builder
	for _, v := range []float64{res.Evidence(), res.MaxLogLike, res.Chi2DOF} {
		fmt.Fprintf(&sb, "%-*.4f  ", valueWidth, v)
	}
	for _, group := range [][]float64{res.Mean, res.Sigma, res.ML, res.MAP} {
		for _, v := range group {
			fmt.Fprintf(&sb, "%-*.4f  ", paramWidth, v)
		}
	}
	sb.WriteByte('\n')
	_, err := io.WriteString(w, sb.String())
	return err
}
