package runner

import (
	"fmt"
	"io"
	"time"

	"github.com/markkurossi/tabulate"
)

// WriteTable prints results as a table with a TOTAL row.
func WriteTable(w io.Writer, results []Result) {
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Diagram").SetAlign(tabulate.ML)
	tab.Header("Name").SetAlign(tabulate.ML)
	tab.Header("Kind").SetAlign(tabulate.ML)
	tab.Header("Applied").SetAlign(tabulate.MR)
	tab.Header("Time").SetAlign(tabulate.MR)
	tab.Header("Status").SetAlign(tabulate.ML)

	for _, res := range results {
		row := tab.Row()
		row.Column(res.Diagram)
		row.Column(res.Name)
		row.Column(string(res.Kind))
		row.Column(fmt.Sprintf("%d", res.Applied))
		row.Column(formatElapsed(res.Elapsed))
		row.Column(statusOf(res))
	}

	sum := Summarize(results)
	row := tab.Row()
	row.Column("TOTAL")
	row.Column(fmt.Sprintf("%d runs", sum.Runs))
	row.Column("")
	row.Column(fmt.Sprintf("%d", sum.Applied))
	row.Column(formatElapsed(sum.Elapsed))
	row.Column(fmt.Sprintf("%d failed", sum.Failed))

	tab.Print(w)
}

func statusOf(res Result) string {
	switch {
	case res.Err != nil:
		return "error: " + res.Err.Error()
	case res.Name == "full_reduce", res.Name == "reduce_scalar":
		return res.Status.String()
	}
	return "ok"
}

func formatElapsed(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
