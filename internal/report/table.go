// Package report renders evaluation results for humans: terminal summary
// tables and actual-vs-estimated HTML charts.
package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/topfang/internal/evaluation"
)

const floatFormat = "%.4f"

// WriteSummary renders one row per window with the capacity trajectory and
// the accuracy scores.
func WriteSummary(w io.Writer, method string, reports []evaluation.WindowReport, noColor bool) {
	header := color.New(color.FgCyan, color.Bold)
	warn := color.New(color.FgYellow)
	fail := color.New(color.FgRed)

	if noColor {
		header.DisableColor()
		warn.DisableColor()
		fail.DisableColor()
	}

	fmt.Fprintln(w, header.Sprintf("=== %s ===", method))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Window", "Items", "Q", "Next Q", "L", "L_t", "Precision", "Recall", "F1", "RMSE"})

	for _, r := range reports {
		switch {
		case r.Err != nil:
			t.AppendRow(table.Row{r.Window, fail.Sprintf("failed: %v", r.Err)})
		case r.Skipped:
			t.AppendRow(table.Row{r.Window, warn.Sprintf("skipped (entropy %.3f)", r.Entropy)})
		default:
			t.AppendRow(table.Row{
				r.Window,
				humanize.Comma(r.Result.Telemetry.N),
				r.Result.Q,
				r.Result.NextQ,
				fmt.Sprintf(floatFormat, r.Result.SpatialDivergence),
				fmt.Sprintf(floatFormat, r.Result.TemporalDivergence),
				fmt.Sprintf(floatFormat, r.Metrics.Precision),
				fmt.Sprintf(floatFormat, r.Metrics.Recall),
				fmt.Sprintf(floatFormat, r.Metrics.F1),
				fmt.Sprintf(floatFormat, r.Metrics.RMSE),
			})
		}
	}

	t.Render()
}

// WriteHeavyHitters lists one window's estimated heavy hitters next to the
// ground truth.
func WriteHeavyHitters(w io.Writer, r evaluation.WindowReport, noColor bool) {
	header := color.New(color.FgCyan, color.Bold)
	if noColor {
		header.DisableColor()
	}

	fmt.Fprintln(w, header.Sprintf("--- window %d heavy hitters ---", r.Window))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Rank", "Estimated", "Count", "Freq", "Actual", "Count", "Freq"})

	rows := len(r.EstimatedTopN)
	if len(r.ActualTopN) > rows {
		rows = len(r.ActualTopN)
	}

	for i := range rows {
		row := table.Row{i + 1, "", "", "", "", "", ""}

		if i < len(r.EstimatedTopN) {
			e := r.EstimatedTopN[i]
			row[1] = e.Item
			row[2] = humanize.Comma(e.Count)
			row[3] = fmt.Sprintf(floatFormat, e.Freq)
		}

		if i < len(r.ActualTopN) {
			a := r.ActualTopN[i]
			row[4] = a.Item
			row[5] = humanize.Comma(a.Count)
			row[6] = fmt.Sprintf(floatFormat, a.Freq)
		}

		t.AppendRow(row)
	}

	t.Render()
}
