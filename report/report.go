// Package report renders benchmark rows.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"pngsize-benchmark/benchmark"
)

// Reporter receives the rows of a finished run.
type Reporter interface {
	Report(ctx context.Context, rows []benchmark.Row) error
}

// TableReporter prints an aligned text table.
type TableReporter struct {
	w io.Writer
}

func NewTableReporter(w io.Writer) *TableReporter {
	return &TableReporter{w: w}
}

func (r *TableReporter) Report(_ context.Context, rows []benchmark.Row) error {
	baseline := false
	for _, row := range rows {
		if row.BaselineChecked > 0 {
			baseline = true
		}
	}

	w := tabwriter.NewWriter(r.w, 0, 0, 3, ' ', tabwriter.AlignRight|tabwriter.Debug)
	header := "Strategy\tFile Count\tDuration (ms)\tAvg Duration (ms)\tHit Rate (%)\tErrors\t"
	if baseline {
		header += "Baseline Match (%)\t"
	}
	fmt.Fprintln(w, header)

	for _, row := range rows {
		if row.NoFiles {
			fmt.Fprintf(w, "%s\t0\t%.2f\tno files\tno files\t0\t", row.StrategyName, row.TotalDurationMs)
		} else {
			fmt.Fprintf(w, "%s\t%d\t%.2f\t%.4f\t%.2f\t%d\t",
				row.StrategyName,
				row.FileCount,
				row.TotalDurationMs,
				row.AvgDurationMs,
				row.HitRatePercent,
				row.Errors,
			)
		}
		if baseline {
			if row.BaselineChecked > 0 {
				fmt.Fprintf(w, "%.2f\t", row.BaselineMatchPercent)
			} else {
				fmt.Fprint(w, "-\t")
			}
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

// JSONReporter writes the rows as one JSON array.
type JSONReporter struct {
	w io.Writer
}

func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{w: w}
}

func (r *JSONReporter) Report(_ context.Context, rows []benchmark.Row) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	if rows == nil {
		rows = []benchmark.Row{}
	}
	return enc.Encode(rows)
}

// Multi hands the rows to every reporter and joins their errors.
type Multi []Reporter

func (m Multi) Report(ctx context.Context, rows []benchmark.Row) error {
	var errs []error
	for _, r := range m {
		if err := r.Report(ctx, rows); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
