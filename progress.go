package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"pngsize-benchmark/benchmark"
)

// newProgressPrinter reports the running strategy on f. On a terminal the
// line is rewritten in place and cleared once the run is over.
func newProgressPrinter(f *os.File) func(benchmark.Progress) {
	return progressPrinter(f, term.IsTerminal(int(f.Fd())))
}

func progressPrinter(w io.Writer, tty bool) func(benchmark.Progress) {
	return func(p benchmark.Progress) {
		switch p.Phase {
		case benchmark.PhaseRunning:
			line := fmt.Sprintf("Running strategy %d/%d [%s]", p.Index+1, p.Total, p.Strategy)
			if tty {
				fmt.Fprintf(w, "\r\033[K%s", line)
			} else {
				fmt.Fprintln(w, line)
			}
		case benchmark.PhaseReporting, benchmark.PhaseConfigError:
			if tty {
				fmt.Fprint(w, "\r\033[K")
			}
		}
	}
}
