package benchmark

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pngsize-benchmark/pngsize"
	"pngsize-benchmark/resource"
)

// Phase is the state of a Runner.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseRunning
	PhaseReporting
	PhaseConfigError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhaseRunning:
		return "running"
	case PhaseReporting:
		return "reporting"
	case PhaseConfigError:
		return "configuration error"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Progress is passed to the progress callback on every phase change and
// before each strategy starts.
type Progress struct {
	Phase    Phase
	Index    int // position in the full strategy list
	Total    int
	Strategy string
}

// Baseline supplies the trusted dimensions of a file. Zero dimensions mean
// the file is not a decodable image; ok is false when no answer could be
// obtained at all.
type Baseline interface {
	Lookup(ctx context.Context, entry resource.Entry) (pngsize.Dimensions, bool)
}

// Recorder receives every finished row.
type Recorder interface {
	RecordRow(row Row)
}

type Option func(*Runner)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithBaseline enables the baseline match columns.
func WithBaseline(b Baseline) Option {
	return func(r *Runner) { r.baseline = b }
}

func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

func WithProgress(fn func(Progress)) Option {
	return func(r *Runner) { r.progress = fn }
}

// Runner drives the selected strategies over a directory, one file at a
// time, one strategy after another.
type Runner struct {
	cfg        RunConfiguration
	strategies []SizeStrategy
	logger     *slog.Logger
	baseline   Baseline
	recorder   Recorder
	progress   func(Progress)
	phase      Phase
}

// NewRunner takes the full, ordered strategy list; cfg selects the range.
func NewRunner(cfg RunConfiguration, strategies []SizeStrategy, opts ...Option) *Runner {
	r := &Runner{
		cfg:        cfg,
		strategies: strategies,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Phase returns the current state.
func (r *Runner) Phase() Phase {
	return r.phase
}

// Run validates the configuration and returns one row per selected strategy,
// in list order. A *ConfigError means nothing ran.
func (r *Runner) Run(ctx context.Context) ([]Row, error) {
	r.setPhase(PhaseValidating)
	if err := r.cfg.Validate(len(r.strategies)); err != nil {
		r.setPhase(PhaseConfigError)
		return nil, err
	}

	selected := r.strategies[r.cfg.Start:r.cfg.End]
	rows := make([]Row, 0, len(selected))
	r.logger.Info("Starting benchmark",
		"directory", r.cfg.Directory.Name(),
		"runs", r.cfg.RepeatCount,
		"strategies", len(selected))

	for i, s := range selected {
		r.phase = PhaseRunning
		r.emit(Progress{Phase: PhaseRunning, Index: r.cfg.Start + i, Total: len(r.strategies), Strategy: s.Name()})
		r.logger.Info("Running strategy",
			"index", r.cfg.Start+i+1,
			"total", len(r.strategies),
			"strategy", s.Name())

		row, err := r.runStrategy(ctx, s)
		if err != nil {
			r.setPhase(PhaseIdle)
			return rows, fmt.Errorf("strategy %s: %w", s.Name(), err)
		}
		if row.NoFiles {
			r.logger.Warn("No files found", "directory", r.cfg.Directory.Name(), "strategy", s.Name())
		}
		if r.recorder != nil {
			r.recorder.RecordRow(row)
		}
		rows = append(rows, row)
	}

	r.setPhase(PhaseReporting)
	r.setPhase(PhaseIdle)
	return rows, nil
}

type outcome struct {
	entry resource.Entry
	dims  pngsize.Dimensions
	err   error
}

// matches reports whether the outcome agrees with the baseline. For files the
// baseline cannot decode, only a miss agrees.
func (o outcome) matches(want pngsize.Dimensions) bool {
	if !want.Hit() {
		return o.err != nil || !o.dims.Hit()
	}
	return o.err == nil && o.dims == want
}

func (r *Runner) runStrategy(ctx context.Context, s SizeStrategy) (Row, error) {
	row := Row{StrategyName: s.Name()}
	var outcomes []outcome

	start := time.Now()
	for rep := 0; rep < r.cfg.RepeatCount; rep++ {
		for entry, err := range r.cfg.Directory.Entries(ctx) {
			if err != nil {
				return row, err
			}
			if !entry.IsFile() {
				continue
			}

			row.FileCount++
			dims, err := r.detect(ctx, s, entry)
			switch {
			case err != nil:
				row.Errors++
			case dims.Hit():
				row.Hits++
			}
			if r.baseline != nil {
				outcomes = append(outcomes, outcome{entry: entry, dims: dims, err: err})
			}
		}
	}
	row.finish(time.Since(start))

	// Outside the timed window.
	if r.baseline != nil {
		r.compareBaseline(ctx, &row, outcomes)
	}
	return row, nil
}

func (r *Runner) detect(ctx context.Context, s SizeStrategy, entry resource.Entry) (pngsize.Dimensions, error) {
	res, err := entry.Open(ctx)
	if err != nil {
		r.logger.Debug("Failed to open file", "file", entry.Name(), "error", err)
		return pngsize.Dimensions{}, err
	}
	defer res.Close()

	dims, err := s.Detect(ctx, res)
	if err != nil {
		r.logger.Debug("No result", "strategy", s.Name(), "file", entry.Name(), "error", err)
	}
	return dims, err
}

func (r *Runner) compareBaseline(ctx context.Context, row *Row, outcomes []outcome) {
	for _, o := range outcomes {
		want, ok := r.baseline.Lookup(ctx, o.entry)
		if !ok {
			continue
		}
		row.BaselineChecked++
		if o.matches(want) {
			row.BaselineMatches++
		}
	}
	if row.BaselineChecked > 0 {
		row.BaselineMatchPercent = 100 * float64(row.BaselineMatches) / float64(row.BaselineChecked)
	}
}

func (r *Runner) setPhase(p Phase) {
	r.phase = p
	r.emit(Progress{Phase: p, Total: len(r.strategies)})
}

func (r *Runner) emit(p Progress) {
	if r.progress != nil {
		r.progress(p)
	}
}
