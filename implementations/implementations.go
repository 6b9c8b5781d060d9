// Package implementations holds the size-detection strategies benchmarked
// against each other, one constructor per benchmark.Kind.
package implementations

import (
	"fmt"
	"log/slog"
	"time"

	"pngsize-benchmark/benchmark"
)

// DefaultOracleTimeout bounds a single decode-oracle call.
const DefaultOracleTimeout = 5 * time.Second

type Options struct {
	Logger        *slog.Logger
	OracleTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.OracleTimeout <= 0 {
		o.OracleTimeout = DefaultOracleTimeout
	}
	return o
}

// New returns the strategy for kind.
func New(kind benchmark.Kind, opts Options) benchmark.SizeStrategy {
	opts = opts.withDefaults()
	switch kind {
	case benchmark.KindFixedOffset:
		return NewFixedOffsetStrategy()
	case benchmark.KindReadAllFixedOffset:
		return NewReadAllFixedOffsetStrategy(CheckSignature)
	case benchmark.KindReadAllNoSignature:
		return NewReadAllFixedOffsetStrategy(CheckNone)
	case benchmark.KindReadAllContentType:
		return NewReadAllFixedOffsetStrategy(CheckContentType)
	case benchmark.KindChunkWalk:
		return NewChunkWalkStrategy(false, opts.Logger)
	case benchmark.KindReadAllChunkWalk:
		return NewChunkWalkStrategy(true, opts.Logger)
	case benchmark.KindDecodeOracle:
		return NewDecodeOracleStrategy(opts.OracleTimeout, opts.Logger)
	}
	panic(fmt.Sprintf("implementations: unknown strategy kind %d", int(kind)))
}

// All returns every strategy in run order.
func All(opts Options) []benchmark.SizeStrategy {
	kinds := benchmark.Kinds()
	out := make([]benchmark.SizeStrategy, len(kinds))
	for i, k := range kinds {
		out[i] = New(k, opts)
	}
	return out
}
