package benchmark

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pngsize-benchmark/pngsize"
	"pngsize-benchmark/resource"
)

// SizeStrategy defines the interface for a size-detection algorithm.
// This allows us to benchmark different strategies with the same test harness.
type SizeStrategy interface {
	// Name returns the name of the strategy, used in reports.
	Name() string
	// Detect returns the image dimensions of res. Any error counts as a miss.
	// Dimensions with a zero side are also a miss.
	Detect(ctx context.Context, res resource.Resource) (pngsize.Dimensions, error)
}

// Kind identifies one of the fixed strategies. The order of the constants is
// the order strategies run in and the index space RunConfiguration selects from.
type Kind int

const (
	KindFixedOffset Kind = iota
	KindReadAllFixedOffset
	KindReadAllNoSignature
	KindReadAllContentType
	KindChunkWalk
	KindReadAllChunkWalk
	KindDecodeOracle

	numKinds
)

// NumKinds is the length of the fixed strategy list.
const NumKinds = int(numKinds)

var kindNames = [NumKinds]string{
	KindFixedOffset:        "fixed-offset",
	KindReadAllFixedOffset: "read-all-fixed-offset",
	KindReadAllNoSignature: "read-all-no-signature",
	KindReadAllContentType: "read-all-content-type",
	KindChunkWalk:          "chunk-walk",
	KindReadAllChunkWalk:   "read-all-chunk-walk",
	KindDecodeOracle:       "decode-oracle",
}

// Kinds returns every strategy kind in run order.
func Kinds() []Kind {
	out := make([]Kind, NumKinds)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Row holds the collected metrics of one strategy over one run.
type Row struct {
	StrategyName    string        `json:"strategyName"`
	FileCount       uint64        `json:"fileCount"`
	Hits            uint64        `json:"hits"`
	Errors          uint64        `json:"errors"`
	TotalDuration   time.Duration `json:"-"`
	TotalDurationMs float64       `json:"totalDurationMs"`
	AvgDurationMs   float64       `json:"avgDurationMs"`
	HitRatePercent  float64       `json:"hitRatePercent"`
	// NoFiles is set when the directory held no plain files; the derived
	// fields are then left at zero.
	NoFiles bool `json:"noFiles"`

	BaselineChecked      uint64  `json:"baselineChecked,omitempty"`
	BaselineMatches      uint64  `json:"baselineMatches,omitempty"`
	BaselineMatchPercent float64 `json:"baselineMatchPercent,omitempty"`
}

func (r *Row) finish(elapsed time.Duration) {
	r.TotalDuration = elapsed
	r.TotalDurationMs = float64(elapsed) / float64(time.Millisecond)
	if r.FileCount == 0 {
		r.NoFiles = true
		return
	}
	r.AvgDurationMs = r.TotalDurationMs / float64(r.FileCount)
	r.HitRatePercent = 100 * float64(r.Hits) / float64(r.FileCount)
}

// RunConfiguration is everything one benchmark run needs.
type RunConfiguration struct {
	Directory   resource.Directory
	RepeatCount int
	// Start and End select strategies [Start, End) of the fixed list.
	Start int
	End   int
}

// ConfigError is returned when a run cannot start.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Validate checks the configuration against a strategy list of length n.
func (c RunConfiguration) Validate(n int) error {
	if c.Directory == nil {
		return &ConfigError{Field: "directory", Reason: "no directory selected"}
	}
	if c.RepeatCount < 1 {
		return &ConfigError{Field: "runs", Reason: fmt.Sprintf("must be at least 1, got %d", c.RepeatCount)}
	}
	if c.Start < 0 || c.End > n || c.Start >= c.End {
		return &ConfigError{Field: "strategies", Reason: fmt.Sprintf("range [%d, %d) is not within [0, %d)", c.Start, c.End, n)}
	}
	return nil
}

// ParseRepeatCount converts user input into a repeat count.
func ParseRepeatCount(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &ConfigError{Field: "runs", Reason: fmt.Sprintf("%q is not a number", s)}
	}
	if n < 1 {
		return 0, &ConfigError{Field: "runs", Reason: fmt.Sprintf("must be at least 1, got %d", n)}
	}
	return n, nil
}
