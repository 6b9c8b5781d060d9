package implementations

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"log/slog"
	"time"

	"pngsize-benchmark/benchmark"
	"pngsize-benchmark/pngsize"
	"pngsize-benchmark/resource"
)

var (
	ErrOracleDecode  = errors.New("image decode failed")
	ErrOracleTimeout = errors.New("image decode timed out")
)

// DecodeOracleStrategy fully decodes the image and reports its bounds. It is
// the correctness reference, not a contender.
type DecodeOracleStrategy struct {
	timeout time.Duration
	logger  *slog.Logger
}

func NewDecodeOracleStrategy(timeout time.Duration, logger *slog.Logger) benchmark.SizeStrategy {
	return &DecodeOracleStrategy{timeout: timeout, logger: logger}
}

func (s *DecodeOracleStrategy) Name() string {
	return benchmark.KindDecodeOracle.String()
}

type decodeResult struct {
	dims pngsize.Dimensions
	err  error
}

func (s *DecodeOracleStrategy) Detect(ctx context.Context, res resource.Resource) (pngsize.Dimensions, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	b, err := resource.ReadAll(ctx, res)
	if err != nil {
		return pngsize.Dimensions{}, err
	}

	// The decoder cannot be interrupted; on timeout it finishes in the
	// background and its result is dropped.
	done := make(chan decodeResult, 1)
	go func() {
		img, _, err := image.Decode(bytes.NewReader(b))
		if err != nil {
			done <- decodeResult{err: fmt.Errorf("%w: %v", ErrOracleDecode, err)}
			return
		}
		bounds := img.Bounds()
		done <- decodeResult{dims: pngsize.Dimensions{
			Width:  uint32(bounds.Dx()),
			Height: uint32(bounds.Dy()),
		}}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			s.logger.Debug("Error loading image", "file", res.Name(), "error", r.err)
		}
		return r.dims, r.err
	case <-ctx.Done():
		s.logger.Warn("Image decode did not finish", "file", res.Name(), "timeout", s.timeout)
		return pngsize.Dimensions{}, fmt.Errorf("%w: %w", ErrOracleTimeout, ctx.Err())
	}
}
