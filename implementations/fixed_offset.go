package implementations

import (
	"context"

	"pngsize-benchmark/benchmark"
	"pngsize-benchmark/pngsize"
	"pngsize-benchmark/resource"
)

// PNGContentType is the type label the content-type check accepts.
const PNGContentType = "image/png"

// FixedOffsetStrategy reads only the first 24 bytes and assumes IHDR is the
// first chunk.
type FixedOffsetStrategy struct{}

func NewFixedOffsetStrategy() benchmark.SizeStrategy {
	return &FixedOffsetStrategy{}
}

func (s *FixedOffsetStrategy) Name() string {
	return benchmark.KindFixedOffset.String()
}

func (s *FixedOffsetStrategy) Detect(ctx context.Context, res resource.Resource) (pngsize.Dimensions, error) {
	b, err := res.ReadRange(ctx, 0, pngsize.FixedHeaderLen)
	if err != nil {
		return pngsize.Dimensions{}, err
	}
	if !pngsize.IsPNG(b) {
		return pngsize.Dimensions{}, pngsize.ErrFormatMismatch
	}
	return pngsize.FromFixedOffset(b), nil
}

// CheckMode is how a read-all fixed-offset strategy decides the file is a PNG.
type CheckMode int

const (
	CheckSignature CheckMode = iota
	// CheckNone decodes whatever sits at the fixed offset.
	CheckNone
	// CheckContentType trusts the storage's type label.
	CheckContentType
)

// ReadAllFixedOffsetStrategy loads the whole file, then reads the dimensions
// at the fixed IHDR offset.
type ReadAllFixedOffsetStrategy struct {
	check CheckMode
}

func NewReadAllFixedOffsetStrategy(check CheckMode) benchmark.SizeStrategy {
	return &ReadAllFixedOffsetStrategy{check: check}
}

func (s *ReadAllFixedOffsetStrategy) Name() string {
	switch s.check {
	case CheckNone:
		return benchmark.KindReadAllNoSignature.String()
	case CheckContentType:
		return benchmark.KindReadAllContentType.String()
	}
	return benchmark.KindReadAllFixedOffset.String()
}

func (s *ReadAllFixedOffsetStrategy) Detect(ctx context.Context, res resource.Resource) (pngsize.Dimensions, error) {
	b, err := resource.ReadAll(ctx, res)
	if err != nil {
		return pngsize.Dimensions{}, err
	}

	switch s.check {
	case CheckSignature:
		if !pngsize.IsPNG(b) {
			return pngsize.Dimensions{}, pngsize.ErrFormatMismatch
		}
	case CheckContentType:
		if res.ContentType() != PNGContentType {
			return pngsize.Dimensions{}, pngsize.ErrFormatMismatch
		}
	}
	return pngsize.FromFixedOffset(b), nil
}
