package implementations

import (
	"context"
	"errors"
	"log/slog"

	"pngsize-benchmark/benchmark"
	"pngsize-benchmark/pngsize"
	"pngsize-benchmark/resource"
)

// ChunkWalkStrategy checks the signature and then follows chunk lengths
// until it reaches IHDR. With readAll unset, every chunk header is a
// separate read and nothing past IHDR is touched.
type ChunkWalkStrategy struct {
	readAll bool
	logger  *slog.Logger
}

func NewChunkWalkStrategy(readAll bool, logger *slog.Logger) benchmark.SizeStrategy {
	return &ChunkWalkStrategy{readAll: readAll, logger: logger}
}

func (s *ChunkWalkStrategy) Name() string {
	if s.readAll {
		return benchmark.KindReadAllChunkWalk.String()
	}
	return benchmark.KindChunkWalk.String()
}

func (s *ChunkWalkStrategy) Detect(ctx context.Context, res resource.Resource) (pngsize.Dimensions, error) {
	var (
		src pngsize.Source = res
		sig []byte
		err error
	)
	if s.readAll {
		sig, err = resource.ReadAll(ctx, res)
		src = pngsize.Bytes(sig)
	} else {
		sig, err = res.ReadRange(ctx, 0, pngsize.SignatureLen)
	}
	if err != nil {
		return pngsize.Dimensions{}, err
	}
	if !pngsize.IsPNG(sig) {
		return pngsize.Dimensions{}, pngsize.ErrFormatMismatch
	}

	data, err := pngsize.FindChunk(ctx, src, pngsize.IHDR)
	if errors.Is(err, pngsize.ErrChunkNotFound) {
		s.logger.Debug("Could not find IHDR chunk", "file", res.Name(), "strategy", s.Name())
	}
	if err != nil {
		return pngsize.Dimensions{}, err
	}
	return pngsize.FromIHDR(data), nil
}
