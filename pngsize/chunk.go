package pngsize

import (
	"context"
	"fmt"
)

// ChunkType is the 4-byte tag that names a chunk.
type ChunkType [4]byte

// IHDR is the image header chunk carrying width and height.
var IHDR = ChunkType{'I', 'H', 'D', 'R'}

func (t ChunkType) String() string {
	return string(t[:])
}

// Source is random access to a byte stream of known length. Reads past the
// end return fewer bytes than requested rather than an error.
type Source interface {
	Size() int64
	ReadRange(ctx context.Context, start, end int64) ([]byte, error)
}

// Bytes is a Source over a buffer that is already in memory.
type Bytes []byte

func (b Bytes) Size() int64 {
	return int64(len(b))
}

func (b Bytes) ReadRange(_ context.Context, start, end int64) ([]byte, error) {
	size := int64(len(b))
	if start < 0 {
		start = 0
	}
	if end > size {
		end = size
	}
	if start > end {
		start = end
	}
	return b[start:end], nil
}

// Chunk is a chunk header located at Offset.
type Chunk struct {
	Offset int64
	Length uint32
	Type   ChunkType
}

// DataOffset is the position of the first data byte.
func (c Chunk) DataOffset() int64 {
	return c.Offset + ChunkHeaderLen
}

// Next is the offset of the chunk that follows: header, data and CRC.
func (c Chunk) Next() int64 {
	return c.Offset + ChunkHeaderLen + int64(c.Length) + ChunkCRCLen
}

// Walk visits chunk headers in order, starting right after the signature,
// until fn returns false or the offset reaches the end of src. Only the
// 8-byte header of each chunk is read. A header cut short by the end of the
// stream ends the walk.
func Walk(ctx context.Context, src Source, fn func(Chunk) bool) error {
	size := src.Size()
	for off := int64(SignatureLen); off < size; {
		hdr, err := src.ReadRange(ctx, off, off+ChunkHeaderLen)
		if err != nil {
			return fmt.Errorf("reading chunk header at %d: %w", off, err)
		}
		if len(hdr) < ChunkHeaderLen {
			return nil
		}
		c := Chunk{Offset: off, Length: DecodeUint32(hdr, 0)}
		copy(c.Type[:], hdr[4:8])
		if !fn(c) {
			return nil
		}
		off = c.Next()
	}
	return nil
}

// FindChunk returns the data of the first chunk of type typ. It does not
// check the signature. ErrChunkNotFound is returned when the walk runs off
// the end of src.
func FindChunk(ctx context.Context, src Source, typ ChunkType) ([]byte, error) {
	var (
		found Chunk
		ok    bool
	)
	err := Walk(ctx, src, func(c Chunk) bool {
		if c.Type == typ {
			found, ok = c, true
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrChunkNotFound, typ)
	}
	return src.ReadRange(ctx, found.DataOffset(), found.DataOffset()+int64(found.Length))
}
