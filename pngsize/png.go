// Package pngsize reads PNG image dimensions out of the IHDR chunk without
// decoding pixel data.
package pngsize

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Signature is the fixed 8-byte prefix of every PNG stream.
var Signature = [8]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

const (
	SignatureLen   = 8
	ChunkHeaderLen = 8 // 4-byte length + 4-byte type
	ChunkCRCLen    = 4

	// IHDRDataOffset is where IHDR data begins when IHDR is the first chunk.
	IHDRDataOffset = SignatureLen + ChunkHeaderLen
	// FixedHeaderLen covers the signature, the first chunk header and the
	// width and height fields of IHDR.
	FixedHeaderLen = IHDRDataOffset + 8
)

var (
	ErrFormatMismatch = errors.New("not a PNG file")
	ErrChunkNotFound  = errors.New("chunk not found")
)

// Dimensions is a pixel width and height as stored in IHDR.
type Dimensions struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// Hit reports whether both sides are non-zero.
func (d Dimensions) Hit() bool {
	return d.Width != 0 && d.Height != 0
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// DecodeUint32 reads the big-endian uint32 at b[off:off+4]. Bytes that fall
// outside b read as zero, so a short buffer decodes deterministically instead
// of panicking.
func DecodeUint32(b []byte, off int) uint32 {
	if off >= 0 && off+4 <= len(b) {
		return binary.BigEndian.Uint32(b[off:])
	}
	var tmp [4]byte
	if off >= 0 && off < len(b) {
		copy(tmp[:], b[off:])
	}
	return binary.BigEndian.Uint32(tmp[:])
}

// IsPNG reports whether b starts with the PNG signature.
func IsPNG(b []byte) bool {
	return len(b) >= SignatureLen && bytes.Equal(b[:SignatureLen], Signature[:])
}

// FromIHDR extracts the dimensions from IHDR chunk data.
func FromIHDR(data []byte) Dimensions {
	return Dimensions{
		Width:  DecodeUint32(data, 0),
		Height: DecodeUint32(data, 4),
	}
}

// FromFixedOffset assumes IHDR is the first chunk and reads the dimensions
// straight out of a buffer that starts at the beginning of the file.
func FromFixedOffset(b []byte) Dimensions {
	return Dimensions{
		Width:  DecodeUint32(b, IHDRDataOffset),
		Height: DecodeUint32(b, IHDRDataOffset+4),
	}
}
