package workload

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	xrand "golang.org/x/exp/rand"
)

type SampleKind int

const (
	// PlainPNG has IHDR as its first chunk.
	PlainPNG SampleKind = iota
	// AncillaryFirstPNG has a tEXt chunk spliced in before IHDR.
	AncillaryFirstPNG
	// NotPNG is random bytes behind a .png name.
	NotPNG
)

func (k SampleKind) String() string {
	switch k {
	case PlainPNG:
		return "png"
	case AncillaryFirstPNG:
		return "png-ancillary-first"
	case NotPNG:
		return "not-png"
	}
	return fmt.Sprintf("SampleKind(%d)", int(k))
}

// Sample is one generated file. Width and Height are zero for NotPNG.
type Sample struct {
	Name   string
	Kind   SampleKind
	Width  int
	Height int
	Data   []byte
}

type Config struct {
	Count          int
	MinSide        int
	MaxSide        int
	AncillaryRatio float64
	NonPNGRatio    float64
	// ZipfS and ZipfV shape the side-length distribution, which is skewed
	// toward MinSide.
	ZipfS float64
	ZipfV float64
	// Seed 0 means time-based.
	Seed uint64
}

func DefaultConfig() Config {
	return Config{
		Count:          100,
		MinSide:        1,
		MaxSide:        1024,
		AncillaryRatio: 0.2,
		NonPNGRatio:    0.1,
		ZipfS:          1.01,
		ZipfV:          1,
	}
}

func (c Config) validate() error {
	if c.Count < 0 {
		return fmt.Errorf("count must not be negative")
	}
	if c.MinSide < 1 || c.MaxSide < c.MinSide {
		return fmt.Errorf("side range [%d, %d] is invalid", c.MinSide, c.MaxSide)
	}
	if c.AncillaryRatio < 0 || c.NonPNGRatio < 0 || c.AncillaryRatio+c.NonPNGRatio > 1 {
		return fmt.Errorf("ratios must be non-negative and sum to at most 1")
	}
	return nil
}

func (c Config) seed() uint64 {
	if c.Seed != 0 {
		return c.Seed
	}
	return uint64(time.Now().UnixNano())
}

// Generate generates a corpus whose side lengths follow a Zipf distribution.
func Generate(cfg Config) ([]Sample, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.ZipfS <= 1 || cfg.ZipfV < 1 {
		return nil, fmt.Errorf("zipf parameters need s > 1 and v >= 1")
	}

	// Source and generator for Zipf distribution from x/exp/rand
	zipfSource := xrand.NewSource(cfg.seed())
	zipfRng := xrand.New(zipfSource)
	zipf := xrand.NewZipf(zipfRng, cfg.ZipfS, cfg.ZipfV, uint64(cfg.MaxSide-cfg.MinSide))

	side := func() int { return cfg.MinSide + int(zipf.Uint64()) }
	return generate(cfg, side)
}

// GenerateUniform generates a corpus where every side length is equally likely.
func GenerateUniform(cfg Config) ([]Sample, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(int64(cfg.seed())))
	side := func() int { return cfg.MinSide + rng.Intn(cfg.MaxSide-cfg.MinSide+1) }
	return generate(cfg, side)
}

func generate(cfg Config, side func() int) ([]Sample, error) {
	// Generator for the kind ratios from math/rand
	ratioRng := rand.New(rand.NewSource(int64(cfg.seed()) + 1))

	samples := make([]Sample, cfg.Count)
	for i := range samples {
		s := Sample{Name: fmt.Sprintf("sample-%04d.png", i)}

		r := ratioRng.Float64()
		switch {
		case r < cfg.NonPNGRatio:
			s.Kind = NotPNG
			s.Data = make([]byte, 64+ratioRng.Intn(512))
			ratioRng.Read(s.Data)
			samples[i] = s
			continue
		case r < cfg.NonPNGRatio+cfg.AncillaryRatio:
			s.Kind = AncillaryFirstPNG
		default:
			s.Kind = PlainPNG
		}

		s.Width, s.Height = side(), side()
		data, err := EncodePNG(s.Width, s.Height)
		if err != nil {
			return nil, err
		}
		if s.Kind == AncillaryFirstPNG {
			data = InsertBeforeIHDR(data, Chunk("tEXt", []byte("Comment\x00generated")))
		}
		s.Data = data
		samples[i] = s
	}
	return samples, nil
}

// EncodePNG encodes a blank grayscale image of the given size.
func EncodePNG(width, height int) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, width, height))); err != nil {
		return nil, fmt.Errorf("failed to encode %dx%d png: %w", width, height, err)
	}
	return buf.Bytes(), nil
}

// Chunk serializes a chunk with a valid CRC.
func Chunk(typ string, data []byte) []byte {
	if len(typ) != 4 {
		panic("workload: chunk type must be 4 bytes")
	}
	b := make([]byte, 8, 12+len(data))
	binary.BigEndian.PutUint32(b, uint32(len(data)))
	copy(b[4:], typ)
	b = append(b, data...)

	crc := crc32.NewIEEE()
	crc.Write(b[4:])
	return binary.BigEndian.AppendUint32(b, crc.Sum32())
}

// InsertBeforeIHDR splices chunks in right after the signature.
func InsertBeforeIHDR(pngData []byte, chunks ...[]byte) []byte {
	out := make([]byte, 0, len(pngData)+64)
	out = append(out, pngData[:8]...)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return append(out, pngData[8:]...)
}

// WriteDir writes every sample into dir, creating it if needed.
func WriteDir(dir string, samples []Sample) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	for _, s := range samples {
		if err := os.WriteFile(filepath.Join(dir, s.Name), s.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", s.Name, err)
		}
	}
	return nil
}
