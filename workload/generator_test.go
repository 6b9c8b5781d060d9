package workload

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 40
	cfg.MaxSide = 64
	cfg.AncillaryRatio = 0.3
	cfg.NonPNGRatio = 0.2
	cfg.Seed = 42

	samples, err := Generate(cfg)
	require.NoError(t, err)
	require.Len(t, samples, 40)

	kinds := map[SampleKind]int{}
	for _, s := range samples {
		kinds[s.Kind]++
		if s.Kind == NotPNG {
			assert.Zero(t, s.Width)
			continue
		}
		assert.GreaterOrEqual(t, s.Width, cfg.MinSide)
		assert.LessOrEqual(t, s.Width, cfg.MaxSide)

		img, err := png.Decode(bytes.NewReader(s.Data))
		require.NoError(t, err, s.Name)
		assert.Equal(t, s.Width, img.Bounds().Dx())
		assert.Equal(t, s.Height, img.Bounds().Dy())
	}
	assert.Equal(t, 40, kinds[PlainPNG]+kinds[AncillaryFirstPNG]+kinds[NotPNG])

	again, err := Generate(cfg)
	require.NoError(t, err)
	assert.Equal(t, samples, again, "same seed, same corpus")
}

func TestGenerateUniform(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 10
	cfg.MinSide = 3
	cfg.MaxSide = 5
	cfg.NonPNGRatio = 0
	cfg.Seed = 7

	samples, err := GenerateUniform(cfg)
	require.NoError(t, err)
	for _, s := range samples {
		assert.NotEqual(t, NotPNG, s.Kind)
		assert.True(t, s.Width >= 3 && s.Width <= 5)
		assert.True(t, s.Height >= 3 && s.Height <= 5)
	}
}

func TestGenerateInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSide = 0
	_, err := Generate(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.AncillaryRatio, cfg.NonPNGRatio = 0.7, 0.5
	_, err = GenerateUniform(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.ZipfS = 1
	_, err = Generate(cfg)
	assert.Error(t, err)
}

func TestInsertBeforeIHDR(t *testing.T) {
	data, err := EncodePNG(12, 34)
	require.NoError(t, err)

	spliced := InsertBeforeIHDR(data, Chunk("tEXt", []byte("a\x00b")), Chunk("zzZz", nil))
	assert.Equal(t, data[:8], spliced[:8])
	assert.Equal(t, "tEXt", string(spliced[12:16]))
	assert.Len(t, spliced, len(data)+15+12)

	// the stdlib decoder verifies the CRCs and skips unknown chunks
	img, err := png.Decode(bytes.NewReader(spliced))
	require.NoError(t, err)
	assert.Equal(t, 12, img.Bounds().Dx())
	assert.Equal(t, 34, img.Bounds().Dy())
}

func TestWriteDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "corpus")
	samples := []Sample{
		{Name: "a.png", Data: []byte{1}},
		{Name: "b.png", Data: []byte{2, 3}},
	}
	require.NoError(t, WriteDir(dir, samples))

	b, err := os.ReadFile(filepath.Join(dir, "b.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3}, b)
}
