package benchmark

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pngsize-benchmark/resource"
)

func TestKindNames(t *testing.T) {
	kinds := Kinds()
	require.Len(t, kinds, NumKinds)
	seen := map[string]bool{}
	for i, k := range kinds {
		assert.Equal(t, Kind(i), k)
		assert.NotContains(t, k.String(), "Kind(")
		assert.False(t, seen[k.String()], "duplicate name %s", k)
		seen[k.String()] = true
	}
	assert.Equal(t, "chunk-walk", KindChunkWalk.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
}

func TestRowFinish(t *testing.T) {
	row := Row{FileCount: 6, Hits: 4}
	row.finish(12 * time.Millisecond)

	assert.InDelta(t, 12.0, row.TotalDurationMs, 1e-9)
	assert.InDelta(t, 2.0, row.AvgDurationMs, 1e-9)
	assert.InDelta(t, 66.67, row.HitRatePercent, 0.01)
	assert.False(t, row.NoFiles)
}

func TestRowFinishNoFiles(t *testing.T) {
	row := Row{}
	row.finish(time.Millisecond)

	assert.True(t, row.NoFiles)
	assert.Zero(t, row.AvgDurationMs)
	assert.Zero(t, row.HitRatePercent)
}

func TestRunConfigurationValidate(t *testing.T) {
	dir := resource.NewMemoryDirectory("d")
	tests := []struct {
		name  string
		cfg   RunConfiguration
		field string
	}{
		{"no directory", RunConfiguration{RepeatCount: 1, End: 7}, "directory"},
		{"zero runs", RunConfiguration{Directory: dir, RepeatCount: 0, End: 7}, "runs"},
		{"negative runs", RunConfiguration{Directory: dir, RepeatCount: -2, End: 7}, "runs"},
		{"empty range", RunConfiguration{Directory: dir, RepeatCount: 1, Start: 3, End: 3}, "strategies"},
		{"range past end", RunConfiguration{Directory: dir, RepeatCount: 1, Start: 0, End: 8}, "strategies"},
		{"negative start", RunConfiguration{Directory: dir, RepeatCount: 1, Start: -1, End: 2}, "strategies"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfgErr *ConfigError
			require.True(t, errors.As(tt.cfg.Validate(NumKinds), &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}

	assert.NoError(t, RunConfiguration{Directory: dir, RepeatCount: 1, Start: 4, End: 5}.Validate(NumKinds))
}

func TestParseRepeatCount(t *testing.T) {
	n, err := ParseRepeatCount(" 3 ")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, in := range []string{"", "abc", "0", "-1", "1.5"} {
		_, err := ParseRepeatCount(in)
		var cfgErr *ConfigError
		assert.True(t, errors.As(err, &cfgErr), in)
	}
}
