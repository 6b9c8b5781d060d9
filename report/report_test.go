package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pngsize-benchmark/benchmark"
)

var sampleRows = []benchmark.Row{
	{
		StrategyName:    "chunk-walk",
		FileCount:       6,
		Hits:            4,
		Errors:          2,
		TotalDurationMs: 3,
		AvgDurationMs:   0.5,
		HitRatePercent:  66.666,
	},
	{StrategyName: "fixed-offset", NoFiles: true, TotalDurationMs: 0.01},
}

func TestTableReporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableReporter(&buf).Report(context.Background(), sampleRows))

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Hit Rate (%)")
	assert.NotContains(t, lines[0], "Baseline")
	assert.Contains(t, lines[1], "chunk-walk")
	assert.Contains(t, lines[1], "66.67")
	assert.Contains(t, lines[1], "0.5000")
	assert.Contains(t, lines[2], "no files")
	assert.NotContains(t, out, "NaN")
}

func TestTableReporterBaselineColumn(t *testing.T) {
	rows := []benchmark.Row{
		{StrategyName: "a", FileCount: 1, BaselineChecked: 1, BaselineMatches: 1, BaselineMatchPercent: 100},
		{StrategyName: "b", FileCount: 1},
	}
	var buf bytes.Buffer
	require.NoError(t, NewTableReporter(&buf).Report(context.Background(), rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Contains(t, lines[0], "Baseline Match (%)")
	assert.Contains(t, lines[1], "100.00")
	assert.Contains(t, lines[2], "-")
}

func TestJSONReporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONReporter(&buf).Report(context.Background(), sampleRows))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "chunk-walk", decoded[0]["strategyName"])
	assert.Equal(t, float64(6), decoded[0]["fileCount"])
	assert.Equal(t, true, decoded[1]["noFiles"])
	assert.NotContains(t, decoded[0], "baselineMatchPercent")

	buf.Reset()
	require.NoError(t, NewJSONReporter(&buf).Report(context.Background(), nil))
	assert.Equal(t, "[]\n", buf.String())
}

type failingReporter struct{ err error }

func (f failingReporter) Report(context.Context, []benchmark.Row) error { return f.err }

func TestMulti(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("boom")
	err := Multi{failingReporter{boom}, NewJSONReporter(&buf)}.Report(context.Background(), sampleRows)
	assert.ErrorIs(t, err, boom)
	assert.NotEmpty(t, buf.String(), "later reporters still run")

	assert.NoError(t, Multi{}.Report(context.Background(), nil))
}

func TestRowFields(t *testing.T) {
	fields := map[string]string{}
	for _, f := range rowFields(sampleRows[0]) {
		fields[f[0]] = f[1]
	}
	assert.Equal(t, "chunk-walk", fields["strategyName"])
	assert.Equal(t, "6", fields["fileCount"])
	assert.Equal(t, "66.6660", fields["hitRatePercent"])
	assert.Equal(t, "false", fields["noFiles"])
	assert.NotContains(t, fields, "baselineMatchPercent")

	noFiles := map[string]string{}
	for _, f := range rowFields(sampleRows[1]) {
		noFiles[f[0]] = f[1]
	}
	assert.Equal(t, "true", noFiles["noFiles"])
	assert.NotContains(t, noFiles, "hitRatePercent")
	assert.NotContains(t, noFiles, "avgDurationMs")
}

func TestRowKey(t *testing.T) {
	assert.Equal(t, "pngbench:1700000000:chunk-walk", rowKey("pngbench", "1700000000", "chunk-walk"))
}
