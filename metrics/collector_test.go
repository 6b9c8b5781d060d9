package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pngsize-benchmark/benchmark"
)

func sampleRow() benchmark.Row {
	return benchmark.Row{
		StrategyName:         "chunk-walk",
		FileCount:            6,
		Hits:                 4,
		Errors:               2,
		TotalDuration:        30 * time.Millisecond,
		TotalDurationMs:      30,
		AvgDurationMs:        5,
		HitRatePercent:       200.0 / 3,
		BaselineChecked:      6,
		BaselineMatches:      6,
		BaselineMatchPercent: 100,
	}
}

func TestRecordRow(t *testing.T) {
	c, err := NewCollector("")
	require.NoError(t, err)

	c.RecordRow(sampleRow())

	assert.Equal(t, float64(6), testutil.ToFloat64(c.invocations.WithLabelValues("chunk-walk")))
	assert.Equal(t, float64(4), testutil.ToFloat64(c.hits.WithLabelValues("chunk-walk")))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.errors.WithLabelValues("chunk-walk")))
	assert.InDelta(t, 0.03, testutil.ToFloat64(c.duration.WithLabelValues("chunk-walk")), 1e-9)
	assert.InDelta(t, 0.005, testutil.ToFloat64(c.avgDuration.WithLabelValues("chunk-walk")), 1e-9)
	assert.InDelta(t, 0.6667, testutil.ToFloat64(c.hitRate.WithLabelValues("chunk-walk")), 1e-4)
	assert.Equal(t, float64(1), testutil.ToFloat64(c.baselineMatch.WithLabelValues("chunk-walk")))
	assert.Equal(t, float64(0), testutil.ToFloat64(c.emptyDirectory.WithLabelValues("chunk-walk")))
}

func TestRecordRowNoFiles(t *testing.T) {
	c, err := NewCollector("test")
	require.NoError(t, err)

	c.RecordRow(benchmark.Row{StrategyName: "fixed-offset", NoFiles: true})
	assert.Equal(t, float64(1), testutil.ToFloat64(c.emptyDirectory.WithLabelValues("fixed-offset")))
	assert.Equal(t, 0, testutil.CollectAndCount(c.hitRate))
}

func TestWriteTextfile(t *testing.T) {
	c, err := NewCollector("")
	require.NoError(t, err)
	c.RecordRow(sampleRow())

	path := filepath.Join(t.TempDir(), "pngbench.prom")
	require.NoError(t, c.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `pngbench_hits_total{strategy="chunk-walk"} 4`)
}

func TestPush(t *testing.T) {
	var body string
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewCollector("")
	require.NoError(t, err)
	c.RecordRow(sampleRow())

	require.NoError(t, c.Push(context.Background(), srv.URL, "pngbench"))
	assert.True(t, strings.HasPrefix(path, "/metrics/job/pngbench"), path)
	assert.NotEmpty(t, body)
}
