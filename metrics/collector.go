// Package metrics exports benchmark rows as Prometheus metrics, either to a
// node_exporter text file or to a Pushgateway.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"pngsize-benchmark/benchmark"
)

const DefaultNamespace = "pngbench"

// Collector implements benchmark.Recorder.
type Collector struct {
	registry *prometheus.Registry

	invocations    *prometheus.CounterVec
	hits           *prometheus.CounterVec
	errors         *prometheus.CounterVec
	duration       *prometheus.GaugeVec
	avgDuration    *prometheus.GaugeVec
	hitRate        *prometheus.GaugeVec
	baselineMatch  *prometheus.GaugeVec
	emptyDirectory *prometheus.GaugeVec
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) (*Collector, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	labels := []string{"strategy"}
	c := &Collector{
		registry: prometheus.NewRegistry(),
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Strategy invocations, one per file per repetition.",
		}, labels),
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hits_total",
			Help:      "Invocations that returned non-zero width and height.",
		}, labels),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Invocations that ended in an error.",
		}, labels),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock time of the last run of a strategy.",
		}, labels),
		avgDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "file_duration_seconds",
			Help:      "Average time per file in the last run.",
		}, labels),
		hitRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hit_ratio",
			Help:      "Hits divided by invocations in the last run.",
		}, labels),
		baselineMatch: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "baseline_match_ratio",
			Help:      "Share of invocations agreeing with the decode oracle.",
		}, labels),
		emptyDirectory: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "no_files",
			Help:      "1 when the last run found no files.",
		}, labels),
	}

	for _, col := range []prometheus.Collector{
		c.invocations, c.hits, c.errors, c.duration,
		c.avgDuration, c.hitRate, c.baselineMatch, c.emptyDirectory,
	} {
		if err := c.registry.Register(col); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return c, nil
}

func (c *Collector) RecordRow(row benchmark.Row) {
	s := row.StrategyName
	c.invocations.WithLabelValues(s).Add(float64(row.FileCount))
	c.hits.WithLabelValues(s).Add(float64(row.Hits))
	c.errors.WithLabelValues(s).Add(float64(row.Errors))
	c.duration.WithLabelValues(s).Set(row.TotalDuration.Seconds())

	if row.NoFiles {
		c.emptyDirectory.WithLabelValues(s).Set(1)
		return
	}
	c.emptyDirectory.WithLabelValues(s).Set(0)
	c.avgDuration.WithLabelValues(s).Set(row.AvgDurationMs / 1000)
	c.hitRate.WithLabelValues(s).Set(row.HitRatePercent / 100)
	if row.BaselineChecked > 0 {
		c.baselineMatch.WithLabelValues(s).Set(row.BaselineMatchPercent / 100)
	}
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes the metrics in the text exposition format.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

// Push sends the metrics to a Pushgateway under the given job name.
func (c *Collector) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(c.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}
