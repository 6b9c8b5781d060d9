// Package baseline caches the decode-oracle's answer per file so each file
// is fully decoded at most once per run.
package baseline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/ristretto"

	"pngsize-benchmark/pngsize"
	"pngsize-benchmark/resource"
)

// Detector is the reference strategy.
type Detector interface {
	Detect(ctx context.Context, res resource.Resource) (pngsize.Dimensions, error)
}

// Cache implements benchmark.Baseline.
type Cache struct {
	cache  *ristretto.Cache
	oracle Detector
	logger *slog.Logger
}

func New(oracle Detector, maxEntries int64, logger *slog.Logger) (*Cache, error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("baseline cache needs a positive entry limit, got %d", maxEntries)
	}
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{cache: cache, oracle: oracle, logger: logger}, nil
}

// Lookup returns the oracle's dimensions for entry. Files the oracle cannot
// decode yield zero dimensions. ok is false only when the file could not be
// opened.
func (c *Cache) Lookup(ctx context.Context, entry resource.Entry) (pngsize.Dimensions, bool) {
	key := entry.Name()
	if v, found := c.cache.Get(key); found {
		return v.(pngsize.Dimensions), true
	}

	res, err := entry.Open(ctx)
	if err != nil {
		c.logger.Debug("Baseline unavailable", "file", key, "error", err)
		return pngsize.Dimensions{}, false
	}
	defer res.Close()

	dims, err := c.oracle.Detect(ctx, res)
	if err != nil {
		dims = pngsize.Dimensions{}
	}
	c.cache.Set(key, dims, 1)
	// Make the value visible to the next Get.
	c.cache.Wait()
	return dims, true
}

func (c *Cache) Close() {
	c.cache.Close()
}
