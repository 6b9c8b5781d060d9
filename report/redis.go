package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	"pngsize-benchmark/benchmark"
)

// RedisReporter stores every row as a hash under
// <prefix>:<run id>:<strategy> and publishes it as JSON on a channel.
type RedisReporter struct {
	client    rueidis.Client
	keyPrefix string
	channel   string
	runID     string
	logger    *slog.Logger
}

type RedisOptions struct {
	Address   string
	KeyPrefix string
	Channel   string
	// RunID defaults to the current Unix time.
	RunID string
}

func NewRedisReporter(opts RedisOptions, logger *slog.Logger) (*RedisReporter, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{InitAddress: []string{opts.Address}})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Address, err)
	}
	if opts.RunID == "" {
		opts.RunID = strconv.FormatInt(time.Now().Unix(), 10)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisReporter{
		client:    client,
		keyPrefix: opts.KeyPrefix,
		channel:   opts.Channel,
		runID:     opts.RunID,
		logger:    logger,
	}, nil
}

func (r *RedisReporter) Report(ctx context.Context, rows []benchmark.Row) error {
	cmds := make(rueidis.Commands, 0, 2*len(rows))
	for _, row := range rows {
		hset := r.client.B().Hset().Key(rowKey(r.keyPrefix, r.runID, row.StrategyName)).FieldValue()
		for _, f := range rowFields(row) {
			hset = hset.FieldValue(f[0], f[1])
		}
		cmds = append(cmds, hset.Build())

		if r.channel != "" {
			msg, err := json.Marshal(row)
			if err != nil {
				return err
			}
			cmds = append(cmds, r.client.B().Publish().Channel(r.channel).Message(string(msg)).Build())
		}
	}

	for _, resp := range r.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return fmt.Errorf("failed to store results in redis: %w", err)
		}
	}
	r.logger.Info("Stored results in redis", "rows", len(rows), "run", r.runID)
	return nil
}

func (r *RedisReporter) Close() {
	r.client.Close()
}

func rowKey(prefix, runID, strategy string) string {
	return fmt.Sprintf("%s:%s:%s", prefix, runID, strategy)
}

func rowFields(row benchmark.Row) [][2]string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }
	u := func(v uint64) string { return strconv.FormatUint(v, 10) }
	fields := [][2]string{
		{"strategyName", row.StrategyName},
		{"fileCount", u(row.FileCount)},
		{"hits", u(row.Hits)},
		{"errors", u(row.Errors)},
		{"totalDurationMs", f(row.TotalDurationMs)},
		{"noFiles", strconv.FormatBool(row.NoFiles)},
	}
	if !row.NoFiles {
		fields = append(fields,
			[2]string{"avgDurationMs", f(row.AvgDurationMs)},
			[2]string{"hitRatePercent", f(row.HitRatePercent)})
	}
	if row.BaselineChecked > 0 {
		fields = append(fields, [2]string{"baselineMatchPercent", f(row.BaselineMatchPercent)})
	}
	return fields
}
