package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"pngsize-benchmark/baseline"
	"pngsize-benchmark/benchmark"
	"pngsize-benchmark/config"
	"pngsize-benchmark/implementations"
	"pngsize-benchmark/metrics"
	"pngsize-benchmark/report"
	"pngsize-benchmark/resource"
	"pngsize-benchmark/workload"
)

const (
	exitError       = 1
	exitConfigError = 2
)

func main() {
	root := &cobra.Command{
		Use:           "pngbench",
		Short:         "Benchmark strategies for reading PNG dimensions without decoding",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newGenerateCmd(), newStrategiesCmd())

	if err := root.Execute(); err != nil {
		var cfgErr *benchmark.ConfigError
		if errors.As(err, &cfgErr) {
			fmt.Fprintln(os.Stderr, cfgErr)
			os.Exit(exitConfigError)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
}

type runFlags struct {
	configFile    string
	directory     string
	runs          string
	from          int
	to            int
	source        string
	s3Bucket      string
	s3Prefix      string
	s3Endpoint    string
	output        string
	redisAddress  string
	textfile      string
	pushgateway   string
	baseline      bool
	oracleTimeout time.Duration
	logLevel      string
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run [directory]",
		Short: "Run the selected strategies over every file in a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := cmd.Flags().Set("dir", args[0]); err != nil {
					return err
				}
			}
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return runBenchmark(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.configFile, "config", "", "YAML configuration file")
	flags.StringVar(&f.directory, "dir", "", "directory (or S3 prefix) holding the files")
	flags.StringVarP(&f.runs, "runs", "n", "1", "how many times every file is processed per strategy")
	flags.IntVar(&f.from, "from", 0, "index of the first strategy to run")
	flags.IntVar(&f.to, "to", benchmark.NumKinds, "index one past the last strategy to run")
	flags.StringVar(&f.source, "source", config.SourceLocal, "where files come from: local or s3")
	flags.StringVar(&f.s3Bucket, "s3-bucket", "", "S3 bucket")
	flags.StringVar(&f.s3Prefix, "s3-prefix", "", "S3 key prefix")
	flags.StringVar(&f.s3Endpoint, "s3-endpoint", "", "custom S3 endpoint")
	flags.StringVarP(&f.output, "output", "o", config.OutputTable, "result format: table or json")
	flags.StringVar(&f.redisAddress, "redis", "", "also store results in redis at this address")
	flags.StringVar(&f.textfile, "metrics-textfile", "", "write Prometheus metrics to this file")
	flags.StringVar(&f.pushgateway, "pushgateway", "", "push Prometheus metrics to this Pushgateway")
	flags.BoolVar(&f.baseline, "baseline", false, "compare every strategy against the decode oracle")
	flags.DurationVar(&f.oracleTimeout, "oracle-timeout", implementations.DefaultOracleTimeout, "limit for one decode-oracle call")
	flags.StringVar(&f.logLevel, "log-level", "INFO", "debug, info, warn or error")
	return cmd
}

// loadConfig layers defaults, the config file, the environment and the
// flags that were set explicitly.
func loadConfig(cmd *cobra.Command, f runFlags) (*config.Config, error) {
	cfg := config.NewDefault()
	if f.configFile != "" {
		if err := cfg.LoadFromFile(f.configFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("dir") {
		cfg.Directory = f.directory
	}
	if changed("runs") {
		runs, err := benchmark.ParseRepeatCount(f.runs)
		if err != nil {
			return nil, err
		}
		cfg.Runs = runs
	}
	if changed("from") {
		cfg.Strategies.Start = f.from
	}
	if changed("to") {
		cfg.Strategies.End = f.to
	}
	if changed("source") {
		cfg.Source = f.source
	}
	if changed("s3-bucket") {
		cfg.S3.Bucket = f.s3Bucket
	}
	if changed("s3-prefix") {
		cfg.S3.Prefix = f.s3Prefix
	}
	if changed("s3-endpoint") {
		cfg.S3.Endpoint = f.s3Endpoint
		cfg.S3.ForcePathStyle = true
	}
	if changed("output") {
		cfg.Output = f.output
	}
	if changed("redis") {
		cfg.Redis.Address = f.redisAddress
	}
	if changed("metrics-textfile") {
		cfg.Metrics.Textfile = f.textfile
	}
	if changed("pushgateway") {
		cfg.Metrics.Pushgateway = f.pushgateway
	}
	if changed("baseline") {
		cfg.Baseline.Enabled = f.baseline
	}
	if changed("oracle-timeout") {
		cfg.OracleTimeout = f.oracleTimeout
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string) *slog.Logger {
	lvl, _ := config.ParseLogLevel(level)
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func openDirectory(ctx context.Context, cfg *config.Config, logger *slog.Logger) (resource.Directory, error) {
	switch cfg.Source {
	case config.SourceS3:
		client, err := resource.NewS3Client(ctx, resource.S3Options{
			Region:         cfg.S3.Region,
			Endpoint:       cfg.S3.Endpoint,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			return nil, err
		}
		prefix := cfg.S3.Prefix
		if prefix == "" {
			prefix = cfg.Directory
		}
		dir, err := resource.NewS3Directory(client, cfg.S3.Bucket, prefix, logger)
		if err != nil {
			return nil, err
		}
		return dir, nil
	default:
		if cfg.Directory == "" {
			// The runner reports the missing directory.
			return nil, nil
		}
		dir, err := resource.NewLocalDirectory(cfg.Directory)
		if err != nil {
			return nil, &benchmark.ConfigError{Field: "directory", Reason: err.Error()}
		}
		return dir, nil
	}
}

func runBenchmark(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg.LogLevel)

	dir, err := openDirectory(ctx, cfg, logger)
	if err != nil {
		return err
	}

	implOpts := implementations.Options{Logger: logger, OracleTimeout: cfg.OracleTimeout}
	opts := []benchmark.Option{
		benchmark.WithLogger(logger),
		benchmark.WithProgress(newProgressPrinter(os.Stderr)),
	}

	if cfg.Baseline.Enabled {
		oracle := implementations.New(benchmark.KindDecodeOracle, implOpts)
		bl, err := baseline.New(oracle, cfg.Baseline.MaxEntries, logger)
		if err != nil {
			return err
		}
		defer bl.Close()
		opts = append(opts, benchmark.WithBaseline(bl))
	}

	var collector *metrics.Collector
	if cfg.Metrics.Textfile != "" || cfg.Metrics.Pushgateway != "" {
		collector, err = metrics.NewCollector(cfg.Metrics.Namespace)
		if err != nil {
			return err
		}
		opts = append(opts, benchmark.WithRecorder(collector))
	}

	runCfg := benchmark.RunConfiguration{
		Directory:   dir,
		RepeatCount: cfg.Runs,
		Start:       cfg.Strategies.Start,
		End:         cfg.Strategies.End,
	}
	rows, err := benchmark.NewRunner(runCfg, implementations.All(implOpts), opts...).Run(ctx)
	if err != nil {
		return err
	}

	reporters := report.Multi{}
	switch cfg.Output {
	case config.OutputJSON:
		reporters = append(reporters, report.NewJSONReporter(os.Stdout))
	default:
		reporters = append(reporters, report.NewTableReporter(os.Stdout))
	}
	if cfg.Redis.Address != "" {
		rr, err := report.NewRedisReporter(report.RedisOptions{
			Address:   cfg.Redis.Address,
			KeyPrefix: cfg.Redis.KeyPrefix,
			Channel:   cfg.Redis.Channel,
		}, logger)
		if err != nil {
			return err
		}
		defer rr.Close()
		reporters = append(reporters, rr)
	}
	if err := reporters.Report(ctx, rows); err != nil {
		return err
	}

	if collector != nil {
		if cfg.Metrics.Textfile != "" {
			if err := collector.WriteTextfile(cfg.Metrics.Textfile); err != nil {
				return err
			}
		}
		if cfg.Metrics.Pushgateway != "" {
			if err := collector.Push(ctx, cfg.Metrics.Pushgateway, cfg.Metrics.Job); err != nil {
				return err
			}
		}
	}
	return nil
}

func newGenerateCmd() *cobra.Command {
	cfg := workload.DefaultConfig()
	var (
		out     string
		uniform bool
	)
	cmd := &cobra.Command{
		Use:   "generate <directory>",
		Short: "Write a synthetic corpus of PNG and non-PNG files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out = args[0]
			generate := workload.Generate
			if uniform {
				generate = workload.GenerateUniform
			}
			samples, err := generate(cfg)
			if err != nil {
				return err
			}
			if err := workload.WriteDir(out, samples); err != nil {
				return err
			}

			counts := map[workload.SampleKind]int{}
			for _, s := range samples {
				counts[s.Kind]++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d files to %s (%d png, %d png with ancillary chunk first, %d not png)\n",
				len(samples), out, counts[workload.PlainPNG], counts[workload.AncillaryFirstPNG], counts[workload.NotPNG])
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&cfg.Count, "count", cfg.Count, "number of files")
	flags.IntVar(&cfg.MinSide, "min-side", cfg.MinSide, "smallest width/height")
	flags.IntVar(&cfg.MaxSide, "max-side", cfg.MaxSide, "largest width/height")
	flags.Float64Var(&cfg.AncillaryRatio, "ancillary-ratio", cfg.AncillaryRatio, "share of PNGs with a chunk before IHDR")
	flags.Float64Var(&cfg.NonPNGRatio, "non-png-ratio", cfg.NonPNGRatio, "share of files that are not PNGs")
	flags.Float64Var(&cfg.ZipfS, "zipf-s", cfg.ZipfS, "Zipf s parameter for side lengths")
	flags.Float64Var(&cfg.ZipfV, "zipf-v", cfg.ZipfV, "Zipf v parameter for side lengths")
	flags.Uint64Var(&cfg.Seed, "seed", 0, "random seed, 0 for time-based")
	flags.BoolVar(&uniform, "uniform", false, "uniformly distributed side lengths")
	return cmd
}

func newStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the strategies in run order",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "Index\tStrategy")
			for _, k := range benchmark.Kinds() {
				fmt.Fprintf(w, "%d\t%s\n", int(k), k)
			}
			w.Flush()
		},
	}
}
