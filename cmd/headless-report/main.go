package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/Garsondee/Rat-Sense/internal/config"
	"github.com/Garsondee/Rat-Sense/internal/game"
	"github.com/Garsondee/Rat-Sense/internal/report"
	"github.com/Garsondee/Rat-Sense/internal/store"
)

// batchOptions are the command-line flags.
type batchOptions struct {
	runs        int
	maxTicks    int
	seedBase    int64
	seedStep    int64
	configPath  string
	policy      string
	dimension   int
	mobile      bool
	dbPath      string
	notes       string
	plotDir     string
	metricsFile string
	verbose     bool
}

var errBadFlag = errors.New("invalid flag")

// timeoutTail is how many ticks of a timed-out run's log --verbose prints.
const timeoutTail = 10

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts batchOptions
	cmd := &cobra.Command{
		Use:   "headless-report",
		Short: "Run seeded localize-and-track games and report aggregate results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			cfg, maxTicks, err := resolveConfig(opts, cmd.Flags().Changed)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("seed-base") {
				opts.seedBase = cfg.Seed
			}
			_, err = runBatch(cmd.Context(), opts, cfg, maxTicks, cmd.OutOrStdout(), log)
			return err
		},
		SilenceUsage: true,
	}

	f := cmd.Flags()
	f.IntVar(&opts.runs, "runs", 8, "number of runs")
	f.IntVar(&opts.maxTicks, "max-ticks", config.DefaultMaxTicks, "tick cap per run")
	f.Int64Var(&opts.seedBase, "seed-base", config.DefaultSeed, "seed of the first run")
	f.Int64Var(&opts.seedStep, "seed-step", 1, "seed increment between runs")
	f.StringVar(&opts.configPath, "config", "", "tuning config file (.json, .yaml)")
	f.StringVar(&opts.policy, "policy", "", "override the movement policy (greedy, value-iteration)")
	f.IntVar(&opts.dimension, "dimension", 0, "override the ship dimension")
	f.BoolVar(&opts.mobile, "mobile", false, "let the target wander")
	f.StringVar(&opts.dbPath, "db", "", "record runs into this SQLite file")
	f.StringVar(&opts.notes, "notes", "", "free-form note stored with the batch")
	f.StringVar(&opts.plotDir, "plot-dir", "", "write a belief trace PNG per run into this directory")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus textfile metrics here")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	return cmd
}

// resolveConfig layers flags over the tuning file over defaults.
func resolveConfig(opts batchOptions, changed func(string) bool) (game.Config, int, error) {
	if opts.runs <= 0 {
		return game.Config{}, 0, fmt.Errorf("%w: --runs must be > 0", errBadFlag)
	}
	if opts.seedStep == 0 && opts.runs > 1 {
		return game.Config{}, 0, fmt.Errorf("%w: --seed-step must be non-zero for multiple runs", errBadFlag)
	}

	tuning := config.DefaultTuningConfig()
	if opts.configPath != "" {
		var err error
		tuning, err = config.LoadTuningConfig(opts.configPath)
		if err != nil {
			return game.Config{}, 0, err
		}
	}
	cfg := game.ConfigFromTuning(tuning)
	maxTicks := tuning.GetMaxTicks()

	if changed("max-ticks") {
		maxTicks = opts.maxTicks
	}
	if opts.policy != "" {
		cfg.Policy = opts.policy
	}
	if opts.dimension > 0 {
		cfg.Dimension = opts.dimension
	}
	if changed("mobile") {
		cfg.MobileTarget = opts.mobile
	}
	if maxTicks <= 0 {
		return game.Config{}, 0, fmt.Errorf("%w: --max-ticks must be > 0", errBadFlag)
	}
	if err := cfg.Validate(); err != nil {
		return game.Config{}, 0, err
	}
	return cfg, maxTicks, nil
}

// runBatch plays opts.runs games and writes the per-run and aggregate report
// to out, plus any requested store, plot and metrics outputs.
func runBatch(ctx context.Context, opts batchOptions, cfg game.Config, maxTicks int, out io.Writer, log *slog.Logger) ([]report.RunStats, error) {
	var (
		db      *store.RunStore
		batchID string
		err     error
	)
	if opts.dbPath != "" {
		db, err = store.Open(opts.dbPath, log)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		batchID, err = db.StartBatch(ctx, cfg, opts.notes)
		if err != nil {
			return nil, err
		}
	}
	metrics := report.NewMetrics()

	fmt.Fprintf(out, "=== Headless Belief Report ===\n")
	fmt.Fprintf(out, "policy=%s dimension=%d alpha=%.3f runs=%d max_ticks=%d seed_base=%d seed_step=%d mobile=%t\n\n",
		cfg.Policy, cfg.Dimension, cfg.Alpha, opts.runs, maxTicks, opts.seedBase, opts.seedStep, cfg.MobileTarget)

	all := make([]report.RunStats, 0, opts.runs)
	for i := 0; i < opts.runs; i++ {
		seed := opts.seedBase + int64(i)*opts.seedStep
		runCfg := cfg
		runCfg.Seed = seed

		e, err := game.New(nil, runCfg, game.WithLogger(log.With("run", i, "seed", seed)))
		if err != nil {
			return all, err
		}
		rs, err := report.Collect(ctx, e, i, seed, maxTicks, metrics)
		if err != nil {
			return all, err
		}
		all = append(all, rs)
		report.WriteRun(out, rs)
		if opts.verbose && rs.Outcome == report.OutcomeTimeout {
			fmt.Fprintf(out, "last %d ticks:\n%s\n", timeoutTail, e.SimLog().FormatRange(rs.Ticks-timeoutTail, rs.Ticks-1))
		}

		if db != nil {
			if err := db.RecordRun(ctx, batchID, rs); err != nil {
				return all, err
			}
		}
		if opts.plotDir != "" {
			path, err := report.PlotBeliefTrace(rs, opts.plotDir)
			if err != nil {
				return all, err
			}
			log.Debug("plot written", "path", path)
		}
	}

	report.WriteSummary(out, report.Aggregate(all))
	if batchID != "" {
		fmt.Fprintf(out, "batch=%s db=%s\n", batchID, opts.dbPath)
	}
	if opts.metricsFile != "" {
		if err := metrics.WriteTextfile(opts.metricsFile); err != nil {
			return all, err
		}
		log.Info("metrics written", "path", opts.metricsFile)
	}
	return all, nil
}
