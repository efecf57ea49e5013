// Command nhldata-crawl fetches NHL box scores for a date range and writes per team CSVs to S3
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"nhldata/internal/core/version"
	"nhldata/internal/modkit"
	"nhldata/internal/platform/config"
	perr "nhldata/internal/platform/errors"
	"nhldata/internal/platform/logger"
	"nhldata/internal/platform/metrics"
	"nhldata/internal/platform/store"
	"nhldata/internal/services/crawl/domain"
	crawlmod "nhldata/internal/services/crawl/module"
	"nhldata/internal/services/crawl/sink"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and maps the result to an exit code
// mods reach the crawl module so tests can swap the object store
func run(ctx context.Context, args []string, stdout, stderr io.Writer, mods ...modkit.Option) (code int) {
	defer func() {
		if r := recover(); r != nil {
			logger.Get().Error().Interface("panic", r).Msg("crawl: panic")
			fmt.Fprintf(stderr, "nhldata-crawl: panic: %v\n", r)
			code = perr.ExitFault
		}
	}()

	cmd := newRootCmd(mods...)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "nhldata-crawl: %v\n", err)
	}
	return perr.ExitCode(err)
}

type flags struct {
	envFile     string
	concurrency int
	prefix      string
	collision   string
	runTimeout  time.Duration
	bucket      string
}

func newRootCmd(mods ...modkit.Option) *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "nhldata-crawl [flags] START END",
		Short: "Crawl NHL box scores into per team CSV objects",
		Long: `nhldata-crawl fetches the schedule for START..END (inclusive, YYYYMMDD),
downloads every game's box score and writes one CSV per team to
<prefix>/<gameDate>/<gameId>_<home|away>_team.csv in the configured bucket.

Per game failures are reported in the summary and do not change the exit code.`,
		Example: "  nhldata-crawl 20210113 20210120\n  nhldata-crawl --concurrency 16 --prefix raw 20210113 20210113",
		Version: version.Info().String(),
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(2)(cmd, args); err != nil {
				return perr.Wrap(err, perr.ErrorCodeInvalidArgument, "usage")
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return crawl(cmd, args, f, mods)
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return perr.Wrap(err, perr.ErrorCodeInvalidArgument, "usage")
	})

	fl := cmd.Flags()
	fl.StringVar(&f.envFile, "env-file", "", "dotenv file loaded before reading CRAWL_* (default .env when present)")
	fl.IntVar(&f.concurrency, "concurrency", 8, "games in flight (1..64), overrides CRAWL_CONCURRENCY")
	fl.StringVar(&f.prefix, "prefix", "", "object key prefix, overrides CRAWL_SINK_PREFIX")
	fl.StringVar(&f.collision, "collision", "overwrite", "existing key policy: overwrite or fail-on-exists")
	fl.DurationVar(&f.runTimeout, "run-timeout", 0, "deadline for the whole run, 0 means none")
	fl.StringVar(&f.bucket, "bucket", "", "destination bucket, overrides CRAWL_S3_BUCKET")
	return cmd
}

// applyFlags overlays explicitly set flags on env options
func applyFlags(cmd *cobra.Command, f flags, opts *crawlmod.Options) error {
	fl := cmd.Flags()
	if fl.Changed("concurrency") {
		if f.concurrency < 1 || f.concurrency > 64 {
			return perr.WithField(perr.InvalidArgf("--concurrency must be in 1..64, got %d", f.concurrency), "concurrency")
		}
		opts.Concurrency = f.concurrency
	}
	if fl.Changed("prefix") {
		opts.Prefix = f.prefix
	}
	if fl.Changed("collision") {
		p, err := sink.ParsePolicy(f.collision)
		if err != nil {
			return err
		}
		opts.Collision = string(p)
	}
	if fl.Changed("run-timeout") {
		if f.runTimeout < 0 {
			return perr.WithField(perr.InvalidArgf("--run-timeout must not be negative"), "run-timeout")
		}
		opts.RunTimeout = f.runTimeout
	}
	if fl.Changed("bucket") {
		opts.Bucket = f.bucket
	}
	return nil
}

// loadEnv fills unset variables from a dotenv file; set variables always win
// only an explicit --env-file must exist
func loadEnv(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return perr.Wrap(err, perr.ErrorCodeInvalidArgument, "load .env")
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return perr.WithField(perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "load env file %s", path), "env-file")
	}
	return nil
}

func crawl(cmd *cobra.Command, args []string, f flags, mods []modkit.Option) error {
	rng, err := domain.ParseDateRange(args[0], args[1])
	if err != nil {
		return err
	}
	if err := loadEnv(f.envFile); err != nil {
		return err
	}

	root := config.New()
	opts := crawlmod.FromConfig(root)
	if err := applyFlags(cmd, f, &opts); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := logger.Get()
	deps := modkit.Deps{Log: *l, Cfg: root, Metrics: metrics.New()}

	if opts.LedgerDSN != "" {
		pgCfg := root.Prefix("CRAWL_LEDGER_")
		st, err := store.Open(ctx, store.Config{
			AppName: "nhldata-crawl",
			PG: store.PGConfig{
				Enabled:     true,
				URL:         opts.LedgerDSN,
				MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
				SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
				LogSQL:      pgCfg.MayBool("LOG_SQL", false),
				IdleTime:    pgCfg.MayDuration("IDLE_TIME", time.Minute),
			},
		}, store.WithLogger(*l), store.WithComponent("crawl_ledger"))
		if err != nil {
			return err
		}
		defer func() {
			if err := st.Close(context.Background()); err != nil {
				l.Error().Err(err).Msg("failed to close store")
			}
		}()
		deps.PG = st.PG
	}

	m, err := crawlmod.New(ctx, deps, opts, mods...)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(context.Background()); err != nil {
			l.Warn().Err(err).Msg("crawl: module close failed")
		}
	}()

	sum, runErr := modkit.MustPort[domain.RunnerPort](m).RunRange(ctx, rng)
	printSummary(cmd.OutOrStdout(), sum)

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := deps.Metrics.Push(pctx, opts.MetricsPushURL, opts.MetricsJob); err != nil {
		l.Warn().Err(err).Msg("crawl: metrics push failed")
	}
	return runErr
}

// printSummary writes the run counts then a table of games that were not ok
func printSummary(w io.Writer, s domain.RunSummary) {
	fmt.Fprintf(w, "run %s %s: %s total=%d succeeded=%d partial=%d failed=%d elapsed=%s\n",
		s.RunID, s.Range, s.Status(), s.Total, s.Succeeded, s.Partial, s.Failed, s.Elapsed().Round(time.Millisecond))

	var rows [][]string
	for _, o := range s.Outcomes {
		if o.Status() == domain.StatusOK {
			continue
		}
		rows = append(rows, []string{
			strconv.FormatInt(o.GameID, 10), o.GameDate, string(o.Status()), string(o.Stage), o.ErrText(),
		})
	}
	if len(rows) == 0 {
		return
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders:  tw.BorderNone,
			Settings: tw.Settings{Separators: tw.Separators{ShowHeader: tw.Off}},
		}),
	)
	table.Header([]string{"game", "date", "status", "stage", "error"})
	_ = table.Bulk(rows)
	_ = table.Render()
}
