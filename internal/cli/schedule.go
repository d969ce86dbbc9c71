package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/siddur/internal/builder"
	"github.com/roach88/siddur/internal/config"
	"github.com/roach88/siddur/internal/metrics"
	"github.com/roach88/siddur/internal/scheduler"
	"github.com/roach88/siddur/internal/store"
)

// ScheduleOptions holds flags for the schedule command.
type ScheduleOptions struct {
	*RootOptions
	Cron        string
	Gate        string
	MetricsAddr string
	Watch       bool
	Once        bool
}

// clockFunc adapts a time source to scheduler.Clock.
type clockFunc func() time.Time

func (f clockFunc) Now() time.Time { return f() }

// NewScheduleCommand creates the schedule command.
func NewScheduleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScheduleOptions{RootOptions: rootOpts}
	cfg := rootOpts.Config

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Build services on a cron schedule",
		Long: `Run builds on a cron schedule until interrupted.

Each tick builds the service due at that hour: morning from 04:00,
afternoon from 12:00, evening from 18:00 until 04:00. With --gate festive
only sabbath and major festival services are built. The registry is
reloaded when its files change (--watch) and build metrics are served on
--metrics-addr.

Examples:
  siddur schedule
  siddur schedule --cron "*/30 * * * *" --gate festive --metrics-addr :9090
  siddur schedule --once`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Cron, "cron", cfg.Schedule, "five-field cron expression")
	cmd.Flags().StringVar(&opts.Gate, "gate", cfg.Gate, "build gate (none|festive)")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address")
	cmd.Flags().BoolVar(&opts.Watch, "watch", cfg.WatchRegistry, "reload the registry when its files change")
	cmd.Flags().BoolVar(&opts.Once, "once", false, "run a single tick now and exit")

	return cmd
}

func runSchedule(opts *ScheduleOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if opts.Gate != config.GateNone && opts.Gate != config.GateFestive {
		return f.Fail(ExitCommandError, ErrCodeBadArgs,
			fmt.Sprintf("invalid gate %q: want %s or %s", opts.Gate, config.GateNone, config.GateFestive), nil)
	}

	loc, err := opts.location()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeBadArgs, "invalid timezone", err)
	}

	eng, err := opts.loadEngine()
	if err != nil {
		return failBuild(f, "failed to load registry", err)
	}

	st, err := opts.openStore()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	if st != nil {
		defer st.Close()
	}

	m := metrics.New(prometheus.NewRegistry())
	b := builder.New(eng, st, m)

	sched, err := scheduler.New(b, clockFunc(opts.Now), loc, opts.Gate)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeScheduler, "failed to create scheduler", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Once {
		out, err := sched.Tick(ctx)
		if err != nil {
			return failBuild(f, "scheduled build failed", err)
		}
		return writeOutcome(f, out)
	}

	next, err := scheduler.Next(opts.Cron, opts.Now().In(loc))
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeBadArgs, "invalid --cron", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serveSchedule(ctx, opts, f, sched, b, st, m, next)
}

// serveSchedule runs until ctx is done.
func serveSchedule(ctx context.Context, opts *ScheduleOptions, f *OutputFormatter, sched *scheduler.Scheduler, b *builder.Builder, st *store.Store, m *metrics.Metrics, next time.Time) error {
	if opts.MetricsAddr != "" {
		srv := m.NewServer(opts.MetricsAddr)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fmt.Fprintf(f.GetErrWriter(), "metrics server: %v\n", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		f.VerboseLog("Serving metrics on %s/metrics", opts.MetricsAddr)
	}

	if opts.Watch {
		reloader := scheduler.NewReloader(opts.Registry, b, m)
		go func() {
			if err := reloader.Watch(ctx); err != nil {
				fmt.Fprintf(f.GetErrWriter(), "registry watch: %v\n", err)
			}
		}()
	}

	report := func(out scheduler.Outcome, err error) {
		if err != nil {
			_ = f.Error(ErrCodeScheduler, err.Error(), nil)
			return
		}
		_ = writeOutcome(f, out)
	}
	if err := sched.Start(ctx, opts.Cron, report); err != nil {
		return f.Fail(ExitCommandError, ErrCodeScheduler, "failed to start scheduler", err)
	}
	defer sched.Stop()

	if !f.IsJSON() {
		fmt.Fprintf(f.Writer, "Scheduled %q (next run %s, gate %s, cache %t)\n",
			opts.Cron, next.Format(time.RFC3339), opts.Gate, st != nil)
	}

	<-ctx.Done()
	return nil
}

func writeOutcome(f *OutputFormatter, out scheduler.Outcome) error {
	if f.IsJSON() {
		return f.Success(out)
	}

	if out.Skipped {
		fmt.Fprintf(f.Writer, "%s %s: skipped (gate)\n", out.Date, out.Service)
		return nil
	}

	writeBuild(f.Writer, *out.Result, false, f.Verbose)
	return nil
}
