package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/siddur/internal/store"
)

// CacheResult is the output of cache clear and cache prune.
type CacheResult struct {
	Removed int64 `json:"removed"`
}

// NewCacheCommand creates the cache command and its subcommands.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the manifest cache",
		Long: `Inspect and maintain the build manifest cache in --db.

A manifest is stored per (registry, service, conditions checksum); every
build request is recorded as a run against it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newCacheStatsCommand(rootOpts))
	cmd.AddCommand(newCacheRunsCommand(rootOpts))
	cmd.AddCommand(newCacheClearCommand(rootOpts))
	cmd.AddCommand(newCachePruneCommand(rootOpts))

	return cmd
}

func newCacheStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "stats",
		Short:         "Show cache counts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, cmd, func(ctx context.Context, f *OutputFormatter, st *store.Store) error {
				stats, err := st.Stats(ctx)
				if err != nil {
					return f.Fail(ExitFailure, ErrCodeStore, "failed to read stats", err)
				}
				if f.IsJSON() {
					return f.Success(stats)
				}
				fmt.Fprintf(f.Writer, "manifests:  %d\n", stats.Manifests)
				fmt.Fprintf(f.Writer, "registries: %d\n", stats.Registries)
				fmt.Fprintf(f.Writer, "runs:       %d\n", stats.Runs)
				fmt.Fprintf(f.Writer, "hits:       %d\n", stats.Hits)
				return nil
			})
		},
	}
}

func newCacheRunsCommand(opts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:           "runs",
		Short:         "List recent build runs, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, cmd, func(ctx context.Context, f *OutputFormatter, st *store.Store) error {
				runs, err := st.Runs(ctx, limit)
				if err != nil {
					return f.Fail(ExitFailure, ErrCodeStore, "failed to read runs", err)
				}
				if f.IsJSON() {
					return f.Success(runs)
				}
				if len(runs) == 0 {
					fmt.Fprintln(f.Writer, "No runs recorded.")
					return nil
				}
				for _, r := range runs {
					source := "built"
					if r.Cached {
						source = "cached"
					}
					fmt.Fprintf(f.Writer, "%s %-9s %-18s %s %s\n", r.Date, r.Service, r.HebrewDate, source, r.ManifestID)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show (0 for all)")
	return cmd
}

func newCacheClearCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "clear",
		Short:         "Delete every manifest and run",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, cmd, func(ctx context.Context, f *OutputFormatter, st *store.Store) error {
				n, err := st.Clear(ctx)
				if err != nil {
					return f.Fail(ExitFailure, ErrCodeStore, "failed to clear cache", err)
				}
				return outputRemoved(f, n, "Cleared")
			})
		},
	}
}

func newCachePruneCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete manifests built against other registries",
		Long: `Delete every manifest whose registry digest differs from the registry
in --registry. Runs of deleted manifests go with them.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, cmd, func(ctx context.Context, f *OutputFormatter, st *store.Store) error {
				eng, err := opts.loadEngine()
				if err != nil {
					return failBuild(f, "failed to load registry", err)
				}
				digest := eng.Registry().Digest()
				f.VerboseLog("Keeping registry %s", digest)

				n, err := st.Prune(ctx, digest)
				if err != nil {
					return f.Fail(ExitFailure, ErrCodeStore, "failed to prune cache", err)
				}
				return outputRemoved(f, n, "Pruned")
			})
		},
	}
}

// withStore opens --db for the duration of fn.
func withStore(opts *RootOptions, cmd *cobra.Command, fn func(context.Context, *OutputFormatter, *store.Store) error) error {
	f := opts.formatter(cmd)

	if opts.DBPath == "" {
		return f.Fail(ExitCommandError, ErrCodeStore, "no database configured (--db)", nil)
	}
	st, err := opts.openStore()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, f, st)
}

func outputRemoved(f *OutputFormatter, n int64, verb string) error {
	if f.IsJSON() {
		return f.Success(CacheResult{Removed: n})
	}
	fmt.Fprintf(f.Writer, "%s %d manifest(s)\n", verb, n)
	return nil
}
