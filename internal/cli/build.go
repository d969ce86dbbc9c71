package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/siddur/internal/builder"
	"github.com/roach88/siddur/internal/store"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	NoCache bool // skip the manifest cache
	Expand  bool // print content with groups expanded
}

// BuildResult is the output of the build command.
type BuildResult struct {
	Date    string           `json:"date"`
	Results []builder.Result `json:"results"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <date> [service]",
		Short: "Select the segments of a service",
		Long: `Compute the conditions of a date and select, in registry order, the
segments whose conditions hold. Without a service every service of the
day is built.

Builds are recorded in the manifest cache (--db) unless --no-cache is set.
A build whose conditions were seen before is served from the cache.

Examples:
  siddur build 2024-01-15 morning
  siddur build today --expand
  siddur build 2024-04-23 maariv --format json`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			service := ""
			if len(args) == 2 {
				service = args[1]
			}
			return runBuild(opts, args[0], service, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "do not read or write the manifest cache")
	cmd.Flags().BoolVar(&opts.Expand, "expand", false, "print content with groups expanded")

	return cmd
}

func runBuild(opts *BuildOptions, dateArg, serviceArg string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	civil, err := opts.parseDate(dateArg)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeBadArgs, err.Error(), nil)
	}

	services, err := parseServices(serviceArg)
	if err != nil {
		return failBuild(f, fmt.Sprintf("service %q", serviceArg), err)
	}

	eng, err := opts.loadEngine()
	if err != nil {
		return failBuild(f, "failed to load registry", err)
	}
	f.VerboseLog("Loaded %d segment(s) from %s", eng.Registry().Len(), opts.Registry)

	var st *store.Store
	if !opts.NoCache {
		st, err = opts.openStore()
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
		}
		if st != nil {
			defer st.Close()
		}
	}
	b := builder.New(eng, st, nil)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result := BuildResult{
		Date:    civil.Format(time.DateOnly),
		Results: make([]builder.Result, 0, len(services)),
	}
	for _, svc := range services {
		res, err := b.Build(ctx, civil, svc)
		if err != nil {
			return failBuild(f, fmt.Sprintf("%s %s", result.Date, svc), err)
		}
		result.Results = append(result.Results, res)
	}

	if f.IsJSON() {
		return f.Success(result)
	}

	for i, res := range result.Results {
		if i > 0 {
			fmt.Fprintln(f.Writer)
		}
		writeBuild(f.Writer, res, opts.Expand, opts.Verbose)
	}
	return nil
}

func writeBuild(w io.Writer, res builder.Result, expand, verbose bool) {
	b := res.Build

	source := "built"
	if res.Cached {
		source = "cached"
	}
	fmt.Fprintf(w, "%s %s: %s (%d segments, %s)\n", b.Date, b.Service, b.HebrewDate, len(b.Segments), source)

	keys := b.Segments
	if expand {
		keys = b.Content
	}
	for i, key := range keys {
		fmt.Fprintf(w, "  %2d. %s\n", i+1, key)
	}

	if verbose {
		fmt.Fprintf(w, "  checksum: %s\n", b.Checksum)
		fmt.Fprintf(w, "  key:      %s\n", b.Key)
		if res.ManifestID != "" {
			fmt.Fprintf(w, "  manifest: %s\n", res.ManifestID)
		}
	}
}
