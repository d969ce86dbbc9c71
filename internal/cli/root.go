package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/siddur/internal/calendar"
	"github.com/roach88/siddur/internal/compiler"
	"github.com/roach88/siddur/internal/config"
	"github.com/roach88/siddur/internal/engine"
	"github.com/roach88/siddur/internal/ir"
	"github.com/roach88/siddur/internal/store"
)

// RootOptions holds global flags for all commands. Defaults come from the
// environment configuration; flags override them.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Registry string
	DBPath   string
	Timezone string

	Config config.Config

	// Now is the clock used for the "today" date argument.
	Now func() time.Time
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the siddur CLI.
func NewRootCommand(cfg config.Config) *cobra.Command {
	return newRootCommand(&RootOptions{Config: cfg, Now: time.Now})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cfg := opts.Config

	cmd := &cobra.Command{
		Use:   "siddur",
		Short: "siddur - liturgical calendar conditions and segment selection",
		Long: `Compute the liturgical conditions of a civil date and select the
prayer segments a service reads, from a CUE segment registry.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if _, err := opts.location(); err != nil {
				return WrapExitError(ExitCommandError, "invalid --tz", err)
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.Registry, "registry", cfg.RegistryDir, "registry directory")
	flags.StringVar(&opts.DBPath, "db", cfg.DBPath, "manifest cache database (empty disables the cache)")
	flags.StringVar(&opts.Timezone, "tz", cfg.Timezone, "timezone deciding which day \"today\" is")

	cmd.AddCommand(NewConditionsCommand(opts))
	cmd.AddCommand(NewBuildCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))
	cmd.AddCommand(NewScheduleCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func (o *RootOptions) location() (*time.Location, error) {
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", o.Timezone, err)
	}
	return loc, nil
}

// parseDate accepts YYYY-MM-DD or "today" in the configured timezone.
// The result is midnight UTC of that civil day.
func (o *RootOptions) parseDate(s string) (time.Time, error) {
	if strings.EqualFold(s, "today") {
		loc, err := o.location()
		if err != nil {
			return time.Time{}, err
		}
		now := o.Now().In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or today", s)
	}
	return t, nil
}

// loadEngine compiles the registry and wraps it in an engine.
func (o *RootOptions) loadEngine() (*engine.Engine, error) {
	reg, err := compiler.LoadRegistry(o.Registry)
	if err != nil {
		return nil, err
	}
	return engine.New(reg, calendar.Hebrew{}), nil
}

// openStore returns nil when no database is configured.
func (o *RootOptions) openStore() (*store.Store, error) {
	if o.DBPath == "" {
		return nil, nil
	}
	return store.Open(o.DBPath)
}

// parseServices returns every service when arg is empty.
func parseServices(arg string) ([]ir.ServiceType, error) {
	if arg == "" {
		return ir.ServiceTypes(), nil
	}
	svc, err := ir.ParseServiceType(arg)
	if err != nil {
		return nil, err
	}
	return []ir.ServiceType{svc}, nil
}

// failBuild maps engine and registry errors to an exit code and error
// code.
func failBuild(f *OutputFormatter, message string, err error) error {
	var loadErr *compiler.LoadError
	switch {
	case errors.As(err, &loadErr):
		return f.Fail(ExitCommandError, loadErr.Code, message, err)
	case compiler.IsConfigurationError(err):
		return f.Fail(ExitCommandError, ErrCodeRegistry, message, err)
	case errors.Is(err, ir.ErrUnknownServiceType):
		return f.Fail(ExitCommandError, ErrCodeUnknownSvc, message, err)
	case engine.IsConversionError(err):
		return f.Fail(ExitCommandError, ErrCodeConversion, message, err)
	default:
		return f.Fail(ExitFailure, ErrCodeInternal, message, err)
	}
}
