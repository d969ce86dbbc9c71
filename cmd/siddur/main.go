// Command siddur computes liturgical date conditions and selects the
// prayer segments that apply to a service.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/siddur/internal/cli"
	"github.com/roach88/siddur/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "siddur: %v\n", err)
		os.Exit(cli.ExitCommandError)
	}

	slog.SetDefault(slog.New(newHandler(cfg)))

	if err := cli.NewRootCommand(cfg).Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode maps cobra's own argument and flag errors, which carry no
// exit code, to a command error.
func exitCode(err error) int {
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return cli.ExitCommandError
}

func newHandler(cfg config.Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == config.LogFormatJSON {
		return slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.NewTextHandler(os.Stderr, opts)
}
