package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/siddur/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run date scenarios against the registry",
		Long: `Run YAML date scenarios and compare each build with its golden file.

Scenarios that do not name a registry use --registry. Golden files live in
golden/<scenario>.golden next to the scenario; scenarios without one are
judged on their expectations alone.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  siddur test ./scenarios
  siddur test ./scenarios --filter "passover*"
  siddur test ./scenarios --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := harness.FindScenarios(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	if len(files) == 0 {
		if f.IsJSON() {
			return outputTestJSON(f, TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(f.Writer, "No scenarios found.")
		return nil
	}

	runner := harness.NewRunner()
	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}

	for _, file := range files {
		res := runScenario(runner, opts, file)
		if !f.IsJSON() {
			writeScenarioResult(f, res)
		}
		result.Scenarios = append(result.Scenarios, res)
		if res.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if f.IsJSON() {
		return outputTestJSON(f, result)
	}
	return outputTestText(f, result)
}

// runScenario loads, runs and golden-checks one scenario file.
func runScenario(runner *harness.Runner, opts *TestOptions, file string) ScenarioResult {
	name := harness.GoldenName(file)

	s, err := harness.LoadScenarioWithRegistry(file, opts.Registry)
	if err != nil {
		return failed(name, fmt.Sprintf("failed to load scenario: %v", err))
	}
	name = s.Name

	result, err := runner.Run(s)
	if err != nil {
		return failed(name, fmt.Sprintf("execution failed: %v", err))
	}
	if !result.Pass {
		return ScenarioResult{Name: name, Errors: result.Errors}
	}

	if result.Build == nil {
		return ScenarioResult{Name: name, Pass: true}
	}

	if opts.Update {
		if err := harness.UpdateGolden(s, result); err != nil {
			return failed(name, fmt.Sprintf("failed to update golden file: %v", err))
		}
		return ScenarioResult{Name: name, Pass: true}
	}

	match, exists, err := harness.CompareGolden(s, result)
	switch {
	case err != nil:
		return failed(name, fmt.Sprintf("golden comparison failed: %v", err))
	case exists && !match:
		return failed(name, fmt.Sprintf("build does not match %s (run with --update to regenerate)",
			filepath.Base(harness.GoldenPath(file))))
	}

	return ScenarioResult{Name: name, Pass: true}
}

func failed(name, message string) ScenarioResult {
	return ScenarioResult{Name: name, Errors: []string{message}}
}

func writeScenarioResult(f *OutputFormatter, r ScenarioResult) {
	if r.Pass {
		fmt.Fprintf(f.Writer, "✓ %s\n", r.Name)
		return
	}
	fmt.Fprintf(f.Writer, "✗ %s\n", r.Name)
	for _, e := range r.Errors {
		fmt.Fprintf(f.Writer, "  %s\n", e)
	}
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(f *OutputFormatter, result TestResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeTestFailed,
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	if err := writeJSON(f.Writer, response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return scenariosFailed(result)
	}
	return nil
}

// outputTestText outputs the test summary as text.
func outputTestText(f *OutputFormatter, result TestResult) error {
	fmt.Fprintln(f.Writer)
	fmt.Fprintf(f.Writer, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return scenariosFailed(result)
	}

	fmt.Fprintln(f.Writer, "✓ All scenarios passed")
	return nil
}

func scenariosFailed(result TestResult) error {
	err := NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	err.Reported = true
	return err
}
