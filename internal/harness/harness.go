package harness

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/roach88/siddur/internal/calendar"
	"github.com/roach88/siddur/internal/compiler"
	"github.com/roach88/siddur/internal/engine"
	"github.com/roach88/siddur/internal/ir"
)

// Result is the outcome of one scenario.
type Result struct {
	// Pass is true if every expectation held.
	Pass bool `json:"pass"`

	// Errors lists the failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Build is nil when the build failed.
	Build *ir.Build `json:"build,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError records a failed expectation.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Runner executes scenarios. Registries are loaded once per directory and
// shared by every scenario that names the same one.
type Runner struct {
	cal engine.Calendar

	mu      sync.Mutex
	engines map[string]*engine.Engine
}

// NewRunner returns a Runner using the Hebrew calendar.
func NewRunner() *Runner {
	return &Runner{
		cal:     calendar.Hebrew{},
		engines: make(map[string]*engine.Engine),
	}
}

// Run executes a scenario with a fresh Runner.
func Run(s *Scenario) (*Result, error) {
	return NewRunner().Run(s)
}

// Run builds the scenario's date and checks the expectations.
//
// A registry that fails to load is returned as an error: the scenario
// cannot be judged. A build error is a failed expectation unless the
// scenario expects it.
func (r *Runner) Run(s *Scenario) (*Result, error) {
	eng, err := r.engine(s.Registry)
	if err != nil {
		return nil, err
	}

	civil, err := time.Parse(time.DateOnly, s.Date)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	result := NewResult()

	svc, err := ir.ParseServiceType(s.Service)
	if err != nil {
		checkError(result, s.Expect, err)
		return result, nil
	}

	build, err := eng.Build(civil, svc)
	if err != nil {
		checkError(result, s.Expect, err)
		return result, nil
	}

	result.Build = &build
	if s.Expect.Error != "" {
		result.AddError("expected error %s, build succeeded", s.Expect.Error)
		return result, nil
	}

	checkBuild(result, s.Expect, build)

	slog.Debug("scenario run",
		"scenario", s.Name,
		"date", s.Date,
		"service", svc,
		"pass", result.Pass,
	)

	return result, nil
}

func (r *Runner) engine(dir string) (*engine.Engine, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if eng, ok := r.engines[abs]; ok {
		return eng, nil
	}

	reg, err := compiler.LoadRegistry(abs)
	if err != nil {
		return nil, fmt.Errorf("load registry %s: %w", dir, err)
	}

	eng := engine.New(reg, r.cal)
	r.engines[abs] = eng
	return eng, nil
}

// errorCode classifies a build error for Expectation.Error.
func errorCode(err error) string {
	switch {
	case engine.IsConversionError(err):
		return ErrorConversionFailed
	case errors.Is(err, ir.ErrUnknownServiceType):
		return ErrorUnknownService
	default:
		return ""
	}
}
