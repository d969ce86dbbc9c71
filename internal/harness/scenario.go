package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario is one date to check against a registry.
type Scenario struct {
	// Name identifies the scenario in reports.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Registry is the directory holding the CUE registry. Relative paths
	// are resolved against the scenario file.
	Registry string `yaml:"registry,omitempty"`

	// Date is the civil date, YYYY-MM-DD.
	Date string `yaml:"date"`

	// Service is a service name or alias ("morning", "maariv", ...).
	Service string `yaml:"service"`

	Expect Expectation `yaml:"expect"`

	// Path is the file the scenario was loaded from.
	Path string `yaml:"-"`
}

// Expectation lists what a build must produce. Empty parts are not
// checked.
type Expectation struct {
	HebrewDate string `yaml:"hebrew_date,omitempty"`

	// Conditions is a subset match keyed by snapshot field.
	Conditions map[string]any `yaml:"conditions,omitempty"`

	// Segments and Content are exact matches. An explicit empty list
	// asserts that nothing was selected.
	Segments []string `yaml:"segments,omitempty"`
	Content  []string `yaml:"content,omitempty"`

	Contains []string `yaml:"contains,omitempty"`
	Excludes []string `yaml:"excludes,omitempty"`

	// Error is the code the build must fail with.
	Error string `yaml:"error,omitempty"`
}

// Error codes accepted in Expectation.Error.
const (
	ErrorConversionFailed = "CONVERSION_FAILED"
	ErrorUnknownService   = "UNKNOWN_SERVICE"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithRegistry(path, "")
}

// LoadScenarioWithRegistry is LoadScenario with a fallback registry
// directory for scenarios that do not name one.
func LoadScenarioWithRegistry(path, registryDir string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "segment:" vs "segments:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	scenario.Path = path
	switch {
	case scenario.Registry == "":
		scenario.Registry = registryDir
	case !filepath.IsAbs(scenario.Registry):
		scenario.Registry = filepath.Join(filepath.Dir(path), scenario.Registry)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the YAML files under dir whose base name matches
// filter. An empty filter matches everything.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// validateScenario checks that required fields are present and valid.
// The service is not checked here so that a scenario can expect
// UNKNOWN_SERVICE.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Date == "" {
		return fmt.Errorf("date is required")
	}
	if _, err := time.Parse(time.DateOnly, s.Date); err != nil {
		return fmt.Errorf("date %q: expected YYYY-MM-DD", s.Date)
	}
	if s.Service == "" {
		return fmt.Errorf("service is required")
	}
	if s.Registry == "" {
		return fmt.Errorf("registry is required")
	}
	if _, err := os.Stat(s.Registry); os.IsNotExist(err) {
		return fmt.Errorf("registry directory not found: %s", s.Registry)
	}

	switch s.Expect.Error {
	case "", ErrorConversionFailed, ErrorUnknownService:
	default:
		return fmt.Errorf("expect.error: unknown code %q", s.Expect.Error)
	}

	if s.Expect.Error != "" && s.Expect.hasOutput() {
		return fmt.Errorf("expect.error cannot be combined with output expectations")
	}

	return nil
}

func (e Expectation) hasOutput() bool {
	return e.HebrewDate != "" || len(e.Conditions) > 0 || e.Segments != nil ||
		e.Content != nil || len(e.Contains) > 0 || len(e.Excludes) > 0
}
