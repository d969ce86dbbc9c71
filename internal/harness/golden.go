package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/siddur/internal/ir"
)

// Snapshot renders a build as canonical JSON for golden comparison.
func Snapshot(name string, b ir.Build) ([]byte, error) {
	obj := ir.Object{
		"scenario":    ir.String(name),
		"service":     ir.String(b.Service),
		"date":        ir.String(b.Date),
		"hebrew_date": ir.String(b.HebrewDate),
		"conditions":  b.Conditions.Object(),
		"segments":    ir.Strings(b.Segments...),
		"content":     ir.Strings(b.Content...),
		"checksum":    ir.String(b.Checksum),
		"key":         ir.String(b.Key),
	}
	return ir.MarshalCanonical(obj)
}

// GoldenName is the golden file name of a scenario file, without the
// suffix: the file's base name.
func GoldenName(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// GoldenPath returns golden/<name>.golden next to the scenario file.
func GoldenPath(scenarioFile string) string {
	return filepath.Join(filepath.Dir(scenarioFile), "golden", GoldenName(scenarioFile)+".golden")
}

// RunWithGolden executes a scenario, fails t on any unmet expectation and
// compares the snapshot with the scenario's golden file.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, s *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(s)
	if err != nil {
		return nil, err
	}
	for _, e := range result.Errors {
		t.Errorf("%s: %s", s.Name, e)
	}

	if result.Build == nil {
		return result, nil
	}

	AssertGolden(t, s, result)
	return result, nil
}

// AssertGolden compares an existing result with the scenario's golden
// file without re-running it.
func AssertGolden(t *testing.T, s *Scenario, result *Result) {
	t.Helper()

	if result.Build == nil {
		t.Fatalf("%s: no build to snapshot", s.Name)
	}

	data, err := Snapshot(s.Name, *result.Build)
	if err != nil {
		t.Fatalf("%s: snapshot: %v", s.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(filepath.Dir(GoldenPath(s.Path))),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, GoldenName(s.Path), data)
}

// UpdateGolden writes the result's snapshot as the scenario's golden file.
func UpdateGolden(s *Scenario, result *Result) error {
	if result.Build == nil {
		return fmt.Errorf("%s: no build to snapshot", s.Name)
	}

	data, err := Snapshot(s.Name, *result.Build)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	path := GoldenPath(s.Path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// CompareGolden reports whether the result matches the scenario's golden
// file. exists is false when there is no golden file.
func CompareGolden(s *Scenario, result *Result) (match, exists bool, err error) {
	path := GoldenPath(s.Path)
	golden, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, false, nil
	}
	if err != nil {
		return false, true, fmt.Errorf("failed to read golden file: %w", err)
	}

	if result.Build == nil {
		return false, true, nil
	}

	data, err := Snapshot(s.Name, *result.Build)
	if err != nil {
		return false, true, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return bytes.Equal(golden, data), true, nil
}
