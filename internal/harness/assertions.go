package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/siddur/internal/ir"
)

func checkError(result *Result, expect Expectation, err error) {
	if expect.Error == "" {
		result.AddError("build failed: %v", err)
		return
	}
	if code := errorCode(err); code != expect.Error {
		result.AddError("expected error %s, got %v", expect.Error, err)
	}
}

func checkBuild(result *Result, expect Expectation, b ir.Build) {
	if expect.HebrewDate != "" && expect.HebrewDate != b.HebrewDate {
		result.AddError("hebrew_date: expected %q, got %q", expect.HebrewDate, b.HebrewDate)
	}

	checkConditions(result, expect.Conditions, b.Conditions)

	if expect.Segments != nil && !slices.Equal(expect.Segments, b.Segments) {
		result.AddError("segments: expected %s, got %s", formatKeys(expect.Segments), formatKeys(b.Segments))
	}
	if expect.Content != nil && !slices.Equal(expect.Content, b.Content) {
		result.AddError("content: expected %s, got %s", formatKeys(expect.Content), formatKeys(b.Content))
	}

	for _, key := range expect.Contains {
		if !slices.Contains(b.Segments, key) {
			result.AddError("segments: missing %q", key)
		}
	}
	for _, key := range expect.Excludes {
		if slices.Contains(b.Segments, key) {
			result.AddError("segments: unexpected %q", key)
		}
	}
}

// checkConditions is a subset match. Fields are visited in sorted order
// so the error list is stable.
func checkConditions(result *Result, want map[string]any, got ir.DateConditions) {
	if len(want) == 0 {
		return
	}

	for _, name := range sortedKeys(want) {
		field := ir.Field(name)
		actual, ok := got.Value(field)
		if !ok {
			result.AddError("conditions.%s: unknown field", name)
			continue
		}

		expected, err := toValue(want[name])
		if err != nil {
			result.AddError("conditions.%s: %v", name, err)
			continue
		}

		if !ir.Equal(expected, actual) {
			result.AddError("conditions.%s: expected %s, got %s",
				name, ir.FormatValue(expected), ir.FormatValue(actual))
		}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// toValue converts a decoded YAML scalar.
func toValue(v any) (ir.Value, error) {
	switch x := v.(type) {
	case nil:
		return ir.Null{}, nil
	case bool:
		return ir.Bool(x), nil
	case int:
		return ir.Int(x), nil
	case string:
		return ir.String(x), nil
	default:
		return nil, fmt.Errorf("unsupported value %v (%T)", v, v)
	}
}

func formatKeys(keys []string) string {
	return "[" + strings.Join(keys, ", ") + "]"
}
