package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/siddur/internal/ir"
)

func TestScenarios(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios", "")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(GoldenName(file), func(t *testing.T) {
			s, err := LoadScenario(file)
			require.NoError(t, err)

			_, err = RunWithGolden(t, s)
			require.NoError(t, err)
		})
	}
}

func scenario(date, service string, expect Expectation) *Scenario {
	return &Scenario{
		Name:     "inline",
		Registry: bundledRegistry,
		Date:     date,
		Service:  service,
		Expect:   expect,
		Path:     filepath.Join("testdata", "inline.yaml"),
	}
}

func TestRun_Pass(t *testing.T) {
	result, err := Run(scenario("2024-01-15", "morning", Expectation{
		HebrewDate: "5 Shevat 5784",
		Conditions: map[string]any{"rain_insertion": true, "holiday": nil},
		Contains:   []string{"amidah_rain"},
	}))
	require.NoError(t, err)

	assert.True(t, result.Pass, result.Errors)
	assert.Empty(t, result.Errors)
	require.NotNil(t, result.Build)
	assert.Equal(t, ir.Morning, result.Build.Service)
}

func TestRun_ReportsEveryFailure(t *testing.T) {
	result, err := Run(scenario("2024-01-15", "morning", Expectation{
		HebrewDate: "6 Shevat 5784",
		Conditions: map[string]any{"rain_insertion": false, "holiday": "lots"},
		Segments:   []string{},
		Contains:   []string{"amidah_blessing"},
		Excludes:   []string{"aleinu"},
	}))
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 6)
	assert.Equal(t, `hebrew_date: expected "6 Shevat 5784", got "5 Shevat 5784"`, result.Errors[0])
	assert.Equal(t, `conditions.holiday: expected "lots", got null`, result.Errors[1])
	assert.Equal(t, "conditions.rain_insertion: expected false, got true", result.Errors[2])
	assert.Contains(t, result.Errors[3], "segments: expected [], got [morning_blessings,")
	assert.Equal(t, `segments: missing "amidah_blessing"`, result.Errors[4])
	assert.Equal(t, `segments: unexpected "aleinu"`, result.Errors[5])
}

func TestRun_UnknownConditionField(t *testing.T) {
	result, err := Run(scenario("2024-01-15", "morning", Expectation{
		Conditions: map[string]any{"moon_phase": "full", "omer_day": 1.5},
	}))
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Equal(t, []string{
		"conditions.moon_phase: unknown field",
		"conditions.omer_day: unsupported value 1.5 (float64)",
	}, result.Errors)
}

func TestRun_ExpectedErrors(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		service string
		code    string
	}{
		{"conversion", "1599-12-31", "morning", ErrorConversionFailed},
		{"last evening", "2999-12-31", "evening", ErrorConversionFailed},
		{"unknown service", "2024-01-15", "noon", ErrorUnknownService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Run(scenario(tt.date, tt.service, Expectation{Error: tt.code}))
			require.NoError(t, err)
			assert.True(t, result.Pass, result.Errors)
			assert.Nil(t, result.Build)
		})
	}
}

func TestRun_UnexpectedErrors(t *testing.T) {
	result, err := Run(scenario("1599-12-31", "morning", Expectation{}))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "build failed")

	result, err = Run(scenario("1599-12-31", "morning", Expectation{Error: ErrorUnknownService}))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected error UNKNOWN_SERVICE")

	result, err = Run(scenario("2024-01-15", "morning", Expectation{Error: ErrorConversionFailed}))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, []string{"expected error CONVERSION_FAILED, build succeeded"}, result.Errors)
}

func TestRun_BadRegistry(t *testing.T) {
	s := scenario("2024-01-15", "morning", Expectation{})
	s.Registry = t.TempDir()

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load registry")
}

func TestRunner_SharesEngines(t *testing.T) {
	r := NewRunner()

	_, err := r.Run(scenario("2024-01-15", "morning", Expectation{}))
	require.NoError(t, err)
	_, err = r.Run(scenario("2024-01-16", "evening", Expectation{}))
	require.NoError(t, err)

	assert.Len(t, r.engines, 1)
}
