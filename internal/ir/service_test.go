package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServiceType(t *testing.T) {
	tests := []struct {
		input string
		want  ServiceType
	}{
		{"morning", Morning},
		{"Morning", Morning},
		{" shacharis ", Morning},
		{"afternoon", Afternoon},
		{"mincha", Afternoon},
		{"evening", Evening},
		{"MAARIV", Evening},
		{"arvit", Evening},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseServiceType(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseServiceTypeUnknown(t *testing.T) {
	for _, input := range []string{"", "musaf", "night", "neilah"} {
		_, err := ParseServiceType(input)
		assert.ErrorIs(t, err, ErrUnknownServiceType, input)
	}
}

func TestServiceTypeCheck(t *testing.T) {
	for _, svc := range ServiceTypes() {
		assert.NoError(t, svc.Check())
	}
	assert.ErrorIs(t, ServiceType("shacharis").Check(), ErrUnknownServiceType)
	assert.ErrorIs(t, ServiceType("").Check(), ErrUnknownServiceType)
}
