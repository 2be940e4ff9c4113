package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyValueCSV(t *testing.T) {
	values, err := parseKeyValueCSV("Dark=true, new-heroes = false,,font=large")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"dark":       "true",
		"new_heroes": "false",
		"font":       "large",
	}, values)
}

func TestParseKeyValueCSVEmpty(t *testing.T) {
	values, err := parseKeyValueCSV("   ")
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestParseKeyValuePairsErrors(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		want  string
	}{
		{"missing equals", []string{"dark"}, "expected KEY=VALUE"},
		{"empty key", []string{" =true"}, "empty key"},
		{"conflict", []string{"push=true", "PUSH=false"}, "conflicting values for push"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseKeyValuePairs(tt.items)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseKeyValuePairsRepeatedSameValue(t *testing.T) {
	values, err := parseKeyValuePairs([]string{"push=true", "push=true"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"push": "true"}, values)
}

func TestFormatKeyValuePairs(t *testing.T) {
	assert.Equal(t, "", formatKeyValuePairs(nil))
	assert.Equal(t, "dark=true, font=small, push=false", formatKeyValuePairs(map[string]string{
		"push": "false",
		"dark": "true",
		"font": "small",
	}))
}
