package cmd

import (
	"fmt"
	"sort"
	"strings"
)

// parseKeyValuePairs parses KEY=VALUE items. Keys are lower-cased and dashes
// become underscores, so new-heroes and NEW_HEROES name the same key.
func parseKeyValuePairs(items []string) (map[string]string, error) {
	result := make(map[string]string)
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		key, value, err := splitKeyValue(trimmed)
		if err != nil {
			return nil, err
		}
		if prev, ok := result[key]; ok && prev != value {
			return nil, fmt.Errorf("conflicting values for %s: %q and %q", key, prev, value)
		}
		result[key] = value
	}
	return result, nil
}

func parseKeyValueCSV(input string) (map[string]string, error) {
	if strings.TrimSpace(input) == "" {
		return map[string]string{}, nil
	}
	return parseKeyValuePairs(strings.Split(input, ","))
}

func formatKeyValuePairs(values map[string]string) string {
	if len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", key, values[key]))
	}
	return strings.Join(pairs, ", ")
}

func splitKeyValue(value string) (string, string, error) {
	key, val, ok := strings.Cut(value, "=")
	if !ok {
		return "", "", fmt.Errorf("invalid format %q (expected KEY=VALUE)", value)
	}
	key = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
	if key == "" {
		return "", "", fmt.Errorf("invalid format %q (empty key)", value)
	}
	return key, strings.TrimSpace(val), nil
}
