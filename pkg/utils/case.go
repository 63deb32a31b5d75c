package utils

import (
	"encoding/json"
	"strings"
	"unicode"
)

/*
NormalizeJSONKeys rewrites every snake_case object key in a JSON document
to camelCase, recursing into nested objects and arrays. Keys that are
already camelCase pass through unchanged, so applying it twice is a no-op.
*/
func NormalizeJSONKeys(data []byte) ([]byte, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, err
	}

	return json.Marshal(normalizeValue(value))
}

func normalizeValue(value any) any {
	switch value := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(value))
		for key, nested := range value {
			out[SnakeToCamel(key)] = normalizeValue(nested)
		}
		return out
	case []any:
		for idx, nested := range value {
			value[idx] = normalizeValue(nested)
		}
		return value
	default:
		return value
	}
}

// SnakeToCamel converts a snake_case identifier to camelCase. Identifiers
// without underscores come back unchanged.
func SnakeToCamel(key string) string {
	if !strings.Contains(key, "_") {
		return key
	}

	var builder strings.Builder
	upperNext := false

	for _, r := range key {
		if r == '_' {
			upperNext = true
			continue
		}

		if upperNext {
			builder.WriteRune(unicode.ToUpper(r))
			upperNext = false
			continue
		}

		builder.WriteRune(r)
	}

	return builder.String()
}
