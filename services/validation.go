package services

import (
	"strings"

	"github.com/NetaKon/Real-Time-Forum/errorz"
)

// expectString checks a decoded JSON value: it must be present, a string, and not
// blank. The value is returned as sent.
func expectString(value any, field string) (string, error) {
	if value == nil {
		return "", errorz.Validation("Missing required field: %s.", field)
	}
	s, ok := value.(string)
	if !ok {
		return "", errorz.Validation("Invalid type for '%s'. Expected string, got %s.", field, jsonTypeName(value))
	}
	if strings.TrimSpace(s) == "" {
		return "", errorz.Validation("'%s' cannot be empty.", field)
	}
	return s, nil
}

// optionalString is expectString for update fields. Absent values and empty strings
// yield nil, meaning "leave unchanged".
func optionalString(value any, field string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	if s, ok := value.(string); ok && s == "" {
		return nil, nil
	}
	s, err := expectString(value, field)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func jsonTypeName(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, int32:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "unknown"
	}
}
