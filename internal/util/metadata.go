package util

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// SafeNestedString returns the string at the given field path, or "" if missing/wrong type.
func SafeNestedString(obj map[string]interface{}, fields ...string) string {
	if obj == nil {
		return ""
	}
	val, found, err := unstructured.NestedString(obj, fields...)
	if err != nil || !found {
		return ""
	}
	return val
}

// RequiredString returns the non-empty string stored under key.
// Numbers and bools are rendered with fmt so that a YAML name like 0.4 is still usable.
func RequiredString(obj map[string]interface{}, key string) (string, bool) {
	val, ok := obj[key]
	if !ok || val == nil {
		return "", false
	}
	var s string
	switch v := val.(type) {
	case string:
		s = v
	case bool, int, int64, float64:
		s = fmt.Sprint(v)
	default:
		return "", false
	}
	return s, s != ""
}
