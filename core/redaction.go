package core

import "strings"

const RedactedValue = "[REDACTED]"

// RedactHeaders returns a loggable copy of headers with credentials masked.
func RedactHeaders(headers Headers) map[string]string {
	out := headers.Map()
	for name := range out {
		if shouldRedactKey(name) {
			out[name] = RedactedValue
		}
	}
	return out
}

func RedactSensitiveMap(metadata map[string]any) map[string]any {
	if len(metadata) == 0 {
		return map[string]any{}
	}
	return redactSensitiveMap(metadata)
}

func redactSensitiveMap(source map[string]any) map[string]any {
	target := make(map[string]any, len(source))
	for key, value := range source {
		if shouldRedactKey(key) {
			target[key] = RedactedValue
			continue
		}
		target[key] = redactSensitiveValue(value)
	}
	return target
}

func redactSensitiveValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return redactSensitiveMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = redactSensitiveValue(typed[i])
		}
		return out
	default:
		return value
	}
}

func shouldRedactKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" || isTraceabilityKey(key) {
		return false
	}
	for _, token := range []string{
		"password",
		"secret",
		"token",
		"authorization",
		"digest",
		"cookie",
		"credential",
	} {
		if strings.Contains(key, token) {
			return true
		}
	}
	return false
}

func isTraceabilityKey(key string) bool {
	switch key {
	case "resource", "operation", "report_id", "request_id", "trace_id", "digest_source":
		return true
	default:
		return false
	}
}
