package core

import "strings"

const RedactedValue = "[REDACTED]"

// RedactSensitiveMap copies metadata replacing credential-looking values.
func RedactSensitiveMap(metadata map[string]any) map[string]any {
	if len(metadata) == 0 {
		return map[string]any{}
	}
	return redactSensitiveMap(metadata)
}

// RedactedConfig renders the configuration as a map safe to log.
func RedactedConfig(cfg Config) map[string]any {
	return RedactSensitiveMap(configToLayerMap(cfg))
}

func redactSensitiveMap(source map[string]any) map[string]any {
	target := make(map[string]any, len(source))
	for key, value := range source {
		if shouldRedactKey(key) {
			if text, ok := value.(string); ok && strings.TrimSpace(text) == "" {
				target[key] = ""
				continue
			}
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
		"api_key",
		"apikey",
		"dsn",
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
	case "object_id", "event_id", "contact_id", "company_id", "request_id", "subscription_type":
		return true
	default:
		return false
	}
}
