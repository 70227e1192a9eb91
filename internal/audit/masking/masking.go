package masking

import "strings"

const maskToken = "****"

// ContactKeys are metadata keys holding client contact details.
var ContactKeys = []string{"client_email", "client_phone"}

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	at := strings.LastIndex(trimmed, "@")
	if at <= 0 {
		return MaskTail(trimmed)
	}
	return trimmed[:1] + maskToken + trimmed[at:]
}

// MaskTail redacts a value while keeping its last four characters.
func MaskTail(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return maskToken
	}
	return maskToken + trimmed[len(trimmed)-4:]
}

// MaskContact returns a copy of input with contact keys redacted, including in nested maps.
func MaskContact(input map[string]any) map[string]any {
	if len(input) == 0 {
		return map[string]any{}
	}

	masked := make(map[string]any, len(input))
	for key, value := range input {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			continue
		}
		masked[trimmedKey] = maskValue(trimmedKey, value)
	}
	return masked
}

func maskValue(key string, value any) any {
	switch cast := value.(type) {
	case string:
		switch {
		case !isContactKey(key):
			return cast
		case strings.Contains(key, "email"):
			return MaskEmail(cast)
		default:
			return MaskTail(cast)
		}
	case map[string]any:
		return MaskContact(cast)
	case []any:
		out := make([]any, 0, len(cast))
		for _, item := range cast {
			out = append(out, maskValue(key, item))
		}
		return out
	default:
		return value
	}
}

func isContactKey(key string) bool {
	for _, k := range ContactKeys {
		if k == key {
			return true
		}
	}
	return false
}
