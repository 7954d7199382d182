package application

import (
	"encoding/json"
	"regexp"
)

// RedactionMarker replaces sensitive values in logged payloads
const RedactionMarker = "[REDACTED]"

// maxRawPayloadLen caps the logged copy of an unparseable body
const maxRawPayloadLen = 512

var (
	sensitiveKeyPattern = regexp.MustCompile(`(?i)password|token|secret|api_key|credit_card|card_number|cvv|pin|signature`)
	rawSensitivePattern = regexp.MustCompile(`(?i)(password|token|secret|api_key|credit_card|card_number|cvv|pin|signature)(\s*[:=]\s*"?)([^"&,\s]+)`)
)

// SanitizePayload parses a raw JSON body and redacts every value whose key
// matches the sensitive-key pattern, recursively through nested objects and
// arrays. Non-object bodies come back under a "raw" key so the log entry
// is never empty.
func SanitizePayload(body []byte) map[string]any {
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return map[string]any{"raw": sanitizeRaw(string(body))}
	}

	sanitized := sanitizeValue(parsed)
	if m, ok := sanitized.(map[string]any); ok {
		return m
	}
	return map[string]any{"raw": sanitized}
}

// SanitizeMap redacts sensitive keys in an already-parsed payload
func SanitizeMap(payload map[string]any) map[string]any {
	out, _ := sanitizeValue(payload).(map[string]any)
	return out
}

// sanitizeRaw scrubs key=value and key: value shapes in an unparseable
// body and truncates it, so a malformed payload cannot smuggle a secret
// past the key-based redaction or flood the log
func sanitizeRaw(s string) string {
	s = rawSensitivePattern.ReplaceAllString(s, "${1}${2}"+RedactionMarker)
	if len(s) > maxRawPayloadLen {
		s = s[:maxRawPayloadLen] + "..."
	}
	return s
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if sensitiveKeyPattern.MatchString(k) {
				out[k] = RedactionMarker
				continue
			}
			out[k] = sanitizeValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = sanitizeValue(inner)
		}
		return out
	default:
		return v
	}
}
