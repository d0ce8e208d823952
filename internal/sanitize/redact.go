// Package sanitize redacts secrets from hook payloads before they are
// persisted. Redaction is pure and deterministic: the same input always
// produces the same output, and sanitizing twice changes nothing.
package sanitize

import (
	"regexp"
	"strings"
)

// Marker replaces every redacted value and every matched secret substring.
const Marker = "[REDACTED]"

// patterns are applied in order; each pattern operates on the previous
// pattern's output, so overlap resolves by pattern order, not longest match.
var patterns = []*regexp.Regexp{
	// API-key-style tokens (Anthropic, OpenAI, Stripe, ...)
	regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{16,}\b`),
	// GitHub tokens
	regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{20,}\b`),
	// Bearer / Authorization header values
	regexp.MustCompile(`(?i)\b(?:bearer|authorization:)\s+[A-Za-z0-9._~+/=-]{8,}`),
	// Generic secret/token/password assignments
	regexp.MustCompile(`(?i)\b(?:secret|token|password|passwd|api[_-]?key|access[_-]?key)\b\s*[=:]\s*["']?[^\s"',;]+["']?`),
	// AWS access key ids
	regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
	// PEM private key blocks
	regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----[\s\S]*?-----END [A-Z ]*PRIVATE KEY-----`),
}

// keyFragments redact any map key whose upper-cased form contains one of
// these as a substring. The value is replaced wholesale, without recursing.
var keyFragments = []string{
	"SECRET",
	"PASSWORD",
	"PASSWD",
	"TOKEN",
	"KEY",
	"CREDENTIAL",
}

// exactKeys are redacted by exact upper-cased match.
var exactKeys = map[string]bool{
	"AWS_ACCESS_KEY_ID": true,
	"AUTHORIZATION":     true,
	"COOKIE":            true,
	"SET-COOKIE":        true,
}

// Value recursively sanitizes arbitrary nested data as produced by
// encoding/json: maps, slices, and scalars. The input is not mutated.
func Value(v any) any {
	switch val := v.(type) {
	case string:
		return String(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if SensitiveKey(k) {
				out[k] = Marker
				continue
			}
			out[k] = Value(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = Value(inner)
		}
		return out
	default:
		return v
	}
}

// String applies every redaction pattern in sequence to a single string.
func String(s string) string {
	for _, p := range patterns {
		s = p.ReplaceAllString(s, Marker)
	}
	return s
}

// SensitiveKey reports whether a map key must have its value redacted.
func SensitiveKey(key string) bool {
	upper := strings.ToUpper(key)
	if exactKeys[upper] {
		return true
	}
	for _, frag := range keyFragments {
		if strings.Contains(upper, frag) {
			return true
		}
	}
	return false
}

// Map sanitizes a string-keyed map, the shape tool arguments arrive in.
// Returns nil for nil input.
func Map(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return Value(m).(map[string]any)
}
