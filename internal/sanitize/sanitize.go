// Package sanitize neutralises unsafe characters in request input and redacts
// secrets from strings before they are logged.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	// MaxRedactLength bounds the input inspected by RedactSecrets.
	// Longer input is truncated before redaction.
	MaxRedactLength = 64 * 1024
)

var scriptScheme = regexp.MustCompile(`(?i)\b(javascript|vbscript|data)\s*:`)

// String strips control characters (except tab and newline), removes angle
// brackets and neutralises script URL schemes.
func String(s string) string {
	if s == "" {
		return s
	}

	s = strings.Map(func(r rune) rune {
		switch {
		case r == '<' || r == '>':
			return -1
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)

	return scriptScheme.ReplaceAllString(s, "${1}_")
}

// UnsafeKey reports whether a map key could be interpreted as a query operator
// or a nested path by a document store (keys starting with '$' or containing '.').
func UnsafeKey(key string) bool {
	return strings.HasPrefix(key, "$") || strings.Contains(key, ".")
}

// Value sanitizes decoded JSON or form values recursively. Strings are cleaned,
// maps lose their unsafe keys and slices are sanitized element by element.
// Other values are returned unchanged.
func Value(v any) any {
	switch val := v.(type) {
	case string:
		return String(val)
	case map[string]any:
		return Map(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = Value(e)
		}
		return out
	default:
		return v
	}
}

// Map returns a sanitized copy of m.
func Map(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if UnsafeKey(k) {
			continue
		}
		out[String(k)] = Value(v)
	}
	return out
}

// Values sanitizes url query or form values in place.
func Values(values map[string][]string) {
	for k, vs := range values {
		if UnsafeKey(k) {
			delete(values, k)
			continue
		}
		for i, v := range vs {
			vs[i] = String(v)
		}
	}
}

var secretPatterns = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	// Password patterns
	{regexp.MustCompile(`(?i)(password|passwd|pwd)[\s:=]+[^\s\n]+`), "$1=REDACTED"},
	{regexp.MustCompile(`(?i)"password"\s*:\s*"[^"]+"`), `"password":"REDACTED"`},

	// Token patterns
	{regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9_\-\.]+`), "bearer REDACTED"},
	{regexp.MustCompile(`(?i)"(token|secret|private_?key)"\s*:\s*"[^"]+"`), `"$1":"REDACTED"`},

	// API Key patterns
	{regexp.MustCompile(`(?i)(api[_-]?key|apikey|secret)[\s:=]+[^\s\n]+`), "$1=REDACTED"},

	// credentials embedded in connection strings
	{regexp.MustCompile(`(?i)([a-z][a-z0-9+.\-]*://[^:/\s]+):[^@/\s]+@`), "$1:REDACTED@"},

	// JWT tokens (looks like xxx.yyy.zzz format)
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_\-]+\.eyJ[a-zA-Z0-9_\-]+\.[a-zA-Z0-9_\-]+`), "REDACTED_JWT"},

	// card numbers
	{regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`), "REDACTED_CC"},
}

// RedactSecrets removes passwords, tokens, credentials and card numbers from s.
func RedactSecrets(s string) string {
	if s == "" {
		return ""
	}
	if len(s) > MaxRedactLength {
		s = s[:MaxRedactLength] + "... [truncated]"
	}
	for _, p := range secretPatterns {
		s = p.pattern.ReplaceAllString(s, p.replacement)
	}
	return s
}
