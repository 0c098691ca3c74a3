package logging

import (
	"regexp"
	"strings"
)

// Field names whose values must never reach the log output. The client
// carries an opaque bearer credential on every mutating call, so this
// list leans towards auth material.
var sensitiveFields = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"auth",
	"credential",
}

var secretPatterns = []*regexp.Regexp{
	// Bearer credentials as they appear in request headers.
	regexp.MustCompile(`(?i)bearer\s+([a-zA-Z0-9._-]{20,})`),

	// Generic long values assigned to credential-ish keys.
	regexp.MustCompile(`(?i)(token|secret|password|auth)[=:]["']?([a-zA-Z0-9+/=_-]{32,})["']?`),
}

// RedactedValue is the replacement for sensitive values.
const RedactedValue = "[REDACTED]"

// Redact replaces credential material in a string.
func Redact(s string) string {
	result := s
	for _, pattern := range secretPatterns {
		result = pattern.ReplaceAllString(result, RedactedValue)
	}
	return result
}

// IsSensitiveField checks if a field name is considered sensitive.
func IsSensitiveField(name string) bool {
	lowerName := strings.ToLower(name)
	for _, field := range sensitiveFields {
		if strings.Contains(lowerName, field) {
			return true
		}
	}
	return false
}
