// Package logging scrubs credentials out of strings before they reach the log.
package logging

import (
	"regexp"
	"unicode/utf8"
)

const (
	// MaxReplyLogLength bounds how much of a model reply is logged on parse failure.
	MaxReplyLogLength = 200
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// password=xxx, pwd=xxx, pass=xxx (until next delimiter)
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	jwtPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+\.[A-Za-z0-9-_]*`)

	// key=... query parameters, as echoed back in Google API error URLs.
	apiKeyParamPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}`)

	// Bare provider keys: Google (AIza...), OpenAI and Anthropic (sk-..., sk-ant-...).
	googleKeyPattern   = regexp.MustCompile(`AIza[0-9A-Za-z\-_]{35}`)
	providerKeyPattern = regexp.MustCompile(`sk-(?:ant-|proj-)?[A-Za-z0-9\-_]{20,}`)

	// user:pass@host in database and Redis URLs.
	connStringPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)
)

// SanitizeConnectionString removes credentials from a database or Redis URL.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)

	return sanitized
}

// SanitizeError renders err with passwords, bearer tokens and provider API
// keys removed. Provider SDK errors sometimes echo the request URL, key included.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error())
}

// SanitizeString applies every redaction to s.
func SanitizeString(s string) string {
	sanitized := passwordPattern.ReplaceAllString(s, "${1}="+RedactedText)
	sanitized = jwtPattern.ReplaceAllString(sanitized, "Bearer "+RedactedText)
	sanitized = apiKeyParamPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = googleKeyPattern.ReplaceAllString(sanitized, RedactedText)
	sanitized = providerKeyPattern.ReplaceAllString(sanitized, RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
	return sanitized
}

// TruncateString shortens s to at most maxLen bytes without splitting a
// UTF-8 sequence, and adds an ellipsis if anything was cut.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// ReplyPreview is what gets logged when a model reply cannot be parsed.
func ReplyPreview(reply string) string {
	return TruncateString(SanitizeString(reply), MaxReplyLogLength)
}
