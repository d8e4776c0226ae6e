// Package redact scrubs sensitive values from strings before they reach the
// logs or an error response. Credentials, provider API keys, tokens and file
// paths are replaced with placeholders; user free text (event descriptions,
// needs, actions) is reduced to a length descriptor with Text.
package redact

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Redaction placeholders.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedJWTPlaceholder        = "[REDACTED_JWT]"
	RedactedEmailPlaceholder      = "[REDACTED_EMAIL]"
)

type pattern struct {
	re          *regexp.Regexp
	placeholder string
}

// patterns are applied in order; earlier replacements are not rescanned by
// the key patterns because placeholders contain no key characters.
var patterns = []pattern{
	{
		// user:password@ section of database URLs
		re:          regexp.MustCompile(`(?i)(postgres(?:ql)?|mysql|sqlite|db|database)://[^@\s]+@`),
		placeholder: RedactedCredentialPlaceholder,
	},
	{
		re:          regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`),
		placeholder: RedactedCredentialPlaceholder,
	},
	{
		re:          regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
		placeholder: RedactedJWTPlaceholder,
	},
	{
		// OpenAI-style secret keys
		re:          regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{8,}`),
		placeholder: RedactedKeyPlaceholder,
	},
	{
		// Google API keys
		re:          regexp.MustCompile(`AIza[0-9A-Za-z_-]{20,}`),
		placeholder: RedactedKeyPlaceholder,
	},
	{
		re: regexp.MustCompile(
			`(?i)(api[_-]?key|token|secret|key|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
		),
		placeholder: RedactedKeyPlaceholder,
	},
	{
		re:          regexp.MustCompile(`(/[\w.-]+){2,}`),
		placeholder: RedactedPathPlaceholder,
	},
	{
		re:          regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		placeholder: RedactedEmailPlaceholder,
	},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, p := range patterns {
		result = p.re.ReplaceAllString(result, p.placeholder)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// Text replaces user-authored free text with its length, so log lines can
// show that a field was present without recording what the user wrote.
func Text(s string) string {
	return fmt.Sprintf("[%d chars]", utf8.RuneCountInString(s))
}
