package http

import (
	"fmt"
	"regexp"
)

// MaxLoggedResponseLength caps how much of a model reply reaches the logs.
// Replies embed contract bytecode and evidence snippets that belong in the
// report, not in log aggregators.
const MaxLoggedResponseLength = 200

// TruncateForLogging returns the first MaxLoggedResponseLength characters of
// a response plus a truncation marker when cut.
func TruncateForLogging(response string) string {
	if len(response) <= MaxLoggedResponseLength {
		return response
	}
	return response[:MaxLoggedResponseLength] + fmt.Sprintf("... [truncated, total length=%d bytes]", len(response))
}

var urlSecretParams = []*regexp.Regexp{
	regexp.MustCompile(`key=[^&"\s]+`),
	regexp.MustCompile(`apiKey=[^&"\s]+`),
	regexp.MustCompile(`api_key=[^&"\s]+`),
	regexp.MustCompile(`token=[^&"\s]+`),
	regexp.MustCompile(`access_token=[^&"\s]+`),
}

var urlSecretReplacements = []string{
	"key=[REDACTED]",
	"apiKey=[REDACTED]",
	"api_key=[REDACTED]",
	"token=[REDACTED]",
	"access_token=[REDACTED]",
}

// RedactURLSecrets redacts API keys and tokens from URLs appearing in error
// messages, covering the query-parameter auth styles of current providers.
func RedactURLSecrets(text string) string {
	if text == "" {
		return text
	}
	for i, re := range urlSecretParams {
		text = re.ReplaceAllString(text, urlSecretReplacements[i])
	}
	return text
}
