// Package redaction contains security test cases for credential handling in
// logs. API keys travel in headers and occasionally in URLs; nothing that
// reaches a log line may contain a usable secret.
package redaction

import (
	"testing"

	"github.com/stretchr/testify/assert"

	llmhttp "github.com/movesec/auditor/internal/adapter/llm/http"
)

func TestURLSecretsAreRedacted(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "key query parameter",
			input: "request to https://api.example.com/v1/models?key=sk-abc123def failed",
			want:  "request to https://api.example.com/v1/models?key=[REDACTED] failed",
		},
		{
			name:  "api_key query parameter",
			input: "GET https://api.example.com/v1?api_key=secret-value-9 returned 401",
			want:  "GET https://api.example.com/v1?api_key=[REDACTED] returned 401",
		},
		{
			name:  "token parameter mid query string",
			input: "https://api.example.com/v1?model=x&token=ghp_abcdef&stream=true",
			want:  "https://api.example.com/v1?model=x&token=[REDACTED]&stream=true",
		},
		{
			name:  "no secrets untouched",
			input: "https://api.example.com/v1/messages returned 200",
			want:  "https://api.example.com/v1/messages returned 200",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, llmhttp.RedactURLSecrets(tt.input))
		})
	}
}

func TestAPIKeyRedactionKeepsOnlyTail(t *testing.T) {
	logger := llmhttp.NewDefaultLogger(llmhttp.LogLevelInfo, llmhttp.LogFormatJSON, true)

	redacted := logger.RedactAPIKey("sk-ant-REDACTED")

	assert.NotContains(t, redacted, "verylongsecret")
	assert.Contains(t, redacted, "1234")
}

func TestAPIKeyRedactionShortValues(t *testing.T) {
	logger := llmhttp.NewDefaultLogger(llmhttp.LogLevelInfo, llmhttp.LogFormatJSON, true)

	// Values too short to safely expose a tail are fully masked.
	assert.Equal(t, "[REDACTED]", logger.RedactAPIKey("abcd"))
	assert.Equal(t, "[REDACTED]", logger.RedactAPIKey("x"))
}

func TestErrorMessagesPassThroughRedaction(t *testing.T) {
	err := llmhttp.NewAuthenticationError("anthropic",
		"401 unauthorized for https://api.anthropic.com/v1/messages?key=sk-live-secret")

	assert.Contains(t, llmhttp.RedactURLSecrets(err.Error()), "key=[REDACTED]")
	assert.NotContains(t, llmhttp.RedactURLSecrets(err.Error()), "sk-live-secret")
}
