package http

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateForLogging(t *testing.T) {
	short := "short response"
	assert.Equal(t, short, TruncateForLogging(short))

	long := strings.Repeat("x", MaxLoggedResponseLength+50)
	truncated := TruncateForLogging(long)
	assert.Contains(t, truncated, "[truncated")
	assert.Less(t, len(truncated), len(long))
}

func TestRedactURLSecrets(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "query key",
			input: "https://api.example.com/v1?key=secret123&foo=bar",
			want:  "https://api.example.com/v1?key=[REDACTED]&foo=bar",
		},
		{
			name:  "token parameter",
			input: "request to https://host/path?token=abc failed",
			want:  "request to https://host/path?token=[REDACTED] failed",
		},
		{
			name:  "no secrets untouched",
			input: "https://api.example.com/v1/messages",
			want:  "https://api.example.com/v1/messages",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RedactURLSecrets(tt.input))
		})
	}
}

func TestRedactAPIKey(t *testing.T) {
	logger := NewDefaultLogger(LogLevelInfo, LogFormatHuman, true)
	assert.Equal(t, "[REDACTED-5678]", logger.RedactAPIKey("sk-ant-12345678"))
	assert.Equal(t, "[REDACTED]", logger.RedactAPIKey("abc"))

	logger.SetRedaction(false)
	assert.Equal(t, "sk-ant-12345678", logger.RedactAPIKey("sk-ant-12345678"))
}

func TestErrorTypeStrings(t *testing.T) {
	assert.Equal(t, "rate limit exceeded", ErrTypeRateLimit.String())
	assert.Equal(t, "authentication error", ErrTypeAuthentication.String())
	assert.Equal(t, "unknown error", ErrTypeUnknown.String())
}

func TestPricingKnownAndUnknownModels(t *testing.T) {
	pricing := NewDefaultPricing()

	cost := pricing.GetCost("anthropic", "claude-sonnet-4-5", 1_000_000, 1_000_000)
	assert.InDelta(t, 18.00, cost, 0.001)

	assert.Zero(t, pricing.GetCost("anthropic", "unknown-model", 1000, 1000))
	assert.Zero(t, pricing.GetCost("unknown-provider", "any", 1000, 1000))
}
