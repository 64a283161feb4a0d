package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movesec/auditor/internal/domain"
)

func TestExtractJSONFromMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "json fence",
			input: "```json\n[{\"function_name\":\"withdraw\"}]\n```",
			want:  `[{"function_name":"withdraw"}]`,
		},
		{
			name:  "plain fence",
			input: "```\n[]\n```",
			want:  "[]",
		},
		{
			name:  "no fence returns trimmed input",
			input: "  [] \n",
			want:  "[]",
		},
		{
			name:  "nested fence matches to last backticks",
			input: "```json\n[{\"evidence_code_snippet\":\"```move\\ncode\\n```\"}]\n```",
			want:  "[{\"evidence_code_snippet\":\"```move\\ncode\\n```\"}]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSONFromMarkdown(tt.input))
		})
	}
}

func TestParseFindingsResponseBareArray(t *testing.T) {
	findings, err := ParseFindingsResponse(`[
		{"function_name":"withdraw_all","technical_reason":"drains funds","matched_pattern_id":"STATIC-GENERIC-WITHDRAW","severity":"High"}
	]`)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "withdraw_all", findings[0].FunctionName)
	assert.Equal(t, domain.SeverityHigh, findings[0].Severity, "severity casing is normalized")
}

func TestParseFindingsResponseEnvelope(t *testing.T) {
	findings, err := ParseFindingsResponse(`{"findings":[{"function_name":"mint","severity":"critical"}]}`)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, domain.SeverityCritical, findings[0].Severity)
}

func TestParseFindingsResponseMarkdownWrapped(t *testing.T) {
	findings, err := ParseFindingsResponse("Here are the findings:\n```json\n[{\"function_name\":\"burn\",\"severity\":\"low\"}]\n```")
	require.NoError(t, err)
	require.Len(t, findings, 1)
}

func TestParseFindingsResponseInvalid(t *testing.T) {
	_, err := ParseFindingsResponse("not json at all")
	require.Error(t, err)

	_, err = ParseFindingsResponse("")
	require.Error(t, err)
}

func TestParseFindingsResponseUnknownSeverityDefaults(t *testing.T) {
	findings, err := ParseFindingsResponse(`[{"function_name":"f","severity":"catastrophic"}]`)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, domain.SeverityMedium, findings[0].Severity)
}
