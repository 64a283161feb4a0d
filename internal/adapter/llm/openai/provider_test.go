package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movesec/auditor/internal/domain"
	"github.com/movesec/auditor/internal/usecase/audit"
)

type fakeClient struct {
	resp *APIResponse
	err  error
}

func (f *fakeClient) Call(ctx context.Context, prompt string, maxTokens int) (*APIResponse, error) {
	return f.resp, f.err
}

func TestProposeFindingsTranslatesEnvelope(t *testing.T) {
	provider := NewProvider("gpt-5.2", &fakeClient{resp: &APIResponse{
		Text:     `{"findings":[{"function_name":"mint","matched_pattern_id":"STATIC-UNRESTRICTED-MINT","severity":"HIGH"}]}`,
		Model:    "gpt-5.2",
		TokensIn: 300,
	}})

	resp, err := provider.ProposeFindings(context.Background(), audit.ProviderRequest{Prompt: "p", MaxTokens: 1000})
	require.NoError(t, err)
	require.Len(t, resp.Findings, 1)
	assert.Equal(t, "mint", resp.Findings[0].FunctionName)
	assert.Equal(t, domain.SeverityHigh, resp.Findings[0].Severity)
}

func TestProposeFindingsClientError(t *testing.T) {
	provider := NewProvider("gpt-5.2", &fakeClient{err: errors.New("boom")})
	_, err := provider.ProposeFindings(context.Background(), audit.ProviderRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai")
}

func TestProposeFindingsMissingClient(t *testing.T) {
	provider := NewProvider("gpt-5.2", nil)
	_, err := provider.ProposeFindings(context.Background(), audit.ProviderRequest{})
	require.Error(t, err)
}
