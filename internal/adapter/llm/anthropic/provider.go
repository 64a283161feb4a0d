package anthropic

import (
	"context"
	"fmt"

	llmhttp "github.com/movesec/auditor/internal/adapter/llm/http"
	"github.com/movesec/auditor/internal/usecase/audit"
)

const providerName = "anthropic"

// Client abstracts the Anthropic HTTP client behaviour we need.
type Client interface {
	Call(ctx context.Context, prompt string, maxTokens int) (*APIResponse, error)
}

// Provider implements the audit Provider port.
type Provider struct {
	model   string
	client  Client
	pricing llmhttp.Pricing
}

// NewProvider constructs a Provider for the supplied model.
func NewProvider(model string, client Client) *Provider {
	return &Provider{
		model:   model,
		client:  client,
		pricing: llmhttp.NewDefaultPricing(),
	}
}

// ProposeFindings sends the review prompt to Anthropic and translates the
// reply into model findings. An unparseable reply is an error; the
// orchestrator treats it like any other provider failure.
func (p *Provider) ProposeFindings(ctx context.Context, req audit.ProviderRequest) (audit.ProviderResponse, error) {
	if p.client == nil {
		return audit.ProviderResponse{}, fmt.Errorf("anthropic client missing")
	}

	resp, err := p.client.Call(ctx, req.Prompt, req.MaxTokens)
	if err != nil {
		return audit.ProviderResponse{}, fmt.Errorf("anthropic: %w", err)
	}

	findings, err := llmhttp.ParseFindingsResponse(resp.Text)
	if err != nil {
		return audit.ProviderResponse{}, fmt.Errorf("anthropic: unparseable reply %q: %w",
			llmhttp.TruncateForLogging(resp.Text), err)
	}

	return audit.ProviderResponse{
		Model:     resp.Model,
		Findings:  findings,
		TokensIn:  resp.TokensIn,
		TokensOut: resp.TokensOut,
	}, nil
}

// Cost reports the USD cost of one call at current prices.
func (p *Provider) Cost(tokensIn, tokensOut int) float64 {
	return p.pricing.GetCost(providerName, p.model, tokensIn, tokensOut)
}
