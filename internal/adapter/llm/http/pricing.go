package http

// Pricing calculates API costs based on token usage.
type Pricing interface {
	// GetCost calculates cost for a given model and token usage.
	GetCost(provider, model string, tokensIn, tokensOut int) float64
}

// ModelPricing contains per-token pricing for a model.
type ModelPricing struct {
	InputPer1M  float64 // Cost per 1M input tokens in USD
	OutputPer1M float64 // Cost per 1M output tokens in USD
}

// DefaultPricing provides cost calculation for the supported providers.
type DefaultPricing struct {
	prices map[string]map[string]ModelPricing
}

// NewDefaultPricing creates a pricing calculator with current rates.
func NewDefaultPricing() *DefaultPricing {
	return &DefaultPricing{prices: buildPricingTable()}
}

// GetCost calculates the cost of one call. Unknown providers or models
// price at zero rather than guessing.
func (p *DefaultPricing) GetCost(provider, model string, tokensIn, tokensOut int) float64 {
	providerPrices, ok := p.prices[provider]
	if !ok {
		return 0.0
	}
	modelPrice, ok := providerPrices[model]
	if !ok {
		return 0.0
	}
	inputCost := float64(tokensIn) / 1_000_000.0 * modelPrice.InputPer1M
	outputCost := float64(tokensOut) / 1_000_000.0 * modelPrice.OutputPer1M
	return inputCost + outputCost
}

// buildPricingTable returns pricing data for all supported models.
// Pricing as of: 2026-08-01
// Sources:
// - OpenAI: https://openai.com/api/pricing/
// - Anthropic: https://claude.com/pricing
func buildPricingTable() map[string]map[string]ModelPricing {
	return map[string]map[string]ModelPricing{
		"openai": {
			"gpt-5.2":                {InputPer1M: 1.75, OutputPer1M: 14.00},
			"gpt-5.2-pro":            {InputPer1M: 21.00, OutputPer1M: 168.00},
			"gpt-5.2-2025-12-11":     {InputPer1M: 1.75, OutputPer1M: 14.00},
			"gpt-5.2-pro-2025-12-11": {InputPer1M: 21.00, OutputPer1M: 168.00},
		},
		"anthropic": {
			"claude-sonnet-4-5":          {InputPer1M: 3.00, OutputPer1M: 15.00},
			"claude-opus-4-5":            {InputPer1M: 5.00, OutputPer1M: 25.00},
			"claude-sonnet-4-5-20250929": {InputPer1M: 3.00, OutputPer1M: 15.00},
			"claude-opus-4-5-20251101":   {InputPer1M: 5.00, OutputPer1M: 25.00},
		},
	}
}
