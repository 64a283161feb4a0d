package llm

import "github.com/movesec/auditor/internal/domain"

// UsageMetadata captures token usage and cost information from a model call.
// It flows alongside the findings through the adapter layer.
type UsageMetadata struct {
	TokensIn  int     // Input tokens consumed
	TokensOut int     // Output tokens generated
	Cost      float64 // Cost in USD
}

// ProviderResponse is the standardized response from any model provider.
// All provider clients return this type so the orchestrator never sees a
// provider-specific shape.
type ProviderResponse struct {
	Model    string
	Findings []domain.ModelFinding
	Usage    UsageMetadata
}
