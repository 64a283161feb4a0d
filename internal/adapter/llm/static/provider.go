package static

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/movesec/auditor/internal/domain"
	"github.com/movesec/auditor/internal/usecase/audit"
)

const providerName = "static"

// Provider implements the audit Provider port with canned findings.
type Provider struct {
	model    string
	findings []domain.ModelFinding
}

// NewProvider constructs a static Provider returning the given findings.
func NewProvider(model string, findings []domain.ModelFinding) *Provider {
	return &Provider{model: model, findings: findings}
}

// NewProviderFromFile loads canned findings from a JSON file so recorded
// model output can be replayed against a package.
func NewProviderFromFile(model, path string) (*Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read findings file: %w", err)
	}
	var findings []domain.ModelFinding
	if err := json.Unmarshal(data, &findings); err != nil {
		return nil, fmt.Errorf("parse findings file %s: %w", path, err)
	}
	return &Provider{model: model, findings: findings}, nil
}

// ProposeFindings returns the canned findings, ignoring the prompt.
func (p *Provider) ProposeFindings(ctx context.Context, req audit.ProviderRequest) (audit.ProviderResponse, error) {
	return audit.ProviderResponse{
		Model:    p.model,
		Findings: p.findings,
	}, nil
}
