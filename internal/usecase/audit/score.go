package audit

import "github.com/movesec/auditor/internal/domain"

// Severity weights for the aggregate package risk score.
var severityWeights = map[domain.Severity]float64{
	domain.SeverityCritical: 25,
	domain.SeverityHigh:     15,
	domain.SeverityMedium:   8,
	domain.SeverityLow:      3,
}

// RiskScore aggregates every confirmed signal into a single 0-100 score.
// Static findings and cross-module risks count at full weight. Model
// findings count only when validation kept them, scaled by their validation
// score so a barely-kept finding moves the needle less than a verified one.
func RiskScore(
	static domain.StaticAnalysisResult,
	cross domain.CrossModuleAnalysisResult,
	validated domain.ValidationResult,
) float64 {
	var score float64
	for _, f := range static.Findings {
		score += severityWeights[f.Severity]
	}
	for _, r := range cross.Risks {
		score += severityWeights[r.Severity]
	}
	for _, f := range validated.ValidatedFindings {
		score += severityWeights[f.Severity] * float64(f.ValidationScore) / 100
	}
	if score > 100 {
		score = 100
	}
	return score
}
