package domain

// ConfidenceLevel is the qualitative grade of an analysis run.
type ConfidenceLevel string

const (
	ConfidenceLevelHigh   ConfidenceLevel = "high"
	ConfidenceLevelMedium ConfidenceLevel = "medium"
	ConfidenceLevelLow    ConfidenceLevel = "low"
)

// LimitationSeverity grades how much a limitation widens the confidence
// interval.
type LimitationSeverity string

const (
	LimitationSignificant LimitationSeverity = "significant"
	LimitationModerate    LimitationSeverity = "moderate"
	LimitationMinor       LimitationSeverity = "minor"
)

// Limitation types recorded by the confidence engine.
const (
	LimitationTruncation  = "truncation"
	LimitationValidation  = "validation"
	LimitationCoverage    = "coverage"
	LimitationPackageSize = "package_size"
	LimitationLLMErrors   = "llm_errors"
	LimitationStaticLight = "static_coverage"
)

// AnalysisLimitation is one known weakness of a run.
type AnalysisLimitation struct {
	Type        string             `json:"type"`
	Severity    LimitationSeverity `json:"severity"`
	Description string             `json:"description"`
}

// ConfidenceInterval bounds the risk score. Width is always Upper-Lower and
// 0 <= Lower <= Upper <= 100.
type ConfidenceInterval struct {
	Lower int `json:"lower"`
	Upper int `json:"upper"`
	Width int `json:"width"`
}

// AnalysisQuality holds the per-dimension quality rates, each in [0,100].
type AnalysisQuality struct {
	ValidationRate         float64 `json:"validationRate"`
	StaticAnalysisCoverage float64 `json:"staticAnalysisCoverage"`
	CrossModuleCoverage    float64 `json:"crossModuleCoverage"`
	LLMAgreementRate       float64 `json:"llmAgreementRate"`
}

// ConfidenceMetrics is the confidence engine's final, immutable output for
// one analysis run.
type ConfidenceMetrics struct {
	ConfidenceInterval ConfidenceInterval   `json:"confidenceInterval"`
	ConfidenceLevel    ConfidenceLevel      `json:"confidenceLevel"`
	AnalysisQuality    AnalysisQuality      `json:"analysisQuality"`
	Limitations        []AnalysisLimitation `json:"limitations"`
	Recommendations    []string             `json:"recommendations"`
}

// ClampScore clamps a rate or score into [0,100].
func ClampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
