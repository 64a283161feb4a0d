package domain

import "time"

// ContractPackage is the analyzable form of one on-chain package: the
// disassembled text of each module plus the normalized public function
// table. Both are produced upstream (chain fetch and normalization) and
// treated as immutable by the analysis core.
type ContractPackage struct {
	PackageID  string            `json:"packageId"`
	ModuleCode map[string]string `json:"-"`
	Functions  []PublicFunction  `json:"functions"`
}

// AssessmentReport is the complete output of one analysis run: every
// stage's result plus the aggregate risk score and confidence metrics.
// It is a plain record, safe to persist or serve verbatim.
type AssessmentReport struct {
	PackageID   string                    `json:"packageId"`
	Static      StaticAnalysisResult      `json:"static"`
	CrossModule CrossModuleAnalysisResult `json:"crossModule"`
	Validation  ValidationResult          `json:"validation"`
	RiskScore   float64                   `json:"riskScore"`
	Confidence  ConfidenceMetrics         `json:"confidence"`
	GeneratedAt time.Time                 `json:"generatedAt"`
	// Provenance carries source metadata for local-mode audits, e.g. the
	// git commit of the disassembled package directory.
	Provenance string `json:"provenance,omitempty"`
}
