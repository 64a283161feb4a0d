package domain

import "time"

// StaticFinding is one potential issue detected by the pattern matcher.
// Findings are uniquely keyed by (PatternID, ModuleName, FunctionName);
// the matcher guarantees that triple never repeats in a result.
type StaticFinding struct {
	PatternID    string            `json:"patternId"`
	Severity     Severity          `json:"severity"`
	FunctionName string            `json:"functionName"`
	ModuleName   string            `json:"moduleName"`
	Evidence     string            `json:"evidence,omitempty"`
	Description  string            `json:"description"`
	Confidence   FindingConfidence `json:"confidence"`
}

// Key returns the dedup identity of the finding.
func (f StaticFinding) Key() string {
	return f.PatternID + "|" + f.ModuleName + "|" + f.FunctionName
}

// StaticAnalysisResult is the pattern matcher's output for one package.
type StaticAnalysisResult struct {
	Findings        []StaticFinding `json:"findings"`
	AnalyzedModules []string        `json:"analyzedModules"`
	PatternsChecked int             `json:"patternsChecked"`
	AnalysisTime    time.Duration   `json:"analysisTime"`
}

// ModelFinding is one issue proposed by a language model. Field names match
// the JSON shape the models are instructed to produce.
type ModelFinding struct {
	FunctionName        string   `json:"function_name"`
	TechnicalReason     string   `json:"technical_reason"`
	MatchedPatternID    string   `json:"matched_pattern_id"`
	Severity            Severity `json:"severity"`
	ContextualNotes     string   `json:"contextual_notes,omitempty"`
	EvidenceCodeSnippet string   `json:"evidence_code_snippet,omitempty"`
}
