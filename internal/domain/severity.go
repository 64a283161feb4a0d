package domain

import "strings"

// Severity classifies how dangerous a finding is. The set is closed and
// totally ordered: Critical sorts before High, High before Medium, Medium
// before Low.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// severityRanks maps each severity to its ascending sort index.
var severityRanks = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
}

// Rank returns the ascending sort index of the severity (Critical=0, Low=3).
// Unknown severities rank after Low so that malformed input never displaces
// recognized findings.
func (s Severity) Rank() int {
	if r, ok := severityRanks[s]; ok {
		return r
	}
	return len(severityRanks)
}

// IsValid returns true if the severity is a recognized value.
func (s Severity) IsValid() bool {
	_, ok := severityRanks[s]
	return ok
}

// ParseSeverity normalizes a free-text severity (e.g. "Critical", "HIGH")
// into a canonical Severity. Unrecognized input maps to SeverityMedium,
// the neutral middle of the scale.
func ParseSeverity(raw string) Severity {
	s := Severity(strings.ToLower(strings.TrimSpace(raw)))
	if s.IsValid() {
		return s
	}
	return SeverityMedium
}

// FindingConfidence expresses how a static finding was detected. Signature
// matches are definite; text and combined matches are likely; anything
// weaker is possible.
type FindingConfidence string

const (
	ConfidenceDefinite FindingConfidence = "definite"
	ConfidenceLikely   FindingConfidence = "likely"
	ConfidencePossible FindingConfidence = "possible"
)

// confidenceRanks orders detection confidence, strongest first.
var confidenceRanks = map[FindingConfidence]int{
	ConfidenceDefinite: 0,
	ConfidenceLikely:   1,
	ConfidencePossible: 2,
}

// Stronger reports whether c is a higher-confidence signal than other.
func (c FindingConfidence) Stronger(other FindingConfidence) bool {
	cr, ok := confidenceRanks[c]
	if !ok {
		cr = len(confidenceRanks)
	}
	or, ok := confidenceRanks[other]
	if !ok {
		or = len(confidenceRanks)
	}
	return cr < or
}
