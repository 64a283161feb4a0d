// Package validation cross-checks model-proposed findings against the same
// ground truth the static analyzer uses (bytecode text, the public function
// table, the pattern catalog) and assigns each finding a 0-100 trust score.
// Findings scoring below the invalid threshold are dropped; everything else
// is kept, annotated with its status and notes.
package validation

import (
	"fmt"
	"strings"

	"github.com/movesec/auditor/internal/domain"
)

// Score thresholds for the three validation buckets.
const (
	validatedThreshold = 70
	invalidThreshold   = 40
)

// Deduction weights. Each check is independent; deductions accumulate and
// the final score is clamped to zero.
const (
	deductUnknownPattern     = 30
	deductUnknownFunction    = 25
	deductNoEvidence         = 10
	deductEvidenceNotFound   = 20
	deductSeverityMismatch   = 15
	deductHedging            = 5
	deductProseEvidence      = 15
	deductRoundLineNumber    = 10
	deductWeakCriticalReason = 10
)

// Context is the ground truth a validation pass checks findings against.
type Context struct {
	ModuleCode      map[string]string
	Functions       []domain.PublicFunction
	KnownPatternIDs []string
}

// ValidateFindings scores every model finding against the context and
// buckets it as validated (>=70), unvalidated (40-69), or invalid (<40).
// Invalid findings are excluded from the kept list; validated and
// unvalidated are both kept. The summary's average score covers kept
// findings only.
func ValidateFindings(findings []domain.ModelFinding, ctx Context) domain.ValidationResult {
	result := domain.ValidationResult{
		ValidatedFindings: []domain.ValidatedFinding{},
	}

	var keptScoreSum int
	for _, finding := range findings {
		vf := validateOne(finding, ctx)
		result.Summary.Total++

		switch vf.ValidationStatus {
		case domain.StatusValidated:
			result.Summary.Validated++
		case domain.StatusUnvalidated:
			result.Summary.Unvalidated++
		case domain.StatusInvalid:
			result.Summary.Invalid++
		}

		if vf.ValidationStatus == domain.StatusInvalid {
			result.RemovedFindings = append(result.RemovedFindings, vf)
			continue
		}
		keptScoreSum += vf.ValidationScore
		result.ValidatedFindings = append(result.ValidatedFindings, vf)
	}

	if kept := len(result.ValidatedFindings); kept > 0 {
		result.Summary.AverageScore = float64(keptScoreSum) / float64(kept)
	}
	return result
}

func validateOne(finding domain.ModelFinding, ctx Context) domain.ValidatedFinding {
	score := 100
	var notes []string
	var matchedModule string

	if !knownPatternID(finding.MatchedPatternID, ctx.KnownPatternIDs) {
		score -= deductUnknownPattern
		notes = append(notes, fmt.Sprintf("pattern %q is not in the known catalog", finding.MatchedPatternID))
	}

	if !functionKnown(finding.FunctionName, ctx.Functions) {
		score -= deductUnknownFunction
		notes = append(notes, fmt.Sprintf("function %q not found among public functions", finding.FunctionName))
	}

	switch {
	case finding.EvidenceCodeSnippet == "":
		score -= deductNoEvidence
		notes = append(notes, "no evidence snippet provided")
	default:
		module, ok := locateEvidence(finding.EvidenceCodeSnippet, ctx.ModuleCode)
		if ok {
			matchedModule = module
		} else {
			score -= deductEvidenceNotFound
			notes = append(notes, "evidence snippet not found in any module's bytecode")
		}
	}

	if expected, ok := expectedSeverity(finding.MatchedPatternID, ctx.KnownPatternIDs); ok && expected != finding.Severity {
		score -= deductSeverityMismatch
		notes = append(notes, fmt.Sprintf("severity %s disagrees with catalog severity %s", finding.Severity, expected))
	}

	hallucinationScore, hallucinationNotes := hallucinationDeductions(finding)
	score -= hallucinationScore
	notes = append(notes, hallucinationNotes...)

	if score < 0 {
		score = 0
	}

	return domain.ValidatedFinding{
		ModelFinding:     finding,
		ValidationStatus: statusFor(score),
		ValidationNotes:  notes,
		ValidationScore:  score,
		MatchedModule:    matchedModule,
	}
}

func statusFor(score int) domain.ValidationStatus {
	switch {
	case score >= validatedThreshold:
		return domain.StatusValidated
	case score >= invalidThreshold:
		return domain.StatusUnvalidated
	default:
		return domain.StatusInvalid
	}
}

// functionKnown resolves a model-reported function name against the public
// function table: exact case-insensitive match, suffix-after-:: match, or
// substring containment in either direction.
func functionKnown(name string, functions []domain.PublicFunction) bool {
	candidate := strings.ToLower(strings.TrimSpace(name))
	if candidate == "" {
		return false
	}
	short := candidate
	if idx := strings.LastIndex(candidate, "::"); idx >= 0 {
		short = candidate[idx+2:]
	}

	for _, fn := range functions {
		known := strings.ToLower(fn.Name)
		qualified := strings.ToLower(fn.QualifiedName())
		if candidate == known || candidate == qualified || short == known {
			return true
		}
		if strings.Contains(known, candidate) || strings.Contains(candidate, known) {
			return true
		}
	}
	return false
}
