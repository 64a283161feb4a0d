package domain

// ValidationStatus buckets a model finding by its validation score.
type ValidationStatus string

const (
	// StatusValidated means the finding scored >= 70 against ground truth.
	StatusValidated ValidationStatus = "validated"
	// StatusUnvalidated means the finding scored 40-69: kept, but flagged.
	StatusUnvalidated ValidationStatus = "unvalidated"
	// StatusInvalid means the finding scored < 40 and is dropped.
	StatusInvalid ValidationStatus = "invalid"
)

// ValidatedFinding is a model finding annotated with the outcome of
// cross-checking it against bytecode, the function table, and the pattern
// catalog.
type ValidatedFinding struct {
	ModelFinding
	ValidationStatus ValidationStatus `json:"validation_status"`
	ValidationNotes  []string         `json:"validation_notes,omitempty"`
	ValidationScore  int              `json:"validation_score"`
	// MatchedModule records which module's bytecode contained the evidence,
	// when it was located.
	MatchedModule string `json:"matched_module,omitempty"`
}

// ValidationSummary aggregates one validation pass.
type ValidationSummary struct {
	Total        int     `json:"total"`
	Validated    int     `json:"validated"`
	Unvalidated  int     `json:"unvalidated"`
	Invalid      int     `json:"invalid"`
	AverageScore float64 `json:"averageScore"`
}

// ValidationResult is the evidence validator's output. ValidatedFindings
// holds both validated and unvalidated findings; only invalid ones are moved
// to RemovedFindings.
type ValidationResult struct {
	ValidatedFindings []ValidatedFinding `json:"validatedFindings"`
	RemovedFindings   []ValidatedFinding `json:"removedFindings,omitempty"`
	Summary           ValidationSummary  `json:"summary"`
}
