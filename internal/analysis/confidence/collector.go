// Package confidence aggregates run-level counters into a bounded
// confidence interval around the risk score, a qualitative confidence
// level, and the list of known analysis limitations.
package confidence

import "github.com/movesec/auditor/internal/domain"

// MetricsCollector accumulates counters over one analysis run. It is the
// only mutable state in the analysis core: created by the orchestrator at
// run start, written sequentially between stages, read once by Calculate,
// then discarded. It must not be shared across concurrent workers; workers
// return pure results and the owning orchestrator records them afterward.
type MetricsCollector struct {
	TotalModules    int
	AnalyzedModules int
	TotalFunctions  int

	TruncatedModules   []string
	TotalBytecodeBytes int

	StaticFindings    int
	CrossModuleRan    bool
	CapabilitiesFound int
	CrossModuleRisks  int

	LLMFindings int
	LLMErrors   int

	ValidatedCount         int
	UnvalidatedCount       int
	InvalidCount           int
	AverageValidationScore float64
}

// NewCollector returns an empty collector for one run.
func NewCollector() *MetricsCollector {
	return &MetricsCollector{}
}

// RecordModules notes how many of the package's modules were analyzed.
func (c *MetricsCollector) RecordModules(analyzed, total int) {
	c.AnalyzedModules = analyzed
	c.TotalModules = total
}

// RecordFunctions notes the size of the public function table.
func (c *MetricsCollector) RecordFunctions(total int) {
	c.TotalFunctions = total
}

// RecordTruncation notes a module whose bytecode was cut to fit a prompt.
func (c *MetricsCollector) RecordTruncation(module string) {
	c.TruncatedModules = append(c.TruncatedModules, module)
}

// RecordBytecodeSize accumulates the total disassembly size in bytes.
func (c *MetricsCollector) RecordBytecodeSize(bytes int) {
	c.TotalBytecodeBytes += bytes
}

// RecordStaticAnalysis captures the pattern matcher's output counts.
func (c *MetricsCollector) RecordStaticAnalysis(result domain.StaticAnalysisResult) {
	c.StaticFindings = len(result.Findings)
}

// RecordCrossModule captures the capability-flow analyzer's output counts.
func (c *MetricsCollector) RecordCrossModule(result domain.CrossModuleAnalysisResult) {
	c.CrossModuleRan = true
	c.CapabilitiesFound = len(result.Capabilities)
	c.CrossModuleRisks = len(result.Risks)
}

// RecordLLMFindings captures how many findings the model proposed.
func (c *MetricsCollector) RecordLLMFindings(count int) {
	c.LLMFindings += count
}

// RecordLLMError notes a failed model call.
func (c *MetricsCollector) RecordLLMError() {
	c.LLMErrors++
}

// RecordValidation captures the evidence validator's summary.
func (c *MetricsCollector) RecordValidation(summary domain.ValidationSummary) {
	c.ValidatedCount = summary.Validated
	c.UnvalidatedCount = summary.Unvalidated
	c.InvalidCount = summary.Invalid
	c.AverageValidationScore = summary.AverageScore
}

// ValidationRate returns validated/(validated+unvalidated+invalid) as a
// percentage, or 0 when nothing was validated.
func (c *MetricsCollector) ValidationRate() float64 {
	total := c.ValidatedCount + c.UnvalidatedCount + c.InvalidCount
	if total == 0 {
		return 0
	}
	return float64(c.ValidatedCount) / float64(total) * 100
}
