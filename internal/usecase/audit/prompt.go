package audit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/movesec/auditor/internal/domain"
)

// defaultMaxTokens sets the maximum output tokens for LLM responses.
//
// 64000 is a safe ceiling across current providers; thinking models spend
// output budget on internal reasoning before visible output, so low limits
// risk empty MAX_TOKENS responses.
const defaultMaxTokens = 64000

// promptTokenBudget bounds the total prompt size. Module bytecode beyond the
// budget is truncated and the affected modules are reported to the caller so
// the confidence engine can price the loss.
const promptTokenBudget = 100000

// perModuleTokenCap bounds any single module's share of the prompt so one
// giant module cannot starve the rest.
const perModuleTokenCap = 24000

// FormatFindingsText renders static and cross-module results as plain text
// for inclusion in a review prompt. It is a pure formatting function over
// the result records.
func FormatFindingsText(static domain.StaticAnalysisResult, cross domain.CrossModuleAnalysisResult) string {
	var b strings.Builder

	b.WriteString("## Static Analysis Findings\n\n")
	if len(static.Findings) == 0 {
		b.WriteString("No static findings.\n")
	}
	for _, f := range static.Findings {
		b.WriteString(fmt.Sprintf("- [%s] %s in %s::%s (confidence: %s)\n",
			strings.ToUpper(string(f.Severity)), f.PatternID, f.ModuleName, f.FunctionName, f.Confidence))
		b.WriteString(fmt.Sprintf("  %s\n", f.Description))
		if f.Evidence != "" {
			b.WriteString(fmt.Sprintf("  Evidence: %s\n", f.Evidence))
		}
	}

	b.WriteString("\n## Cross-Module Capability Risks\n\n")
	if len(cross.Risks) == 0 {
		b.WriteString("No cross-module risks.\n")
	}
	for _, r := range cross.Risks {
		b.WriteString(fmt.Sprintf("- [%s] %s: %s\n",
			strings.ToUpper(string(r.Severity)), r.PatternID, r.Description))
		b.WriteString(fmt.Sprintf("  Source: %s::%s, affects: %s\n",
			r.SourceModule, r.SourceFunction, strings.Join(r.AffectedModules, ", ")))
		if r.Evidence != "" {
			b.WriteString(fmt.Sprintf("  Evidence: %s\n", r.Evidence))
		}
	}

	return b.String()
}

// BuildReviewPrompt assembles the full review prompt: instructions, the
// expected JSON schema, static and cross-module context, and each module's
// disassembled text under the token budget. It returns the prompt and the
// names of any modules whose text had to be truncated.
//
// Modules are rendered in sorted name order so the prompt, and therefore
// which modules get truncated, is deterministic for a given package.
func BuildReviewPrompt(
	pkg domain.ContractPackage,
	static domain.StaticAnalysisResult,
	cross domain.CrossModuleAnalysisResult,
	estimate TokenEstimator,
) (string, []string) {
	if estimate == nil {
		estimate = approximateTokens
	}

	var b strings.Builder
	b.WriteString("You are an expert Move smart-contract security auditor.\n")
	b.WriteString("Review the disassembled modules below and report vulnerabilities as JSON.\n\n")
	b.WriteString("Respond with a JSON array of findings, each with fields: ")
	b.WriteString(`"function_name", "technical_reason", "matched_pattern_id", "severity", "contextual_notes", "evidence_code_snippet".` + "\n")
	b.WriteString("Quote evidence_code_snippet verbatim from the module text. ")
	b.WriteString("Use only pattern IDs that appear in the findings context below, and report line-specific evidence rather than approximate locations.\n\n")

	b.WriteString(fmt.Sprintf("Package: %s\n\n", pkg.PackageID))
	b.WriteString(FormatFindingsText(static, cross))
	b.WriteString("\n## Module Bytecode\n\n")

	budget := promptTokenBudget - estimate(b.String())

	names := make([]string, 0, len(pkg.ModuleCode))
	for name := range pkg.ModuleCode {
		names = append(names, name)
	}
	sort.Strings(names)

	var truncated []string
	for _, name := range names {
		text := pkg.ModuleCode[name]
		header := fmt.Sprintf("### Module: %s\n", name)
		cost := estimate(header) + estimate(text)

		allowance := perModuleTokenCap
		if budget < allowance {
			allowance = budget
		}
		if cost > allowance {
			text = truncateToTokens(text, allowance-estimate(header), estimate)
			truncated = append(truncated, name)
			cost = estimate(header) + estimate(text)
		}
		if estimate(text) <= 0 {
			// Budget exhausted entirely; record the module and move on.
			continue
		}

		b.WriteString(header)
		b.WriteString(text)
		b.WriteString("\n\n")
		budget -= cost
	}

	return b.String(), truncated
}

// approximateTokens is the fallback estimator when no tokenizer is wired in.
// Four characters per token tracks BPE tokenizers closely enough for
// budgeting decompiled bytecode.
func approximateTokens(text string) int {
	return len(text) / 4
}

// truncateToTokens cuts text to roughly the given token allowance, breaking
// on a line boundary so the tail of the prompt stays parseable.
func truncateToTokens(text string, allowance int, estimate TokenEstimator) string {
	if allowance <= 0 {
		return ""
	}
	if estimate(text) <= allowance {
		return text
	}

	// Binary search the longest prefix within the allowance.
	lo, hi := 0, len(text)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if estimate(text[:mid]) <= allowance {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	cut := text[:lo]
	if idx := strings.LastIndexByte(cut, '\n'); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "\n... [truncated]"
}
