package patterns

import (
	"sort"
	"time"

	"github.com/movesec/auditor/internal/domain"
)

// evidenceRadius is how many characters of surrounding bytecode are kept
// around a text-pattern match.
const evidenceRadius = 50

// Run evaluates every catalog rule against every public function. Input that
// matches nothing yields an empty finding list, never an error.
//
// The result list is deduplicated by (pattern, module, function), keeping
// the first occurrence, and stable-sorted ascending by severity rank so
// critical findings come first.
func Run(moduleCode map[string]string, functions []domain.PublicFunction) domain.StaticAnalysisResult {
	start := time.Now()

	modules := analyzedModules(moduleCode, functions)

	var findings []domain.StaticFinding
	for _, fn := range functions {
		findings = append(findings, MatchFunction(fn, moduleCode[fn.Module])...)
	}

	return domain.StaticAnalysisResult{
		Findings:        Finalize(findings),
		AnalyzedModules: modules,
		PatternsChecked: len(catalog),
		AnalysisTime:    time.Since(start),
	}
}

// MatchFunction evaluates the full catalog against a single function and its
// module's text. It is the per-module unit of work for parallel fan-out;
// callers merge results with Finalize.
func MatchFunction(fn domain.PublicFunction, moduleText string) []domain.StaticFinding {
	var findings []domain.StaticFinding
	for _, rule := range catalog {
		if finding, ok := evaluate(rule, fn, moduleText); ok {
			findings = append(findings, finding)
		}
	}
	return findings
}

// Finalize applies the merge contract to a concatenated finding list:
// dedup by (pattern, module, function) keeping the first occurrence, then a
// stable ascending severity sort. It is commutative and associative over
// per-module result lists up to the stated ordering rules.
func Finalize(findings []domain.StaticFinding) []domain.StaticFinding {
	deduped := make([]domain.StaticFinding, 0, len(findings))
	seen := make(map[string]bool, len(findings))
	for _, f := range findings {
		if seen[f.Key()] {
			continue
		}
		seen[f.Key()] = true
		deduped = append(deduped, f)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Severity.Rank() < deduped[j].Severity.Rank()
	})
	return deduped
}

// evaluate runs a rule's detectors in priority order and keeps the highest
// confidence result: signature (definite) over text and combined matches.
func evaluate(rule PatternDefinition, fn domain.PublicFunction, moduleText string) (domain.StaticFinding, bool) {
	var (
		best     domain.StaticFinding
		matched  bool
		weakConf = rule.MatchConfidence
	)
	if weakConf == "" {
		weakConf = domain.ConfidenceLikely
	}

	consider := func(confidence domain.FindingConfidence, evidence string) {
		if matched && !confidence.Stronger(best.Confidence) {
			return
		}
		best = domain.StaticFinding{
			PatternID:    rule.ID,
			Severity:     rule.Severity,
			FunctionName: fn.Name,
			ModuleName:   fn.Module,
			Evidence:     evidence,
			Description:  rule.Description,
			Confidence:   confidence,
		}
		matched = true
	}

	if rule.Signature != nil && rule.Signature(fn) {
		consider(domain.ConfidenceDefinite, signatureEvidence(fn))
	}

	if moduleText != "" {
		for _, re := range rule.TextPatterns {
			if loc := re.FindStringIndex(moduleText); loc != nil {
				consider(weakConf, excerpt(moduleText, loc[0], loc[1]))
				break
			}
		}
	}

	if rule.Combined != nil && rule.Combined(fn, moduleText) {
		consider(weakConf, signatureEvidence(fn))
	}

	return best, matched
}

// signatureEvidence renders the function declaration as evidence for
// signature and combined matches.
func signatureEvidence(fn domain.PublicFunction) string {
	params := ""
	for i, p := range fn.Params {
		if i > 0 {
			params += ", "
		}
		params += p.String()
	}
	return "public fun " + fn.QualifiedName() + "(" + params + ")"
}

// excerpt extracts the matched text plus up to evidenceRadius characters of
// context on either side.
func excerpt(text string, from, to int) string {
	lo := from - evidenceRadius
	if lo < 0 {
		lo = 0
	}
	hi := to + evidenceRadius
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}

func analyzedModules(moduleCode map[string]string, functions []domain.PublicFunction) []string {
	seen := make(map[string]bool, len(moduleCode))
	for name := range moduleCode {
		seen[name] = true
	}
	for _, fn := range functions {
		seen[fn.Module] = true
	}

	modules := make([]string, 0, len(seen))
	for name := range seen {
		modules = append(modules, name)
	}
	sort.Strings(modules)
	return modules
}
