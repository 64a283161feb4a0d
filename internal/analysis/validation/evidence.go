package validation

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/movesec/auditor/internal/analysis/patterns"
	"github.com/movesec/auditor/internal/domain"
)

// partialMatchRatio is the share of extracted key tokens that must be
// present in one module's text for a non-verbatim evidence match.
const partialMatchRatio = 0.6

// proseLengthThreshold is the evidence length below which a snippet without
// any code punctuation is treated as prose, not code.
const proseLengthThreshold = 20

var (
	callTokenPattern  = regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]*::[A-Za-z_][A-Za-z0-9_]*\b`)
	fieldTokenPattern = regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]*\.[A-Za-z_][A-Za-z0-9_]*\b`)
	lineNumberPattern = regexp.MustCompile(`(?i)\bline[:\s]+(\d+)\b`)
)

// bytecodeKeywords is the fixed vocabulary of disassembly operations that
// count as key tokens during partial evidence matching.
var bytecodeKeywords = []string{
	"MoveLoc", "CopyLoc", "StLoc", "Call", "Pack", "Unpack",
	"ImmBorrowField", "MutBorrowField", "ReadRef", "WriteRef",
	"FreezeRef", "LdConst", "Ret", "BrTrue", "BrFalse", "Abort",
}

// hedgingPhrases are the qualifiers models reach for when inventing
// findings.
var hedgingPhrases = []string{
	"could potentially",
	"might be able to",
	"appears to allow",
	"seems like",
	"possibly",
}

// criticalKeywords must appear in the technical reason of a critical
// finding for it to be taken at face value.
var criticalKeywords = []string{
	"drain", "steal", "theft", "unauthorized", "arbitrary",
	"takeover", "mint", "admin", "upgrade", "bypass", "treasury",
	"loss of funds",
}

// knownPatternID accepts an exact catalog ID, or an ID whose family prefix
// matches a catalog family (so STATIC-NEW-RULE or CROSS-MODULE-X variants
// from a model are tolerated, while invented families are not).
func knownPatternID(id string, known []string) bool {
	if id == "" {
		return false
	}
	for _, k := range known {
		if id == k {
			return true
		}
	}
	if strings.HasPrefix(id, "STATIC-") || strings.HasPrefix(id, "CROSS-MODULE-") {
		return true
	}

	families := make(map[string]bool, len(known))
	for _, k := range known {
		if idx := strings.Index(k, "-"); idx > 0 {
			families[k[:idx]] = true
		}
	}
	if idx := strings.Index(id, "-"); idx > 0 {
		return families[id[:idx]]
	}
	return false
}

// expectedSeverity looks up the catalog severity for an exactly known
// pattern ID. Tolerated shape-only IDs carry no severity expectation.
func expectedSeverity(id string, known []string) (domain.Severity, bool) {
	for _, k := range known {
		if id == k {
			return patterns.ExpectedSeverity(id)
		}
	}
	return "", false
}

// locateEvidence searches every module's text for the snippet, first
// verbatim, then by key-token overlap. Returns the matching module name.
func locateEvidence(snippet string, moduleCode map[string]string) (string, bool) {
	trimmed := strings.TrimSpace(snippet)
	if trimmed == "" {
		return "", false
	}

	modules := make([]string, 0, len(moduleCode))
	for name := range moduleCode {
		modules = append(modules, name)
	}
	sort.Strings(modules)

	for _, name := range modules {
		if strings.Contains(moduleCode[name], trimmed) {
			return name, true
		}
	}

	tokens := keyTokens(trimmed)
	if len(tokens) == 0 {
		return "", false
	}
	needed := int(float64(len(tokens))*partialMatchRatio + 0.999)

	for _, name := range modules {
		text := moduleCode[name]
		found := 0
		for _, token := range tokens {
			if strings.Contains(text, token) {
				found++
			}
		}
		if found >= needed {
			return name, true
		}
	}
	return "", false
}

// keyTokens extracts call expressions, field accesses, and bytecode
// operation keywords from an evidence snippet.
func keyTokens(snippet string) []string {
	seen := make(map[string]bool)
	var tokens []string

	add := func(token string) {
		if !seen[token] {
			seen[token] = true
			tokens = append(tokens, token)
		}
	}

	for _, m := range callTokenPattern.FindAllString(snippet, -1) {
		add(m)
	}
	for _, m := range fieldTokenPattern.FindAllString(snippet, -1) {
		add(m)
	}
	for _, kw := range bytecodeKeywords {
		if strings.Contains(snippet, kw) {
			add(kw)
		}
	}
	return tokens
}

// hallucinationDeductions applies the cumulative free-text heuristics:
// hedging language, prose-looking evidence, round line numbers, and
// critical findings whose reasoning lacks any severity-appropriate keyword.
func hallucinationDeductions(finding domain.ModelFinding) (int, []string) {
	var total int
	var notes []string

	prose := strings.ToLower(finding.TechnicalReason + " " + finding.ContextualNotes)
	for _, phrase := range hedgingPhrases {
		if n := strings.Count(prose, phrase); n > 0 {
			total += n * deductHedging
			notes = append(notes, "hedging language: "+phrase)
		}
	}

	if evidence := finding.EvidenceCodeSnippet; evidence != "" {
		if len(evidence) < proseLengthThreshold && !strings.ContainsAny(evidence, "(){}[];:.,=<>") {
			total += deductProseEvidence
			notes = append(notes, "evidence looks like prose rather than code")
		}
		if hasRoundLineNumber(evidence) {
			total += deductRoundLineNumber
			notes = append(notes, "evidence cites a suspiciously round line number")
		}
	}

	if finding.Severity == domain.SeverityCritical && !containsAnyKeyword(prose, criticalKeywords) {
		total += deductWeakCriticalReason
		notes = append(notes, "critical severity without a matching impact keyword in the reasoning")
	}

	return total, notes
}

func hasRoundLineNumber(evidence string) bool {
	for _, m := range lineNumberPattern.FindAllStringSubmatch(evidence, -1) {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 && n%100 == 0 {
			return true
		}
	}
	return false
}

func containsAnyKeyword(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
