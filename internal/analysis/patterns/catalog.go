// Package patterns implements the static pattern matcher: a stateless rule
// evaluator that scans disassembled module text and public function
// signatures for known vulnerability shapes.
package patterns

import (
	"regexp"
	"strings"

	"github.com/movesec/auditor/internal/domain"
)

// PatternDefinition is one static detection rule. A rule may carry up to
// three independent detectors: a signature predicate over the function, a
// list of text patterns over module bytecode, and a combined predicate over
// both. Rules are static configuration, never mutated at runtime.
type PatternDefinition struct {
	ID          string
	Severity    domain.Severity
	Description string

	// Signature matches on the function declaration alone. Signature
	// matches are the only source of definite confidence.
	Signature func(fn domain.PublicFunction) bool

	// TextPatterns match against the module's disassembled text. The
	// first matching pattern wins and contributes an evidence excerpt.
	TextPatterns []*regexp.Regexp

	// Combined requires structural and textual signal together.
	Combined func(fn domain.PublicFunction, moduleText string) bool

	// MatchConfidence is the confidence assigned to text and combined
	// matches. Defaults to likely when unset. Signature matches are
	// always definite regardless of this field.
	MatchConfidence domain.FindingConfidence
}

// catalog is the frozen rule set, built once at process start. Order is
// meaningful only as a tiebreak: earlier rules report first within a
// severity band.
var catalog = buildCatalog()

// Catalog returns the immutable pattern rule set.
func Catalog() []PatternDefinition {
	return catalog
}

// KnownPatternIDs returns the identifiers of every catalog rule plus the
// cross-module risk identifiers produced by the capability-flow analyzer.
func KnownPatternIDs() []string {
	ids := make([]string, 0, len(catalog)+3)
	for _, p := range catalog {
		ids = append(ids, p.ID)
	}
	ids = append(ids,
		"CROSS-MODULE-CAP-TRANSFER",
		"CROSS-MODULE-CAP-SHARED",
		"CROSS-MODULE-WIDE-IMPACT",
	)
	return ids
}

// ExpectedSeverity returns the catalog severity for a pattern ID, if known.
func ExpectedSeverity(patternID string) (domain.Severity, bool) {
	for _, p := range catalog {
		if p.ID == patternID {
			return p.Severity, true
		}
	}
	switch patternID {
	case "CROSS-MODULE-CAP-TRANSFER", "CROSS-MODULE-CAP-SHARED":
		return domain.SeverityCritical, true
	case "CROSS-MODULE-WIDE-IMPACT":
		return domain.SeverityHigh, true
	}
	return "", false
}

func buildCatalog() []PatternDefinition {
	return []PatternDefinition{
		// Critical: privileged capabilities crossing a function boundary.
		{
			ID:          "STATIC-ADMINCAP-TRANSFER",
			Severity:    domain.SeverityCritical,
			Description: "Admin or owner capability accepted by a public function; possession grants unrestricted control",
			Signature: func(fn domain.PublicFunction) bool {
				return hasParamTypeContaining(fn, "AdminCap") || hasParamTypeContaining(fn, "OwnerCap")
			},
		},
		{
			ID:          "STATIC-TREASURYCAP-EXPOSURE",
			Severity:    domain.SeverityCritical,
			Description: "Treasury capability accepted by a public function; enables unrestricted minting and burning",
			Signature: func(fn domain.PublicFunction) bool {
				return hasParamTypeContaining(fn, "TreasuryCap")
			},
		},
		{
			ID:          "STATIC-UPGRADECAP-EXPOSURE",
			Severity:    domain.SeverityCritical,
			Description: "Upgrade capability accepted by a public function; enables swapping out package code",
			Signature: func(fn domain.PublicFunction) bool {
				return hasParamTypeContaining(fn, "UpgradeCap")
			},
		},
		// High: fund-drain shapes.
		{
			ID:          "STATIC-GENERIC-WITHDRAW",
			Severity:    domain.SeverityHigh,
			Description: "Public withdraw-style function mutating a balance-bearing object",
			Signature: func(fn domain.PublicFunction) bool {
				name := strings.ToLower(fn.Name)
				if !strings.Contains(name, "withdraw") && !strings.Contains(name, "drain") {
					return false
				}
				return hasMutableReferenceParam(fn)
			},
		},
		{
			ID:          "STATIC-COIN-SPLIT-TRANSFER",
			Severity:    domain.SeverityHigh,
			Description: "Coin taken from a mutable balance and transferred out in the same function",
			Combined: func(fn domain.PublicFunction, moduleText string) bool {
				if !hasMutableCoinParam(fn) || !hasPrimitiveParam(fn, "u64") {
					return false
				}
				taken := strings.Contains(moduleText, "coin::take") || strings.Contains(moduleText, "coin::split")
				sent := strings.Contains(moduleText, "transfer::public_transfer") || strings.Contains(moduleText, "transfer::transfer")
				return taken && sent
			},
		},
		{
			ID:          "STATIC-BALANCE-TRANSFER-CHAIN",
			Severity:    domain.SeverityHigh,
			Description: "Balance withdrawn and routed to a transfer call",
			TextPatterns: []*regexp.Regexp{
				regexp.MustCompile(`balance::withdraw_all`),
				regexp.MustCompile(`balance::split[\s\S]{0,200}?transfer::`),
			},
		},
		{
			ID:          "STATIC-UNRESTRICTED-MINT",
			Severity:    domain.SeverityHigh,
			Description: "Mint call reachable without a capability-typed parameter",
			Combined: func(fn domain.PublicFunction, moduleText string) bool {
				if domain.HasCapabilityParam(fn) {
					return false
				}
				if !strings.Contains(strings.ToLower(fn.Name), "mint") {
					return false
				}
				return strings.Contains(moduleText, "coin::mint") || strings.Contains(moduleText, "balance::increase_supply")
			},
		},
		// Medium: unchecked state mutation and environmental dependence.
		{
			ID:          "STATIC-SHARED-MUT-NO-CAP",
			Severity:    domain.SeverityMedium,
			Description: "Mutable shared-state parameter with no capability gate; flags every ungated &mut parameter, so false positives on ordinary mutators are expected",
			Combined: func(fn domain.PublicFunction, moduleText string) bool {
				if !hasMutableReferenceParam(fn) || domain.HasCapabilityParam(fn) {
					return false
				}
				return strings.Contains(moduleText, "MutBorrowField") || strings.Contains(moduleText, "WriteRef")
			},
		},
		{
			ID:          "STATIC-DYNAMIC-FIELD-INJECTION",
			Severity:    domain.SeverityMedium,
			Description: "Dynamic field attached to an object at runtime",
			TextPatterns: []*regexp.Regexp{
				regexp.MustCompile(`dynamic_field::add`),
				regexp.MustCompile(`dynamic_object_field::add`),
			},
		},
		{
			ID:          "STATIC-CLOCK-DEPENDENCE",
			Severity:    domain.SeverityMedium,
			Description: "Behavior depends on on-chain clock time",
			Signature: func(fn domain.PublicFunction) bool {
				return hasParamTypeContaining(fn, "::clock::Clock")
			},
			TextPatterns: []*regexp.Regexp{
				regexp.MustCompile(`clock::timestamp_ms`),
				regexp.MustCompile(`tx_context::epoch`),
			},
		},
		{
			ID:          "STATIC-PAUSE-FEE-CONTROL",
			Severity:    domain.SeverityMedium,
			Description: "Pause switch or fee parameter adjustable at runtime",
			TextPatterns: []*regexp.Regexp{
				regexp.MustCompile(`\b(?:un)?pause\b`),
				regexp.MustCompile(`\b(?:set|update)_fee\w*\b`),
			},
		},
		// Low: sensitive operations without an audit trail.
		{
			ID:          "STATIC-MISSING-EVENT",
			Severity:    domain.SeverityLow,
			Description: "Sensitive operation emits no event",
			Combined: func(fn domain.PublicFunction, moduleText string) bool {
				if !isSensitiveName(fn.Name) {
					return false
				}
				return moduleText != "" && !strings.Contains(moduleText, "event::emit")
			},
			MatchConfidence: domain.ConfidencePossible,
		},
	}
}

func isSensitiveName(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range []string{"withdraw", "transfer", "mint", "burn", "admin", "upgrade"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func hasParamTypeContaining(fn domain.PublicFunction, fragment string) bool {
	for _, p := range fn.Params {
		if strings.Contains(p.String(), fragment) {
			return true
		}
	}
	return false
}

func hasMutableReferenceParam(fn domain.PublicFunction) bool {
	for _, p := range fn.Params {
		if p.IsMutableReference() {
			return true
		}
	}
	return false
}

func hasMutableCoinParam(fn domain.PublicFunction) bool {
	for _, p := range fn.Params {
		if p.IsMutableReference() && strings.Contains(p.Type, "::coin::Coin") {
			return true
		}
	}
	return false
}

func hasPrimitiveParam(fn domain.PublicFunction, primitive string) bool {
	for _, p := range fn.Params {
		if p.Kind == domain.ParamPrimitive && p.Primitive == primitive {
			return true
		}
	}
	return false
}
