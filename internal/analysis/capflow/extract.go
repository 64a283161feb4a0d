package capflow

import (
	"regexp"
	"sort"
	"strings"

	"github.com/movesec/auditor/internal/domain"
)

// abilityWindow is how far past a capability name the extractor looks for
// ability hint tokens.
const abilityWindow = 200

// siteWindow is the context examined around a call site when associating it
// with a capability name.
const siteWindow = 120

// capabilityNamePattern matches identifiers that look like capability types
// by suffix convention.
var capabilityNamePattern = regexp.MustCompile(`\b([A-Z][A-Za-z0-9_]*(?:Capability|Cap|Authority))\b`)

// functionMarkerPattern locates function definitions in disassembled text.
// Attribution of a call site to its enclosing function uses the nearest
// preceding marker.
var functionMarkerPattern = regexp.MustCompile(`\bfun\s+([A-Za-z_][A-Za-z0-9_]*)`)

// transferCallPattern matches calls that move an object to a new owner or
// into shared state.
var transferCallPattern = regexp.MustCompile(`\btransfer::(public_transfer|transfer|share_object|public_share_object|freeze_object)\b`)

// packPattern matches constructor sites in disassembled text.
var packPattern = regexp.MustCompile(`\bPack\b|\bpack\b`)

// transferSite is one textual transfer or construction observation, kept
// alongside the public usage record so flow classification does not have to
// re-scan bytecode.
type transferSite struct {
	Module     string
	Function   string
	Capability string
	FullType   string
	Call       string // matched transfer call name, empty for constructor sites
	Window     string // surrounding text, for address-likeness checks
}

// ExtractCapabilities scans each module's text for capability-looking type
// names (suffix convention plus the well-known list) and infers ability
// flags from nearby tokens. Results are deduplicated by (module, name).
// HasCopy and HasDrop are always false: capabilities are assumed
// non-duplicable and non-discardable by convention.
func ExtractCapabilities(moduleCode map[string]string, modules []string) []domain.CapabilityDefinition {
	var capabilities []domain.CapabilityDefinition
	seen := make(map[string]bool)

	for _, module := range modules {
		text := moduleCode[module]
		if text == "" {
			continue
		}

		for _, name := range capabilityNamesIn(text) {
			key := module + "::" + name
			if seen[key] {
				continue
			}
			seen[key] = true

			idx := strings.Index(text, name)
			window := text[idx:min(idx+abilityWindow, len(text))]

			capabilities = append(capabilities, domain.CapabilityDefinition{
				Name:     name,
				Module:   module,
				FullType: key,
				HasStore: strings.Contains(window, "store") || strings.Contains(window, "public_transfer"),
				HasKey:   strings.Contains(window, "key"),
				HasCopy:  false,
				HasDrop:  false,
			})
		}
	}
	return capabilities
}

// capabilityNamesIn returns the distinct capability-looking names appearing
// in text: well-known names first (sorted), then suffix-convention matches
// in order of appearance.
func capabilityNamesIn(text string) []string {
	var names []string
	seen := make(map[string]bool)

	for _, name := range domain.WellKnownCapabilityNames() {
		if !seen[name] && containsWord(text, name) {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, match := range capabilityNamePattern.FindAllString(text, -1) {
		if !seen[match] {
			seen[match] = true
			names = append(names, match)
		}
	}
	return names
}

// ExtractUsages records every observation of a capability: function
// parameters first, then transfer and constructor sites found in bytecode.
// Transfer sites are returned separately for flow classification.
func ExtractUsages(
	moduleCode map[string]string,
	modules []string,
	functions []domain.PublicFunction,
	capabilities []domain.CapabilityDefinition,
) ([]domain.CapabilityUsage, []transferSite) {
	known := knownCapabilityNames(capabilities)

	var usages []domain.CapabilityUsage
	var sites []transferSite

	// Parameter usages: any param whose rendered shape names a capability.
	for _, fn := range functions {
		for _, p := range fn.Params {
			name := matchCapabilityName(p.String(), known)
			if name == "" {
				continue
			}
			usages = append(usages, domain.CapabilityUsage{
				Capability:   name,
				FullType:     p.Type,
				Module:       fn.Module,
				FunctionName: fn.Name,
				UsageType:    parameterUsageType(p),
			})
		}
	}

	// Textual usages: transfer calls and constructor sites co-occurring
	// with a capability name, attributed to the nearest preceding
	// function marker.
	for _, module := range modules {
		text := moduleCode[module]
		if text == "" {
			continue
		}
		boundaries := functionBoundaries(text)

		for _, loc := range transferCallPattern.FindAllStringSubmatchIndex(text, -1) {
			window := contextWindow(text, loc[0], loc[1])
			name := matchCapabilityName(window, known)
			if name == "" {
				continue
			}
			fnName := enclosingFunction(boundaries, loc[0])
			usages = append(usages, domain.CapabilityUsage{
				Capability:   name,
				FullType:     fullTypeFor(name, module, capabilities),
				Module:       module,
				FunctionName: fnName,
				UsageType:    domain.UsageTransferred,
			})
			sites = append(sites, transferSite{
				Module:     module,
				Function:   fnName,
				Capability: name,
				FullType:   fullTypeFor(name, module, capabilities),
				Call:       text[loc[2]:loc[3]],
				Window:     window,
			})
		}

		for _, loc := range packPattern.FindAllStringIndex(text, -1) {
			window := contextWindow(text, loc[0], loc[1])
			name := matchCapabilityName(window, known)
			if name == "" {
				continue
			}
			usages = append(usages, domain.CapabilityUsage{
				Capability:   name,
				FullType:     fullTypeFor(name, module, capabilities),
				Module:       module,
				FunctionName: enclosingFunction(boundaries, loc[0]),
				UsageType:    domain.UsageCreated,
			})
		}
	}

	return usages, sites
}

func parameterUsageType(p domain.Param) domain.UsageType {
	switch {
	case p.IsMutableReference():
		return domain.UsageBorrowedMut
	case p.IsReference():
		return domain.UsageBorrowedImm
	default:
		return domain.UsageParameter
	}
}

// functionBoundary is one function marker found during the forward scan.
type functionBoundary struct {
	offset int
	name   string
}

// functionBoundaries collects every function marker in a single forward
// pass, in offset order.
func functionBoundaries(text string) []functionBoundary {
	matches := functionMarkerPattern.FindAllStringSubmatchIndex(text, -1)
	boundaries := make([]functionBoundary, 0, len(matches))
	for _, m := range matches {
		boundaries = append(boundaries, functionBoundary{
			offset: m[0],
			name:   text[m[2]:m[3]],
		})
	}
	return boundaries
}

// enclosingFunction returns the name of the nearest function marker
// preceding offset, or "unknown" when the site precedes every marker.
// Misattribution in minified or reordered bytecode is an accepted
// limitation of this heuristic.
func enclosingFunction(boundaries []functionBoundary, offset int) string {
	i := sort.Search(len(boundaries), func(i int) bool {
		return boundaries[i].offset > offset
	})
	if i == 0 {
		return "unknown"
	}
	return boundaries[i-1].name
}

func knownCapabilityNames(capabilities []domain.CapabilityDefinition) []string {
	seen := make(map[string]bool)
	var names []string
	for _, c := range capabilities {
		if !seen[c.Name] {
			seen[c.Name] = true
			names = append(names, c.Name)
		}
	}
	for _, name := range domain.WellKnownCapabilityNames() {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// matchCapabilityName returns the first known capability name contained in
// the candidate text, or "".
func matchCapabilityName(text string, known []string) string {
	for _, name := range known {
		if strings.Contains(text, name) {
			return name
		}
	}
	return ""
}

// fullTypeFor resolves a capability name to its defining module's full type
// when known, falling back to the observing module.
func fullTypeFor(name, module string, capabilities []domain.CapabilityDefinition) string {
	for _, c := range capabilities {
		if c.Name == name {
			return c.FullType
		}
	}
	return module + "::" + name
}

// definingModule returns the module that defines a capability name, or "".
func definingModule(name string, capabilities []domain.CapabilityDefinition) string {
	for _, c := range capabilities {
		if c.Name == name {
			return c.Module
		}
	}
	return ""
}

func contextWindow(text string, from, to int) string {
	lo := from - siteWindow
	if lo < 0 {
		lo = 0
	}
	hi := to + siteWindow
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}

// containsWord reports whether name appears in text on an identifier
// boundary, so "Cap" does not match inside "Capacity".
func containsWord(text, name string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], name)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(name)
		beforeOK := start == 0 || !isIdentChar(text[start-1])
		afterOK := end == len(text) || !isIdentChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
