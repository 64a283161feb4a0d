package capflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/movesec/auditor/internal/domain"
)

// wideImpactFanOut is the number of distinct modules an internally flowing
// capability must reach before an external escape hatch is treated as a
// wide-impact risk.
const wideImpactFanOut = 3

// DetectRisks derives cross-module risks from the extracted capability
// model. It is a pure function of capabilities, usages, and flows; bytecode
// is never re-scanned here.
//
// The three rules are independent and may all fire for the same capability;
// risks are deliberately not deduplicated against each other.
func DetectRisks(
	capabilities []domain.CapabilityDefinition,
	usages []domain.CapabilityUsage,
	flows []domain.CapabilityFlow,
) []domain.CrossModuleRisk {
	var risks []domain.CrossModuleRisk

	// Wide external exposure: a capability that several modules depend on
	// can be handed to an arbitrary address.
	for _, flow := range flows {
		if flow.FlowType != domain.FlowExternalTransfer {
			continue
		}
		users := userModules(flow.Capability, usages)
		if len(users) <= 1 {
			continue
		}
		affected := without(users, flow.FromModule)
		risks = append(risks, domain.CrossModuleRisk{
			PatternID:       "CROSS-MODULE-CAP-TRANSFER",
			Severity:        domain.SeverityCritical,
			AffectedModules: affected,
			SourceModule:    flow.FromModule,
			SourceFunction:  flow.ViaFunction,
			Description: fmt.Sprintf(
				"capability %s is used by %d modules but %s::%s can transfer it to an external address",
				flow.Capability, len(users), flow.FromModule, flow.ViaFunction),
			Evidence: fmt.Sprintf("external transfer of %s; dependent modules: %s",
				flow.FullType, strings.Join(users, ", ")),
		})
	}

	// Shared critical capability: admin/treasury/upgrade/mint capabilities
	// placed into shared state are reachable by anyone.
	for _, flow := range flows {
		if flow.FlowType != domain.FlowPublicShare {
			continue
		}
		if !domain.IsCriticalCapabilityName(flow.Capability) {
			continue
		}
		risks = append(risks, domain.CrossModuleRisk{
			PatternID:       "CROSS-MODULE-CAP-SHARED",
			Severity:        domain.SeverityCritical,
			AffectedModules: userModules(flow.Capability, usages),
			SourceModule:    flow.FromModule,
			SourceFunction:  flow.ViaFunction,
			Description: fmt.Sprintf(
				"critical capability %s is shared publicly by %s::%s",
				flow.Capability, flow.FromModule, flow.ViaFunction),
			Evidence: "public share of " + flow.FullType,
		})
	}

	// Wide internal fan-out with an escape hatch: a capability woven
	// through three or more modules that can also leave the package.
	for _, capability := range capabilities {
		internal := make(map[string]bool)
		escape := false
		var escapeFlow domain.CapabilityFlow
		for _, flow := range flows {
			if flow.Capability != capability.Name {
				continue
			}
			switch flow.FlowType {
			case domain.FlowInternal:
				internal[flow.FromModule] = true
				internal[flow.To] = true
			case domain.FlowExternalTransfer:
				if !escape {
					escape = true
					escapeFlow = flow
				}
			}
		}
		if len(internal) < wideImpactFanOut || !escape {
			continue
		}
		risks = append(risks, domain.CrossModuleRisk{
			PatternID:       "CROSS-MODULE-WIDE-IMPACT",
			Severity:        domain.SeverityHigh,
			AffectedModules: sortedKeys(internal),
			SourceModule:    escapeFlow.FromModule,
			SourceFunction:  escapeFlow.ViaFunction,
			Description: fmt.Sprintf(
				"capability %s flows through %d modules and can leave the package via %s::%s",
				capability.Name, len(internal), escapeFlow.FromModule, escapeFlow.ViaFunction),
			Evidence: "internal fan-out with external transfer of " + capability.FullType,
		})
	}

	return risks
}

// userModules returns the sorted distinct modules with any usage of the
// capability.
func userModules(capability string, usages []domain.CapabilityUsage) []string {
	seen := make(map[string]bool)
	for _, u := range usages {
		if u.Capability == capability {
			seen[u.Module] = true
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func without(values []string, exclude string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != exclude {
			out = append(out, v)
		}
	}
	return out
}
