// Package capflow implements the capability-flow analyzer: a two-pass,
// name-convention based extractor that models where privileged capability
// objects are defined, used, and transferred across a package's modules,
// and raises cross-module risks when a capability can leave the trust
// boundary.
//
// Detection is best-effort text analysis over disassembled bytecode, not
// type-system proof. Ability flags are inferred from nearby tokens and
// misattribution of a usage to its enclosing function is an accepted
// limitation of the forward-scan heuristic.
package capflow

import (
	"sort"
	"time"

	"github.com/movesec/auditor/internal/domain"
)

// Run performs the full cross-module analysis: capability extraction, usage
// collection, flow classification, and risk detection. It never errors;
// empty input yields an empty result.
func Run(moduleCode map[string]string, functions []domain.PublicFunction) domain.CrossModuleAnalysisResult {
	start := time.Now()

	modules := sortedModules(moduleCode)

	capabilities := ExtractCapabilities(moduleCode, modules)
	usages, sites := ExtractUsages(moduleCode, modules, functions, capabilities)
	flows := ClassifyFlows(sites, functions, capabilities, usages)
	risks := DetectRisks(capabilities, usages, flows)

	return domain.CrossModuleAnalysisResult{
		Capabilities: capabilities,
		Usages:       usages,
		Flows:        flows,
		Risks:        risks,
		AnalysisTime: time.Since(start),
	}
}

func sortedModules(moduleCode map[string]string) []string {
	modules := make([]string, 0, len(moduleCode))
	for name := range moduleCode {
		modules = append(modules, name)
	}
	sort.Strings(modules)
	return modules
}
