package audit

import (
	"sort"
	"sync"
	"time"

	"github.com/movesec/auditor/internal/analysis/patterns"
	"github.com/movesec/auditor/internal/domain"
)

// runStaticParallel evaluates the pattern catalog with one worker per module
// and merges the per-module results through patterns.Finalize. Functions are
// grouped by module in input order, and merge order follows that grouping, so
// the output is identical to the sequential patterns.Run for the same input.
func runStaticParallel(moduleCode map[string]string, functions []domain.PublicFunction) domain.StaticAnalysisResult {
	start := time.Now()

	var moduleOrder []string
	grouped := make(map[string][]domain.PublicFunction)
	for _, fn := range functions {
		if _, seen := grouped[fn.Module]; !seen {
			moduleOrder = append(moduleOrder, fn.Module)
		}
		grouped[fn.Module] = append(grouped[fn.Module], fn)
	}

	perModule := make([][]domain.StaticFinding, len(moduleOrder))
	var wg sync.WaitGroup
	for i, module := range moduleOrder {
		wg.Add(1)
		go func(slot int, module string, fns []domain.PublicFunction) {
			defer wg.Done()
			text := moduleCode[module]
			var found []domain.StaticFinding
			for _, fn := range fns {
				found = append(found, patterns.MatchFunction(fn, text)...)
			}
			perModule[slot] = found
		}(i, module, grouped[module])
	}
	wg.Wait()

	var findings []domain.StaticFinding
	for _, batch := range perModule {
		findings = append(findings, batch...)
	}

	return domain.StaticAnalysisResult{
		Findings:        patterns.Finalize(findings),
		AnalyzedModules: analyzedModuleNames(moduleCode, functions),
		PatternsChecked: len(patterns.Catalog()),
		AnalysisTime:    time.Since(start),
	}
}

func analyzedModuleNames(moduleCode map[string]string, functions []domain.PublicFunction) []string {
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
