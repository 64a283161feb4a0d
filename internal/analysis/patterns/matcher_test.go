package patterns_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movesec/auditor/internal/analysis/patterns"
	"github.com/movesec/auditor/internal/domain"
)

func u64Param() domain.Param {
	return domain.Param{Kind: domain.ParamPrimitive, Primitive: "u64"}
}

func mutRef(fullType string) domain.Param {
	return domain.Param{Kind: domain.ParamReference, Mutable: true, Type: fullType}
}

func immRef(fullType string) domain.Param {
	return domain.Param{Kind: domain.ParamReference, Type: fullType}
}

func TestRunEmptyInput(t *testing.T) {
	result := patterns.Run(map[string]string{}, nil)

	assert.Empty(t, result.Findings)
	assert.Empty(t, result.AnalyzedModules)
	assert.Greater(t, result.PatternsChecked, 0)
}

func TestRunAdminCapParameterIsDefinite(t *testing.T) {
	fn := domain.PublicFunction{
		Module: "admin",
		Name:   "set_config",
		Params: []domain.Param{immRef("0x1::admin::AdminCap")},
	}

	// No bytecode at all: the signature detector must still fire.
	result := patterns.Run(map[string]string{"admin": ""}, []domain.PublicFunction{fn})

	finding := requireFinding(t, result.Findings, "STATIC-ADMINCAP-TRANSFER")
	assert.Equal(t, domain.ConfidenceDefinite, finding.Confidence)
	assert.Equal(t, domain.SeverityCritical, finding.Severity)
	assert.Equal(t, "admin", finding.ModuleName)
	assert.Equal(t, "set_config", finding.FunctionName)
	assert.NotEmpty(t, finding.Evidence)
}

func TestRunCoinSplitTransferCombined(t *testing.T) {
	fn := domain.PublicFunction{
		Module: "vault",
		Name:   "withdraw",
		Params: []domain.Param{
			mutRef("0x2::coin::Coin<0x2::sui::SUI>"),
			u64Param(),
		},
	}
	bytecode := "public fun withdraw {\n  coin::take(balance, amount, ctx);\n  transfer::public_transfer(c, recipient);\n}"

	result := patterns.Run(map[string]string{"vault": bytecode}, []domain.PublicFunction{fn})

	finding := requireFinding(t, result.Findings, "STATIC-COIN-SPLIT-TRANSFER")
	assert.Equal(t, domain.ConfidenceLikely, finding.Confidence)
	assert.Equal(t, domain.SeverityHigh, finding.Severity)
}

func TestRunCombinedRequiresBothSignals(t *testing.T) {
	fn := domain.PublicFunction{
		Module: "vault",
		Name:   "deposit",
		Params: []domain.Param{
			mutRef("0x2::coin::Coin<0x2::sui::SUI>"),
			u64Param(),
		},
	}
	// Textual signal present in another module shape, but this module's
	// bytecode lacks the transfer call: the combined rule must not fire.
	bytecode := "public fun deposit {\n  coin::take(balance, amount, ctx);\n}"

	result := patterns.Run(map[string]string{"vault": bytecode}, []domain.PublicFunction{fn})

	for _, f := range result.Findings {
		assert.NotEqual(t, "STATIC-COIN-SPLIT-TRANSFER", f.PatternID)
	}
}

func TestRunTextMatchCarriesEvidenceExcerpt(t *testing.T) {
	fn := domain.PublicFunction{Module: "registry", Name: "attach", Params: []domain.Param{u64Param()}}
	padding := strings.Repeat("x", 200)
	bytecode := padding + " dynamic_field::add(&mut obj.id, key, value) " + padding

	result := patterns.Run(map[string]string{"registry": bytecode}, []domain.PublicFunction{fn})

	finding := requireFinding(t, result.Findings, "STATIC-DYNAMIC-FIELD-INJECTION")
	assert.Equal(t, domain.ConfidenceLikely, finding.Confidence)
	assert.Contains(t, finding.Evidence, "dynamic_field::add")
	// +-50 characters of context around the match.
	assert.LessOrEqual(t, len(finding.Evidence), len("dynamic_field::add")+100)
}

func TestRunSeveritySortAscending(t *testing.T) {
	fns := []domain.PublicFunction{
		{Module: "registry", Name: "attach", Params: []domain.Param{u64Param()}},
		{Module: "admin", Name: "rotate", Params: []domain.Param{immRef("0x1::admin::AdminCap")}},
		{Module: "vault", Name: "withdraw_fees", Params: []domain.Param{mutRef("0x1::vault::Vault")}},
	}
	code := map[string]string{
		"registry": "dynamic_field::add(&mut obj.id, key, value)",
		"admin":    "",
		"vault":    "balance::withdraw_all(&mut vault.fees)",
	}

	result := patterns.Run(code, fns)
	require.NotEmpty(t, result.Findings)

	for i := 1; i < len(result.Findings); i++ {
		prev := result.Findings[i-1].Severity.Rank()
		cur := result.Findings[i].Severity.Rank()
		assert.LessOrEqual(t, prev, cur, "findings must be sorted ascending by severity rank")
	}
	assert.Equal(t, domain.SeverityCritical, result.Findings[0].Severity)
}

func TestRunDeduplicatesByTriple(t *testing.T) {
	fn := domain.PublicFunction{
		Module: "admin",
		Name:   "rotate",
		Params: []domain.Param{immRef("0x1::admin::AdminCap")},
	}
	// The same function given twice can only contribute one finding per
	// pattern, and it keeps the highest-confidence match.
	result := patterns.Run(map[string]string{"admin": ""}, []domain.PublicFunction{fn, fn})

	var count int
	for _, f := range result.Findings {
		if f.PatternID == "STATIC-ADMINCAP-TRANSFER" {
			count++
			assert.Equal(t, domain.ConfidenceDefinite, f.Confidence)
		}
	}
	assert.Equal(t, 1, count)
}

func TestRunEmptyParamsOnlyMatchTextRules(t *testing.T) {
	fn := domain.PublicFunction{Module: "cfg", Name: "toggle"}
	bytecode := "public fun toggle { pause (flag) }"

	result := patterns.Run(map[string]string{"cfg": bytecode}, []domain.PublicFunction{fn})

	for _, f := range result.Findings {
		assert.NotEqual(t, domain.ConfidenceDefinite, f.Confidence,
			"a function with no params cannot produce a signature match here")
	}
	requireFinding(t, result.Findings, "STATIC-PAUSE-FEE-CONTROL")
}

func TestRunMissingEventIsPossible(t *testing.T) {
	fn := domain.PublicFunction{
		Module: "vault",
		Name:   "burn_remainder",
		Params: []domain.Param{u64Param()},
	}
	bytecode := "public fun burn_remainder { balance::decrease_supply(s, b) }"

	result := patterns.Run(map[string]string{"vault": bytecode}, []domain.PublicFunction{fn})

	finding := requireFinding(t, result.Findings, "STATIC-MISSING-EVENT")
	assert.Equal(t, domain.ConfidencePossible, finding.Confidence)
	assert.Equal(t, domain.SeverityLow, finding.Severity)
}

func TestRunAnalyzedModulesUnionSorted(t *testing.T) {
	fns := []domain.PublicFunction{{Module: "zeta", Name: "noop"}}
	result := patterns.Run(map[string]string{"alpha": "", "beta": ""}, fns)

	assert.Equal(t, []string{"alpha", "beta", "zeta"}, result.AnalyzedModules)
}

func TestFinalizeIsOrderInsensitiveAcrossModules(t *testing.T) {
	a := domain.StaticFinding{PatternID: "P1", ModuleName: "m1", FunctionName: "f", Severity: domain.SeverityLow}
	b := domain.StaticFinding{PatternID: "P2", ModuleName: "m2", FunctionName: "g", Severity: domain.SeverityCritical}

	merged := patterns.Finalize([]domain.StaticFinding{a, b, a})

	require.Len(t, merged, 2)
	assert.Equal(t, "P2", merged[0].PatternID)
	assert.Equal(t, "P1", merged[1].PatternID)
}

func requireFinding(t *testing.T, findings []domain.StaticFinding, patternID string) domain.StaticFinding {
	t.Helper()
	for _, f := range findings {
		if f.PatternID == patternID {
			return f
		}
	}
	t.Fatalf("expected a %s finding, got %d findings", patternID, len(findings))
	return domain.StaticFinding{}
}
