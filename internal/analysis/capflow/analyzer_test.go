package capflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movesec/auditor/internal/analysis/capflow"
	"github.com/movesec/auditor/internal/domain"
)

const adminModuleText = `
module admin {
    struct AdminCap has key, store { id: UID }

    fun init(ctx) {
        Pack AdminCap
        transfer::transfer(cap, sender)
    }

    public fun revoke(cap: AdminCap, recipient: address) {
        transfer::public_transfer(cap, recipient)
    }
}
`

func adminPackage() (map[string]string, []domain.PublicFunction) {
	code := map[string]string{
		"admin":  adminModuleText,
		"vault":  "module vault { fun withdraw(cap, amount) { coin::take } }",
		"market": "module market { fun list(cap, item) { } }",
	}
	adminCapRef := domain.Param{Kind: domain.ParamReference, Type: "0x1::admin::AdminCap"}
	functions := []domain.PublicFunction{
		{Module: "admin", Name: "revoke", Params: []domain.Param{
			{Kind: domain.ParamStruct, Type: "0x1::admin::AdminCap"},
			{Kind: domain.ParamPrimitive, Primitive: "address"},
		}},
		{Module: "vault", Name: "withdraw", Params: []domain.Param{adminCapRef}},
		{Module: "market", Name: "list", Params: []domain.Param{adminCapRef}},
	}
	return code, functions
}

func TestRunEmptyInput(t *testing.T) {
	result := capflow.Run(map[string]string{}, nil)

	assert.Empty(t, result.Capabilities)
	assert.Empty(t, result.Usages)
	assert.Empty(t, result.Flows)
	assert.Empty(t, result.Risks)
}

func TestExtractCapabilityDefinition(t *testing.T) {
	result := capflow.Run(map[string]string{"admin": adminModuleText}, nil)

	require.Len(t, result.Capabilities, 1)
	def := result.Capabilities[0]
	assert.Equal(t, "AdminCap", def.Name)
	assert.Equal(t, "admin", def.Module)
	assert.Equal(t, "admin::AdminCap", def.FullType)
	assert.True(t, def.HasKey)
	assert.True(t, def.HasStore)
	assert.False(t, def.HasCopy, "capabilities are assumed non-copyable")
	assert.False(t, def.HasDrop, "capabilities are assumed non-droppable")
}

func TestExtractDeduplicatesByModuleAndName(t *testing.T) {
	text := "struct AdminCap has key { } AdminCap AdminCap transfer"
	result := capflow.Run(map[string]string{"admin": text}, nil)

	assert.Len(t, result.Capabilities, 1)
}

func TestParameterUsageTypes(t *testing.T) {
	code := map[string]string{"admin": "struct AdminCap has key"}
	functions := []domain.PublicFunction{
		{Module: "a", Name: "borrow_mut", Params: []domain.Param{
			{Kind: domain.ParamReference, Mutable: true, Type: "0x1::admin::AdminCap"},
		}},
		{Module: "b", Name: "borrow", Params: []domain.Param{
			{Kind: domain.ParamReference, Type: "0x1::admin::AdminCap"},
		}},
		{Module: "c", Name: "consume", Params: []domain.Param{
			{Kind: domain.ParamStruct, Type: "0x1::admin::AdminCap"},
		}},
	}

	result := capflow.Run(code, functions)

	byFunction := make(map[string]domain.UsageType)
	for _, u := range result.Usages {
		byFunction[u.FunctionName] = u.UsageType
	}
	assert.Equal(t, domain.UsageBorrowedMut, byFunction["borrow_mut"])
	assert.Equal(t, domain.UsageBorrowedImm, byFunction["borrow"])
	assert.Equal(t, domain.UsageParameter, byFunction["consume"])
}

func TestTransferUsageAttributedToEnclosingFunction(t *testing.T) {
	code, functions := adminPackage()
	result := capflow.Run(code, functions)

	var transferred []domain.CapabilityUsage
	for _, u := range result.Usages {
		if u.UsageType == domain.UsageTransferred {
			transferred = append(transferred, u)
		}
	}
	require.NotEmpty(t, transferred)

	names := make(map[string]bool)
	for _, u := range transferred {
		names[u.FunctionName] = true
	}
	assert.True(t, names["revoke"], "public_transfer site should attribute to revoke")
	assert.True(t, names["init"], "transfer site should attribute to init")
}

func TestTransferBeforeAnyFunctionMarkerFallsBack(t *testing.T) {
	text := "transfer::public_transfer(AdminCap, recipient)\nfun later() { }"
	result := capflow.Run(map[string]string{"m": text}, nil)

	require.NotEmpty(t, result.Usages)
	assert.Equal(t, "unknown", result.Usages[0].FunctionName)
}

func TestCreatedUsageFromPackSite(t *testing.T) {
	code, functions := adminPackage()
	result := capflow.Run(code, functions)

	var created bool
	for _, u := range result.Usages {
		if u.UsageType == domain.UsageCreated && u.FunctionName == "init" {
			created = true
		}
	}
	assert.True(t, created, "Pack site in init should yield a created usage")
}

func TestExternalTransferFlow(t *testing.T) {
	code, functions := adminPackage()
	result := capflow.Run(code, functions)

	var external []domain.CapabilityFlow
	for _, f := range result.Flows {
		if f.FlowType == domain.FlowExternalTransfer {
			external = append(external, f)
		}
	}
	require.NotEmpty(t, external)
	for _, f := range external {
		assert.Equal(t, domain.FlowToExternalAddress, f.To)
		assert.Equal(t, "AdminCap", f.Capability)
		assert.Equal(t, domain.RiskCritical, f.RiskLevel)
	}
}

func TestInternalFlowsAreSafe(t *testing.T) {
	code, functions := adminPackage()
	result := capflow.Run(code, functions)

	var internal []domain.CapabilityFlow
	for _, f := range result.Flows {
		if f.FlowType == domain.FlowInternal {
			internal = append(internal, f)
		}
	}
	require.NotEmpty(t, internal)
	destinations := make(map[string]bool)
	for _, f := range internal {
		assert.Equal(t, domain.RiskSafe, f.RiskLevel)
		assert.Equal(t, "admin", f.FromModule)
		destinations[f.To] = true
	}
	assert.True(t, destinations["vault"])
	assert.True(t, destinations["market"])
}

func TestCapTransferRiskNamesOtherUsers(t *testing.T) {
	code, functions := adminPackage()
	result := capflow.Run(code, functions)

	// Both init and revoke can move the capability out; pick the revoke
	// sourced risk.
	var risk domain.CrossModuleRisk
	var found bool
	for _, r := range result.Risks {
		if r.PatternID == "CROSS-MODULE-CAP-TRANSFER" && r.SourceFunction == "revoke" {
			risk, found = r, true
		}
	}
	require.True(t, found, "expected a CROSS-MODULE-CAP-TRANSFER risk sourced at revoke")
	assert.Equal(t, domain.SeverityCritical, risk.Severity)
	assert.Equal(t, "admin", risk.SourceModule)
	assert.Contains(t, risk.AffectedModules, "vault")
	assert.Contains(t, risk.AffectedModules, "market")
	assert.NotContains(t, risk.AffectedModules, "admin",
		"the transferring module is excluded from affected modules")
}

func TestWideImpactRisk(t *testing.T) {
	code, functions := adminPackage()
	result := capflow.Run(code, functions)

	// AdminCap flows internally through admin, vault, and market, and has
	// an external escape hatch in admin::revoke.
	risk := requireRisk(t, result.Risks, "CROSS-MODULE-WIDE-IMPACT")
	assert.Equal(t, domain.SeverityHigh, risk.Severity)
	assert.GreaterOrEqual(t, len(risk.AffectedModules), 3)
}

func TestSharedCriticalCapabilityRisk(t *testing.T) {
	text := `
fun setup() {
    transfer::public_share_object(TreasuryCap)
}
`
	result := capflow.Run(map[string]string{"treasury": text}, nil)

	risk := requireRisk(t, result.Risks, "CROSS-MODULE-CAP-SHARED")
	assert.Equal(t, domain.SeverityCritical, risk.Severity)
	assert.Equal(t, "treasury", risk.SourceModule)
	assert.Equal(t, "setup", risk.SourceFunction)
}

func TestShareOfNonCriticalCapabilityRaisesNoSharedRisk(t *testing.T) {
	text := "fun setup() { transfer::share_object(VoteCap) }"
	result := capflow.Run(map[string]string{"gov": text}, nil)

	for _, r := range result.Risks {
		assert.NotEqual(t, "CROSS-MODULE-CAP-SHARED", r.PatternID)
	}
	// The flow edge itself still exists, graded risky rather than critical.
	require.NotEmpty(t, result.Flows)
	assert.Equal(t, domain.FlowPublicShare, result.Flows[0].FlowType)
	assert.Equal(t, domain.RiskRisky, result.Flows[0].RiskLevel)
}

func TestSingleUserExternalTransferRaisesNoCrossModuleRisk(t *testing.T) {
	text := `
fun hand_over(recipient: address) {
    transfer::public_transfer(OwnerCap, recipient)
}
`
	result := capflow.Run(map[string]string{"solo": text}, nil)

	for _, r := range result.Risks {
		assert.NotEqual(t, "CROSS-MODULE-CAP-TRANSFER", r.PatternID)
	}
}

func requireRisk(t *testing.T, risks []domain.CrossModuleRisk, patternID string) domain.CrossModuleRisk {
	t.Helper()
	for _, r := range risks {
		if r.PatternID == patternID {
			return r
		}
	}
	t.Fatalf("expected a %s risk, got %d risks", patternID, len(risks))
	return domain.CrossModuleRisk{}
}
