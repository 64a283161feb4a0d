package domain

import "time"

// CapabilityDefinition is a privileged-object type detected in a module's
// bytecode. The ability flags are inferred from nearby tokens, not from type
// metadata; HasCopy and HasDrop are always false because capabilities are
// assumed non-duplicable and non-discardable by convention.
type CapabilityDefinition struct {
	Name     string `json:"name"`
	Module   string `json:"module"`
	FullType string `json:"fullType"`
	HasStore bool   `json:"hasStore"`
	HasKey   bool   `json:"hasKey"`
	HasCopy  bool   `json:"hasCopy"`
	HasDrop  bool   `json:"hasDrop"`
}

// UsageType describes how a capability appears at one site.
type UsageType string

const (
	UsageParameter   UsageType = "parameter"
	UsageCreated     UsageType = "created"
	UsageTransferred UsageType = "transferred"
	UsageDestroyed   UsageType = "destroyed"
	UsageBorrowedMut UsageType = "borrowed_mut"
	UsageBorrowedImm UsageType = "borrowed_imm"
)

// CapabilityUsage is one observation of a capability in code.
type CapabilityUsage struct {
	Capability   string    `json:"capability"`
	FullType     string    `json:"fullType"`
	Module       string    `json:"module"`
	FunctionName string    `json:"functionName"`
	UsageType    UsageType `json:"usageType"`
}

// FlowType classifies where a capability transfer can end up.
type FlowType string

const (
	FlowInternal         FlowType = "internal"
	FlowExternalTransfer FlowType = "external_transfer"
	FlowPublicShare      FlowType = "public_share"
)

// RiskLevel grades a single flow edge.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "safe"
	RiskRisky    RiskLevel = "risky"
	RiskCritical RiskLevel = "critical"
)

// Sentinel destinations for flows that leave the package's module graph.
const (
	FlowToExternalAddress = "external_address"
	FlowToSharedObject    = "shared_object"
)

// CapabilityFlow is a directed edge describing where a capability can move:
// To is either a module name or one of the sentinel destinations above.
type CapabilityFlow struct {
	Capability  string    `json:"capability"`
	FullType    string    `json:"fullType"`
	FromModule  string    `json:"fromModule"`
	To          string    `json:"to"`
	ViaFunction string    `json:"viaFunction"`
	FlowType    FlowType  `json:"flowType"`
	RiskLevel   RiskLevel `json:"riskLevel"`
}

// CrossModuleRisk expresses that one unsafe action in a single module
// endangers the other modules that depend on the same capability.
type CrossModuleRisk struct {
	PatternID       string   `json:"patternId"`
	Severity        Severity `json:"severity"`
	AffectedModules []string `json:"affectedModules"`
	SourceModule    string   `json:"sourceModule"`
	SourceFunction  string   `json:"sourceFunction"`
	Description     string   `json:"description"`
	Evidence        string   `json:"evidence,omitempty"`
}

// CrossModuleAnalysisResult is the capability-flow analyzer's output.
type CrossModuleAnalysisResult struct {
	Capabilities []CapabilityDefinition `json:"capabilities"`
	Usages       []CapabilityUsage      `json:"usages"`
	Flows        []CapabilityFlow       `json:"flows"`
	Risks        []CrossModuleRisk      `json:"risks"`
	AnalysisTime time.Duration          `json:"analysisTime"`
}
