package capflow

import (
	"strings"

	"github.com/movesec/auditor/internal/domain"
)

// ClassifyFlows turns transfer sites and cross-module usages into directed
// flow edges.
//
// A transfer site becomes an external_transfer edge when it used an
// ownership-transfer call and an address-like value is in reach, a
// public_share edge when it used a share call, and nothing otherwise.
// Separately, every usage of a capability outside its defining module
// becomes a safe internal edge.
func ClassifyFlows(
	sites []transferSite,
	functions []domain.PublicFunction,
	capabilities []domain.CapabilityDefinition,
	usages []domain.CapabilityUsage,
) []domain.CapabilityFlow {
	var flows []domain.CapabilityFlow

	for _, site := range sites {
		switch site.Call {
		case "share_object", "public_share_object":
			flows = append(flows, domain.CapabilityFlow{
				Capability:  site.Capability,
				FullType:    site.FullType,
				FromModule:  site.Module,
				To:          domain.FlowToSharedObject,
				ViaFunction: site.Function,
				FlowType:    domain.FlowPublicShare,
				RiskLevel:   shareRiskLevel(site.Capability),
			})
		case "public_transfer", "transfer":
			if !addressLike(site, functions) {
				continue
			}
			flows = append(flows, domain.CapabilityFlow{
				Capability:  site.Capability,
				FullType:    site.FullType,
				FromModule:  site.Module,
				To:          domain.FlowToExternalAddress,
				ViaFunction: site.Function,
				FlowType:    domain.FlowExternalTransfer,
				RiskLevel:   transferRiskLevel(site.Capability),
			})
		}
	}

	for _, usage := range usages {
		def := definingModule(usage.Capability, capabilities)
		if def == "" || def == usage.Module {
			continue
		}
		flows = append(flows, domain.CapabilityFlow{
			Capability:  usage.Capability,
			FullType:    usage.FullType,
			FromModule:  def,
			To:          usage.Module,
			ViaFunction: usage.FunctionName,
			FlowType:    domain.FlowInternal,
			RiskLevel:   domain.RiskSafe,
		})
	}

	return flows
}

// addressLike reports whether the transfer site plausibly targets an
// arbitrary address: the enclosing function declares an address parameter,
// or the surrounding text names one.
func addressLike(site transferSite, functions []domain.PublicFunction) bool {
	for _, fn := range functions {
		if fn.Module != site.Module || fn.Name != site.Function {
			continue
		}
		for _, p := range fn.Params {
			if p.Kind == domain.ParamPrimitive && p.Primitive == "address" {
				return true
			}
		}
	}
	return strings.Contains(site.Window, "recipient") || strings.Contains(site.Window, "address")
}

func transferRiskLevel(capability string) domain.RiskLevel {
	if domain.IsCriticalCapabilityName(capability) {
		return domain.RiskCritical
	}
	return domain.RiskRisky
}

func shareRiskLevel(capability string) domain.RiskLevel {
	if domain.IsCriticalCapabilityName(capability) {
		return domain.RiskCritical
	}
	return domain.RiskRisky
}
