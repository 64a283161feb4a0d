package domain

import (
	"sort"
	"strings"
)

// Capability detection is name-based, not type-system based. A struct is
// treated as a capability when its short name carries one of the
// conventional suffixes or is one of the well-known privileged types.
var capabilitySuffixes = []string{"Cap", "Capability", "Authority"}

var wellKnownCapabilities = map[string]bool{
	"AdminCap":    true,
	"OwnerCap":    true,
	"TreasuryCap": true,
	"UpgradeCap":  true,
	"MintCap":     true,
	"BurnCap":     true,
	"FreezeCap":   true,
	"Publisher":   true,
}

// criticalCapabilityMarkers name the capability families whose public
// sharing is always treated as critical.
var criticalCapabilityMarkers = []string{"Admin", "Treasury", "Upgrade", "Mint"}

// IsCapabilityTypeName reports whether a short struct name looks like a
// privileged capability type.
func IsCapabilityTypeName(name string) bool {
	if name == "" {
		return false
	}
	if wellKnownCapabilities[name] {
		return true
	}
	for _, suffix := range capabilitySuffixes {
		if strings.HasSuffix(name, suffix) && name != suffix {
			return true
		}
	}
	return false
}

// IsCriticalCapabilityName reports whether a capability name belongs to the
// fixed critical vocabulary (admin, treasury, upgrade, mint families).
func IsCriticalCapabilityName(name string) bool {
	for _, marker := range criticalCapabilityMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// WellKnownCapabilityNames returns the fixed list of recognized capability
// type names, sorted for deterministic scanning order.
func WellKnownCapabilityNames() []string {
	names := make([]string, 0, len(wellKnownCapabilities))
	for name := range wellKnownCapabilities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasCapabilityParam reports whether any parameter of fn is
// capability-typed, directly or behind a reference.
func HasCapabilityParam(fn PublicFunction) bool {
	for _, p := range fn.Params {
		if IsCapabilityTypeName(p.TypeName()) {
			return true
		}
	}
	return false
}
