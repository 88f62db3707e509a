package approvals

import (
	"fmt"

	"flagops/pkg/launchdarkly"
)

// ServiceKind identifies the backend that enforces approvals, the
// two kinds carry mutually exclusive feature sets
type ServiceKind string

const (
	// ServiceKindNative is the flag platform's own approval system
	ServiceKindNative ServiceKind = "native"

	// ServiceKindExternalTicketing delegates approvals to a
	// ServiceNow instance via a referenced template
	ServiceKindExternalTicketing ServiceKind = "external-ticketing"
)

// serviceKindAliases maps every wire spelling the provider has
// historically emitted onto a canonical kind, an empty value reads
// as native since environments without approvals omit the field
var serviceKindAliases = map[string]ServiceKind{
	"":                  ServiceKindNative,
	"launchdarkly":      ServiceKindNative,
	"servicenow":        ServiceKindExternalTicketing,
	"service-now":       ServiceKindExternalTicketing,
	"servicenow-normal": ServiceKindExternalTicketing,
}

// ParseServiceKind normalises a wire or user-supplied serviceKind
// value, unknown values are an error rather than a silent default
func ParseServiceKind(value string) (ServiceKind, error) {
	if kind, ok := serviceKindAliases[value]; ok {
		return kind, nil
	}
	return "", fmt.Errorf("failed to recognise serviceKind[%s]: %w", value, ErrorUnknownServiceKind)
}

// WireValue returns the single canonical string transmitted to the
// API for this kind
func (k ServiceKind) WireValue() string {
	if k == ServiceKindExternalTicketing {
		return launchdarkly.ServiceKindServiceNow
	}
	return launchdarkly.ServiceKindNative
}

// ResourceKind scopes a sub-policy to one kind of resource
type ResourceKind string

const (
	ResourceKindFlagTargeting ResourceKind = "flag-targeting"
	ResourceKindSegment       ResourceKind = "segment"
)
