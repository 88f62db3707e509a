package approvals

import (
	"fmt"

	"flagops/pkg/launchdarkly"
)

// wireDocuments are the two provider documents a policy renders
// into: the top-level flag targeting document and the segment
// document
type wireDocuments struct {
	Top     launchdarkly.ApprovalSettings
	Segment launchdarkly.ApprovalSettings
}

// backend collapses the per-service-kind branching into a single
// dispatch point: each variant knows its defaults, its validation
// constraints, and how to render wire documents
type backend interface {
	validate(p Policy, opts ValidateOpts) (Policy, error)
	render(p Policy) wireDocuments
}

func backendFor(kind ServiceKind) (backend, error) {
	switch kind {
	case ServiceKindNative:
		return nativeBackend{}, nil
	case ServiceKindExternalTicketing:
		return serviceNowBackend{}, nil
	}
	return nil, fmt.Errorf("failed to recognise serviceKind[%s]: %w", kind, ErrorUnknownServiceKind)
}

// disabledTopDocument is the wire shape of a top-level document
// with approvals off, it doubles as the provider's implicit empty
// default for environments that never had approvals
func disabledTopDocument() launchdarkly.ApprovalSettings {
	return launchdarkly.ApprovalSettings{
		Required:                         false,
		BypassApprovalsForPendingChanges: false,
		MinNumApprovals:                  1,
		CanReviewOwnRequest:              false,
		CanApplyDeclinedChanges:          true,
		AutoApplyApprovedChanges:         false,
		ServiceKind:                      launchdarkly.ServiceKindNative,
		ServiceConfig:                    map[string]string{},
		RequiredApprovalTags:             []string{},
	}
}

// disabledSegmentDocument mirrors disabledTopDocument for the
// segment scope
func disabledSegmentDocument() launchdarkly.ApprovalSettings {
	return launchdarkly.ApprovalSettings{
		Required:                         false,
		BypassApprovalsForPendingChanges: false,
		MinNumApprovals:                  1,
		CanReviewOwnRequest:              false,
		CanApplyDeclinedChanges:          true,
		ServiceKind:                      launchdarkly.ServiceKindNative,
		ServiceConfig:                    map[string]string{},
		RequiredApprovalTags:             []string{},
	}
}

type nativeBackend struct{}

func (nativeBackend) validate(p Policy, opts ValidateOpts) (Policy, error) {
	return p, nil
}

func (nativeBackend) render(p Policy) wireDocuments {
	flags := p.SubPolicies[ResourceKindFlagTargeting]
	segments := p.SubPolicies[ResourceKindSegment]
	top := launchdarkly.ApprovalSettings{
		Required:                         flags.Enabled,
		BypassApprovalsForPendingChanges: p.BypassForPendingChanges,
		MinNumApprovals:                  atLeastOne(flags.MinApprovals),
		CanReviewOwnRequest:              flags.CanReviewOwn,
		CanApplyDeclinedChanges:          flags.CanApplyIfDeclined,
		AutoApplyApprovedChanges:         p.AutoApplyWhenApproved,
		AllowDeleteScheduledChanges:      flags.AllowDeleteScheduledWithoutApproval,
		ServiceKind:                      launchdarkly.ServiceKindNative,
		ServiceConfig:                    map[string]string{},
		RequiredApprovalTags:             orEmpty(flags.RequiredTags),
	}
	segment := launchdarkly.ApprovalSettings{
		Required:                         segments.Enabled,
		BypassApprovalsForPendingChanges: false,
		MinNumApprovals:                  atLeastOne(segments.MinApprovals),
		CanReviewOwnRequest:              segments.CanReviewOwn,
		CanApplyDeclinedChanges:          segments.CanApplyIfDeclined,
		ServiceKind:                      launchdarkly.ServiceKindNative,
		ServiceConfig:                    map[string]string{},
		RequiredApprovalTags:             orEmpty(segments.RequiredTags),
	}
	if segments.Enabled {
		segment.BypassApprovalsForPendingChanges = p.BypassForPendingChanges
	}
	return wireDocuments{Top: top, Segment: segment}
}

type serviceNowBackend struct{}

func (serviceNowBackend) validate(p Policy, opts ValidateOpts) (Policy, error) {
	if segments, ok := p.SubPolicies[ResourceKindSegment]; ok && segments.Enabled {
		return p, fmt.Errorf("the ServiceNow backend cannot approve segment changes: %w", ErrorSegmentApprovalsUnsupported)
	}
	if p.ExternalConfig == nil {
		p.ExternalConfig = map[string]string{}
	}
	if p.ExternalConfig["template"] == "" {
		if opts.ServiceNowTemplateId == "" {
			return p, fmt.Errorf("no ServiceNow template reference found in the policy or in the process configuration: %w", ErrorTemplateMissing)
		}
		p.ExternalConfig["template"] = opts.ServiceNowTemplateId
	}
	if p.ExternalConfig["detail_column"] == "" {
		p.ExternalConfig["detail_column"] = "justification"
	}
	return p, nil
}

// render pins the fields the ServiceNow integration controls
// itself: self-review off, declined changes applicable, no
// auto-apply, no tag filters. Segments always render disabled with
// the native wire kind since the provider rejects segment
// documents referencing the ticketing backend.
func (serviceNowBackend) render(p Policy) wireDocuments {
	flags := p.SubPolicies[ResourceKindFlagTargeting]
	top := launchdarkly.ApprovalSettings{
		Required:                         flags.Enabled,
		BypassApprovalsForPendingChanges: p.BypassForPendingChanges,
		MinNumApprovals:                  atLeastOne(flags.MinApprovals),
		CanReviewOwnRequest:              false,
		CanApplyDeclinedChanges:          true,
		AutoApplyApprovedChanges:         false,
		ServiceKind:                      launchdarkly.ServiceKindServiceNow,
		ServiceConfig:                    copyConfig(p.ExternalConfig),
		RequiredApprovalTags:             []string{},
	}
	return wireDocuments{Top: top, Segment: disabledSegmentDocument()}
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func orEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func copyConfig(config map[string]string) map[string]string {
	out := map[string]string{}
	for k, v := range config {
		out[k] = v
	}
	return out
}
