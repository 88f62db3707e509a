package approvals

import (
	"flagops/pkg/launchdarkly"
)

// Normalize converts heterogeneous input into one canonical
// Policy. Precedence is raw input > remote state > hard defaults,
// where the hard defaults are the fully-disabled policy. Remote
// minNumApprovals values outside [1,5] are repaired here since
// they represent already-accepted history; raw values pass through
// untouched so the validator can reject them.
//
// Normalize is a pure transform: it performs no network calls and
// round-trips any previously-seen wire state back to an equivalent
// Policy when raw is nil.
func Normalize(remote *launchdarkly.EnvironmentApprovals, raw *Input) (Policy, error) {
	p := Disabled()
	flags := p.SubPolicies[ResourceKindFlagTargeting]
	segments := p.SubPolicies[ResourceKindSegment]

	if remote != nil && remote.ApprovalSettings != nil {
		doc := *remote.ApprovalSettings
		kind, err := ParseServiceKind(doc.ServiceKind)
		if err != nil {
			return Policy{}, err
		}
		p.ServiceKind = kind
		p.BypassForPendingChanges = doc.BypassApprovalsForPendingChanges
		p.AutoApplyWhenApproved = doc.AutoApplyApprovedChanges
		p.MinApprovals = clampApprovals(doc.MinNumApprovals)
		p.CanReviewOwn = doc.CanReviewOwnRequest
		p.CanApplyIfDeclined = doc.CanApplyDeclinedChanges
		p.RequiredTags = dedupeTags(doc.RequiredApprovalTags)
		p.ExternalConfig = copyConfig(doc.ServiceConfig)
		flags = SubPolicy{
			Enabled:                             doc.Required,
			MinApprovals:                        clampApprovals(doc.MinNumApprovals),
			RequiredTags:                        dedupeTags(doc.RequiredApprovalTags),
			CanReviewOwn:                        doc.CanReviewOwnRequest,
			CanApplyIfDeclined:                  doc.CanApplyDeclinedChanges,
			AllowDeleteScheduledWithoutApproval: doc.AllowDeleteScheduledChanges,
		}
	}
	if segmentDoc, ok := remote.SegmentSettings(); ok {
		segments = SubPolicy{
			Enabled:            segmentDoc.Required,
			MinApprovals:       clampApprovals(segmentDoc.MinNumApprovals),
			RequiredTags:       dedupeTags(segmentDoc.RequiredApprovalTags),
			CanReviewOwn:       segmentDoc.CanReviewOwnRequest,
			CanApplyIfDeclined: segmentDoc.CanApplyDeclinedChanges,
		}
	}

	if raw != nil {
		if raw.ServiceKind != nil {
			kind, err := ParseServiceKind(*raw.ServiceKind)
			if err != nil {
				return Policy{}, err
			}
			p.ServiceKind = kind
		}
		if raw.BypassApprovalsForPendingChanges != nil {
			p.BypassForPendingChanges = *raw.BypassApprovalsForPendingChanges
		}
		if raw.AutoApplyApprovedChanges != nil {
			p.AutoApplyWhenApproved = *raw.AutoApplyApprovedChanges
		}
		if raw.MinNumApprovals != nil {
			p.MinApprovals = *raw.MinNumApprovals
			flags.MinApprovals = *raw.MinNumApprovals
		}
		if raw.CanReviewOwnRequest != nil {
			p.CanReviewOwn = *raw.CanReviewOwnRequest
			flags.CanReviewOwn = *raw.CanReviewOwnRequest
		}
		if raw.CanApplyDeclinedChanges != nil {
			p.CanApplyIfDeclined = *raw.CanApplyDeclinedChanges
			flags.CanApplyIfDeclined = *raw.CanApplyDeclinedChanges
		}
		if raw.RequiredApprovalTags != nil {
			p.RequiredTags = dedupeTags(raw.RequiredApprovalTags)
			flags.RequiredTags = dedupeTags(raw.RequiredApprovalTags)
		}
		if raw.ServiceConfig != nil {
			for k, v := range raw.ServiceConfig {
				p.ExternalConfig[k] = v
			}
		}
		if raw.Required != nil {
			flags.Enabled = *raw.Required
		}
		if raw.FlagsApprovalSettings != nil {
			flags = overlaySub(flags, *raw.FlagsApprovalSettings, true)
		}
		if raw.SegmentsApprovalSettings != nil {
			segments = overlaySub(segments, *raw.SegmentsApprovalSettings, false)
		}
	}

	p.SubPolicies[ResourceKindFlagTargeting] = flags
	p.SubPolicies[ResourceKindSegment] = segments
	p.Enabled = flags.Enabled || segments.Enabled
	return p, nil
}

func overlaySub(sub SubPolicy, input SubPolicyInput, isFlags bool) SubPolicy {
	if input.Required != nil {
		sub.Enabled = *input.Required
	}
	if input.MinNumApprovals != nil {
		sub.MinApprovals = *input.MinNumApprovals
	}
	if input.RequiredApprovalTags != nil {
		sub.RequiredTags = dedupeTags(input.RequiredApprovalTags)
	}
	if input.CanReviewOwnRequest != nil {
		sub.CanReviewOwn = *input.CanReviewOwnRequest
	}
	if input.CanApplyDeclinedChanges != nil {
		sub.CanApplyIfDeclined = *input.CanApplyDeclinedChanges
	}
	if isFlags && input.AllowDeleteScheduledChanges != nil {
		sub.AllowDeleteScheduledWithoutApproval = *input.AllowDeleteScheduledChanges
	}
	return sub
}

// clampApprovals repairs remote-derived approval counts into the
// provider's accepted range
func clampApprovals(n int) int {
	if n < 1 {
		return 1
	}
	if n > maxMinApprovals {
		return maxMinApprovals
	}
	return n
}

// dedupeTags drops duplicate tags while preserving first-seen
// order
func dedupeTags(tags []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, tag := range tags {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
