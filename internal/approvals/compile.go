package approvals

import (
	"flagops/pkg/launchdarkly"
)

// CompilePatch diffs the canonical target policy against the live
// approval state and returns the minimal ordered patch that moves
// the environment to the target.
//
// The unit of diffing is the provider document: the top-level
// document and the segment document are each rendered from the
// policy and compared as a whole against their live counterpart,
// an equal document emits no operation. When `live` is nil the
// environment never had approvals configured, so differing
// documents emit `add` against the provider's implicit defaults;
// otherwise they emit `replace`.
//
// The top-level document operation is always emitted before the
// segment operation: some backends derive segment defaults from
// the top-level document at apply time, so the reverse order would
// produce wrong segment state.
func CompilePatch(live *launchdarkly.EnvironmentApprovals, target Policy) ([]launchdarkly.PatchOp, error) {
	b, err := backendFor(target.ServiceKind)
	if err != nil {
		return nil, err
	}
	docs := b.render(target)

	liveTop := disabledTopDocument()
	hasLiveTop := live != nil && live.ApprovalSettings != nil
	if hasLiveTop {
		liveTop = *live.ApprovalSettings
	}
	liveSegment, hasLiveSegment := live.SegmentSettings()
	if !hasLiveSegment {
		liveSegment = disabledSegmentDocument()
	}

	ops := []launchdarkly.PatchOp{}

	if !docs.Top.Equal(liveTop) {
		op := launchdarkly.PatchOp{
			Op:    launchdarkly.PatchOpReplace,
			Path:  "/approvalSettings",
			Value: docs.Top,
		}
		if !hasLiveTop {
			op.Op = launchdarkly.PatchOpAdd
		}
		ops = append(ops, op)
	}

	needSegmentOp := !docs.Segment.Equal(liveSegment)
	if target.ServiceKind == ServiceKindExternalTicketing {
		// the provider rejects segment documents referencing the
		// ticketing backend, so only reset a live segment document
		// that actually deviates from the disabled default
		needSegmentOp = hasLiveSegment && !liveSegment.Equal(disabledSegmentDocument())
	}
	if needSegmentOp {
		if live != nil && live.ResourceApprovalSettings != nil {
			ops = append(ops, launchdarkly.PatchOp{
				Op:    launchdarkly.PatchOpReplace,
				Path:  "/resourceApprovalSettings/segment",
				Value: docs.Segment,
			})
		} else {
			// a JSON-Patch add needs an existing parent, so the
			// segment document goes in wrapped in its container
			ops = append(ops, launchdarkly.PatchOp{
				Op:    launchdarkly.PatchOpAdd,
				Path:  "/resourceApprovalSettings",
				Value: map[string]launchdarkly.ApprovalSettings{"segment": docs.Segment},
			})
		}
	}

	return ops, nil
}

// RenderTopDocument exposes the rendered top-level document so
// callers can display the effective wire configuration of a
// policy without compiling a patch
func RenderTopDocument(p Policy) (launchdarkly.ApprovalSettings, error) {
	b, err := backendFor(p.ServiceKind)
	if err != nil {
		return launchdarkly.ApprovalSettings{}, err
	}
	return b.render(p).Top, nil
}
