package approvals

import "fmt"

// maxMinApprovals is the largest approval count the provider
// accepts
const maxMinApprovals = 5

// ValidateOpts carries process-level fallbacks resolved by the
// command layer
type ValidateOpts struct {
	// ServiceNowTemplateId is injected into the policy when it
	// selects the ServiceNow backend without a template reference
	// of its own
	ServiceNowTemplateId string
}

// Validate enforces the cross-field invariants on a canonical
// policy and returns the (possibly completed) policy. Out-of-range
// approval counts at this point can only originate from direct
// user input since Normalize pre-clamps remote-derived values, so
// they are rejected rather than silently repaired.
func Validate(p Policy, opts ValidateOpts) (Policy, error) {
	if p.MinApprovals < 1 || p.MinApprovals > maxMinApprovals {
		return p, fmt.Errorf("minimum approvals[%v] must be between 1 and %v: %w", p.MinApprovals, maxMinApprovals, ErrorMinApprovalsOutOfRange)
	}
	for kind, sub := range p.SubPolicies {
		if sub.MinApprovals < 1 || sub.MinApprovals > maxMinApprovals {
			return p, fmt.Errorf("minimum approvals[%v] for %s must be between 1 and %v: %w", sub.MinApprovals, kind, maxMinApprovals, ErrorMinApprovalsOutOfRange)
		}
	}

	b, err := backendFor(p.ServiceKind)
	if err != nil {
		return p, err
	}
	p, err = b.validate(p, opts)
	if err != nil {
		return p, err
	}

	// the remote API rejects a minNumApprovals of 0 regardless of
	// whether the gate is enabled
	p.MinApprovals = atLeastOne(p.MinApprovals)
	for kind, sub := range p.SubPolicies {
		sub.MinApprovals = atLeastOne(sub.MinApprovals)
		p.SubPolicies[kind] = sub
	}
	return p, nil
}
