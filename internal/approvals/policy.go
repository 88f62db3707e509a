package approvals

// Policy is the canonical, wire-format-independent representation
// of an environment's approval configuration. It is produced by
// Normalize, checked by Validate, and rendered back into provider
// documents by the patch compiler.
type Policy struct {
	// Enabled reports whether any approval gate is active, it is
	// derived from the sub-policies during normalisation
	Enabled bool

	// ServiceKind selects the enforcing backend
	ServiceKind ServiceKind

	BypassForPendingChanges bool
	AutoApplyWhenApproved   bool

	// MinApprovals is always within [1,5] once validated, the
	// remote API rejects 0
	MinApprovals int

	CanReviewOwn bool

	// CanApplyIfDeclined uses positive polarity: true means a
	// declined change may still be applied
	CanApplyIfDeclined bool

	// RequiredTags restricts which resources need approval, empty
	// means the gate applies to all resources of the kind
	RequiredTags []string

	// ExternalConfig carries backend-specific settings, only
	// meaningful for the external ticketing backend
	ExternalConfig map[string]string

	SubPolicies map[ResourceKind]SubPolicy
}

// SubPolicy is an approval configuration scoped to one resource
// kind within the environment
type SubPolicy struct {
	Enabled            bool
	MinApprovals       int
	RequiredTags       []string
	CanReviewOwn       bool
	CanApplyIfDeclined bool

	// AllowDeleteScheduledWithoutApproval only applies to flag
	// targeting, segments have no scheduled changes
	AllowDeleteScheduledWithoutApproval bool
}

// DisabledSub is the fully-disabled sub-policy used both as the
// normalisation default and as the removal target
func DisabledSub() SubPolicy {
	return SubPolicy{
		Enabled:            false,
		MinApprovals:       1,
		RequiredTags:       []string{},
		CanReviewOwn:       false,
		CanApplyIfDeclined: true,
	}
}

// Disabled is the canonical "no approvals" policy. It is a real
// configuration (every gate off), distinct from an environment
// that never had approvals configured; removal compiles against it
// so removal and configuration share one compiler.
func Disabled() Policy {
	return Policy{
		Enabled:            false,
		ServiceKind:        ServiceKindNative,
		MinApprovals:       1,
		CanApplyIfDeclined: true,
		RequiredTags:       []string{},
		ExternalConfig:     map[string]string{},
		SubPolicies: map[ResourceKind]SubPolicy{
			ResourceKindFlagTargeting: DisabledSub(),
			ResourceKindSegment:       DisabledSub(),
		},
	}
}

// IsDisabled reports whether no approval gate is active on any
// resource kind
func (p Policy) IsDisabled() bool {
	for _, sub := range p.SubPolicies {
		if sub.Enabled {
			return false
		}
	}
	return !p.Enabled
}
