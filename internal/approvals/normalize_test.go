package approvals

import (
	"errors"
	"testing"

	"flagops/pkg/launchdarkly"
)

func boolPtr(v bool) *bool    { return &v }
func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestParseServiceKindAliases(t *testing.T) {
	cases := map[string]ServiceKind{
		"":                  ServiceKindNative,
		"launchdarkly":      ServiceKindNative,
		"servicenow":        ServiceKindExternalTicketing,
		"service-now":       ServiceKindExternalTicketing,
		"servicenow-normal": ServiceKindExternalTicketing,
	}
	for value, expected := range cases {
		kind, err := ParseServiceKind(value)
		if err != nil {
			t.Errorf("ParseServiceKind(%q) returned error: %v", value, err)
			continue
		}
		if kind != expected {
			t.Errorf("ParseServiceKind(%q) = %s, expected %s", value, kind, expected)
		}
	}
	if _, err := ParseServiceKind("jira"); !errors.Is(err, ErrorUnknownServiceKind) {
		t.Errorf("expected ErrorUnknownServiceKind for an unrecognised value, got %v", err)
	}
}

func TestServiceKindWireValues(t *testing.T) {
	if ServiceKindNative.WireValue() != launchdarkly.ServiceKindNative {
		t.Errorf("expected the native kind to transmit as %s", launchdarkly.ServiceKindNative)
	}
	if ServiceKindExternalTicketing.WireValue() != launchdarkly.ServiceKindServiceNow {
		t.Errorf("expected the external ticketing kind to transmit as %s", launchdarkly.ServiceKindServiceNow)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	policy, err := Normalize(nil, nil)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if policy.Enabled {
		t.Errorf("expected the default policy to be disabled")
	}
	if policy.ServiceKind != ServiceKindNative {
		t.Errorf("expected the default service kind to be native, got %s", policy.ServiceKind)
	}
	if policy.MinApprovals != 1 {
		t.Errorf("expected default minimum approvals of 1, got %v", policy.MinApprovals)
	}
	if !policy.CanApplyIfDeclined {
		t.Errorf("expected declined changes to be applicable by default")
	}
	if !policy.IsDisabled() {
		t.Errorf("expected IsDisabled to report true for the default policy")
	}
}

func TestNormalizeFromRemoteState(t *testing.T) {
	remote := &launchdarkly.EnvironmentApprovals{
		ApprovalSettings: &launchdarkly.ApprovalSettings{
			Required:             true,
			MinNumApprovals:      3,
			CanReviewOwnRequest:  true,
			ServiceKind:          "launchdarkly",
			RequiredApprovalTags: []string{"critical", "critical", "prod"},
		},
	}
	policy, err := Normalize(remote, nil)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if !policy.Enabled {
		t.Errorf("expected the policy to be enabled from remote state")
	}
	flags := policy.SubPolicies[ResourceKindFlagTargeting]
	if !flags.Enabled || flags.MinApprovals != 3 || !flags.CanReviewOwn {
		t.Errorf("expected the flag targeting sub-policy to mirror the remote document, got %+v", flags)
	}
	if len(policy.RequiredTags) != 2 {
		t.Errorf("expected duplicate tags to be dropped, got %v", policy.RequiredTags)
	}
	segments := policy.SubPolicies[ResourceKindSegment]
	if segments.Enabled {
		t.Errorf("expected the segment sub-policy to stay disabled when no segment document exists")
	}
}

func TestNormalizeClampsRemoteApprovals(t *testing.T) {
	cases := map[int]int{-1: 1, 0: 1, 3: 3, 9: 5}
	for remoteValue, expected := range cases {
		remote := &launchdarkly.EnvironmentApprovals{
			ApprovalSettings: &launchdarkly.ApprovalSettings{
				Required:        true,
				MinNumApprovals: remoteValue,
				ServiceKind:     "launchdarkly",
			},
		}
		policy, err := Normalize(remote, nil)
		if err != nil {
			t.Fatalf("Normalize returned error for remote value %v: %v", remoteValue, err)
		}
		if policy.MinApprovals != expected {
			t.Errorf("expected remote minNumApprovals[%v] to normalise to %v, got %v", remoteValue, expected, policy.MinApprovals)
		}
	}
}

func TestNormalizeRawPassesThroughUnclamped(t *testing.T) {
	policy, err := Normalize(nil, &Input{MinNumApprovals: intPtr(9)})
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if policy.MinApprovals != 9 {
		t.Errorf("expected raw input to pass through for the validator to reject, got %v", policy.MinApprovals)
	}
}

func TestNormalizeRawOverridesRemote(t *testing.T) {
	remote := &launchdarkly.EnvironmentApprovals{
		ApprovalSettings: &launchdarkly.ApprovalSettings{
			Required:        true,
			MinNumApprovals: 2,
			ServiceKind:     "launchdarkly",
		},
	}
	raw := &Input{
		Required:        boolPtr(false),
		MinNumApprovals: intPtr(4),
		ServiceKind:     strPtr("servicenow"),
	}
	policy, err := Normalize(remote, raw)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if policy.ServiceKind != ServiceKindExternalTicketing {
		t.Errorf("expected the raw service kind to win, got %s", policy.ServiceKind)
	}
	if policy.MinApprovals != 4 {
		t.Errorf("expected the raw approval count to win, got %v", policy.MinApprovals)
	}
	if policy.SubPolicies[ResourceKindFlagTargeting].Enabled {
		t.Errorf("expected raw required=false to disable the flag targeting sub-policy")
	}
}

func TestNormalizeRejectsUnknownRemoteKind(t *testing.T) {
	remote := &launchdarkly.EnvironmentApprovals{
		ApprovalSettings: &launchdarkly.ApprovalSettings{ServiceKind: "jira"},
	}
	if _, err := Normalize(remote, nil); !errors.Is(err, ErrorUnknownServiceKind) {
		t.Errorf("expected ErrorUnknownServiceKind, got %v", err)
	}
}

func TestNormalizeSegmentsEnableThePolicy(t *testing.T) {
	raw := &Input{
		SegmentsApprovalSettings: &SubPolicyInput{
			Required:        boolPtr(true),
			MinNumApprovals: intPtr(2),
		},
	}
	policy, err := Normalize(nil, raw)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if !policy.Enabled {
		t.Errorf("expected an enabled segment sub-policy to enable the policy")
	}
	if policy.SubPolicies[ResourceKindFlagTargeting].Enabled {
		t.Errorf("expected the flag targeting sub-policy to stay disabled")
	}
	segments := policy.SubPolicies[ResourceKindSegment]
	if !segments.Enabled || segments.MinApprovals != 2 {
		t.Errorf("expected the segment sub-policy to carry the raw values, got %+v", segments)
	}
}

func TestNormalizeRoundTripIsStable(t *testing.T) {
	remote := &launchdarkly.EnvironmentApprovals{
		ApprovalSettings: &launchdarkly.ApprovalSettings{
			Required:                 true,
			MinNumApprovals:          2,
			CanApplyDeclinedChanges:  true,
			AutoApplyApprovedChanges: true,
			ServiceKind:              "launchdarkly",
			RequiredApprovalTags:     []string{"prod"},
		},
		ResourceApprovalSettings: map[string]launchdarkly.ApprovalSettings{
			"segment": {
				Required:                true,
				MinNumApprovals:         1,
				CanApplyDeclinedChanges: true,
				ServiceKind:             "launchdarkly",
			},
		},
	}
	policy, err := Normalize(remote, nil)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	ops, err := CompilePatch(remote, policy)
	if err != nil {
		t.Fatalf("CompilePatch returned error: %v", err)
	}
	if len(ops) != 0 {
		t.Errorf("expected a round-tripped policy to compile to an empty patch, got %v operation(s): %+v", len(ops), ops)
	}
}
