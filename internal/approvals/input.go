package approvals

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Input is the looser, user- or file-supplied intent shape; nil
// pointer fields mean "not specified" and fall back to remote
// state or to the hard defaults during normalisation
type Input struct {
	Required                         *bool             `json:"required" yaml:"required"`
	BypassApprovalsForPendingChanges *bool             `json:"bypass_approvals_for_pending_changes" yaml:"bypass_approvals_for_pending_changes"`
	MinNumApprovals                  *int              `json:"min_num_approvals" yaml:"min_num_approvals"`
	CanReviewOwnRequest              *bool             `json:"can_review_own_request" yaml:"can_review_own_request"`
	CanApplyDeclinedChanges          *bool             `json:"can_apply_declined_changes" yaml:"can_apply_declined_changes"`
	AutoApplyApprovedChanges         *bool             `json:"auto_apply_approved_changes" yaml:"auto_apply_approved_changes"`
	RequiredApprovalTags             []string          `json:"required_approval_tags" yaml:"required_approval_tags"`
	ServiceKind                      *string           `json:"service_kind" yaml:"service_kind"`
	ServiceConfig                    map[string]string `json:"service_config" yaml:"service_config"`

	FlagsApprovalSettings    *SubPolicyInput `json:"flags_approval_settings" yaml:"flags_approval_settings"`
	SegmentsApprovalSettings *SubPolicyInput `json:"segments_approval_settings" yaml:"segments_approval_settings"`
}

type SubPolicyInput struct {
	Required                *bool    `json:"required" yaml:"required"`
	RequiredApprovalTags    []string `json:"required_approval_tags" yaml:"required_approval_tags"`
	CanReviewOwnRequest     *bool    `json:"can_review_own_request" yaml:"can_review_own_request"`
	MinNumApprovals         *int     `json:"min_num_approvals" yaml:"min_num_approvals"`
	CanApplyDeclinedChanges *bool    `json:"can_apply_declined_changes" yaml:"can_apply_declined_changes"`

	// AllowDeleteScheduledChanges is only honoured on the flags
	// sub-policy
	AllowDeleteScheduledChanges *bool `json:"allow_delete_scheduled_changes" yaml:"allow_delete_scheduled_changes"`
}

// LoadInputFromFile reads a policy intent document from a YAML
// file
func LoadInputFromFile(path string) (*Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file at path[%s]: %s", path, err)
	}
	var input Input
	if err := yaml.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("failed to parse policy file at path[%s]: %s", path, err)
	}
	return &input, nil
}
