package launchdarkly

// ServiceKindNative and ServiceKindServiceNow are the only
// serviceKind values the management API accepts on the wire;
// historical aliases are normalised before transmission
const (
	ServiceKindNative     = "launchdarkly"
	ServiceKindServiceNow = "servicenow"
)

// ApprovalSettings is the wire shape of one approval document, it
// appears both at `/approvalSettings` and at
// `/resourceApprovalSettings/segment` on an environment
type ApprovalSettings struct {
	Required                         bool              `json:"required"`
	BypassApprovalsForPendingChanges bool              `json:"bypassApprovalsForPendingChanges"`
	MinNumApprovals                  int               `json:"minNumApprovals"`
	CanReviewOwnRequest              bool              `json:"canReviewOwnRequest"`
	CanApplyDeclinedChanges          bool              `json:"canApplyDeclinedChanges"`
	AutoApplyApprovedChanges         bool              `json:"autoApplyApprovedChanges"`
	AllowDeleteScheduledChanges      bool              `json:"allowDeleteScheduledChanges,omitempty"`
	ServiceKind                      string            `json:"serviceKind"`
	ServiceConfig                    map[string]string `json:"serviceConfig"`
	RequiredApprovalTags             []string          `json:"requiredApprovalTags"`
}

// Equal compares two approval documents treating nil and empty
// collections as the same value since the API serialises them
// interchangeably
func (a ApprovalSettings) Equal(o ApprovalSettings) bool {
	if a.Required != o.Required ||
		a.BypassApprovalsForPendingChanges != o.BypassApprovalsForPendingChanges ||
		a.MinNumApprovals != o.MinNumApprovals ||
		a.CanReviewOwnRequest != o.CanReviewOwnRequest ||
		a.CanApplyDeclinedChanges != o.CanApplyDeclinedChanges ||
		a.AutoApplyApprovedChanges != o.AutoApplyApprovedChanges ||
		a.AllowDeleteScheduledChanges != o.AllowDeleteScheduledChanges ||
		a.ServiceKind != o.ServiceKind {
		return false
	}
	if len(a.ServiceConfig) != len(o.ServiceConfig) {
		return false
	}
	for k, v := range a.ServiceConfig {
		if o.ServiceConfig[k] != v {
			return false
		}
	}
	if len(a.RequiredApprovalTags) != len(o.RequiredApprovalTags) {
		return false
	}
	for i, tag := range a.RequiredApprovalTags {
		if o.RequiredApprovalTags[i] != tag {
			return false
		}
	}
	return true
}

// EnvironmentApprovals groups the approval-related documents of an
// environment, a nil value means approvals were never configured
type EnvironmentApprovals struct {
	ApprovalSettings         *ApprovalSettings           `json:"approvalSettings,omitempty"`
	ResourceApprovalSettings map[string]ApprovalSettings `json:"resourceApprovalSettings,omitempty"`
}

// SegmentSettings returns the segment approval document and whether
// it exists on the environment
func (e *EnvironmentApprovals) SegmentSettings() (ApprovalSettings, bool) {
	if e == nil || e.ResourceApprovalSettings == nil {
		return ApprovalSettings{}, false
	}
	segment, ok := e.ResourceApprovalSettings["segment"]
	return segment, ok
}

type Environment struct {
	Key                      string                      `json:"key"`
	Name                     string                      `json:"name"`
	Color                    string                      `json:"color"`
	DefaultTtl               int                         `json:"defaultTtl"`
	SecureMode               bool                        `json:"secureMode"`
	DefaultTrackEvents       bool                        `json:"defaultTrackEvents"`
	Tags                     []string                    `json:"tags"`
	RequireComments          bool                        `json:"requireComments"`
	ConfirmChanges           bool                        `json:"confirmChanges"`
	ApprovalSettings         *ApprovalSettings           `json:"approvalSettings,omitempty"`
	ResourceApprovalSettings map[string]ApprovalSettings `json:"resourceApprovalSettings,omitempty"`
}

// Approvals returns the environment's approval state, nil when no
// approval document has ever been configured on it
func (e Environment) Approvals() *EnvironmentApprovals {
	if e.ApprovalSettings == nil && e.ResourceApprovalSettings == nil {
		return nil
	}
	return &EnvironmentApprovals{
		ApprovalSettings:         e.ApprovalSettings,
		ResourceApprovalSettings: e.ResourceApprovalSettings,
	}
}

type Project struct {
	Key          string        `json:"key"`
	Name         string        `json:"name"`
	Tags         []string      `json:"tags,omitempty"`
	Environments []Environment `json:"-"`
}

type ClientSideAvailability struct {
	UsingEnvironmentId bool `json:"usingEnvironmentId"`
	UsingMobileKey     bool `json:"usingMobileKey"`
}

type CreateProjectInput struct {
	Key                           string                 `json:"key"`
	Name                          string                 `json:"name"`
	Tags                          []string               `json:"tags"`
	DefaultClientSideAvailability ClientSideAvailability `json:"defaultClientSideAvailability"`
}

type CreateEnvironmentInput struct {
	Key                string   `json:"key"`
	Name               string   `json:"name"`
	Color              string   `json:"color"`
	DefaultTtl         int      `json:"defaultTtl"`
	SecureMode         bool     `json:"secureMode"`
	DefaultTrackEvents bool     `json:"defaultTrackEvents"`
	Tags               []string `json:"tags"`
	RequireComments    bool     `json:"requireComments"`
	ConfirmChanges     bool     `json:"confirmChanges"`
}

const (
	PatchOpAdd     = "add"
	PatchOpReplace = "replace"
)

// PatchOp is one operation of a JSON-Patch (RFC 6902) document as
// accepted by the environment PATCH endpoint
type PatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

type paginatedProjects struct {
	Items      []Project `json:"items"`
	TotalCount int       `json:"totalCount"`
}

type environmentItems struct {
	Items      []Environment `json:"items"`
	TotalCount int           `json:"totalCount"`
}
