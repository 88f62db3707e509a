package approvals

import "errors"

var (
	ErrorMinApprovalsOutOfRange      = errors.New("min_approvals_out_of_range")
	ErrorSegmentApprovalsUnsupported = errors.New("segment_approvals_unsupported")
	ErrorTemplateMissing             = errors.New("template_missing")
	ErrorUnknownServiceKind          = errors.New("unknown_service_kind")
)
