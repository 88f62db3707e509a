package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flagops/internal/approvals"
	"flagops/internal/common"
	"flagops/pkg/launchdarkly"
)

// DefaultSettleDelay is waited between the write and the
// confirmatory read to tolerate eventual consistency
const DefaultSettleDelay = 2 * time.Second

type NewReconcilerOpts struct {
	Client *launchdarkly.Client

	// SettleDelay overrides DefaultSettleDelay when positive
	SettleDelay time.Duration

	ServiceLogs chan common.ServiceLog
}

func NewReconciler(opts NewReconcilerOpts) *Reconciler {
	settleDelay := opts.SettleDelay
	if settleDelay == 0 {
		settleDelay = DefaultSettleDelay
	}
	serviceLogs := opts.ServiceLogs
	if serviceLogs == nil {
		serviceLogs = common.GetNoopServiceLog()
	}
	return &Reconciler{
		client:      opts.Client,
		settleDelay: settleDelay,
		serviceLogs: serviceLogs,
	}
}

type Reconciler struct {
	client      *launchdarkly.Client
	settleDelay time.Duration
	serviceLogs chan common.ServiceLog
}

type ReconcileInput struct {
	ProjectKey     string
	EnvironmentKey string
	Target         approvals.Policy
}

// Reconcile drives one target environment to the target policy:
// fetch the live state, compile the minimal patch, apply it, then
// re-read after the settling delay and confirm the decisive fields
// took. At most one write and two reads are issued; a no-op patch
// short-circuits before the write.
func (r *Reconciler) Reconcile(ctx context.Context, input ReconcileInput) Outcome {
	environment, err := r.client.GetEnvironment(input.ProjectKey, input.EnvironmentKey)
	if err != nil {
		if errors.Is(err, launchdarkly.ErrorNotFound) {
			return Outcome{Status: OutcomeFailed, Err: fmt.Errorf("environment[%s/%s] does not exist: %w", input.ProjectKey, input.EnvironmentKey, err)}
		}
		return Outcome{Status: OutcomeFailed, Err: err}
	}

	ops, err := approvals.CompilePatch(environment.Approvals(), input.Target)
	if err != nil {
		return Outcome{Status: OutcomeFailed, Err: fmt.Errorf("failed to compile patch for environment[%s/%s]: %w", input.ProjectKey, input.EnvironmentKey, err)}
	}
	if len(ops) == 0 {
		r.serviceLogs <- common.ServiceLogf(string(common.LogLevelDebug), "environment[%s/%s] already matches the target policy", input.ProjectKey, input.EnvironmentKey)
		return Outcome{Status: OutcomeApplied, NoChange: true}
	}

	r.serviceLogs <- common.ServiceLogf(string(common.LogLevelDebug), "applying %v patch operation(s) to environment[%s/%s]", len(ops), input.ProjectKey, input.EnvironmentKey)
	responseBody, err := r.client.PatchEnvironment(input.ProjectKey, input.EnvironmentKey, ops)
	if err != nil {
		return Outcome{Status: OutcomeFailed, Err: err}
	}
	if len(responseBody) == 0 {
		// the API acknowledged the patch without a representation,
		// nothing to verify against
		return Outcome{Status: OutcomeApplied}
	}

	select {
	case <-time.After(r.settleDelay):
	case <-ctx.Done():
		// the write already happened, so a cancelled settle leaves
		// the target applied but unconfirmed
		return Outcome{Status: OutcomeUnverifiable, Err: ctx.Err()}
	}
	observed, err := r.client.GetEnvironment(input.ProjectKey, input.EnvironmentKey)
	if err != nil {
		return Outcome{Status: OutcomeUnverifiable, Err: fmt.Errorf("failed to re-read environment[%s/%s] after patch: %s", input.ProjectKey, input.EnvironmentKey, err)}
	}
	if err := verify(observed, input.Target); err != nil {
		return Outcome{Status: OutcomeUnverifiable, Err: err}
	}
	return Outcome{Status: OutcomeApplied}
}

// verify compares the decisive discriminating field between the
// expected and observed state: the wire serviceKind for an enabled
// policy, and required=false on every approval document for a
// removal
func verify(observed *launchdarkly.Environment, target approvals.Policy) error {
	if target.IsDisabled() {
		if observed.ApprovalSettings != nil && observed.ApprovalSettings.Required {
			return fmt.Errorf("environment still requires approvals after removal")
		}
		if segment, ok := observed.Approvals().SegmentSettings(); ok && segment.Required {
			return fmt.Errorf("environment still requires segment approvals after removal")
		}
		return nil
	}
	if observed.ApprovalSettings == nil {
		return fmt.Errorf("environment has no approval settings after patch")
	}
	expectedKind := target.ServiceKind.WireValue()
	if observed.ApprovalSettings.ServiceKind != expectedKind {
		return fmt.Errorf("environment reports serviceKind[%s], expected serviceKind[%s]", observed.ApprovalSettings.ServiceKind, expectedKind)
	}
	return nil
}
