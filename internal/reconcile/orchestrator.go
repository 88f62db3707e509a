package reconcile

import (
	"context"
	"fmt"

	"flagops/internal/approvals"
	"flagops/internal/common"
	"flagops/pkg/launchdarkly"

	"github.com/google/uuid"
)

// Target identifies one environment to reconcile together with the
// approval state observed when it was listed, the orchestrator
// uses that state to skip targets without any network call
type Target struct {
	ProjectKey     string
	EnvironmentKey string

	// Live is the approval state embedded in the environment
	// listing, nil when approvals were never configured
	Live *launchdarkly.EnvironmentApprovals
}

type RunOpts struct {
	// Targets are processed strictly in the given order
	Targets []Target

	// PolicyFor resolves the target policy for one target, a
	// returned error counts the target as errored
	PolicyFor func(target Target) (approvals.Policy, error)

	// Precondition reports whether the target can be skipped
	// outright; when nil, a target is skipped when the compiled
	// patch against its listed state is empty
	Precondition func(target Target, policy approvals.Policy) bool
}

type NewOrchestratorOpts struct {
	Reconciler  *Reconciler
	ServiceLogs chan common.ServiceLog
}

func NewOrchestrator(opts NewOrchestratorOpts) *Orchestrator {
	serviceLogs := opts.ServiceLogs
	if serviceLogs == nil {
		serviceLogs = common.GetNoopServiceLog()
	}
	return &Orchestrator{
		reconciler:  opts.Reconciler,
		serviceLogs: serviceLogs,
	}
}

type Orchestrator struct {
	reconciler  *Reconciler
	serviceLogs chan common.ServiceLog
}

// Run reconciles every target in order, isolating failures: one
// target's error is recorded and the batch proceeds. Cancelling
// the context stops processing before the next target begins and
// the partial BatchOutcome accumulated so far is returned intact.
func (o *Orchestrator) Run(ctx context.Context, opts RunOpts) BatchOutcome {
	outcome := BatchOutcome{RunId: uuid.NewString()}
	o.serviceLogs <- common.ServiceLogf(string(common.LogLevelInfo), "starting run[%s] across %v target(s)", outcome.RunId, len(opts.Targets))

	precondition := opts.Precondition
	if precondition == nil {
		precondition = alreadyConverged
	}

	for _, target := range opts.Targets {
		select {
		case <-ctx.Done():
			o.serviceLogs <- common.ServiceLogf(string(common.LogLevelWarn), "run[%s] interrupted, stopping before environment[%s/%s]", outcome.RunId, target.ProjectKey, target.EnvironmentKey)
			return outcome
		default:
		}

		policy, err := opts.PolicyFor(target)
		if err != nil {
			o.recordError(&outcome, target, fmt.Errorf("failed to resolve policy for environment[%s/%s]: %s", target.ProjectKey, target.EnvironmentKey, err))
			continue
		}
		if precondition(target, policy) {
			o.serviceLogs <- common.ServiceLogf(string(common.LogLevelInfo), "run[%s]: skipping environment[%s/%s], nothing to do", outcome.RunId, target.ProjectKey, target.EnvironmentKey)
			outcome.Skipped++
			continue
		}

		result := o.reconciler.Reconcile(ctx, ReconcileInput{
			ProjectKey:     target.ProjectKey,
			EnvironmentKey: target.EnvironmentKey,
			Target:         policy,
		})
		switch result.Status {
		case OutcomeApplied:
			if result.NoChange {
				outcome.Skipped++
				break
			}
			o.serviceLogs <- common.ServiceLogf(string(common.LogLevelInfo), "run[%s]: updated environment[%s/%s]", outcome.RunId, target.ProjectKey, target.EnvironmentKey)
			outcome.Updated++
		case OutcomeUnverifiable:
			o.serviceLogs <- common.ServiceLogf(string(common.LogLevelWarn), "run[%s]: could not verify environment[%s/%s]: %s", outcome.RunId, target.ProjectKey, target.EnvironmentKey, result.Err)
			outcome.Unverifiable++
		case OutcomeFailed:
			o.recordError(&outcome, target, result.Err)
		}
	}

	o.serviceLogs <- common.ServiceLogf(string(common.LogLevelInfo), "run[%s] completed: %s", outcome.RunId, outcome.Summary())
	return outcome
}

func (o *Orchestrator) recordError(outcome *BatchOutcome, target Target, err error) {
	o.serviceLogs <- common.ServiceLogf(string(common.LogLevelError), "run[%s]: environment[%s/%s] failed: %s", outcome.RunId, target.ProjectKey, target.EnvironmentKey, err)
	outcome.Errored++
	outcome.Errors = append(outcome.Errors, TargetError{
		ProjectKey:     target.ProjectKey,
		EnvironmentKey: target.EnvironmentKey,
		Err:            err,
	})
}

// alreadyConverged is the default precondition: the compiled patch
// against the listed state is empty, which subsumes both "already
// at the desired serviceKind" and "no approvals left to remove"
func alreadyConverged(target Target, policy approvals.Policy) bool {
	ops, err := approvals.CompilePatch(target.Live, policy)
	if err != nil {
		// let the reconciler surface the compile error per target
		return false
	}
	return len(ops) == 0
}
