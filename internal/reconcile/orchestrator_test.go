package reconcile

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"flagops/internal/approvals"
	"flagops/pkg/launchdarkly"
)

func TestRunIsolatesFailures(t *testing.T) {
	provider := newFakeProvider()
	provider.addEnvironment("proj", "env-1")
	provider.addEnvironment("proj", "env-2")
	provider.addEnvironment("proj", "env-3")
	provider.failPatchFor["proj/env-2"] = http.StatusInternalServerError

	orchestrator := NewOrchestrator(NewOrchestratorOpts{
		Reconciler: newTestReconciler(t, provider),
	})
	outcome := orchestrator.Run(context.Background(), RunOpts{
		Targets: []Target{
			{ProjectKey: "proj", EnvironmentKey: "env-1"},
			{ProjectKey: "proj", EnvironmentKey: "env-2"},
			{ProjectKey: "proj", EnvironmentKey: "env-3"},
		},
		PolicyFor: func(target Target) (approvals.Policy, error) {
			return nativePolicy(t, 2), nil
		},
	})

	if outcome.Updated != 2 {
		t.Errorf("expected 2 updated targets, got %v", outcome.Updated)
	}
	if outcome.Errored != 1 {
		t.Errorf("expected 1 errored target, got %v", outcome.Errored)
	}
	if len(outcome.Errors) != 1 || outcome.Errors[0].EnvironmentKey != "env-2" {
		t.Fatalf("expected the error to be attributed to env-2, got %+v", outcome.Errors)
	}
	for _, environmentKey := range []string{"env-1", "env-3"} {
		settings := provider.environments["proj/"+environmentKey].ApprovalSettings
		if settings == nil || !settings.Required {
			t.Errorf("expected environment[%s] to have been updated despite the failure, got %+v", environmentKey, settings)
		}
	}
}

func TestRunSkipsConvergedTargetsWithoutNetworkCalls(t *testing.T) {
	provider := newFakeProvider()
	orchestrator := NewOrchestrator(NewOrchestratorOpts{
		Reconciler: newTestReconciler(t, provider),
	})
	target := nativePolicy(t, 2)
	ops, err := approvals.CompilePatch(nil, target)
	if err != nil {
		t.Fatalf("CompilePatch returned error: %v", err)
	}
	doc, ok := ops[0].Value.(launchdarkly.ApprovalSettings)
	if !ok {
		t.Fatalf("expected an approval document, got %T", ops[0].Value)
	}

	outcome := orchestrator.Run(context.Background(), RunOpts{
		Targets: []Target{{
			ProjectKey:     "proj",
			EnvironmentKey: "production",
			Live:           &launchdarkly.EnvironmentApprovals{ApprovalSettings: &doc},
		}},
		PolicyFor: func(Target) (approvals.Policy, error) {
			return target, nil
		},
	})

	if outcome.Skipped != 1 {
		t.Errorf("expected the converged target to be skipped, got %+v", outcome)
	}
	if provider.patchCalls != 0 {
		t.Errorf("expected no PATCH to be issued for a skipped target, got %v", provider.patchCalls)
	}
}

func TestRunSecondPassIsIdempotent(t *testing.T) {
	provider := newFakeProvider()
	provider.addEnvironment("proj", "production")
	orchestrator := NewOrchestrator(NewOrchestratorOpts{
		Reconciler: newTestReconciler(t, provider),
	})
	policyFor := func(Target) (approvals.Policy, error) {
		return nativePolicy(t, 2), nil
	}
	targets := []Target{{ProjectKey: "proj", EnvironmentKey: "production"}}

	first := orchestrator.Run(context.Background(), RunOpts{Targets: targets, PolicyFor: policyFor})
	if first.Updated != 1 {
		t.Fatalf("expected the first run to update the target, got %+v", first)
	}

	// a re-listing would carry the now-configured approval state
	targets[0].Live = provider.environments["proj/production"].Approvals()
	second := orchestrator.Run(context.Background(), RunOpts{Targets: targets, PolicyFor: policyFor})
	if second.Skipped != 1 || second.Updated != 0 {
		t.Errorf("expected the second run to skip the converged target, got %+v", second)
	}
	if provider.patchCalls != 1 {
		t.Errorf("expected a single PATCH across both runs, got %v", provider.patchCalls)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	provider := newFakeProvider()
	provider.addEnvironment("proj", "env-1")
	orchestrator := NewOrchestrator(NewOrchestratorOpts{
		Reconciler: newTestReconciler(t, provider),
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := orchestrator.Run(ctx, RunOpts{
		Targets: []Target{{ProjectKey: "proj", EnvironmentKey: "env-1"}},
		PolicyFor: func(Target) (approvals.Policy, error) {
			return nativePolicy(t, 2), nil
		},
	})

	if outcome.RunId == "" {
		t.Errorf("expected the partial outcome to carry a run id")
	}
	if outcome.Updated+outcome.Skipped+outcome.Errored+outcome.Unverifiable != 0 {
		t.Errorf("expected no target to have been processed, got %+v", outcome)
	}
	if provider.patchCalls != 0 {
		t.Errorf("expected no PATCH after cancellation, got %v", provider.patchCalls)
	}
}

func TestRunCountsPolicyResolutionErrors(t *testing.T) {
	provider := newFakeProvider()
	provider.addEnvironment("proj", "env-1")
	orchestrator := NewOrchestrator(NewOrchestratorOpts{
		Reconciler: newTestReconciler(t, provider),
	})

	outcome := orchestrator.Run(context.Background(), RunOpts{
		Targets: []Target{{ProjectKey: "proj", EnvironmentKey: "env-1"}},
		PolicyFor: func(Target) (approvals.Policy, error) {
			return approvals.Policy{}, fmt.Errorf("intent document is broken")
		},
	})

	if outcome.Errored != 1 {
		t.Errorf("expected the resolution failure to be counted, got %+v", outcome)
	}
	if provider.patchCalls != 0 {
		t.Errorf("expected no PATCH for an unresolvable target, got %v", provider.patchCalls)
	}
}

func TestBatchOutcomeSummary(t *testing.T) {
	outcome := BatchOutcome{Updated: 2, Skipped: 1, Unverifiable: 0, Errored: 1}
	expected := "updated[2] skipped[1] unverifiable[0] errored[1]"
	if outcome.Summary() != expected {
		t.Errorf("expected summary %q, got %q", expected, outcome.Summary())
	}
}
