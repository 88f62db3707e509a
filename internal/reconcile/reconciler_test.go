package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"flagops/internal/approvals"
	"flagops/pkg/launchdarkly"
)

// fakeProvider simulates the environments portion of the management
// API with in-memory state that PATCH requests actually mutate
type fakeProvider struct {
	mu           sync.Mutex
	environments map[string]*launchdarkly.Environment

	patchCalls int

	// failPatchFor maps "project/environment" onto a status code the
	// next PATCH for it responds with
	failPatchFor map[string]int

	// dropPatches acknowledges PATCH requests without applying them
	dropPatches bool

	// dropSegmentPatches applies top-level operations but silently
	// loses the ones against the segment document
	dropSegmentPatches bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		environments: map[string]*launchdarkly.Environment{},
		failPatchFor: map[string]int{},
	}
}

func (f *fakeProvider) addEnvironment(projectKey, environmentKey string) {
	f.environments[projectKey+"/"+environmentKey] = &launchdarkly.Environment{Key: environmentKey}
}

func (f *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// /projects/{project}/environments/{environment}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 4 || parts[0] != "projects" || parts[2] != "environments" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	key := parts[1] + "/" + parts[3]
	environment, ok := f.environments[key]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		json.NewEncoder(w).Encode(environment)
	case http.MethodPatch:
		f.patchCalls++
		if status, ok := f.failPatchFor[key]; ok {
			w.WriteHeader(status)
			return
		}
		var ops []launchdarkly.PatchOp
		if err := json.NewDecoder(r.Body).Decode(&ops); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if !f.dropPatches {
			for _, op := range ops {
				if f.dropSegmentPatches && strings.HasPrefix(op.Path, "/resourceApprovalSettings") {
					continue
				}
				switch op.Path {
				case "/approvalSettings":
					environment.ApprovalSettings = decodeApprovalDocument(op.Value)
				case "/resourceApprovalSettings/segment":
					if environment.ResourceApprovalSettings == nil {
						environment.ResourceApprovalSettings = map[string]launchdarkly.ApprovalSettings{}
					}
					environment.ResourceApprovalSettings["segment"] = *decodeApprovalDocument(op.Value)
				case "/resourceApprovalSettings":
					container := map[string]launchdarkly.ApprovalSettings{}
					data, _ := json.Marshal(op.Value)
					json.Unmarshal(data, &container)
					environment.ResourceApprovalSettings = container
				}
			}
		}
		json.NewEncoder(w).Encode(environment)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func decodeApprovalDocument(value any) *launchdarkly.ApprovalSettings {
	data, _ := json.Marshal(value)
	var doc launchdarkly.ApprovalSettings
	json.Unmarshal(data, &doc)
	return &doc
}

func newTestReconciler(t *testing.T, provider *fakeProvider) *Reconciler {
	t.Helper()
	server := httptest.NewServer(provider)
	t.Cleanup(server.Close)
	client, err := launchdarkly.NewClient(launchdarkly.NewClientOpts{
		ApiUrl:          server.URL,
		ApiToken:        "test-token",
		Id:              "test",
		RequestInterval: 0,
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return NewReconciler(NewReconcilerOpts{
		Client:      client,
		SettleDelay: time.Millisecond,
	})
}

func nativePolicy(t *testing.T, minApprovals int) approvals.Policy {
	t.Helper()
	required := true
	policy, err := approvals.Normalize(nil, &approvals.Input{
		Required:        &required,
		MinNumApprovals: &minApprovals,
	})
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	policy, err = approvals.Validate(policy, approvals.ValidateOpts{})
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	return policy
}

func TestReconcileAppliesAndVerifies(t *testing.T) {
	provider := newFakeProvider()
	provider.addEnvironment("proj", "production")
	reconciler := newTestReconciler(t, provider)

	outcome := reconciler.Reconcile(context.Background(), ReconcileInput{
		ProjectKey:     "proj",
		EnvironmentKey: "production",
		Target:         nativePolicy(t, 2),
	})
	if outcome.Status != OutcomeApplied {
		t.Fatalf("expected OutcomeApplied, got %s (err: %v)", outcome.Status, outcome.Err)
	}
	if outcome.NoChange {
		t.Errorf("expected a change to have been applied")
	}
	settings := provider.environments["proj/production"].ApprovalSettings
	if settings == nil || !settings.Required || settings.MinNumApprovals != 2 {
		t.Errorf("expected the patch to have taken effect on the provider, got %+v", settings)
	}
}

func TestReconcileShortCircuitsWhenConverged(t *testing.T) {
	provider := newFakeProvider()
	provider.addEnvironment("proj", "production")
	reconciler := newTestReconciler(t, provider)
	target := nativePolicy(t, 2)

	first := reconciler.Reconcile(context.Background(), ReconcileInput{ProjectKey: "proj", EnvironmentKey: "production", Target: target})
	if first.Status != OutcomeApplied || first.NoChange {
		t.Fatalf("expected the first pass to apply a change, got %+v", first)
	}
	second := reconciler.Reconcile(context.Background(), ReconcileInput{ProjectKey: "proj", EnvironmentKey: "production", Target: target})
	if second.Status != OutcomeApplied || !second.NoChange {
		t.Errorf("expected the second pass to be a no-op, got %+v", second)
	}
	if provider.patchCalls != 1 {
		t.Errorf("expected a single PATCH across both passes, got %v", provider.patchCalls)
	}
}

func TestReconcileRemoval(t *testing.T) {
	provider := newFakeProvider()
	provider.addEnvironment("proj", "production")
	provider.environments["proj/production"].ApprovalSettings = &launchdarkly.ApprovalSettings{
		Required:        true,
		MinNumApprovals: 2,
		ServiceKind:     "launchdarkly",
	}
	reconciler := newTestReconciler(t, provider)

	outcome := reconciler.Reconcile(context.Background(), ReconcileInput{
		ProjectKey:     "proj",
		EnvironmentKey: "production",
		Target:         approvals.Disabled(),
	})
	if outcome.Status != OutcomeApplied {
		t.Fatalf("expected OutcomeApplied, got %s (err: %v)", outcome.Status, outcome.Err)
	}
	settings := provider.environments["proj/production"].ApprovalSettings
	if settings == nil || settings.Required {
		t.Errorf("expected approvals to be switched off, got %+v", settings)
	}
}

func TestReconcileRemovalUnverifiableWhenSegmentPersists(t *testing.T) {
	provider := newFakeProvider()
	provider.addEnvironment("proj", "production")
	provider.environments["proj/production"].ApprovalSettings = &launchdarkly.ApprovalSettings{
		Required:        true,
		MinNumApprovals: 2,
		ServiceKind:     "launchdarkly",
	}
	provider.environments["proj/production"].ResourceApprovalSettings = map[string]launchdarkly.ApprovalSettings{
		"segment": {
			Required:        true,
			MinNumApprovals: 2,
			ServiceKind:     "launchdarkly",
		},
	}
	provider.dropSegmentPatches = true
	reconciler := newTestReconciler(t, provider)

	outcome := reconciler.Reconcile(context.Background(), ReconcileInput{
		ProjectKey:     "proj",
		EnvironmentKey: "production",
		Target:         approvals.Disabled(),
	})
	if outcome.Status != OutcomeUnverifiable {
		t.Fatalf("expected OutcomeUnverifiable, got %s (err: %v)", outcome.Status, outcome.Err)
	}
	if outcome.Err == nil || !strings.Contains(outcome.Err.Error(), "segment") {
		t.Errorf("expected the segment document to be called out, got %v", outcome.Err)
	}
}

func TestReconcileMissingEnvironmentFails(t *testing.T) {
	provider := newFakeProvider()
	reconciler := newTestReconciler(t, provider)

	outcome := reconciler.Reconcile(context.Background(), ReconcileInput{
		ProjectKey:     "proj",
		EnvironmentKey: "ghost",
		Target:         nativePolicy(t, 1),
	})
	if outcome.Status != OutcomeFailed {
		t.Fatalf("expected OutcomeFailed, got %s", outcome.Status)
	}
	if !errors.Is(outcome.Err, launchdarkly.ErrorNotFound) {
		t.Errorf("expected the error to wrap ErrorNotFound, got %v", outcome.Err)
	}
}

func TestReconcileUnverifiableWhenWriteDidNotTake(t *testing.T) {
	provider := newFakeProvider()
	provider.addEnvironment("proj", "production")
	provider.dropPatches = true
	reconciler := newTestReconciler(t, provider)

	outcome := reconciler.Reconcile(context.Background(), ReconcileInput{
		ProjectKey:     "proj",
		EnvironmentKey: "production",
		Target:         nativePolicy(t, 2),
	})
	if outcome.Status != OutcomeUnverifiable {
		t.Fatalf("expected OutcomeUnverifiable, got %s (err: %v)", outcome.Status, outcome.Err)
	}
	if outcome.Err == nil {
		t.Errorf("expected the verification mismatch to be reported")
	}
}

func TestReconcilePatchFailure(t *testing.T) {
	provider := newFakeProvider()
	provider.addEnvironment("proj", "production")
	provider.failPatchFor["proj/production"] = http.StatusInternalServerError
	reconciler := newTestReconciler(t, provider)

	outcome := reconciler.Reconcile(context.Background(), ReconcileInput{
		ProjectKey:     "proj",
		EnvironmentKey: "production",
		Target:         nativePolicy(t, 2),
	})
	if outcome.Status != OutcomeFailed {
		t.Fatalf("expected OutcomeFailed, got %s", outcome.Status)
	}
	var apiError *launchdarkly.ApiError
	if !errors.As(outcome.Err, &apiError) {
		t.Errorf("expected the provider error to be surfaced, got %v", outcome.Err)
	}
}
