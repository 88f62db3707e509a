package projects

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"flagops/internal/approvals"
	"flagops/internal/reconcile"
	"flagops/pkg/launchdarkly"
)

// fakePlatform simulates the project and environment endpoints of
// the management API with in-memory state
type fakePlatform struct {
	mu sync.Mutex

	project      *launchdarkly.Project
	environments map[string]*launchdarkly.Environment

	createdOrder []string
	deleted      []string
	patchCalls   int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		environments: map[string]*launchdarkly.Environment{},
	}
}

func (f *fakePlatform) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] == "projects" && r.Method == http.MethodPost:
		var input launchdarkly.CreateProjectInput
		json.NewDecoder(r.Body).Decode(&input)
		f.project = &launchdarkly.Project{Key: input.Key, Name: input.Name, Tags: input.Tags}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(f.project)

	case len(parts) == 2 && parts[0] == "projects" && r.Method == http.MethodGet:
		if f.project == nil || f.project.Key != parts[1] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(f.project)

	case len(parts) == 3 && parts[2] == "environments":
		switch r.Method {
		case http.MethodGet:
			items := []launchdarkly.Environment{}
			for _, environment := range f.environments {
				items = append(items, *environment)
			}
			json.NewEncoder(w).Encode(map[string]any{"items": items})
		case http.MethodPost:
			var input launchdarkly.CreateEnvironmentInput
			json.NewDecoder(r.Body).Decode(&input)
			environment := &launchdarkly.Environment{
				Key:   input.Key,
				Name:  input.Name,
				Color: input.Color,
				Tags:  input.Tags,
			}
			f.environments[input.Key] = environment
			f.createdOrder = append(f.createdOrder, input.Key)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(environment)
		}

	case len(parts) == 4 && parts[2] == "environments":
		environment, ok := f.environments[parts[3]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(environment)
		case http.MethodDelete:
			delete(f.environments, parts[3])
			f.deleted = append(f.deleted, parts[3])
			w.WriteHeader(http.StatusNoContent)
		case http.MethodPatch:
			f.patchCalls++
			var ops []launchdarkly.PatchOp
			json.NewDecoder(r.Body).Decode(&ops)
			for _, op := range ops {
				data, _ := json.Marshal(op.Value)
				switch op.Path {
				case "/approvalSettings":
					var doc launchdarkly.ApprovalSettings
					json.Unmarshal(data, &doc)
					environment.ApprovalSettings = &doc
				case "/resourceApprovalSettings":
					container := map[string]launchdarkly.ApprovalSettings{}
					json.Unmarshal(data, &container)
					environment.ResourceApprovalSettings = container
				case "/name":
					json.Unmarshal(data, &environment.Name)
				case "/color":
					json.Unmarshal(data, &environment.Color)
				case "/tags":
					json.Unmarshal(data, &environment.Tags)
				}
			}
			json.NewEncoder(w).Encode(environment)
		}

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newSetupFixture(t *testing.T, platform *fakePlatform) (*launchdarkly.Client, *reconcile.Reconciler) {
	t.Helper()
	server := httptest.NewServer(platform)
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
	reconciler := reconcile.NewReconciler(reconcile.NewReconcilerOpts{
		Client:      client,
		SettleDelay: time.Millisecond,
	})
	return client, reconciler
}

func stagingDefinition() *Definition {
	required := true
	minApprovals := 2
	return &Definition{
		Project: ProjectDefinition{Key: "payments", Name: "Payments"},
		Defaults: EnvironmentDefaults{
			Color:                "FF9999",
			RemoveDefaultTestEnv: true,
		},
		Environments: []EnvironmentDefinition{
			{Key: "production", Name: "Production"},
			{
				Key:  "staging",
				Name: "Staging",
				ApprovalSettings: &approvals.Input{
					Required:        &required,
					MinNumApprovals: &minApprovals,
				},
			},
		},
	}
}

func TestSetupAgainstExistingProject(t *testing.T) {
	platform := newFakePlatform()
	platform.project = &launchdarkly.Project{Key: "payments", Name: "Payments"}
	platform.environments["production"] = &launchdarkly.Environment{
		Key:   "production",
		Name:  "Production",
		Color: "FF9999",
	}
	platform.environments["test"] = &launchdarkly.Environment{Key: "test", Name: "Test"}
	client, reconciler := newSetupFixture(t, platform)

	result, err := Setup(context.Background(), SetupOpts{
		Client:     client,
		Definition: stagingDefinition(),
		Reconciler: reconciler,
	})
	if err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}

	if result.ProjectCreated {
		t.Errorf("expected the existing project to be reused")
	}
	if !result.TestEnvironmentRemoved {
		t.Errorf("expected the default test environment to be removed")
	}
	if len(platform.deleted) != 1 || platform.deleted[0] != "test" {
		t.Errorf("expected exactly the test environment to be deleted, got %v", platform.deleted)
	}
	if len(result.EnvironmentsCreated) != 1 || result.EnvironmentsCreated[0] != "staging" {
		t.Errorf("expected only staging to be created, got %v", result.EnvironmentsCreated)
	}
	if len(result.EnvironmentsUpdated) != 0 {
		t.Errorf("expected the matching production environment to be left alone, got %v", result.EnvironmentsUpdated)
	}
	if result.Approvals.Updated != 1 || result.Approvals.Errored != 0 {
		t.Fatalf("expected the staging approval override to be applied, got %s", result.Approvals.Summary())
	}
	settings := platform.environments["staging"].ApprovalSettings
	if settings == nil || !settings.Required || settings.MinNumApprovals != 2 {
		t.Errorf("expected staging approvals required with 2 approvals, got %+v", settings)
	}
	if platform.environments["staging"].Color != "FF9999" {
		t.Errorf("expected staging to inherit the default colour, got %s", platform.environments["staging"].Color)
	}
}

func TestSetupCreatesProjectAndProductionFirst(t *testing.T) {
	platform := newFakePlatform()
	client, reconciler := newSetupFixture(t, platform)

	definition := stagingDefinition()
	// declaration order puts staging first, creation order must not
	definition.Environments[0], definition.Environments[1] = definition.Environments[1], definition.Environments[0]

	result, err := Setup(context.Background(), SetupOpts{
		Client:     client,
		Definition: definition,
		Reconciler: reconciler,
	})
	if err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}

	if !result.ProjectCreated {
		t.Errorf("expected the project to be created")
	}
	if platform.project == nil || platform.project.Key != "payments" {
		t.Fatalf("expected project[payments] on the platform, got %+v", platform.project)
	}
	if len(platform.createdOrder) != 2 || platform.createdOrder[0] != "production" {
		t.Errorf("expected production to be created first, got %v", platform.createdOrder)
	}
}

func TestSetupIsIdempotent(t *testing.T) {
	platform := newFakePlatform()
	client, reconciler := newSetupFixture(t, platform)

	if _, err := Setup(context.Background(), SetupOpts{
		Client:     client,
		Definition: stagingDefinition(),
		Reconciler: reconciler,
	}); err != nil {
		t.Fatalf("first Setup returned error: %v", err)
	}
	patchCallsAfterFirst := platform.patchCalls

	result, err := Setup(context.Background(), SetupOpts{
		Client:     client,
		Definition: stagingDefinition(),
		Reconciler: reconciler,
	})
	if err != nil {
		t.Fatalf("second Setup returned error: %v", err)
	}
	if len(result.EnvironmentsCreated) != 0 || len(result.EnvironmentsUpdated) != 0 {
		t.Errorf("expected the second run to change nothing, got created[%v] updated[%v]", result.EnvironmentsCreated, result.EnvironmentsUpdated)
	}
	if result.Approvals.Updated != 0 || result.Approvals.Skipped != 1 {
		t.Errorf("expected the approval override to be skipped on the second run, got %s", result.Approvals.Summary())
	}
	if platform.patchCalls != patchCallsAfterFirst {
		t.Errorf("expected no further patches on the second run, saw %v then %v", patchCallsAfterFirst, platform.patchCalls)
	}
}
