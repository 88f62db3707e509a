package projects

import (
	"context"
	"errors"
	"strings"

	"flagops/internal/approvals"
	"flagops/internal/common"
	"flagops/internal/reconcile"
	"flagops/pkg/launchdarkly"
)

// defaultEnvironmentColor is the provider's default environment
// colour, used when neither the environment nor the defaults set
// one
const defaultEnvironmentColor = "7B42BC"

type SetupOpts struct {
	Client     *launchdarkly.Client
	Definition *Definition
	Reconciler *reconcile.Reconciler

	// ValidateOpts carries the process-level ServiceNow template
	// fallback for per-environment approval overrides
	ValidateOpts approvals.ValidateOpts

	ServiceLogs chan common.ServiceLog
}

type SetupResult struct {
	ProjectCreated         bool
	TestEnvironmentRemoved bool
	EnvironmentsCreated    []string
	EnvironmentsUpdated    []string

	// Approvals aggregates the reconciliation of per-environment
	// approval overrides
	Approvals reconcile.BatchOutcome
}

// Setup provisions a project and its environments from a
// definition. The flow is idempotent: an existing project is
// reused, existing environments are patched to match the
// definition, and absent ones are created. The production
// environment is always processed first. Approval overrides are
// applied through the reconciler after every environment exists.
func Setup(ctx context.Context, opts SetupOpts) (*SetupResult, error) {
	definition := opts.Definition
	if err := definition.Validate(); err != nil {
		return nil, err
	}
	serviceLogs := opts.ServiceLogs
	if serviceLogs == nil {
		serviceLogs = common.GetNoopServiceLog()
	}
	result := &SetupResult{}

	project, err := opts.Client.GetProject(definition.Project.Key)
	if err != nil {
		if !errors.Is(err, launchdarkly.ErrorNotFound) {
			return nil, err
		}
		serviceLogs <- common.ServiceLogf(string(common.LogLevelInfo), "creating project[%s]...", definition.Project.Key)
		project, err = opts.Client.CreateProject(launchdarkly.CreateProjectInput{
			Key:  definition.Project.Key,
			Name: definition.Project.Name,
			Tags: definition.Project.Tags,
			DefaultClientSideAvailability: launchdarkly.ClientSideAvailability{
				UsingEnvironmentId: true,
				UsingMobileKey:     false,
			},
		})
		if err != nil {
			return nil, err
		}
		result.ProjectCreated = true
	} else {
		serviceLogs <- common.ServiceLogf(string(common.LogLevelInfo), "reusing existing project[%s]", project.Key)
	}

	environments, err := opts.Client.ListEnvironments(definition.Project.Key)
	if err != nil {
		return nil, err
	}
	environmentsByKey := map[string]launchdarkly.Environment{}
	for _, environment := range environments {
		environmentsByKey[strings.ToLower(environment.Key)] = environment
	}

	if definition.Defaults.RemoveDefaultTestEnv {
		if _, ok := environmentsByKey["test"]; ok && !definition.Defines("test") {
			serviceLogs <- common.ServiceLogf(string(common.LogLevelInfo), "removing default environment[%s/test]...", definition.Project.Key)
			if err := opts.Client.DeleteEnvironment(definition.Project.Key, "test"); err != nil {
				return nil, err
			}
			delete(environmentsByKey, "test")
			result.TestEnvironmentRemoved = true
		}
	}

	for _, environmentDefinition := range orderedEnvironments(definition.Environments) {
		live, exists := environmentsByKey[environmentDefinition.Key]
		if !exists {
			serviceLogs <- common.ServiceLogf(string(common.LogLevelInfo), "creating environment[%s/%s]...", definition.Project.Key, environmentDefinition.Key)
			created, err := opts.Client.CreateEnvironment(definition.Project.Key, desiredEnvironment(environmentDefinition, definition.Defaults))
			if err != nil {
				return nil, err
			}
			environmentsByKey[environmentDefinition.Key] = *created
			result.EnvironmentsCreated = append(result.EnvironmentsCreated, environmentDefinition.Key)
			continue
		}
		ops := compileEnvironmentPatch(live, environmentDefinition, definition.Defaults)
		if len(ops) == 0 {
			serviceLogs <- common.ServiceLogf(string(common.LogLevelDebug), "environment[%s/%s] already matches its definition", definition.Project.Key, environmentDefinition.Key)
			continue
		}
		serviceLogs <- common.ServiceLogf(string(common.LogLevelInfo), "updating environment[%s/%s] with %v patch operation(s)...", definition.Project.Key, environmentDefinition.Key, len(ops))
		if _, err := opts.Client.PatchEnvironment(definition.Project.Key, environmentDefinition.Key, ops); err != nil {
			return nil, err
		}
		result.EnvironmentsUpdated = append(result.EnvironmentsUpdated, environmentDefinition.Key)
	}

	targets := []reconcile.Target{}
	rawByKey := map[string]*approvals.Input{}
	for _, environmentDefinition := range orderedEnvironments(definition.Environments) {
		if environmentDefinition.ApprovalSettings == nil {
			continue
		}
		live := environmentsByKey[environmentDefinition.Key]
		targets = append(targets, reconcile.Target{
			ProjectKey:     definition.Project.Key,
			EnvironmentKey: environmentDefinition.Key,
			Live:           live.Approvals(),
		})
		rawByKey[environmentDefinition.Key] = environmentDefinition.ApprovalSettings
	}
	if len(targets) > 0 {
		orchestrator := reconcile.NewOrchestrator(reconcile.NewOrchestratorOpts{
			Reconciler:  opts.Reconciler,
			ServiceLogs: serviceLogs,
		})
		result.Approvals = orchestrator.Run(ctx, reconcile.RunOpts{
			Targets: targets,
			PolicyFor: func(target reconcile.Target) (approvals.Policy, error) {
				policy, err := approvals.Normalize(target.Live, rawByKey[target.EnvironmentKey])
				if err != nil {
					return approvals.Policy{}, err
				}
				return approvals.Validate(policy, opts.ValidateOpts)
			},
		})
	}

	return result, nil
}

// orderedEnvironments returns the defined environments with
// production moved to the front, remaining definition order is
// preserved
func orderedEnvironments(environments []EnvironmentDefinition) []EnvironmentDefinition {
	ordered := make([]EnvironmentDefinition, 0, len(environments))
	for _, environment := range environments {
		if environment.Key == ProductionEnvironmentKey {
			ordered = append(ordered, environment)
		}
	}
	for _, environment := range environments {
		if environment.Key != ProductionEnvironmentKey {
			ordered = append(ordered, environment)
		}
	}
	return ordered
}

// desiredEnvironment resolves the environment's effective settings
// from its definition layered over the project defaults
func desiredEnvironment(environment EnvironmentDefinition, defaults EnvironmentDefaults) launchdarkly.CreateEnvironmentInput {
	input := launchdarkly.CreateEnvironmentInput{
		Key:                environment.Key,
		Name:               environment.Name,
		Color:              environment.Color,
		DefaultTtl:         defaults.DefaultTtl,
		SecureMode:         defaults.SecureMode,
		DefaultTrackEvents: defaults.DefaultTrackEvents,
		Tags:               environment.Tags,
		RequireComments:    defaults.RequireComments,
		ConfirmChanges:     defaults.ConfirmChanges,
	}
	if input.Color == "" {
		input.Color = defaults.Color
	}
	if input.Color == "" {
		input.Color = defaultEnvironmentColor
	}
	if input.Tags == nil {
		input.Tags = defaults.Tags
	}
	if input.Tags == nil {
		input.Tags = []string{}
	}
	if environment.DefaultTtl != nil {
		input.DefaultTtl = *environment.DefaultTtl
	}
	if environment.SecureMode != nil {
		input.SecureMode = *environment.SecureMode
	}
	if environment.DefaultTrackEvents != nil {
		input.DefaultTrackEvents = *environment.DefaultTrackEvents
	}
	if environment.RequireComments != nil {
		input.RequireComments = *environment.RequireComments
	}
	if environment.ConfirmChanges != nil {
		input.ConfirmChanges = *environment.ConfirmChanges
	}
	return input
}

// compileEnvironmentPatch diffs an existing environment's
// non-approval fields against its definition and emits one
// replace operation per differing field
func compileEnvironmentPatch(live launchdarkly.Environment, environment EnvironmentDefinition, defaults EnvironmentDefaults) []launchdarkly.PatchOp {
	desired := desiredEnvironment(environment, defaults)
	ops := []launchdarkly.PatchOp{}
	replace := func(path string, value any) {
		ops = append(ops, launchdarkly.PatchOp{
			Op:    launchdarkly.PatchOpReplace,
			Path:  path,
			Value: value,
		})
	}
	if desired.Name != "" && desired.Name != live.Name {
		replace("/name", desired.Name)
	}
	if desired.Color != live.Color {
		replace("/color", desired.Color)
	}
	if !equalTags(desired.Tags, live.Tags) {
		replace("/tags", desired.Tags)
	}
	if desired.DefaultTtl != live.DefaultTtl {
		replace("/defaultTtl", desired.DefaultTtl)
	}
	if desired.SecureMode != live.SecureMode {
		replace("/secureMode", desired.SecureMode)
	}
	if desired.DefaultTrackEvents != live.DefaultTrackEvents {
		replace("/defaultTrackEvents", desired.DefaultTrackEvents)
	}
	if desired.RequireComments != live.RequireComments {
		replace("/requireComments", desired.RequireComments)
	}
	if desired.ConfirmChanges != live.ConfirmChanges {
		replace("/confirmChanges", desired.ConfirmChanges)
	}
	return ops
}

func equalTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
