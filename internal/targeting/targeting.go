// Package targeting resolves a projects × environments selection
// into the concrete reconciliation targets of one bulk run; the
// selection itself (flags or interactive pickers) is the command
// layer's concern.
package targeting

import (
	"fmt"
	"strings"

	"flagops/internal/common"
	"flagops/internal/reconcile"
	"flagops/pkg/launchdarkly"
)

type ResolveOpts struct {
	Client *launchdarkly.Client

	// ProjectKeys are the projects to target
	ProjectKeys []string

	// EnvironmentKeys filters which environments of each project
	// are targeted, empty means every environment
	EnvironmentKeys []string

	ServiceLogs chan common.ServiceLog
}

// Resolve lists the environments of every selected project and
// returns one target per matching environment, carrying the
// approval state observed during listing so the orchestrator can
// skip already-converged targets without further calls
func Resolve(opts ResolveOpts) ([]reconcile.Target, error) {
	serviceLogs := opts.ServiceLogs
	if serviceLogs == nil {
		serviceLogs = common.GetNoopServiceLog()
	}
	wantedEnvironments := map[string]bool{}
	for _, environmentKey := range opts.EnvironmentKeys {
		wantedEnvironments[strings.ToLower(environmentKey)] = true
	}

	targets := []reconcile.Target{}
	for _, projectKey := range opts.ProjectKeys {
		projectKey = strings.ToLower(projectKey)
		environments, err := opts.Client.ListEnvironments(projectKey)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve targets for project[%s]: %w", projectKey, err)
		}
		matched := 0
		for _, environment := range environments {
			environmentKey := strings.ToLower(environment.Key)
			if len(wantedEnvironments) > 0 && !wantedEnvironments[environmentKey] {
				continue
			}
			targets = append(targets, reconcile.Target{
				ProjectKey:     projectKey,
				EnvironmentKey: environmentKey,
				Live:           environment.Approvals(),
			})
			matched++
		}
		if matched == 0 {
			serviceLogs <- common.ServiceLogf(string(common.LogLevelWarn), "project[%s] has no environments matching the selection", projectKey)
		}
	}
	return targets, nil
}
