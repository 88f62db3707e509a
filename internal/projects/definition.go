package projects

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"flagops/internal/approvals"

	"gopkg.in/yaml.v3"
)

var (
	ErrorMissingProjectKey     = errors.New("missing_project_key")
	ErrorMissingProductionEnv  = errors.New("missing_production_environment")
	ErrorNoEnvironmentsDefined = errors.New("no_environments_defined")
)

// ProductionEnvironmentKey must be present in every definition,
// setup fails fast before any write when it isn't
const ProductionEnvironmentKey = "production"

// Definition describes one project, its default environment
// settings, and the environments to provision
type Definition struct {
	Project      ProjectDefinition       `json:"project" yaml:"project"`
	Defaults     EnvironmentDefaults     `json:"defaults" yaml:"defaults"`
	Environments []EnvironmentDefinition `json:"environments" yaml:"environments"`
}

type ProjectDefinition struct {
	Key  string   `json:"key" yaml:"key"`
	Name string   `json:"name" yaml:"name"`
	Tags []string `json:"tags" yaml:"tags"`
}

// EnvironmentDefaults apply to every environment unless the
// environment's own definition overrides them
type EnvironmentDefaults struct {
	Color              string   `json:"color" yaml:"color"`
	DefaultTtl         int      `json:"default_ttl" yaml:"default_ttl"`
	SecureMode         bool     `json:"secure_mode" yaml:"secure_mode"`
	DefaultTrackEvents bool     `json:"default_track_events" yaml:"default_track_events"`
	Tags               []string `json:"tags" yaml:"tags"`
	RequireComments    bool     `json:"require_comments" yaml:"require_comments"`
	ConfirmChanges     bool     `json:"confirm_changes" yaml:"confirm_changes"`

	// RemoveDefaultTestEnv deletes the provider-created `test`
	// environment when it isn't part of the definition
	RemoveDefaultTestEnv bool `json:"remove_default_test_env" yaml:"remove_default_test_env"`
}

type EnvironmentDefinition struct {
	Key   string   `json:"key" yaml:"key"`
	Name  string   `json:"name" yaml:"name"`
	Color string   `json:"color" yaml:"color"`
	Tags  []string `json:"tags" yaml:"tags"`

	DefaultTtl         *int  `json:"default_ttl" yaml:"default_ttl"`
	SecureMode         *bool `json:"secure_mode" yaml:"secure_mode"`
	DefaultTrackEvents *bool `json:"default_track_events" yaml:"default_track_events"`
	RequireComments    *bool `json:"require_comments" yaml:"require_comments"`
	ConfirmChanges     *bool `json:"confirm_changes" yaml:"confirm_changes"`

	// ApprovalSettings optionally overrides the environment's
	// approval policy, applied through the reconciler after the
	// environment exists
	ApprovalSettings *approvals.Input `json:"approval_settings" yaml:"approval_settings"`
}

// Validate checks the definition is complete enough to provision
// from, all keys are case-folded to lowercase in place
func (d *Definition) Validate() error {
	if d.Project.Key == "" {
		return fmt.Errorf("failed to find a project key in the definition: %w", ErrorMissingProjectKey)
	}
	d.Project.Key = strings.ToLower(d.Project.Key)
	if len(d.Environments) == 0 {
		return fmt.Errorf("failed to find environments in the definition: %w", ErrorNoEnvironmentsDefined)
	}
	hasProduction := false
	for i := range d.Environments {
		d.Environments[i].Key = strings.ToLower(d.Environments[i].Key)
		if d.Environments[i].Key == ProductionEnvironmentKey {
			hasProduction = true
		}
	}
	if !hasProduction {
		return fmt.Errorf("the definition must include a `%s` environment: %w", ProductionEnvironmentKey, ErrorMissingProductionEnv)
	}
	return nil
}

// Defines reports whether the definition includes an environment
// with the given key
func (d *Definition) Defines(environmentKey string) bool {
	for _, environment := range d.Environments {
		if environment.Key == strings.ToLower(environmentKey) {
			return true
		}
	}
	return false
}

// LoadDefinitionFromFile reads and validates a project definition
// from a YAML file
func LoadDefinitionFromFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file at path[%s]: %s", path, err)
	}
	var definition Definition
	if err := yaml.Unmarshal(data, &definition); err != nil {
		return nil, fmt.Errorf("failed to parse definition file at path[%s]: %s", path, err)
	}
	if err := definition.Validate(); err != nil {
		return nil, err
	}
	return &definition, nil
}
