package projects

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidateRequiresProjectKey(t *testing.T) {
	definition := &Definition{
		Environments: []EnvironmentDefinition{{Key: "production"}},
	}
	if err := definition.Validate(); !errors.Is(err, ErrorMissingProjectKey) {
		t.Errorf("expected ErrorMissingProjectKey, got %v", err)
	}
}

func TestValidateRequiresEnvironments(t *testing.T) {
	definition := &Definition{
		Project: ProjectDefinition{Key: "payments"},
	}
	if err := definition.Validate(); !errors.Is(err, ErrorNoEnvironmentsDefined) {
		t.Errorf("expected ErrorNoEnvironmentsDefined, got %v", err)
	}
}

func TestValidateRequiresProductionEnvironment(t *testing.T) {
	definition := &Definition{
		Project:      ProjectDefinition{Key: "payments"},
		Environments: []EnvironmentDefinition{{Key: "staging"}},
	}
	if err := definition.Validate(); !errors.Is(err, ErrorMissingProductionEnv) {
		t.Errorf("expected ErrorMissingProductionEnv, got %v", err)
	}
}

func TestValidateLowercasesKeys(t *testing.T) {
	definition := &Definition{
		Project: ProjectDefinition{Key: "Payments"},
		Environments: []EnvironmentDefinition{
			{Key: "PRODUCTION"},
			{Key: "Staging"},
		},
	}
	if err := definition.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if definition.Project.Key != "payments" {
		t.Errorf("expected the project key to be lowercased, got %s", definition.Project.Key)
	}
	if definition.Environments[0].Key != "production" || definition.Environments[1].Key != "staging" {
		t.Errorf("expected environment keys to be lowercased, got %+v", definition.Environments)
	}
	if !definition.Defines("STAGING") {
		t.Errorf("expected Defines to match case-insensitively")
	}
}

func TestLoadDefinitionFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "definition.yaml")
	content := `
project:
  key: Payments
  name: Payments
  tags: [team-payments]
defaults:
  color: FF9999
  remove_default_test_env: true
environments:
  - key: production
    name: Production
  - key: staging
    name: Staging
    approval_settings:
      required: true
      min_num_approvals: 2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write definition file: %v", err)
	}

	definition, err := LoadDefinitionFromFile(path)
	if err != nil {
		t.Fatalf("LoadDefinitionFromFile returned error: %v", err)
	}
	if definition.Project.Key != "payments" {
		t.Errorf("expected the project key to be normalised, got %s", definition.Project.Key)
	}
	if !definition.Defaults.RemoveDefaultTestEnv {
		t.Errorf("expected remove_default_test_env to be parsed")
	}
	if len(definition.Environments) != 2 {
		t.Fatalf("expected 2 environments, got %v", len(definition.Environments))
	}
	staging := definition.Environments[1]
	if staging.ApprovalSettings == nil {
		t.Fatalf("expected staging to carry approval settings")
	}
	if staging.ApprovalSettings.Required == nil || !*staging.ApprovalSettings.Required {
		t.Errorf("expected staging approvals to be required")
	}
	if staging.ApprovalSettings.MinNumApprovals == nil || *staging.ApprovalSettings.MinNumApprovals != 2 {
		t.Errorf("expected staging to require 2 approvals, got %+v", staging.ApprovalSettings.MinNumApprovals)
	}
}

func TestLoadDefinitionFromFileRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "definition.yaml")
	content := `
project:
  key: payments
environments:
  - key: staging
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write definition file: %v", err)
	}
	if _, err := LoadDefinitionFromFile(path); !errors.Is(err, ErrorMissingProductionEnv) {
		t.Errorf("expected ErrorMissingProductionEnv, got %v", err)
	}
}
