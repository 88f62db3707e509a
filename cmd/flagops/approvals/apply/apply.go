package apply

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"flagops/internal/approvals"
	"flagops/internal/cli"
	"flagops/internal/common"
	"flagops/internal/config"
	"flagops/internal/reconcile"
	"flagops/internal/targeting"
	"flagops/pkg/launchdarkly"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var flags cli.Flags = cli.Flags{
	{
		Name:         "api-url",
		Short:        'u',
		DefaultValue: launchdarkly.DefaultApiUrl,
		Usage:        "defines the base url of the feature flag management API",
		Type:         cli.FlagTypeString,
	},
	{
		Name:         "api-token",
		DefaultValue: "",
		Usage:        "defines the API token used to authenticate against the management API",
		Type:         cli.FlagTypeString,
	},
	{
		Name:         "request-interval",
		DefaultValue: launchdarkly.DefaultRequestInterval,
		Usage:        "defines the delay after every API call to respect the provider's rate limit",
		Type:         cli.FlagTypeDuration,
	},
	{
		Name:         "settle-delay",
		DefaultValue: reconcile.DefaultSettleDelay,
		Usage:        "defines the wait between a write and its confirmatory read",
		Type:         cli.FlagTypeDuration,
	},
	{
		Name:         "servicenow-template-id",
		DefaultValue: "",
		Usage:        "defines the fallback ServiceNow template system id used when a policy selects the ServiceNow backend without one",
		Type:         cli.FlagTypeString,
	},
	{
		Name:         "projects",
		Short:        'p',
		DefaultValue: []string{},
		Usage:        "defines the keys of the projects to target, prompts interactively when omitted",
		Type:         cli.FlagTypeStringSlice,
	},
	{
		Name:         "environments",
		Short:        'e',
		DefaultValue: []string{},
		Usage:        "defines the keys of the environments to target in every project, defaults to all environments",
		Type:         cli.FlagTypeStringSlice,
	},
	{
		Name:         "policy-file",
		Short:        'f',
		DefaultValue: "",
		Usage:        "defines the path to a YAML policy document, prompts interactively when omitted",
		Type:         cli.FlagTypeString,
	},
	{
		Name:         "refresh-projects",
		DefaultValue: false,
		Usage:        "forces a refresh of the project listing used for interactive selection",
		Type:         cli.FlagTypeBool,
	},
	{
		Name:         "confirm-each",
		DefaultValue: false,
		Usage:        "asks for confirmation before every environment is updated",
		Type:         cli.FlagTypeBool,
	},
}

func init() {
	flags.AddToCommand(Command)
}

var Command = &cobra.Command{
	Use:     "apply",
	Aliases: []string{"configure", "set"},
	Short:   "Configures change-approval policies across projects and environments",
	PreRun: func(cmd *cobra.Command, args []string) {
		flags.BindViper(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		serviceLogs := make(chan common.ServiceLog, 64)
		common.StartServiceLogLoop(serviceLogs)

		client, err := launchdarkly.NewClient(launchdarkly.NewClientOpts{
			ApiUrl:          viper.GetString("api-url"),
			ApiToken:        viper.GetString("api-token"),
			Id:              "flagops/approvals/apply",
			RequestInterval: viper.GetDuration("request-interval"),
			ServiceLogs:     serviceLogs,
		})
		if err != nil {
			return fmt.Errorf("failed to create client: %w", err)
		}

		serviceNowTemplateId := viper.GetString("servicenow-template-id")
		if serviceNowTemplateId == "" {
			serviceNowTemplateId = config.Global.ServiceNowTemplateId
		}
		validateOpts := approvals.ValidateOpts{
			ServiceNowTemplateId: serviceNowTemplateId,
		}

		var rawInput *approvals.Input
		if policyFilePath := viper.GetString("policy-file"); policyFilePath != "" {
			rawInput, err = approvals.LoadInputFromFile(policyFilePath)
			if err != nil {
				return err
			}
		} else {
			rawInput, err = promptPolicyInput()
			if err != nil {
				return err
			}
		}

		projectKeys := viper.GetStringSlice("projects")
		if len(projectKeys) == 0 {
			projectCache := &launchdarkly.ProjectCache{Path: projectCachePath()}
			projectKeys, err = selectProjects(client, projectCache, viper.GetBool("refresh-projects"))
			if err != nil {
				return err
			}
		}

		targets, err := targeting.Resolve(targeting.ResolveOpts{
			Client:          client,
			ProjectKeys:     projectKeys,
			EnvironmentKeys: viper.GetStringSlice("environments"),
			ServiceLogs:     serviceLogs,
		})
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			fmt.Println("⚠️  No environments matched the selection, nothing to do")
			return nil
		}

		reconciler := reconcile.NewReconciler(reconcile.NewReconcilerOpts{
			Client:      client,
			SettleDelay: viper.GetDuration("settle-delay"),
			ServiceLogs: serviceLogs,
		})
		orchestrator := reconcile.NewOrchestrator(reconcile.NewOrchestratorOpts{
			Reconciler:  reconciler,
			ServiceLogs: serviceLogs,
		})

		runOpts := reconcile.RunOpts{
			Targets: targets,
			PolicyFor: func(target reconcile.Target) (approvals.Policy, error) {
				policy, err := approvals.Normalize(target.Live, rawInput)
				if err != nil {
					return approvals.Policy{}, err
				}
				return approvals.Validate(policy, validateOpts)
			},
		}
		if viper.GetBool("confirm-each") {
			runOpts.Precondition = confirmEach(runOpts.PolicyFor)
		}

		batch := orchestrator.Run(ctx, runOpts)
		printSummary(batch)
		return nil
	},
}

// projectCachePath locates the persisted project listing next to the
// global configuration, an empty path degrades to an in-memory cache
func projectCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".flagops", "cache", "projects.json")
}

// selectProjects prompts the user to pick target projects from the
// cached project listing
func selectProjects(client *launchdarkly.Client, cache *launchdarkly.ProjectCache, forceRefresh bool) ([]string, error) {
	projects, err := cache.Get(client, forceRefresh)
	if err != nil {
		return nil, fmt.Errorf("failed to load the project listing: %w", err)
	}
	items := []cli.CheckboxItem{}
	for _, project := range projects {
		items = append(items, cli.CheckboxItem{
			Id:          project.Key,
			Label:       fmt.Sprintf("%s (%s)", project.Name, project.Key),
			Description: fmt.Sprintf("tags: %s", strings.Join(project.Tags, ", ")),
		})
	}
	selected, err := cli.RunCheckboxes("Select the projects to configure approvals for", items)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no projects were selected: %w", cli.ErrorNoSelection)
	}
	return selected, nil
}

// promptPolicyInput assembles a raw policy intent from interactive
// prompts, the core only ever sees the completed document
func promptPolicyInput() (*approvals.Input, error) {
	serviceKind, err := cli.RunSelector([]cli.SelectorChoice{
		{
			Label:       "Native approvals",
			Description: "approvals enforced by the flag platform itself",
			Value:       launchdarkly.ServiceKindNative,
		},
		{
			Label:       "ServiceNow approvals",
			Description: "approvals delegated to a ServiceNow instance",
			Value:       launchdarkly.ServiceKindServiceNow,
		},
	})
	if err != nil {
		return nil, err
	}

	prompt := cli.CreatePrompt(cli.PromptOpts{
		Title: "Configure the approval policy",
		Inputs: []cli.PromptInput{
			{
				Id:          "min-approvals",
				Type:        cli.PromptInteger,
				Placeholder: "minimum approvals before a change can be applied (1-5)",
			},
			{
				Id:          "required-tags",
				Type:        cli.PromptString,
				Placeholder: "comma-separated tags that gate approvals, leave empty for all resources",
			},
		},
		Buttons: []cli.PromptButton{
			{Id: "submit", Label: "Submit", Type: cli.PromptButtonSubmit},
			{Id: "cancel", Label: "Cancel", Type: cli.PromptButtonCancel},
		},
	})
	if _, err := tea.NewProgram(prompt).Run(); err != nil {
		return nil, err
	}
	if prompt.GetExitCode() == cli.PromptCancelled {
		return nil, cli.ErrorUserCancelled
	}

	minApprovals := 1
	if value := prompt.GetValue("min-approvals"); value != "" {
		minApprovals, err = strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("failed to parse minimum approvals[%s]: %w", value, cli.ErrorInvalidInput)
		}
	}
	tags := []string{}
	if value := prompt.GetValue("required-tags"); value != "" {
		for _, tag := range strings.Split(value, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	required := true
	return &approvals.Input{
		Required:             &required,
		MinNumApprovals:      &minApprovals,
		RequiredApprovalTags: tags,
		ServiceKind:          &serviceKind,
	}, nil
}

// confirmEach wraps the default convergence check with a per-target
// confirmation, a declined target is skipped
func confirmEach(policyFor func(reconcile.Target) (approvals.Policy, error)) func(reconcile.Target, approvals.Policy) bool {
	return func(target reconcile.Target, policy approvals.Policy) bool {
		ops, err := approvals.CompilePatch(target.Live, policy)
		if err == nil && len(ops) == 0 {
			return true
		}
		if err := cli.ShowConfirmation(cli.ShowConfirmationOpts{
			Title:            "Confirm approval update",
			Message:          fmt.Sprintf("Apply the approval policy to environment[%s/%s]?", target.ProjectKey, target.EnvironmentKey),
			IsConfirmDefault: true,
		}); err != nil {
			if errors.Is(err, cli.ErrorUserCancelled) {
				logrus.Infof("skipping environment[%s/%s] on user request", target.ProjectKey, target.EnvironmentKey)
			}
			return true
		}
		return false
	}
}

func printSummary(batch reconcile.BatchOutcome) {
	for _, targetError := range batch.Errors {
		logrus.Errorf("environment[%s/%s]: %s", targetError.ProjectKey, targetError.EnvironmentKey, targetError.Err)
	}
	message := fmt.Sprintf(
		"Run %s finished\n\nUpdated      : %v\nSkipped      : %v\nUnverifiable : %v\nErrored      : %v",
		batch.RunId,
		batch.Updated,
		batch.Skipped,
		batch.Unverifiable,
		batch.Errored,
	)
	if batch.Errored > 0 {
		cli.PrintBoxedWarningMessage(message)
		return
	}
	cli.PrintBoxedSuccessMessage(message)
}
