package setup

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"flagops/internal/approvals"
	"flagops/internal/cli"
	"flagops/internal/common"
	"flagops/internal/config"
	"flagops/internal/projects"
	"flagops/internal/reconcile"
	"flagops/pkg/launchdarkly"

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
		Name:         "file",
		Short:        'f',
		DefaultValue: "",
		Usage:        "defines the path to the YAML project definition to provision from",
		Type:         cli.FlagTypeString,
	},
}

func init() {
	flags.AddToCommand(Command)
}

var Command = &cobra.Command{
	Use:     "setup",
	Aliases: []string{"provision", "s"},
	Short:   "Provisions a project and its environments from a definition file",
	PreRun: func(cmd *cobra.Command, args []string) {
		flags.BindViper(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		definitionPath := viper.GetString("file")
		if definitionPath == "" {
			return fmt.Errorf("a project definition file is required (use --file): %w", cli.ErrorInvalidInput)
		}
		definition, err := projects.LoadDefinitionFromFile(definitionPath)
		if err != nil {
			return err
		}

		serviceLogs := make(chan common.ServiceLog, 64)
		common.StartServiceLogLoop(serviceLogs)

		client, err := launchdarkly.NewClient(launchdarkly.NewClientOpts{
			ApiUrl:          viper.GetString("api-url"),
			ApiToken:        viper.GetString("api-token"),
			Id:              "flagops/setup",
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

		result, err := projects.Setup(ctx, projects.SetupOpts{
			Client:     client,
			Definition: definition,
			Reconciler: reconcile.NewReconciler(reconcile.NewReconcilerOpts{
				Client:      client,
				SettleDelay: viper.GetDuration("settle-delay"),
				ServiceLogs: serviceLogs,
			}),
			ValidateOpts: approvals.ValidateOpts{
				ServiceNowTemplateId: serviceNowTemplateId,
			},
			ServiceLogs: serviceLogs,
		})
		if err != nil {
			return fmt.Errorf("failed to provision project[%s]: %w", definition.Project.Key, err)
		}

		for _, targetError := range result.Approvals.Errors {
			logrus.Errorf("environment[%s/%s]: %s", targetError.ProjectKey, targetError.EnvironmentKey, targetError.Err)
		}
		projectAction := "reused"
		if result.ProjectCreated {
			projectAction = "created"
		}
		message := fmt.Sprintf(
			"Project %s %s\n\nEnvironments created : %v\nEnvironments updated : %v\nTest env removed     : %v\nApprovals            : %s",
			definition.Project.Key,
			projectAction,
			len(result.EnvironmentsCreated),
			len(result.EnvironmentsUpdated),
			result.TestEnvironmentRemoved,
			result.Approvals.Summary(),
		)
		if result.Approvals.Errored > 0 {
			cli.PrintBoxedWarningMessage(message)
			return nil
		}
		cli.PrintBoxedSuccessMessage(message)
		return nil
	},
}
