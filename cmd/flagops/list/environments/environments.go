package environments

import (
	"encoding/json"
	"fmt"

	"flagops/internal/cli"
	"flagops/internal/common"
	"flagops/pkg/launchdarkly"

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
		Name:         "project",
		Short:        'p',
		DefaultValue: "",
		Usage:        "defines the key of the project whose environments should be listed",
		Type:         cli.FlagTypeString,
	},
}

func init() {
	flags.AddToCommand(Command)
}

var Command = &cobra.Command{
	Use:     "environments",
	Aliases: []string{"environment", "envs", "env", "e"},
	Short:   "Lists the environments of a project",
	PreRun: func(cmd *cobra.Command, args []string) {
		flags.BindViper(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		projectKey := viper.GetString("project")
		if projectKey == "" {
			return fmt.Errorf("a project key is required (use --project): %w", cli.ErrorInvalidInput)
		}

		serviceLogs := make(chan common.ServiceLog, 64)
		common.StartServiceLogLoop(serviceLogs)

		client, err := launchdarkly.NewClient(launchdarkly.NewClientOpts{
			ApiUrl:          viper.GetString("api-url"),
			ApiToken:        viper.GetString("api-token"),
			Id:              "flagops/list/environments",
			RequestInterval: viper.GetDuration("request-interval"),
			ServiceLogs:     serviceLogs,
		})
		if err != nil {
			return fmt.Errorf("failed to create client: %w", err)
		}

		environments, err := client.ListEnvironments(projectKey)
		if err != nil {
			return fmt.Errorf("failed to list environments of project[%s]: %w", projectKey, err)
		}

		outputFormat := viper.GetString("output")
		switch outputFormat {
		case "json":
			o, _ := json.MarshalIndent(environments, "", "  ")
			fmt.Println(string(o))
		case "text":
			fallthrough
		default:
			table := cli.NewTable(cli.NewTableOpts{
				Headers: []string{"key", "name", "approvals", "service kind", "tags"},
				Rows: func(table *cli.Table) error {
					for _, environment := range environments {
						approvalsRequired := false
						serviceKind := "-"
						if environment.ApprovalSettings != nil {
							approvalsRequired = environment.ApprovalSettings.Required
							serviceKind = environment.ApprovalSettings.ServiceKind
						}
						table.NewRow(environment.Key, environment.Name, approvalsRequired, serviceKind, environment.Tags)
					}
					return nil
				},
			})
			fmt.Println(table.Render().GetString())
		}

		return nil
	},
}
