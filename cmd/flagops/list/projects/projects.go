package projects

import (
	"encoding/json"
	"fmt"
	"time"

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
}

func init() {
	flags.AddToCommand(Command)
}

var Command = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"project", "p"},
	Short:   "Lists all projects on the feature flag platform",
	PreRun: func(cmd *cobra.Command, args []string) {
		flags.BindViper(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		serviceLogs := make(chan common.ServiceLog, 64)
		common.StartServiceLogLoop(serviceLogs)

		client, err := launchdarkly.NewClient(launchdarkly.NewClientOpts{
			ApiUrl:          viper.GetString("api-url"),
			ApiToken:        viper.GetString("api-token"),
			Id:              "flagops/list/projects",
			RequestInterval: viper.GetDuration("request-interval"),
			ServiceLogs:     serviceLogs,
		})
		if err != nil {
			return fmt.Errorf("failed to create client: %w", err)
		}

		projects, err := client.ListProjects()
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}

		outputFormat := viper.GetString("output")
		switch outputFormat {
		case "json":
			o, _ := json.MarshalIndent(projects, "", "  ")
			fmt.Println(string(o))
		case "text":
			fallthrough
		default:
			table := cli.NewTable(cli.NewTableOpts{
				Headers: []string{"key", "name", "tags"},
				Rows: func(table *cli.Table) error {
					for _, project := range projects {
						table.NewRow(project.Key, project.Name, project.Tags)
					}
					return nil
				},
			})
			fmt.Println(table.Render().GetString())
			fmt.Printf("found %v project(s) as of %s\n", len(projects), time.Now().Format(time.RFC1123))
		}

		return nil
	},
}
