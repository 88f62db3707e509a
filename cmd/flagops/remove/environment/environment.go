package environment

import (
	"errors"
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
		Usage:        "defines the key of the project the environment belongs to",
		Type:         cli.FlagTypeString,
	},
	{
		Name:         "environment",
		Short:        'e',
		DefaultValue: "",
		Usage:        "defines the key of the environment to delete",
		Type:         cli.FlagTypeString,
	},
	{
		Name:         "skip-confirmation",
		DefaultValue: false,
		Usage:        "skips the confirmation shown before the environment is deleted",
		Type:         cli.FlagTypeBool,
	},
}

func init() {
	flags.AddToCommand(Command)
}

var Command = &cobra.Command{
	Use:     "environment",
	Aliases: []string{"env", "e"},
	Short:   "Deletes one environment from a project",
	PreRun: func(cmd *cobra.Command, args []string) {
		flags.BindViper(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		projectKey := viper.GetString("project")
		environmentKey := viper.GetString("environment")
		if projectKey == "" || environmentKey == "" {
			return fmt.Errorf("both a project key and an environment key are required (use --project and --environment): %w", cli.ErrorInvalidInput)
		}

		if !viper.GetBool("skip-confirmation") {
			if err := cli.ShowWarningWithConfirmation(
				fmt.Sprintf("This permanently deletes environment[%s/%s] together with its flags' state, this cannot be undone.", projectKey, environmentKey),
				false,
			); err != nil {
				if errors.Is(err, cli.ErrorUserCancelled) {
					fmt.Println("💬 Alright, nothing was deleted")
					return nil
				}
				return err
			}
		}

		serviceLogs := make(chan common.ServiceLog, 64)
		common.StartServiceLogLoop(serviceLogs)

		client, err := launchdarkly.NewClient(launchdarkly.NewClientOpts{
			ApiUrl:          viper.GetString("api-url"),
			ApiToken:        viper.GetString("api-token"),
			Id:              "flagops/remove/environment",
			RequestInterval: viper.GetDuration("request-interval"),
			ServiceLogs:     serviceLogs,
		})
		if err != nil {
			return fmt.Errorf("failed to create client: %w", err)
		}

		if err := client.DeleteEnvironment(projectKey, environmentKey); err != nil {
			if errors.Is(err, launchdarkly.ErrorNotFound) {
				fmt.Printf("⚠️  Environment[%s/%s] does not exist, nothing to do\n", projectKey, environmentKey)
				return nil
			}
			return fmt.Errorf("failed to delete environment[%s/%s]: %w", projectKey, environmentKey, err)
		}
		cli.PrintBoxedSuccessMessage(fmt.Sprintf("Environment %s/%s was deleted", projectKey, environmentKey))
		return nil
	},
}
