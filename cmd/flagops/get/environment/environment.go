package environment

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
		Usage:        "defines the key of the project the environment belongs to",
		Type:         cli.FlagTypeString,
	},
	{
		Name:         "environment",
		Short:        'e',
		DefaultValue: "",
		Usage:        "defines the key of the environment to retrieve",
		Type:         cli.FlagTypeString,
	},
}

func init() {
	flags.AddToCommand(Command)
}

var Command = &cobra.Command{
	Use:     "environment",
	Aliases: []string{"env", "e"},
	Short:   "Shows one environment including its approval settings",
	PreRun: func(cmd *cobra.Command, args []string) {
		flags.BindViper(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		projectKey := viper.GetString("project")
		environmentKey := viper.GetString("environment")
		if projectKey == "" || environmentKey == "" {
			return fmt.Errorf("both a project key and an environment key are required (use --project and --environment): %w", cli.ErrorInvalidInput)
		}

		serviceLogs := make(chan common.ServiceLog, 64)
		common.StartServiceLogLoop(serviceLogs)

		client, err := launchdarkly.NewClient(launchdarkly.NewClientOpts{
			ApiUrl:          viper.GetString("api-url"),
			ApiToken:        viper.GetString("api-token"),
			Id:              "flagops/get/environment",
			RequestInterval: viper.GetDuration("request-interval"),
			ServiceLogs:     serviceLogs,
		})
		if err != nil {
			return fmt.Errorf("failed to create client: %w", err)
		}

		environment, err := client.GetEnvironment(projectKey, environmentKey)
		if err != nil {
			return fmt.Errorf("failed to get environment[%s/%s]: %w", projectKey, environmentKey, err)
		}

		outputFormat := viper.GetString("output")
		switch outputFormat {
		case "json":
			o, _ := json.MarshalIndent(environment, "", "  ")
			fmt.Println(string(o))
		case "text":
			fallthrough
		default:
			fmt.Printf("environment[%s/%s]\n", projectKey, environment.Key)
			fmt.Printf("  name           : %s\n", environment.Name)
			fmt.Printf("  color          : %s\n", environment.Color)
			fmt.Printf("  tags           : %v\n", environment.Tags)
			fmt.Printf("  secure mode    : %v\n", environment.SecureMode)
			fmt.Printf("  track events   : %v\n", environment.DefaultTrackEvents)
			fmt.Printf("  comments       : %v\n", environment.RequireComments)
			fmt.Printf("  confirmations  : %v\n", environment.ConfirmChanges)
			if environment.ApprovalSettings == nil {
				fmt.Println("  approvals      : never configured")
				return nil
			}
			settings := environment.ApprovalSettings
			fmt.Printf("  approvals      : required[%v] serviceKind[%s] minApprovals[%v]\n", settings.Required, settings.ServiceKind, settings.MinNumApprovals)
			fmt.Printf("                   selfReview[%v] applyIfDeclined[%v] autoApply[%v] bypassPending[%v]\n", settings.CanReviewOwnRequest, settings.CanApplyDeclinedChanges, settings.AutoApplyApprovedChanges, settings.BypassApprovalsForPendingChanges)
			fmt.Printf("                   tags[%v]\n", settings.RequiredApprovalTags)
			if segment, ok := environment.Approvals().SegmentSettings(); ok {
				fmt.Printf("  segments       : required[%v] minApprovals[%v] tags[%v]\n", segment.Required, segment.MinNumApprovals, segment.RequiredApprovalTags)
			}
		}

		return nil
	},
}
