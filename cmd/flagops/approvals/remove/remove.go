package remove

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"flagops/internal/approvals"
	"flagops/internal/cli"
	"flagops/internal/common"
	"flagops/internal/reconcile"
	"flagops/internal/targeting"
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
		Name:         "projects",
		Short:        'p',
		DefaultValue: []string{},
		Usage:        "defines the keys of the projects to target",
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
		Name:         "skip-confirmation",
		DefaultValue: false,
		Usage:        "skips the confirmation shown before approvals are switched off",
		Type:         cli.FlagTypeBool,
	},
}

func init() {
	flags.AddToCommand(Command)
}

var Command = &cobra.Command{
	Use:     "remove",
	Aliases: []string{"disable", "rm"},
	Short:   "Switches change approvals off across projects and environments",
	PreRun: func(cmd *cobra.Command, args []string) {
		flags.BindViper(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		projectKeys := viper.GetStringSlice("projects")
		if len(projectKeys) == 0 {
			return fmt.Errorf("at least one project key is required (use --projects): %w", cli.ErrorInvalidInput)
		}

		serviceLogs := make(chan common.ServiceLog, 64)
		common.StartServiceLogLoop(serviceLogs)

		client, err := launchdarkly.NewClient(launchdarkly.NewClientOpts{
			ApiUrl:          viper.GetString("api-url"),
			ApiToken:        viper.GetString("api-token"),
			Id:              "flagops/approvals/remove",
			RequestInterval: viper.GetDuration("request-interval"),
			ServiceLogs:     serviceLogs,
		})
		if err != nil {
			return fmt.Errorf("failed to create client: %w", err)
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

		if !viper.GetBool("skip-confirmation") {
			if err := cli.ShowWarningWithConfirmation(
				fmt.Sprintf("This switches change approvals off for %v environment(s), changes will no longer require review before they apply.", len(targets)),
				false,
			); err != nil {
				if errors.Is(err, cli.ErrorUserCancelled) {
					fmt.Println("💬 Alright, no approvals were touched")
					return nil
				}
				return err
			}
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

		batch := orchestrator.Run(ctx, reconcile.RunOpts{
			Targets: targets,
			PolicyFor: func(target reconcile.Target) (approvals.Policy, error) {
				return approvals.Disabled(), nil
			},
		})

		for _, targetError := range batch.Errors {
			logrus.Errorf("environment[%s/%s]: %s", targetError.ProjectKey, targetError.EnvironmentKey, targetError.Err)
		}
		message := fmt.Sprintf(
			"Run %s finished\n\nDisabled     : %v\nSkipped      : %v\nUnverifiable : %v\nErrored      : %v",
			batch.RunId,
			batch.Updated,
			batch.Skipped,
			batch.Unverifiable,
			batch.Errored,
		)
		if batch.Errored > 0 {
			cli.PrintBoxedWarningMessage(message)
			return nil
		}
		cli.PrintBoxedSuccessMessage(message)
		return nil
	},
}
