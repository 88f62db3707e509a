package remove

import (
	"flagops/cmd/flagops/remove/environment"

	"github.com/spf13/cobra"
)

func init() {
	Command.AddCommand(environment.Command)
}

var Command = &cobra.Command{
	Use:     "remove",
	Aliases: []string{"delete", "rm"},
	Short:   "Removes resources from the feature flag platform",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}
